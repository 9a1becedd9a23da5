package handlers

import "net/http"

// FollowHandler implements the follow toggle endpoint.
type FollowHandler struct {
	Users   UserStore
	Follows FollowStore
}

// Toggle handles POST /api/follow/{id}. Only buyers may follow, and only artisans
// may be followed.
func (h FollowHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := currentUser(w, r, h.Users)
	if !ok {
		return
	}
	if !user.IsBuyer() {
		respondError(ctx, w, http.StatusForbidden, "Only buyers can follow artisans")
		return
	}

	targetID := r.PathValue("id")
	if targetID == user.ID {
		respondError(ctx, w, http.StatusBadRequest, "Cannot follow yourself")
		return
	}

	target, err := h.Users.FindByID(ctx, targetID)
	if err != nil {
		respondStoreError(ctx, w, err, "User not found")
		return
	}
	if !target.IsArtisan() {
		respondError(ctx, w, http.StatusBadRequest, "Can only follow artisans")
		return
	}

	if h.Follows == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Follow service unavailable")
		return
	}

	state, err := h.Follows.Toggle(ctx, user.ID, target.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "User not found")
		return
	}

	respondJSON(ctx, w, http.StatusOK, followResponse{
		Success:       true,
		Following:     state.Following,
		FollowerCount: state.FollowerCount,
	})
}

type followResponse struct {
	Success       bool `json:"success"`
	Following     bool `json:"following"`
	FollowerCount int  `json:"follower_count"`
}
