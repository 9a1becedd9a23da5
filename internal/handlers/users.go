package handlers

import (
	"net/http"
	"strings"

	"github.com/artconnect/artconnect/internal/models"
)

// ProfileHandler serves public artisan and buyer profiles.
type ProfileHandler struct {
	Users   UserStore
	Posts   PostStore
	Follows FollowStore
	Market  MarketStore
}

// Show handles GET /api/users/{username}: the account with its posts and
// products, newest first.
func (h ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" || h.Users == nil {
		respondError(ctx, w, http.StatusNotFound, "User not found")
		return
	}

	user, err := h.Users.FindByUsername(ctx, username)
	if err != nil {
		respondStoreError(ctx, w, err, "User not found")
		return
	}

	resp := profileResponse{
		Success:  true,
		User:     toProfileView(user),
		Posts:    []postView{},
		Products: []productView{},
	}

	if h.Follows != nil {
		count, err := h.Follows.FollowerCount(ctx, user.ID)
		if err != nil {
			respondStoreError(ctx, w, err, "User not found")
			return
		}
		resp.User.FollowerCount = count
	}

	if h.Posts != nil {
		posts, err := h.Posts.ListByUser(ctx, user.ID)
		if err != nil {
			respondStoreError(ctx, w, err, "User not found")
			return
		}
		for _, p := range posts {
			resp.Posts = append(resp.Posts, toPostView(p))
		}
	}

	if h.Market != nil {
		products, err := h.Market.ListProductsByUser(ctx, user.ID)
		if err != nil {
			respondStoreError(ctx, w, err, "User not found")
			return
		}
		resp.Products = toProductViews(products)
	}

	respondJSON(ctx, w, http.StatusOK, resp)
}

type profileView struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Role          string `json:"role"`
	Bio           string `json:"bio"`
	Region        string `json:"region"`
	CraftType     string `json:"craft_type"`
	ProfileImage  string `json:"profile_image"`
	FollowerCount int    `json:"follower_count"`
}

func toProfileView(u models.User) profileView {
	return profileView{
		ID:           u.ID,
		Username:     u.Username,
		Role:         u.Role,
		Bio:          u.Bio,
		Region:       u.Region,
		CraftType:    u.CraftType,
		ProfileImage: u.ProfileImage,
	}
}

type profileResponse struct {
	Success  bool          `json:"success"`
	User     profileView   `json:"user"`
	Posts    []postView    `json:"posts"`
	Products []productView `json:"products"`
}
