package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFollowHandlerToggle(t *testing.T) {
	follows := &stubFollowStore{}
	handler := FollowHandler{Users: newInMemoryUserStore(testArtisan, testBuyer), Follows: follows}

	toggle := func(userID, target string) *httptest.ResponseRecorder {
		req := newAuthedRequest(t, http.MethodPost, "/api/follow/"+target, userID, nil)
		req.SetPathValue("id", target)
		rec := httptest.NewRecorder()
		handler.Toggle(rec, req)
		return rec
	}

	rec := toggle(testBuyer.ID, testArtisan.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if resp := decodeBody[followResponse](t, rec); !resp.Following || resp.FollowerCount != 1 {
		t.Fatalf("expected follow, got %+v", resp)
	}
	if resp := decodeBody[followResponse](t, toggle(testBuyer.ID, testArtisan.ID)); resp.Following {
		t.Fatalf("expected second toggle to unfollow, got %+v", resp)
	}

	tests := []struct {
		name    string
		userID  string
		target  string
		status  int
		message string
	}{
		{"artisan cannot follow", testArtisan.ID, testBuyer.ID, http.StatusForbidden, "Only buyers can follow artisans"},
		{"self", testBuyer.ID, testBuyer.ID, http.StatusBadRequest, "Cannot follow yourself"},
		{"unknown target", testBuyer.ID, "nobody", http.StatusNotFound, "User not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := toggle(tt.userID, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("expected status %d got %d", tt.status, rec.Code)
			}
			if resp := decodeBody[errorResponse](t, rec); resp.Error != tt.message {
				t.Fatalf("expected error %q got %q", tt.message, resp.Error)
			}
		})
	}
}

func TestFollowHandlerOnlyArtisans(t *testing.T) {
	other := testBuyer
	other.ID, other.Username = "buyer-2", "browser"
	handler := FollowHandler{Users: newInMemoryUserStore(testBuyer, other), Follows: &stubFollowStore{}}

	req := newAuthedRequest(t, http.MethodPost, "/api/follow/buyer-2", testBuyer.ID, nil)
	req.SetPathValue("id", other.ID)
	rec := httptest.NewRecorder()
	handler.Toggle(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
	if resp := decodeBody[errorResponse](t, rec); resp.Error != "Can only follow artisans" {
		t.Fatalf("unexpected error %q", resp.Error)
	}
}
