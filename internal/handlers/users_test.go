package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/artconnect/artconnect/internal/models"
)

func TestProfileHandlerShow(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	artisan := testArtisan
	artisan.Bio, artisan.Region = "Third generation weaver", "Oaxaca"

	posts := newInMemoryPostStore(
		models.Post{ID: "post-old", UserID: artisan.ID, Username: artisan.Username, Caption: "old", CreatedAt: created},
		models.Post{ID: "post-new", UserID: artisan.ID, Username: artisan.Username, Caption: "new", CreatedAt: created.Add(time.Hour)},
		models.Post{ID: "post-other", UserID: "someone-else", CreatedAt: created},
	)
	market := newInMemoryMarketStore(
		models.Product{ID: "prod-old", UserID: artisan.ID, Title: "Rug", Price: 80, CreatedAt: created},
		models.Product{ID: "prod-new", UserID: artisan.ID, Title: "Shawl", Price: 45, CreatedAt: created.Add(time.Hour)},
	)
	follows := &stubFollowStore{}
	if _, err := follows.Toggle(context.Background(), testBuyer.ID, artisan.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}

	handler := ProfileHandler{Users: newInMemoryUserStore(artisan, testBuyer), Posts: posts, Follows: follows, Market: market}

	show := func(username string) *httptest.ResponseRecorder {
		req := newAuthedRequest(t, http.MethodGet, "/api/users/"+username, testBuyer.ID, nil)
		req.SetPathValue("username", username)
		rec := httptest.NewRecorder()
		handler.Show(rec, req)
		return rec
	}

	rec := show(artisan.Username)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[profileResponse](t, rec)
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}
	want := profileView{
		ID:            artisan.ID,
		Username:      artisan.Username,
		Role:          models.RoleArtisan,
		Bio:           "Third generation weaver",
		Region:        "Oaxaca",
		CraftType:     "Textiles",
		FollowerCount: 1,
	}
	if resp.User != want {
		t.Fatalf("expected user %+v got %+v", want, resp.User)
	}
	if len(resp.Posts) != 2 || resp.Posts[0].ID != "post-new" || resp.Posts[1].ID != "post-old" {
		t.Fatalf("expected own posts newest first, got %+v", resp.Posts)
	}
	if len(resp.Products) != 2 || resp.Products[0].ID != "prod-new" || resp.Products[1].ID != "prod-old" {
		t.Fatalf("expected own products newest first, got %+v", resp.Products)
	}

	rec = show(testBuyer.Username)
	if resp := decodeBody[profileResponse](t, rec); len(resp.Posts) != 0 || len(resp.Products) != 0 || resp.User.Role != models.RoleBuyer {
		t.Fatalf("expected empty buyer profile, got %+v", resp)
	}

	rec = show("nobody")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
	if resp := decodeBody[errorResponse](t, rec); resp.Error != "User not found" {
		t.Fatalf("unexpected error %q", resp.Error)
	}
}

func TestProfileHandlerStoreFailure(t *testing.T) {
	posts := newInMemoryPostStore()
	posts.err = errors.New("connection reset")
	handler := ProfileHandler{Users: newInMemoryUserStore(testArtisan), Posts: posts}

	req := newAuthedRequest(t, http.MethodGet, "/api/users/"+testArtisan.Username, testArtisan.ID, nil)
	req.SetPathValue("username", testArtisan.Username)
	rec := httptest.NewRecorder()
	handler.Show(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 got %d", rec.Code)
	}
}

func TestRegisterRoutesProfileRequiresSession(t *testing.T) {
	manager := newManager()
	mux := newTestMux(t, Dependencies{
		Users:    newInMemoryUserStore(testArtisan, testBuyer),
		Sessions: manager,
		Posts:    newInMemoryPostStore(),
		Follows:  &stubFollowStore{},
		Market:   newInMemoryMarketStore(testProduct),
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/weaver", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", rec.Code)
	}

	tokens, err := manager.Issue(context.Background(), testBuyer.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/users/weaver", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeBody[profileResponse](t, rec); resp.User.Username != "weaver" || len(resp.Products) != 1 {
		t.Fatalf("unexpected profile %+v", resp)
	}
}
