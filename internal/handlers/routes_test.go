package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/artconnect/artconnect/internal/auth"
	"github.com/artconnect/artconnect/internal/models"
)

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

func newTestMux(t *testing.T, deps Dependencies) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	RegisterRoutes(mux, deps)
	return mux
}

func TestRegisterRoutesRequiresSession(t *testing.T) {
	manager := newManager()
	posts := newInMemoryPostStore(models.Post{ID: "post-1"})
	mux := newTestMux(t, Dependencies{Users: newInMemoryUserStore(testBuyer), Sessions: manager, Posts: posts})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts/post-1/like", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", rec.Code)
	}

	tokens, err := manager.Issue(context.Background(), testBuyer.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/posts/post-1/like", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer token, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeBody[likeResponse](t, rec); !resp.Liked {
		t.Fatalf("expected like to be recorded through the router, got %+v", resp)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts/post-1/like", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for wrong method, got %d", rec.Code)
	}
}

func TestRegisterRoutesLogoutAcceptsExpiredAccessToken(t *testing.T) {
	manager := auth.NewManager(-time.Minute, time.Hour, auth.NewInMemorySessionStore())
	mux := newTestMux(t, Dependencies{Users: newInMemoryUserStore(testBuyer), Sessions: manager})

	tokens, err := manager.Issue(context.Background(), testBuyer.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	logout := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	if rec := logout(); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for an expired access token, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected session to be revoked, got %v", err)
	}
	if rec := logout(); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 once revoked, got %d", rec.Code)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", rec.Code)
	}
}

func TestRegisterRoutesRateLimitsAuth(t *testing.T) {
	mux := newTestMux(t, Dependencies{Users: newInMemoryUserStore(), Sessions: newManager(), AuthLimiter: denyAllLimiter{}})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`)))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
	if resp := decodeBody[errorResponse](t, rec); resp.Success || resp.Error == "" {
		t.Fatalf("expected failure envelope, got %+v", resp)
	}
}

func TestRegisterRoutesHealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("# metrics"))
	})
	mux := newTestMux(t, Dependencies{Metrics: metrics})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected health 200 got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Body.String() != "# metrics" {
		t.Fatalf("expected metrics handler to be mounted, got %q", rec.Body.String())
	}
}
