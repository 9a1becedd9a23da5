package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/artconnect/artconnect/internal/logging"
)

func TestIPRateLimiterAllowsBurstThenRecovers(t *testing.T) {
	limiter := newIPRateLimiter(1, time.Second, 2, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("1.2.3.4") || !limiter.Allow("1.2.3.4") {
		t.Fatal("expected burst of two to be allowed")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatal("expected third request to be limited")
	}
	if !limiter.Allow("5.6.7.8") {
		t.Fatal("expected other key to have its own allowance")
	}

	now = now.Add(time.Second)
	if !limiter.Allow("1.2.3.4") {
		t.Fatal("expected allowance to recover after the window")
	}
}

func TestIPRateLimiterExpiresIdleVisitors(t *testing.T) {
	limiter := newIPRateLimiter(1, time.Second, 1, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }

	limiter.Allow("idle")
	now = now.Add(2 * time.Minute)
	limiter.Allow("fresh")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if _, ok := limiter.visitors["idle"]; ok {
		t.Fatal("expected idle visitor to be collected")
	}
}

type denyAll struct{ keys []string }

func (d *denyAll) Allow(key string) bool {
	d.keys = append(d.keys, key)
	return false
}

func TestLimitRejectsWithEnvelope(t *testing.T) {
	limiter := &denyAll{}
	handler := Limit(limiter, "ai")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/ai/generate-caption", nil)
	req = req.WithContext(logging.WithUserID(req.Context(), "user-9"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["success"] != false || body["error"] == "" {
		t.Fatalf("unexpected body: %v", body)
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "ai:user-9" {
		t.Fatalf("expected key scoped to user, got %v", limiter.keys)
	}
}

func TestRateLimitKeyFallsBackToClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := rateLimitKey(req, "auth"); got != "auth:10.0.0.1" {
		t.Fatalf("unexpected key %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := rateLimitKey(req, ""); got != "203.0.113.7" {
		t.Fatalf("unexpected forwarded key %q", got)
	}
}

type stubAuthenticator struct {
	userID string
	err    error
	token  string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (string, error) {
	s.token = token
	return s.userID, s.err
}

func TestRequireSession(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		auth       *stubAuthenticator
		wantStatus int
		wantUser   string
	}{
		{name: "missing header", header: "", auth: &stubAuthenticator{userID: "u1"}, wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", auth: &stubAuthenticator{userID: "u1"}, wantStatus: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer stale", auth: &stubAuthenticator{err: errors.New("expired")}, wantStatus: http.StatusUnauthorized},
		{name: "valid token", header: "bearer fresh", auth: &stubAuthenticator{userID: "u1"}, wantStatus: http.StatusOK, wantUser: "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			handler := RequireSession(tt.auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = logging.UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if gotUser != tt.wantUser {
				t.Fatalf("expected user %q, got %q", tt.wantUser, gotUser)
			}
			if tt.wantStatus == http.StatusOK && tt.auth.token != "fresh" {
				t.Fatalf("expected token to be passed through, got %q", tt.auth.token)
			}
		})
	}
}

func TestMetricsLabelsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/posts/{id}/like", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := metrics.Middleware(mux)

	for _, id := range []string{"1", "2"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/posts/"+id+"/like", nil))
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	if got := testutil.ToFloat64(metrics.requests.WithLabelValues("POST", "POST /api/posts/{id}/like", "404")); got != 2 {
		t.Fatalf("expected two requests for like route, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Fatalf("expected unmatched request to be counted, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.inFlight); got != 0 {
		t.Fatalf("expected no requests in flight, got %v", got)
	}
}

func TestRequestLoggerRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if logging.RequestIDFromContext(r.Context()) != "req-42" {
			t.Errorf("expected request id from header")
		}
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if rr.Header().Get(RequestIDHeader) != "req-42" {
		t.Fatalf("expected request id header to be echoed")
	}
	logs, _ := io.ReadAll(&buf)
	if !strings.Contains(string(logs), "panic recovered") || !strings.Contains(string(logs), `"status":500`) {
		t.Fatalf("expected panic and status to be logged, got %s", logs)
	}
}
