package handlers

import (
	"net/http"

	"github.com/artconnect/artconnect/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users    UserStore
	Sessions SessionManager
	Posts    PostStore
	Follows  FollowStore
	Market   MarketStore
	Writer   CaptionWriter
	Images   ImageStore
	Mirror   ImageMirror
	Database Pinger

	AuthLimiter middleware.RateLimiter
	AILimiter   middleware.RateLimiter

	// Metrics serves the Prometheus exposition format when set.
	Metrics http.Handler
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Database: deps.Database}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions}
	posts := PostHandler{Users: deps.Users, Posts: deps.Posts, Images: deps.Images, Mirror: deps.Mirror}
	follows := FollowHandler{Users: deps.Users, Follows: deps.Follows}
	market := MarketHandler{Users: deps.Users, Market: deps.Market}
	profiles := ProfileHandler{Users: deps.Users, Posts: deps.Posts, Follows: deps.Follows, Market: deps.Market}
	ai := AIHandler{Users: deps.Users, Writer: deps.Writer}

	var authenticator middleware.Authenticator
	if deps.Sessions != nil {
		authenticator = deps.Sessions
	}
	session := middleware.RequireSession(authenticator)
	authLimit := middleware.Limit(deps.AuthLimiter, "auth")
	aiLimit := middleware.Limit(deps.AILimiter, "ai")

	protected := func(h http.HandlerFunc) http.Handler { return session(h) }
	generative := func(h http.HandlerFunc) http.Handler { return session(aiLimit(h)) }

	mux.HandleFunc("GET /healthz", health.Handle)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	mux.Handle("POST /api/auth/register", authLimit(http.HandlerFunc(auth.Register)))
	mux.Handle("POST /api/auth/login", authLimit(http.HandlerFunc(auth.Login)))
	mux.Handle("POST /api/auth/refresh", authLimit(http.HandlerFunc(auth.Refresh)))
	mux.Handle("POST /api/auth/logout", authLimit(http.HandlerFunc(auth.Logout)))

	mux.Handle("GET /api/posts", protected(posts.Feed))
	mux.Handle("POST /api/posts", protected(posts.Create))
	mux.Handle("POST /api/posts/{id}/like", protected(posts.ToggleLike))
	mux.Handle("GET /api/posts/{id}/comments", protected(posts.ListComments))
	mux.Handle("POST /api/posts/{id}/comments", protected(posts.AddComment))

	mux.Handle("POST /api/follow/{id}", protected(follows.Toggle))
	mux.Handle("GET /api/users/{username}", protected(profiles.Show))

	mux.Handle("GET /api/products", protected(market.ListProducts))
	mux.Handle("POST /api/products", protected(market.CreateProduct))
	mux.Handle("POST /api/cart/add/{id}", protected(market.AddToCart))
	mux.Handle("GET /api/cart", protected(market.Cart))
	mux.Handle("POST /api/wishlist/add/{id}", protected(market.AddToWishlist))
	mux.Handle("GET /api/search", protected(market.Search))

	mux.Handle("POST /api/ai/generate-caption", generative(ai.GenerateCaption))
	mux.Handle("POST /api/ai/generate-product-description", generative(ai.DescribeProduct))
	mux.Handle("POST /api/ai/analyze-image", generative(ai.AnalyzeImage))
}
