package handlers

import (
	"context"
	"io"

	"github.com/artconnect/artconnect/internal/captions"
	"github.com/artconnect/artconnect/internal/models"
)

// UserStore captures the account operations required by the handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	SearchArtisans(ctx context.Context, query string, limit int) ([]models.User, error)
}

// SessionManager issues, refreshes, validates and revokes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Authenticate(ctx context.Context, accessToken string) (string, error)
	Revoke(ctx context.Context, accessToken string) error
}

// PostStore captures persistence for posts, likes and comments.
type PostStore interface {
	Create(ctx context.Context, post models.Post) error
	ListFeed(ctx context.Context, page, perPage int) ([]models.Post, error)
	ListByUser(ctx context.Context, userID string) ([]models.Post, error)
	ToggleLike(ctx context.Context, userID, postID string) (models.LikeState, error)
	CreateComment(ctx context.Context, comment models.Comment) error
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
}

// FollowStore captures persistence for follow relationships.
type FollowStore interface {
	Toggle(ctx context.Context, followerID, followedID string) (models.FollowState, error)
	FollowerCount(ctx context.Context, userID string) (int, error)
}

// MarketStore captures persistence for products, carts and wishlists.
type MarketStore interface {
	CreateProduct(ctx context.Context, product models.Product) error
	FindProduct(ctx context.Context, id string) (models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	ListProductsByUser(ctx context.Context, userID string) ([]models.Product, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error)
	AddToCart(ctx context.Context, userID, productID string) (int, error)
	ListCart(ctx context.Context, userID string) ([]models.CartItem, error)
	AddToWishlist(ctx context.Context, userID, productID string) error
}

// CaptionWriter produces AI generated copy.
type CaptionWriter = captions.Writer

// ImageStore persists uploaded images.
type ImageStore interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// ImageMirror schedules background copies of remotely hosted post images.
type ImageMirror interface {
	Enqueue(ctx context.Context, postID, imageURL string) error
}
