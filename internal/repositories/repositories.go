package repositories

import (
	"context"

	"github.com/artconnect/artconnect/internal/models"
)

// UserRepository defines the data access contract for accounts.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	SearchArtisans(ctx context.Context, query string, limit int) ([]models.User, error)
}

// PostRepository exposes data access for posts, likes and comments.
type PostRepository interface {
	Create(ctx context.Context, post models.Post) error
	ListFeed(ctx context.Context, page, perPage int) ([]models.Post, error)
	ListByUser(ctx context.Context, userID string) ([]models.Post, error)
	ToggleLike(ctx context.Context, userID, postID string) (models.LikeState, error)
	CreateComment(ctx context.Context, comment models.Comment) error
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
	MarkImageReady(ctx context.Context, postID, location string) error
	MarkImageFailed(ctx context.Context, postID string) error
}

// FollowRepository exposes data access for follow relationships.
type FollowRepository interface {
	Toggle(ctx context.Context, followerID, followedID string) (models.FollowState, error)
	FollowerCount(ctx context.Context, userID string) (int, error)
}

// MarketRepository exposes data access for products, carts and wishlists.
type MarketRepository interface {
	CreateProduct(ctx context.Context, product models.Product) error
	FindProduct(ctx context.Context, id string) (models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	ListProductsByUser(ctx context.Context, userID string) ([]models.Product, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error)
	AddToCart(ctx context.Context, userID, productID string) (int, error)
	ListCart(ctx context.Context, userID string) ([]models.CartItem, error)
	AddToWishlist(ctx context.Context, userID, productID string) error
}
