package models

import "time"

// Account roles recognised by ArtConnect.
const (
	RoleArtisan = "artisan"
	RoleBuyer   = "buyer"
)

// User represents an ArtConnect account. Artisans publish posts and products,
// buyers follow artisans and shop the marketplace.
type User struct {
	ID           string
	Username     string
	Email        string
	Password     string
	Role         string
	Bio          string
	Region       string
	CraftType    string
	ProfileImage string
	CreatedAt    time.Time
}

// IsArtisan reports whether the user may publish content.
func (u User) IsArtisan() bool { return u.Role == RoleArtisan }

// IsBuyer reports whether the user may follow artisans and shop.
func (u User) IsBuyer() bool { return u.Role == RoleBuyer }

// Post is an artisan's showcase entry in the social feed.
type Post struct {
	ID           string
	UserID       string
	Username     string
	ImageURL     string
	ImageStatus  string
	Caption      string
	Hashtags     string
	Story        string
	CreatedAt    time.Time
	LikeCount    int
	CommentCount int
}

const (
	ImageStatusPending  = "pending"
	ImageStatusReady    = "ready"
	ImageStatusExternal = "external"
	ImageStatusFailed   = "failed"
)

// Comment is a reply left on a post.
type Comment struct {
	ID        string
	PostID    string
	UserID    string
	Username  string
	Content   string
	CreatedAt time.Time
}

// Product is a marketplace listing owned by an artisan.
type Product struct {
	ID          string
	UserID      string
	Artisan     string
	Title       string
	Description string
	Price       float64
	ImageURL    string
	Category    string
	CreatedAt   time.Time
}

// ProductFilter narrows a marketplace listing.
type ProductFilter struct {
	Category string
	Search   string
	Page     int
	PerPage  int
}

// CartItem is a product placed in a buyer's cart.
type CartItem struct {
	ID        string
	UserID    string
	Product   Product
	Quantity  int
	CreatedAt time.Time
}

// Caption is AI generated copy for a post.
type Caption struct {
	Caption  string `json:"caption"`
	Hashtags string `json:"hashtags"`
	Story    string `json:"story"`
}

// LikeState is the result of toggling a like.
type LikeState struct {
	Liked     bool
	LikeCount int
}

// FollowState is the result of toggling a follow.
type FollowState struct {
	Following     bool
	FollowerCount int
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
