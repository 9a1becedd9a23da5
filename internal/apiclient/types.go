package apiclient

import "time"

// LikeResult is the server's view of a post's likes after a toggle.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// FollowResult is the server's view of a follow relationship after a toggle.
type FollowResult struct {
	Following     bool `json:"following"`
	FollowerCount int  `json:"follower_count"`
}

// Comment is a created or listed post comment.
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// PostDraft is the payload for a new post.
type PostDraft struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
	Hashtags string `json:"hashtags"`
	Story    string `json:"story"`
}

// CreatedPost acknowledges a published post.
type CreatedPost struct {
	Message string `json:"message"`
	PostID  string `json:"post_id"`
}

// Product is a marketplace listing.
type Product struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Artisan  string  `json:"artisan"`
}

// CartItem is one line of a buyer's cart.
type CartItem struct {
	ID       string  `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Subtotal float64 `json:"subtotal"`
}

// Cart is a buyer's cart with its total.
type Cart struct {
	Items []CartItem `json:"items"`
	Total float64    `json:"total"`
}
