package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artconnect/artconnect/internal/models"
	"github.com/artconnect/artconnect/internal/repositories"
)

const (
	productPageSize = 12
	searchLimit     = 10
)

// MarketHandler implements the marketplace, cart, wishlist and search endpoints.
type MarketHandler struct {
	Users   UserStore
	Market  MarketStore
	NowFunc func() time.Time
}

// CreateProduct handles POST /api/products.
func (h MarketHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := currentUser(w, r, h.Users)
	if !ok {
		return
	}
	if !user.IsArtisan() {
		respondError(ctx, w, http.StatusForbidden, "Only artisans can create products")
		return
	}

	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	imageURL := strings.TrimSpace(req.ImageURL)
	if title == "" || description == "" || imageURL == "" || len(req.Price) == 0 || string(req.Price) == "null" {
		respondError(ctx, w, http.StatusBadRequest, "All fields are required")
		return
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Invalid price format")
		return
	}
	if price <= 0 {
		respondError(ctx, w, http.StatusBadRequest, "Price must be positive")
		return
	}

	if h.Market == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Marketplace unavailable")
		return
	}

	product := models.Product{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Artisan:     user.Username,
		Title:       title,
		Description: description,
		Price:       price,
		ImageURL:    imageURL,
		Category:    strings.TrimSpace(req.Category),
		CreatedAt:   h.now(),
	}
	if err := h.Market.CreateProduct(ctx, product); err != nil {
		respondStoreError(ctx, w, err, "Account not found")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, productResponse{Success: true, Product: toProductView(product)})
}

// ListProducts handles GET /api/products?category=&search=&page=.
func (h MarketHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Market == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Marketplace unavailable")
		return
	}

	query := r.URL.Query()
	filter := models.ProductFilter{
		Category: strings.TrimSpace(query.Get("category")),
		Search:   strings.TrimSpace(query.Get("search")),
		Page:     pageParam(r),
		PerPage:  productPageSize,
	}

	products, err := h.Market.ListProducts(ctx, filter)
	if err != nil {
		respondStoreError(ctx, w, err, "Products not found")
		return
	}

	respondJSON(ctx, w, http.StatusOK, productsResponse{
		Success:  true,
		Page:     filter.Page,
		Category: filter.Category,
		Search:   filter.Search,
		Products: toProductViews(products),
	})
}

// AddToCart handles POST /api/cart/add/{id}.
func (h MarketHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, product, ok := h.buyerAndProduct(w, r, "cart")
	if !ok {
		return
	}

	count, err := h.Market.AddToCart(ctx, user.ID, product.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "Product not found")
		return
	}

	respondJSON(ctx, w, http.StatusOK, cartAddResponse{Success: true, Message: "Product added to cart", CartCount: count})
}

// AddToWishlist handles POST /api/wishlist/add/{id}.
func (h MarketHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, product, ok := h.buyerAndProduct(w, r, "wishlist")
	if !ok {
		return
	}

	if err := h.Market.AddToWishlist(ctx, user.ID, product.ID); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusBadRequest, "Product already in wishlist")
			return
		}
		respondStoreError(ctx, w, err, "Product not found")
		return
	}

	respondJSON(ctx, w, http.StatusOK, messageResponse{Success: true, Message: "Product added to wishlist"})
}

// Cart handles GET /api/cart.
func (h MarketHandler) Cart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := currentUser(w, r, h.Users)
	if !ok {
		return
	}
	if !user.IsBuyer() {
		respondError(ctx, w, http.StatusForbidden, "Only buyers have a cart")
		return
	}
	if h.Market == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Marketplace unavailable")
		return
	}

	items, err := h.Market.ListCart(ctx, user.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "Cart not found")
		return
	}

	resp := cartResponse{Success: true, Items: make([]cartItemView, 0, len(items))}
	for _, item := range items {
		subtotal := item.Product.Price * float64(item.Quantity)
		resp.Total += subtotal
		resp.Items = append(resp.Items, cartItemView{
			ID:       item.ID,
			Product:  toProductView(item.Product),
			Quantity: item.Quantity,
			Subtotal: subtotal,
		})
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

// Search handles GET /api/search?q=&type=all|artisans|products.
func (h MarketHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = "all"
	}

	resp := searchResponse{Success: true, Artisans: []artisanView{}, Products: []productView{}}
	if query == "" {
		respondJSON(ctx, w, http.StatusOK, resp)
		return
	}

	if (kind == "all" || kind == "artisans") && h.Users != nil {
		artisans, err := h.Users.SearchArtisans(ctx, query, searchLimit)
		if err != nil {
			respondStoreError(ctx, w, err, "No artisans found")
			return
		}
		for _, u := range artisans {
			resp.Artisans = append(resp.Artisans, artisanView{
				ID:           u.ID,
				Username:     u.Username,
				CraftType:    u.CraftType,
				Region:       u.Region,
				ProfileImage: u.ProfileImage,
			})
		}
	}

	if (kind == "all" || kind == "products") && h.Market != nil {
		products, err := h.Market.SearchProducts(ctx, query, searchLimit)
		if err != nil {
			respondStoreError(ctx, w, err, "No products found")
			return
		}
		resp.Products = toProductViews(products)
	}

	respondJSON(ctx, w, http.StatusOK, resp)
}

// buyerAndProduct checks the buyer-only rules shared by cart and wishlist additions.
func (h MarketHandler) buyerAndProduct(w http.ResponseWriter, r *http.Request, target string) (models.User, models.Product, bool) {
	ctx := r.Context()

	user, ok := currentUser(w, r, h.Users)
	if !ok {
		return models.User{}, models.Product{}, false
	}
	if !user.IsBuyer() {
		respondError(ctx, w, http.StatusForbidden, "Only buyers can add items to "+target)
		return models.User{}, models.Product{}, false
	}
	if h.Market == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Marketplace unavailable")
		return models.User{}, models.Product{}, false
	}

	product, err := h.Market.FindProduct(ctx, r.PathValue("id"))
	if err != nil {
		respondStoreError(ctx, w, err, "Product not found")
		return models.User{}, models.Product{}, false
	}
	if product.UserID == user.ID {
		respondError(ctx, w, http.StatusBadRequest, "Cannot add your own product to "+target)
		return models.User{}, models.Product{}, false
	}
	return user, product, true
}

func (h MarketHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

// parsePrice accepts a JSON number or a numeric string. NaN and infinities are
// rejected since they cannot be encoded back to JSON.
func parsePrice(raw json.RawMessage) (float64, error) {
	var price float64
	if err := json.Unmarshal(raw, &price); err == nil {
		return price, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, err
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("price %q is not a finite number", text)
	}
	return price, nil
}

type createProductRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       json.RawMessage `json:"price"`
	ImageURL    string          `json:"image_url"`
	Category    string          `json:"category"`
}

type productView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"image_url,omitempty"`
	Category    string    `json:"category,omitempty"`
	Artisan     string    `json:"artisan,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toProductView(p models.Product) productView {
	return productView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		Artisan:     p.Artisan,
		CreatedAt:   p.CreatedAt,
	}
}

func toProductViews(products []models.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, toProductView(p))
	}
	return out
}

type productResponse struct {
	Success bool        `json:"success"`
	Product productView `json:"product"`
}

type productsResponse struct {
	Success  bool          `json:"success"`
	Page     int           `json:"page"`
	Category string        `json:"category"`
	Search   string        `json:"search"`
	Products []productView `json:"products"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type cartAddResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	CartCount int    `json:"cart_count"`
}

type cartItemView struct {
	ID       string      `json:"id"`
	Product  productView `json:"product"`
	Quantity int         `json:"quantity"`
	Subtotal float64     `json:"subtotal"`
}

type cartResponse struct {
	Success bool           `json:"success"`
	Items   []cartItemView `json:"items"`
	Total   float64        `json:"total"`
}

type artisanView struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	CraftType    string `json:"craft_type"`
	Region       string `json:"region"`
	ProfileImage string `json:"profile_image"`
}

type searchResponse struct {
	Success  bool          `json:"success"`
	Artisans []artisanView `json:"artisans"`
	Products []productView `json:"products"`
}
