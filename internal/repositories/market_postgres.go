package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/artconnect/artconnect/internal/db"
	"github.com/artconnect/artconnect/internal/models"
)

const productColumns = `p.id, p.user_id, u.username, p.title, p.description, p.price, p.image_url, p.category, p.created_at`

// PostgresMarketRepository provides PostgreSQL-backed persistence for the marketplace.
type PostgresMarketRepository struct {
	pool db.Pool
}

// NewPostgresMarketRepository constructs a marketplace repository backed by PostgreSQL.
func NewPostgresMarketRepository(pool db.Pool) *PostgresMarketRepository {
	return &PostgresMarketRepository{pool: pool}
}

// CreateProduct stores a new listing.
func (r *PostgresMarketRepository) CreateProduct(ctx context.Context, product models.Product) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO products (id, user_id, title, description, price, image_url, category, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, product.ID, product.UserID, product.Title, product.Description, product.Price, product.ImageURL, product.Category, product.CreatedAt)
	if err != nil {
		switch translate(err) {
		case ErrConflict:
			return ErrConflict
		case ErrNotFound:
			return ErrNotFound
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// FindProduct fetches a listing by identifier.
func (r *PostgresMarketRepository) FindProduct(ctx context.Context, id string) (models.Product, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Product{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+productColumns+`
        FROM products p
        JOIN users u ON u.id = p.user_id
        WHERE p.id = $1
    `, id)

	product, err := scanProduct(row)
	if err != nil {
		if translate(err) == ErrNotFound {
			return models.Product{}, ErrNotFound
		}
		return models.Product{}, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}

// ListProducts returns one page of listings, newest first, optionally filtered
// by category and a free text search over title and description.
func (r *PostgresMarketRepository) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 12
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+productColumns+`
        FROM products p
        JOIN users u ON u.id = p.user_id
        WHERE ($1 = '' OR p.category = $1)
          AND ($2 = '' OR p.title ILIKE '%' || $2 || '%' OR p.description ILIKE '%' || $2 || '%')
        ORDER BY p.created_at DESC
        LIMIT $3 OFFSET $4
    `, strings.TrimSpace(filter.Category), strings.TrimSpace(filter.Search), perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return collectProducts(rows)
}

// ListProductsByUser returns every listing by userID, newest first.
func (r *PostgresMarketRepository) ListProductsByUser(ctx context.Context, userID string) ([]models.Product, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+productColumns+`
        FROM products p
        JOIN users u ON u.id = p.user_id
        WHERE p.user_id = $1
        ORDER BY p.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query user products: %w", err)
	}
	return collectProducts(rows)
}

// SearchProducts matches listings by title, description or category.
func (r *PostgresMarketRepository) SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+productColumns+`
        FROM products p
        JOIN users u ON u.id = p.user_id
        WHERE p.title ILIKE '%' || $1 || '%'
           OR p.description ILIKE '%' || $1 || '%'
           OR p.category ILIKE '%' || $1 || '%'
        ORDER BY p.created_at DESC
        LIMIT $2
    `, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return collectProducts(rows)
}

// AddToCart adds one unit of a product to the buyer's cart and returns the
// number of distinct products in the cart.
func (r *PostgresMarketRepository) AddToCart(ctx context.Context, userID, productID string) (int, error) {
	var count int

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
            INSERT INTO cart_items (id, user_id, product_id, quantity, created_at)
            VALUES ($1, $2, $3, 1, NOW())
            ON CONFLICT (user_id, product_id)
            DO UPDATE SET quantity = cart_items.quantity + 1
        `, uuid.NewString(), userID, productID); err != nil {
			if translate(err) == ErrNotFound {
				return ErrNotFound
			}
			return fmt.Errorf("upsert cart item: %w", err)
		}

		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM cart_items WHERE user_id = $1`, userID).Scan(&count); err != nil {
			return fmt.Errorf("count cart items: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// ListCart returns the buyer's cart with product details.
func (r *PostgresMarketRepository) ListCart(ctx context.Context, userID string) ([]models.CartItem, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT c.id, c.user_id, c.quantity, c.created_at, `+productColumns+`
        FROM cart_items c
        JOIN products p ON p.id = c.product_id
        JOIN users u ON u.id = p.user_id
        WHERE c.user_id = $1
        ORDER BY c.created_at ASC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var (
			item models.CartItem
			p    = &item.Product
		)
		if err := rows.Scan(&item.ID, &item.UserID, &item.Quantity, &item.CreatedAt,
			&p.ID, &p.UserID, &p.Artisan, &p.Title, &p.Description, &p.Price, &p.ImageURL, &p.Category, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart: %w", err)
	}

	return items, nil
}

// AddToWishlist records a wishlist entry. A product already on the list yields ErrConflict.
func (r *PostgresMarketRepository) AddToWishlist(ctx context.Context, userID, productID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO wishlist_items (id, user_id, product_id, created_at)
        VALUES ($1, $2, $3, NOW())
    `, uuid.NewString(), userID, productID)
	if err != nil {
		switch translate(err) {
		case ErrConflict:
			return ErrConflict
		case ErrNotFound:
			return ErrNotFound
		}
		return fmt.Errorf("insert wishlist item: %w", err)
	}

	return nil
}

func collectProducts(rows pgx.Rows) ([]models.Product, error) {
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var p models.Product
	if err := row.Scan(&p.ID, &p.UserID, &p.Artisan, &p.Title, &p.Description, &p.Price, &p.ImageURL, &p.Category, &p.CreatedAt); err != nil {
		return models.Product{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

var _ MarketRepository = (*PostgresMarketRepository)(nil)
