package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/artconnect/artconnect/internal/apiclient"
	"github.com/artconnect/artconnect/internal/interaction"
)

// Catalog loads the marketplace pages the navigator renders.
type Catalog interface {
	Products(ctx context.Context, page int) ([]apiclient.Product, error)
	Cart(ctx context.Context) (apiclient.Cart, error)
}

// Navigator "visits" pages by printing them. When a Catalog is available the
// marketplace and cart pages are rendered from live data.
type Navigator struct {
	out     io.Writer
	baseURL string
	catalog Catalog

	mu      sync.Mutex
	current string
}

// NewNavigator returns a Navigator printing to out. catalog may be nil.
func NewNavigator(out io.Writer, baseURL string, catalog Catalog) *Navigator {
	return &Navigator{out: out, baseURL: baseURL, catalog: catalog, current: "/feed"}
}

// Navigate prints the destination and renders it.
func (n *Navigator) Navigate(ctx context.Context, path string) error {
	n.mu.Lock()
	n.current = path
	n.mu.Unlock()

	fmt.Fprintf(n.out, "-> GET %s%s\n", n.baseURL, path)
	return n.render(ctx, path)
}

// Reload re-renders the current page.
func (n *Navigator) Reload(ctx context.Context) error {
	n.mu.Lock()
	path := n.current
	n.mu.Unlock()

	fmt.Fprintf(n.out, "-> reload %s%s\n", n.baseURL, path)
	return n.render(ctx, path)
}

// Current returns the page last navigated to.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *Navigator) render(ctx context.Context, path string) error {
	if n.catalog == nil {
		return nil
	}

	switch path {
	case interaction.PageMarketplace:
		products, err := n.catalog.Products(ctx, 1)
		if err != nil {
			return fmt.Errorf("load marketplace: %w", err)
		}
		if len(products) == 0 {
			fmt.Fprintln(n.out, "   no products listed yet")
		}
		for _, p := range products {
			fmt.Fprintf(n.out, "   %-36s %-28s %9.2f  by %s\n", p.ID, p.Title, p.Price, p.Artisan)
		}
	case interaction.PageCart:
		cart, err := n.catalog.Cart(ctx)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if len(cart.Items) == 0 {
			fmt.Fprintln(n.out, "   your cart is empty")
		}
		for _, item := range cart.Items {
			fmt.Fprintf(n.out, "   %-28s x%-3d %9.2f\n", item.Product.Title, item.Quantity, item.Subtotal)
		}
		fmt.Fprintf(n.out, "   total %.2f\n", cart.Total)
	}
	return nil
}

var _ interaction.Navigator = (*Navigator)(nil)
