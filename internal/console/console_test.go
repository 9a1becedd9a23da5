package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/artconnect/artconnect/internal/apiclient"
	"github.com/artconnect/artconnect/internal/interaction"
)

func TestPrompterReadsLines(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("first\nsecond\n"), &out)

	for _, want := range []string{"first", "second"} {
		got, err := p.Prompt(context.Background(), "Comment:")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Fatalf("expected %q got %q", want, got)
		}
	}

	if _, err := p.Prompt(context.Background(), "Comment:"); !errors.Is(err, interaction.ErrPromptCancelled) {
		t.Fatalf("expected end of input to cancel, got %v", err)
	}
	if !strings.HasPrefix(out.String(), "Comment: ") {
		t.Fatalf("expected label to be printed, got %q", out.String())
	}
}

func TestPrompterHonoursContext(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()
	p := NewPrompter(reader, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := p.Prompt(ctx, "Describe:"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

type stubCatalog struct {
	products []apiclient.Product
	cart     apiclient.Cart
	err      error
}

func (s stubCatalog) Products(context.Context, int) ([]apiclient.Product, error) {
	return s.products, s.err
}

func (s stubCatalog) Cart(context.Context) (apiclient.Cart, error) {
	return s.cart, s.err
}

func TestNavigatorRendersPages(t *testing.T) {
	var out bytes.Buffer
	catalog := stubCatalog{
		products: []apiclient.Product{{ID: "p1", Title: "Clay mug", Price: 18, Artisan: "potter"}},
		cart:     apiclient.Cart{Items: []apiclient.CartItem{{Product: apiclient.Product{Title: "Clay mug"}, Quantity: 2, Subtotal: 36}}, Total: 36},
	}
	nav := NewNavigator(&out, "http://localhost:8080", catalog)

	if err := nav.Navigate(context.Background(), interaction.PageMarketplace); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := nav.Navigate(context.Background(), interaction.PageCart); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := nav.Reload(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := out.String()
	for _, want := range []string{"-> GET http://localhost:8080/marketplace", "Clay mug", "by potter", "total 36.00", "-> reload http://localhost:8080/cart"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, got)
		}
	}
	if nav.Current() != interaction.PageCart {
		t.Fatalf("unexpected current page %q", nav.Current())
	}
}

func TestNavigatorReportsCatalogErrors(t *testing.T) {
	nav := NewNavigator(io.Discard, "", stubCatalog{err: &apiclient.APIError{Status: 403, Message: "Only buyers have a cart"}})

	err := nav.Navigate(context.Background(), interaction.PageCart)

	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestBannerPrinterPrintsEachBannerOnce(t *testing.T) {
	var out bytes.Buffer
	printer := NewBannerPrinter(&out)

	a := interaction.Notification{ID: "a", Severity: interaction.SeveritySuccess, Message: "Comment added!"}
	b := interaction.Notification{ID: "b", Severity: interaction.SeverityDanger, Message: "Post not found"}

	printer.Render([]interaction.Notification{a})
	printer.Render([]interaction.Notification{b, a})
	printer.Render([]interaction.Notification{b})
	printer.Render(nil)

	want := "[SUCCESS] Comment added!\n[DANGER] Post not found\n"
	if out.String() != want {
		t.Fatalf("expected %q got %q", want, out.String())
	}
}
