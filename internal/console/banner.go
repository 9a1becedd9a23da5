package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/artconnect/artconnect/internal/interaction"
)

// BannerPrinter writes each new notification once as it appears.
type BannerPrinter struct {
	out io.Writer

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewBannerPrinter returns a printer writing to out.
func NewBannerPrinter(out io.Writer) *BannerPrinter {
	return &BannerPrinter{out: out, seen: make(map[string]struct{})}
}

// Render is an interaction.Notifier change listener.
func (b *BannerPrinter) Render(active []interaction.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	visible := make(map[string]struct{}, len(active))
	// Oldest first so several new banners print in the order they were shown.
	for i := len(active) - 1; i >= 0; i-- {
		note := active[i]
		visible[note.ID] = struct{}{}
		if _, ok := b.seen[note.ID]; ok {
			continue
		}
		fmt.Fprintf(b.out, "[%s] %s\n", strings.ToUpper(string(note.Severity)), note.Message)
	}
	b.seen = visible
}
