package captions

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/artconnect/artconnect/internal/models"
)

type cacheEntry struct {
	caption models.Caption
	expires time.Time
}

// CachingWriter wraps another Writer and caches generated captions per
// description and craft type for a TTL. Product copy and image analysis are
// passed straight through.
type CachingWriter struct {
	base Writer
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingWriter returns a Writer that caches captions for the provided TTL.
func NewCachingWriter(base Writer, ttl time.Duration) *CachingWriter {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingWriter{
		base:  base,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cacheEntry),
	}
}

// GenerateCaption returns a cached caption when available, otherwise it delegates
// to the underlying writer and stores the result. Failures are not cached.
func (c *CachingWriter) GenerateCaption(ctx context.Context, description, craftType string) (models.Caption, error) {
	if c == nil || c.base == nil {
		return models.Caption{}, ErrGeneratorUnavailable
	}

	key := cacheKey(description, craftType)
	now := c.now()

	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.caption, nil
	}

	caption, err := c.base.GenerateCaption(ctx, description, craftType)
	if err != nil {
		return models.Caption{}, err
	}

	c.mu.Lock()
	c.items[key] = cacheEntry{caption: caption, expires: now.Add(c.ttl)}
	c.pruneLocked(now)
	c.mu.Unlock()

	return caption, nil
}

// DescribeProduct implements Writer.
func (c *CachingWriter) DescribeProduct(ctx context.Context, brief ProductBrief) (string, error) {
	if c == nil || c.base == nil {
		return "", ErrGeneratorUnavailable
	}
	return c.base.DescribeProduct(ctx, brief)
}

// AnalyzeImage implements Writer.
func (c *CachingWriter) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	if c == nil || c.base == nil {
		return "", ErrGeneratorUnavailable
	}
	return c.base.AnalyzeImage(ctx, image, mimeType)
}

func (c *CachingWriter) pruneLocked(now time.Time) {
	for key, entry := range c.items {
		if !now.Before(entry.expires) {
			delete(c.items, key)
		}
	}
}

func cacheKey(description, craftType string) string {
	return strings.ToLower(strings.TrimSpace(craftType)) + "\x00" + strings.ToLower(strings.TrimSpace(description))
}

var _ Writer = (*CachingWriter)(nil)
