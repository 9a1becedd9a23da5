package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/artconnect/artconnect/internal/storage"
)

// PostImageUpdater records the outcome of mirroring a post image.
type PostImageUpdater interface {
	MarkImageReady(ctx context.Context, postID, location string) error
	MarkImageFailed(ctx context.Context, postID string) error
}

// Config controls the mirror's concurrency and download limits.
type Config struct {
	QueueSize    int
	Workers      int
	MaxBytes     int64
	FetchTimeout time.Duration
}

// Mirror copies remotely hosted post images into the configured image store in
// the background so the feed does not depend on third-party hosts.
type Mirror struct {
	client  *http.Client
	store   storage.ImageStore
	updater PostImageUpdater
	logger  *slog.Logger
	cfg     Config

	jobs   chan job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

type job struct {
	postID   string
	imageURL string
}

// ErrMirrorClosed is returned by Enqueue after Shutdown.
var ErrMirrorClosed = errors.New("image mirror closed")

// NewMirror starts the worker pool. A nil client uses http.DefaultClient.
func NewMirror(client *http.Client, store storage.ImageStore, updater PostImageUpdater, cfg Config, logger *slog.Logger) *Mirror {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 << 20
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Mirror{
		client:  client,
		store:   store,
		updater: updater,
		logger:  logger,
		cfg:     cfg,
		jobs:    make(chan job, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	m.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go m.worker()
	}

	return m
}

// Enqueue schedules the image at imageURL to be mirrored for postID.
func (m *Mirror) Enqueue(ctx context.Context, postID, imageURL string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.ctx.Done():
		return ErrMirrorClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.ctx.Done():
		return ErrMirrorClosed
	case m.jobs <- job{postID: postID, imageURL: imageURL}:
		return nil
	}
}

// Shutdown stops accepting work and waits for the workers to exit. Jobs still
// queued are dropped. The jobs channel is never closed, so an Enqueue racing
// with Shutdown cannot send on a closed channel.
func (m *Mirror) Shutdown(ctx context.Context) error {
	m.once.Do(m.cancel)

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (m *Mirror) worker() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case j := <-m.jobs:
			m.handle(j)
		}
	}
}

func (m *Mirror) handle(j job) {
	logger := m.logger.With("postId", j.postID, "url", j.imageURL)
	if m.store == nil || m.updater == nil {
		logger.Error("image mirror missing dependencies", "hasStore", m.store != nil, "hasUpdater", m.updater != nil)
		return
	}

	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.FetchTimeout)
	defer cancel()

	location, err := m.copy(ctx, j)
	if err != nil {
		logger.Warn("image mirroring failed", "error", err)
		m.record(func(ctx context.Context) error { return m.updater.MarkImageFailed(ctx, j.postID) }, logger)
		return
	}

	m.record(func(ctx context.Context) error { return m.updater.MarkImageReady(ctx, j.postID, location) }, logger)
}

func (m *Mirror) copy(ctx context.Context, j job) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > m.cfg.MaxBytes {
		return "", storage.ErrTooLarge
	}

	contentType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: %q", storage.ErrUnsupportedType, contentType)
	}

	key, err := storage.ObjectKey(path.Join("posts", j.postID), imageName(j.imageURL, contentType))
	if err != nil {
		return "", err
	}

	body := &limitedReader{r: resp.Body, remaining: m.cfg.MaxBytes}
	return m.store.Save(ctx, key, contentType, body)
}

func (m *Mirror) record(update func(context.Context) error, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := update(ctx); err != nil {
		logger.Error("record image status", "error", err)
	}
}

// imageName picks a filename whose extension matches the image type, preferring
// the one in the URL path.
func imageName(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		name := path.Base(u.Path)
		if storage.ContentTypeFor(name) != "" {
			return name
		}
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil {
		for _, ext := range exts {
			if storage.ContentTypeFor(ext) != "" {
				return "image" + ext
			}
		}
	}
	return "image.jpg"
}

// limitedReader fails with storage.ErrTooLarge instead of silently truncating.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, storage.ErrTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, storage.ErrTooLarge
	}
	return n, err
}
