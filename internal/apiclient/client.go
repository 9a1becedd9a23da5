// Package apiclient talks to the ArtConnect REST API on behalf of the terminal client.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/artconnect/artconnect/internal/models"
)

const maxResponseBody = 1 << 20

// ErrTransport wraps failures that never produced a usable API response: the
// request could not be sent, or the body was not a JSON envelope.
var ErrTransport = errors.New("apiclient: transport failure")

// APIError is returned when the server answered with success:false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error (status %d)", e.Status)
	}
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// Client issues authenticated JSON requests against a single ArtConnect server.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// New constructs a Client. A nil httpClient falls back to http.DefaultClient.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		token:      token,
	}
}

// SetToken replaces the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the bearer token currently in use.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges credentials for session tokens and adopts the new access token.
func (c *Client) Login(ctx context.Context, username, password string) (models.SessionTokens, error) {
	var resp struct {
		Tokens models.SessionTokens `json:"tokens"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return models.SessionTokens{}, err
	}
	c.SetToken(resp.Tokens.AccessToken)
	return resp.Tokens, nil
}

// Logout ends the current session and forgets the access token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// ToggleLike flips the caller's like on a post.
func (c *Client) ToggleLike(ctx context.Context, postID string) (LikeResult, error) {
	var out LikeResult
	err := c.do(ctx, http.MethodPost, "/api/posts/"+url.PathEscape(postID)+"/like", nil, &out)
	return out, err
}

// AddComment posts a comment on a post.
func (c *Client) AddComment(ctx context.Context, postID, content string) (Comment, error) {
	var resp struct {
		Comment Comment `json:"comment"`
	}
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, "/api/posts/"+url.PathEscape(postID)+"/comments", body, &resp); err != nil {
		return Comment{}, err
	}
	return resp.Comment, nil
}

// CreatePost publishes a new post referencing an already hosted image.
func (c *Client) CreatePost(ctx context.Context, draft PostDraft) (CreatedPost, error) {
	var out CreatedPost
	err := c.do(ctx, http.MethodPost, "/api/posts", draft, &out)
	return out, err
}

// GenerateCaption asks the server to write a caption, hashtags and story for an image description.
func (c *Client) GenerateCaption(ctx context.Context, description string) (models.Caption, error) {
	var out models.Caption
	body := map[string]string{"image_description": description}
	err := c.do(ctx, http.MethodPost, "/api/ai/generate-caption", body, &out)
	return out, err
}

// ToggleFollow flips the caller's follow of an artisan.
func (c *Client) ToggleFollow(ctx context.Context, userID string) (FollowResult, error) {
	var out FollowResult
	err := c.do(ctx, http.MethodPost, "/api/follow/"+url.PathEscape(userID), nil, &out)
	return out, err
}

// Products lists one page of the marketplace.
func (c *Client) Products(ctx context.Context, page int) ([]Product, error) {
	var resp struct {
		Products []Product `json:"products"`
	}
	path := "/api/products"
	if page > 1 {
		path += fmt.Sprintf("?page=%d", page)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// Cart returns the caller's cart.
func (c *Client) Cart(ctx context.Context) (Cart, error) {
	var out Cart
	err := c.do(ctx, http.MethodGet, "/api/cart", nil, &out)
	return out, err
}

// envelope carries the fields every response shares.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %v", ErrTransport, method, path, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: decode %s %s (status %d): %v", ErrTransport, method, path, resp.StatusCode, err)
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		return &APIError{Status: resp.StatusCode, Message: env.Error}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: decode %s %s payload: %v", ErrTransport, method, path, err)
		}
	}
	return nil
}
