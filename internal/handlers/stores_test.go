package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/artconnect/artconnect/internal/captions"
	"github.com/artconnect/artconnect/internal/logging"
	"github.com/artconnect/artconnect/internal/models"
	"github.com/artconnect/artconnect/internal/repositories"
)

type inMemoryUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newInMemoryUserStore(users ...models.User) *inMemoryUserStore {
	s := &inMemoryUserStore{users: make(map[string]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.ID]; exists {
		return repositories.ErrConflict
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	return s.find(func(u models.User) bool { return u.Username == username })
}

func (s *inMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *inMemoryUserStore) SearchArtisans(_ context.Context, query string, limit int) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if u.IsArtisan() && strings.Contains(strings.ToLower(u.Username+" "+u.CraftType), strings.ToLower(query)) {
			out = append(out, u)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *inMemoryUserStore) find(match func(models.User) bool) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

type inMemoryPostStore struct {
	mu       sync.Mutex
	posts    map[string]models.Post
	likes    map[string]map[string]bool
	comments map[string][]models.Comment
	err      error
}

func newInMemoryPostStore(posts ...models.Post) *inMemoryPostStore {
	s := &inMemoryPostStore{
		posts:    make(map[string]models.Post),
		likes:    make(map[string]map[string]bool),
		comments: make(map[string][]models.Comment),
	}
	for _, p := range posts {
		s.posts[p.ID] = p
	}
	return s
}

func (s *inMemoryPostStore) Create(_ context.Context, post models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.posts[post.ID] = post
	return nil
}

func (s *inMemoryPostStore) ListFeed(_ context.Context, page, perPage int) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Post
	for _, p := range s.posts {
		out = append(out, p)
	}
	return out, nil
}

func (s *inMemoryPostStore) ListByUser(_ context.Context, userID string) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Post
	for _, p := range s.posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *inMemoryPostStore) ToggleLike(_ context.Context, userID, postID string) (models.LikeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return models.LikeState{}, repositories.ErrNotFound
	}
	if s.likes[postID] == nil {
		s.likes[postID] = make(map[string]bool)
	}
	liked := !s.likes[postID][userID]
	if liked {
		s.likes[postID][userID] = true
	} else {
		delete(s.likes[postID], userID)
	}
	return models.LikeState{Liked: liked, LikeCount: len(s.likes[postID])}, nil
}

func (s *inMemoryPostStore) CreateComment(_ context.Context, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[comment.PostID]; !ok {
		return repositories.ErrNotFound
	}
	s.comments[comment.PostID] = append(s.comments[comment.PostID], comment)
	return nil
}

func (s *inMemoryPostStore) ListComments(_ context.Context, postID string) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return nil, repositories.ErrNotFound
	}
	return append([]models.Comment(nil), s.comments[postID]...), nil
}

type stubFollowStore struct {
	following map[string]bool
}

func (s *stubFollowStore) Toggle(_ context.Context, followerID, followedID string) (models.FollowState, error) {
	if s.following == nil {
		s.following = make(map[string]bool)
	}
	key := followerID + ">" + followedID
	s.following[key] = !s.following[key]
	count := 0
	if s.following[key] {
		count = 1
	}
	return models.FollowState{Following: s.following[key], FollowerCount: count}, nil
}

func (s *stubFollowStore) FollowerCount(_ context.Context, userID string) (int, error) {
	count := 0
	for key, following := range s.following {
		if following && strings.HasSuffix(key, ">"+userID) {
			count++
		}
	}
	return count, nil
}

type stubWriter struct {
	caption     models.Caption
	description string
	analysis    string
	err         error

	lastCraft string
	lastImage []byte
	lastMime  string
}

func (s *stubWriter) GenerateCaption(_ context.Context, _ string, craftType string) (models.Caption, error) {
	s.lastCraft = craftType
	return s.caption, s.err
}

func (s *stubWriter) DescribeProduct(_ context.Context, brief captions.ProductBrief) (string, error) {
	s.lastCraft = brief.CraftType
	return s.description, s.err
}

func (s *stubWriter) AnalyzeImage(_ context.Context, image []byte, mimeType string) (string, error) {
	s.lastImage, s.lastMime = image, mimeType
	return s.analysis, s.err
}

type recordingMirror struct {
	mu   sync.Mutex
	jobs []string
}

func (m *recordingMirror) Enqueue(_ context.Context, postID, imageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, postID+" "+imageURL)
	return nil
}

type recordingImageStore struct {
	keys []string
	data []byte
}

func (s *recordingImageStore) Save(_ context.Context, key, _ string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.keys = append(s.keys, key)
	s.data = data
	return "/static/uploads/" + key, nil
}

var (
	testArtisan = models.User{ID: "artisan-1", Username: "weaver", Email: "weaver@example.com", Role: models.RoleArtisan, CraftType: "Textiles"}
	testBuyer   = models.User{ID: "buyer-1", Username: "collector", Email: "collector@example.com", Role: models.RoleBuyer}
)

// newAuthedRequest builds a request as if RequireSession had accepted userID.
func newAuthedRequest(t *testing.T, method, target, userID string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req = req.WithContext(logging.WithUserID(req.Context(), userID))
	}
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}
