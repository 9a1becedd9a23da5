package handlers

import (
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artconnect/artconnect/internal/logging"
	"github.com/artconnect/artconnect/internal/models"
	"github.com/artconnect/artconnect/internal/storage"
)

const (
	feedPageSize   = 10
	maxUploadBytes = 16 << 20
)

// PostHandler implements the social feed endpoints.
type PostHandler struct {
	Users   UserStore
	Posts   PostStore
	Images  ImageStore
	Mirror  ImageMirror
	NowFunc func() time.Time
}

// Create handles POST /api/posts with either a JSON body referencing an image URL
// or a multipart form carrying the image file.
func (h PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := currentUser(w, r, h.Users)
	if !ok {
		return
	}
	if !user.IsArtisan() {
		respondError(ctx, w, http.StatusForbidden, "Only artisans can create posts")
		return
	}

	post := models.Post{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: h.now(),
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req createPostRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
			return
		}
		post.ImageURL = strings.TrimSpace(req.ImageURL)
		post.Caption, post.Hashtags, post.Story = req.Caption, req.Hashtags, req.Story
		if post.ImageURL == "" {
			respondError(ctx, w, http.StatusBadRequest, "Image URL is required")
			return
		}
		post.ImageStatus = models.ImageStatusExternal
		if h.Mirror != nil && isRemoteURL(post.ImageURL) {
			post.ImageStatus = models.ImageStatusPending
		}
	} else {
		location, status, msg := h.storeUpload(w, r, post.ID)
		if msg != "" {
			respondError(ctx, w, status, msg)
			return
		}
		post.ImageURL = location
		post.ImageStatus = models.ImageStatusReady
		post.Caption = r.FormValue("caption")
		post.Hashtags = r.FormValue("hashtags")
		post.Story = r.FormValue("story")
	}

	if h.Posts == nil {
		logger.Error("post store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "Post service unavailable")
		return
	}

	if err := h.Posts.Create(ctx, post); err != nil {
		respondStoreError(ctx, w, err, "Account not found")
		return
	}

	if post.ImageStatus == models.ImageStatusPending {
		if err := h.Mirror.Enqueue(ctx, post.ID, post.ImageURL); err != nil {
			logger.Warn("failed to schedule image mirroring", "postId", post.ID, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusCreated, createPostResponse{
		Success: true,
		Message: "Post created successfully",
		PostID:  post.ID,
	})
}

// storeUpload saves the multipart "image" file. On failure it returns the status
// and message to report.
func (h PostHandler) storeUpload(w http.ResponseWriter, r *http.Request, postID string) (string, int, string) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", http.StatusRequestEntityTooLarge, "Image is too large"
		}
		return "", http.StatusBadRequest, "Image is required"
	}

	file, header, err := r.FormFile("image")
	if err != nil || header.Filename == "" {
		return "", http.StatusBadRequest, "Image is required"
	}
	defer file.Close()

	key, err := storage.ObjectKey("posts/"+postID, header.Filename)
	if err != nil {
		return "", http.StatusBadRequest, "Unsupported image type"
	}
	if h.Images == nil {
		logging.FromContext(ctx).Error("image store unavailable")
		return "", http.StatusInternalServerError, "Image storage unavailable"
	}

	location, err := h.Images.Save(ctx, key, storage.ContentTypeFor(key), file)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return "", http.StatusRequestEntityTooLarge, "Image is too large"
		}
		logging.FromContext(ctx).Error("store uploaded image", "error", err)
		return "", http.StatusInternalServerError, "Failed to store image"
	}
	return location, 0, ""
}

// Feed handles GET /api/posts?page=N.
func (h PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Posts == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Post service unavailable")
		return
	}

	page := pageParam(r)
	posts, err := h.Posts.ListFeed(ctx, page, feedPageSize)
	if err != nil {
		respondStoreError(ctx, w, err, "Feed not found")
		return
	}

	out := make([]postView, 0, len(posts))
	for _, post := range posts {
		out = append(out, toPostView(post))
	}
	respondJSON(ctx, w, http.StatusOK, feedResponse{Success: true, Page: page, Posts: out})
}

// ToggleLike handles POST /api/posts/{id}/like.
func (h PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := logging.UserIDFromContext(ctx)
	if h.Posts == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Post service unavailable")
		return
	}

	state, err := h.Posts.ToggleLike(ctx, userID, r.PathValue("id"))
	if err != nil {
		respondStoreError(ctx, w, err, "Post not found")
		return
	}

	respondJSON(ctx, w, http.StatusOK, likeResponse{Success: true, Liked: state.Liked, LikeCount: state.LikeCount})
}

// ListComments handles GET /api/posts/{id}/comments.
func (h PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Posts == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Post service unavailable")
		return
	}

	comments, err := h.Posts.ListComments(ctx, r.PathValue("id"))
	if err != nil {
		respondStoreError(ctx, w, err, "Post not found")
		return
	}

	out := make([]commentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentView(c))
	}
	respondJSON(ctx, w, http.StatusOK, commentsResponse{Success: true, Comments: out})
}

// AddComment handles POST /api/posts/{id}/comments.
func (h PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := currentUser(w, r, h.Users)
	if !ok {
		return
	}
	if h.Posts == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Post service unavailable")
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(ctx, w, http.StatusBadRequest, "Comment content is required")
		return
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		PostID:    r.PathValue("id"),
		UserID:    user.ID,
		Username:  user.Username,
		Content:   content,
		CreatedAt: h.now(),
	}
	if err := h.Posts.CreateComment(ctx, comment); err != nil {
		respondStoreError(ctx, w, err, "Post not found")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, commentResponse{Success: true, Comment: toCommentView(comment)})
}

func (h PostHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func isRemoteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

type createPostRequest struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
	Hashtags string `json:"hashtags"`
	Story    string `json:"story"`
}

type createPostResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	PostID  string `json:"post_id"`
}

type postView struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	ImageURL     string    `json:"image_url"`
	ImageStatus  string    `json:"image_status"`
	Caption      string    `json:"caption"`
	Hashtags     string    `json:"hashtags"`
	Story        string    `json:"story"`
	CreatedAt    time.Time `json:"created_at"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
}

func toPostView(p models.Post) postView {
	return postView{
		ID:           p.ID,
		UserID:       p.UserID,
		Username:     p.Username,
		ImageURL:     p.ImageURL,
		ImageStatus:  p.ImageStatus,
		Caption:      p.Caption,
		Hashtags:     p.Hashtags,
		Story:        p.Story,
		CreatedAt:    p.CreatedAt,
		LikeCount:    p.LikeCount,
		CommentCount: p.CommentCount,
	}
}

type feedResponse struct {
	Success bool       `json:"success"`
	Page    int        `json:"page"`
	Posts   []postView `json:"posts"`
}

type likeResponse struct {
	Success   bool `json:"success"`
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

type commentRequest struct {
	Content string `json:"content"`
}

type commentView struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func toCommentView(c models.Comment) commentView {
	return commentView{ID: c.ID, Content: c.Content, Username: c.Username, CreatedAt: c.CreatedAt}
}

type commentResponse struct {
	Success bool        `json:"success"`
	Comment commentView `json:"comment"`
}

type commentsResponse struct {
	Success  bool          `json:"success"`
	Comments []commentView `json:"comments"`
}
