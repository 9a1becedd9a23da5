package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/artconnect/artconnect/internal/auth"
	"github.com/artconnect/artconnect/internal/logging"
	"github.com/artconnect/artconnect/internal/middleware"
	"github.com/artconnect/artconnect/internal/models"
	"github.com/artconnect/artconnect/internal/repositories"
)

// AuthHandler implements account registration and session endpoints.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionManager
	NowFunc  func() time.Time
}

// Register handles POST /api/auth/register.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondError(ctx, w, http.StatusInternalServerError, "Authentication services unavailable")
		return
	}

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Role = strings.TrimSpace(strings.ToLower(req.Role))
	if req.Username == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		respondError(ctx, w, http.StatusBadRequest, "All fields are required")
		return
	}
	if req.Role != models.RoleArtisan && req.Role != models.RoleBuyer {
		respondError(ctx, w, http.StatusBadRequest, "Role must be artisan or buyer")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Invalid email address")
		return
	}

	if taken, ok := h.exists(w, r, h.Users.FindByUsername, req.Username); !ok {
		return
	} else if taken {
		respondError(ctx, w, http.StatusBadRequest, "Username already exists")
		return
	}
	if taken, ok := h.exists(w, r, h.Users.FindByEmail, req.Email); !ok {
		return
	} else if taken {
		respondError(ctx, w, http.StatusBadRequest, "Email already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("register failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to secure password")
		return
	}

	user := models.User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      req.Role,
		Bio:       strings.TrimSpace(req.Bio),
		Region:    strings.TrimSpace(req.Region),
		CraftType: strings.TrimSpace(req.CraftType),
		CreatedAt: h.now(),
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusBadRequest, "Account already exists")
			return
		}
		logger.Error("register failed to create user", "error", err, "username", req.Username)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("register failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, authResponse{Success: true, Redirect: "/feed", Tokens: tokens, User: toAccount(user)})
}

// Login handles POST /api/auth/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondError(ctx, w, http.StatusInternalServerError, "Authentication services unavailable")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.Users.FindByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("login user lookup failed", "error", err)
		}
		respondError(ctx, w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{Success: true, Redirect: "/feed", Tokens: tokens, User: toAccount(user)})
}

// Refresh exchanges a refresh token for a new session.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "Session service unavailable")
		return
	}

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid refresh payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		respondError(ctx, w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, auth.ErrRefreshTokenExpired) || errors.Is(err, auth.ErrSessionNotFound) {
			status = http.StatusUnauthorized
		}
		logger.Warn("refresh failed", "error", err, "status", status)
		respondError(ctx, w, status, "Unable to refresh session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{Success: true, Tokens: tokens})
}

// Logout ends the session behind the request's bearer token. It must run behind
// middleware.RequireSession.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "Session service unavailable")
		return
	}

	if err := h.Sessions.Revoke(ctx, middleware.BearerToken(r)); err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			respondError(ctx, w, http.StatusUnauthorized, "Session expired, please log in again")
			return
		}
		logger.Error("logout failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Unable to log out")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"success": true, "redirect": "/"})
}

// exists reports whether lookup finds value. ok is false when a response has
// already been written.
func (h AuthHandler) exists(w http.ResponseWriter, r *http.Request, lookup func(ctx context.Context, value string) (models.User, error), value string) (taken bool, ok bool) {
	_, err := lookup(r.Context(), value)
	switch {
	case err == nil:
		return true, true
	case errors.Is(err, repositories.ErrNotFound):
		return false, true
	default:
		logging.FromContext(r.Context()).Error("register lookup failed", "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "Unable to verify existing accounts")
		return false, false
	}
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	Bio       string `json:"bio"`
	Region    string `json:"region"`
	CraftType string `json:"craft_type"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type authResponse struct {
	Success  bool                 `json:"success"`
	Redirect string               `json:"redirect,omitempty"`
	Tokens   models.SessionTokens `json:"tokens"`
	User     *account             `json:"user,omitempty"`
}

func toAccount(user models.User) *account {
	return &account{ID: user.ID, Username: user.Username, Role: user.Role}
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
