package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/artconnect/artconnect/internal/logging"
	"github.com/artconnect/artconnect/internal/models"
	"github.com/artconnect/artconnect/internal/repositories"
)

const maxJSONBody = 1 << 20

// errorResponse is the failure envelope every endpoint shares.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, errorResponse{Success: false, Error: message})
}

// decodeJSON reads a bounded JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// currentUser loads the authenticated account. It writes the failure response
// itself and reports false when the handler should stop.
func currentUser(w http.ResponseWriter, r *http.Request, users UserStore) (models.User, bool) {
	ctx := r.Context()
	userID := logging.UserIDFromContext(ctx)
	if userID == "" || users == nil {
		respondError(ctx, w, http.StatusUnauthorized, "Authentication required")
		return models.User{}, false
	}

	user, err := users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusUnauthorized, "Authentication required")
			return models.User{}, false
		}
		logging.FromContext(ctx).Error("load current user", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Unable to load account")
		return models.User{}, false
	}
	return user, true
}

// respondStoreError maps repository errors onto HTTP responses.
func respondStoreError(ctx context.Context, w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, notFound)
	case errors.Is(err, repositories.ErrConflict):
		respondError(ctx, w, http.StatusConflict, "Resource already exists")
	default:
		logging.FromContext(ctx).Error("store operation failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "An internal error occurred")
	}
}
