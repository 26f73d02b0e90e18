package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lucasmendel/arcadia/internal/auth"
	"github.com/lucasmendel/arcadia/internal/models"
	"github.com/lucasmendel/arcadia/internal/services"
	pkghttp "github.com/lucasmendel/arcadia/pkg/http"
)

// UserServiceInterface defines the interface for profile and stat logic
type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*services.UserResponse, error)
	UpdateProfile(ctx context.Context, userID, name string) (*services.UserResponse, error)
	RecordPlay(ctx context.Context, userID, game string, score int) (*models.GameStat, error)
	GetStats(ctx context.Context, userID string) ([]*models.GameStat, error)
	Leaderboard(ctx context.Context, game string, limit int) ([]*models.LeaderboardEntry, error)
}

// UserHandler handles profile and game-stat HTTP requests
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// UpdateProfileRequest represents the request body for profile updates
type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// RecordPlayRequest represents one game result
type RecordPlayRequest struct {
	Score int `json:"score" validate:"gte=0"`
}

// GetProfile returns the caller's profile.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		writeUserError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, struct {
		pkghttp.Envelope
		User *services.UserResponse `json:"user"`
	}{
		Envelope: pkghttp.Envelope{Success: true, Message: "OK"},
		User:     profile,
	})
}

// UpdateProfile changes the caller's display name.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req UpdateProfileRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), claims.UserID, req.Name)
	if err != nil {
		writeUserError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, struct {
		pkghttp.Envelope
		User *services.UserResponse `json:"user"`
	}{
		Envelope: pkghttp.Envelope{Success: true, Message: "Profile updated."},
		User:     profile,
	})
}

// RecordPlay records one game result for the caller.
func (h *UserHandler) RecordPlay(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	game := chi.URLParam(r, "game")

	var req RecordPlayRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	stat, err := h.service.RecordPlay(r.Context(), claims.UserID, game, req.Score)
	if err != nil {
		writeUserError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, struct {
		pkghttp.Envelope
		Stat *models.GameStat `json:"stat"`
	}{
		Envelope: pkghttp.Envelope{Success: true, Message: "Play recorded."},
		Stat:     stat,
	})
}

// GetStats returns all of the caller's game stats.
func (h *UserHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	stats, err := h.service.GetStats(r.Context(), claims.UserID)
	if err != nil {
		writeUserError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, struct {
		pkghttp.Envelope
		Stats []*models.GameStat `json:"stats"`
	}{
		Envelope: pkghttp.Envelope{Success: true, Message: "OK"},
		Stats:    stats,
	})
}

// Leaderboard returns the top players for a game. Public endpoint.
func (h *UserHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	game := chi.URLParam(r, "game")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			pkghttp.WriteBadRequest(w, "Invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := h.service.Leaderboard(r.Context(), game, limit)
	if err != nil {
		writeUserError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, struct {
		pkghttp.Envelope
		Game    string                     `json:"game"`
		Entries []*models.LeaderboardEntry `json:"entries"`
	}{
		Envelope: pkghttp.Envelope{Success: true, Message: "OK"},
		Game:     game,
		Entries:  entries,
	})
}

func writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "User not found")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
