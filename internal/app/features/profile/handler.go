// internal/app/features/profile/handler.go
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/whosinapp/whosin/internal/app/features/errors"
	"github.com/whosinapp/whosin/internal/app/store/availability"
	profilestore "github.com/whosinapp/whosin/internal/app/store/profiles"
	"github.com/whosinapp/whosin/internal/app/system/auth"
	"github.com/whosinapp/whosin/internal/app/system/normalize"
	"github.com/whosinapp/whosin/internal/app/system/timeouts"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

var sanitize = bluemonday.StrictPolicy()

type Handler struct {
	Profiles *profilestore.Store
	Resolver *profilestore.Resolver
	Board    *availability.Board
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(
	profiles *profilestore.Store,
	resolver *profilestore.Resolver,
	board *availability.Board,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Profiles: profiles,
		Resolver: resolver,
		Board:    board,
		ErrLog:   errLog,
		Log:      logger,
	}
}

type profileResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	DarkMode    bool   `json:"dark_mode"`
	Degraded    bool   `json:"degraded,omitempty"`
}

// ServeProfile handles GET /api/profile.
//
// Resolution may succeed in a degraded state when the remote store is
// unreachable but the local cache holds the identity; the response flags
// that so the UI can show a stale-data hint.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	resolved, err := h.Resolver.Resolve(ctx, u.ID)
	if err != nil {
		h.ErrLog.LogUnavailable(w, r, "profile: resolve failed", err,
			"Your profile is unavailable right now.")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(profileResponse{
		ID:          resolved.Profile.UserID,
		DisplayName: resolved.Profile.DisplayName,
		DarkMode:    resolved.Profile.DarkMode,
		Degraded:    resolved.Degraded,
	})
}

type renameRequest struct {
	DisplayName string `json:"display_name"`
}

// HandleRename handles PUT /api/profile/name.
//
// On success the new name is propagated to the user's responses on every
// loaded date record, so day views reflect the rename without waiting for
// the next toggle.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "rename: bad body", err, "Invalid request body.")
		return
	}
	name := normalize.Name(sanitize.Sanitize(req.DisplayName))
	if name == "" {
		uierrors.WriteValidation(w, "Display name is required.")
		return
	}
	if len(name) > 80 {
		uierrors.WriteValidation(w, "Display name is too long.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Profiles.Rename(ctx, u.ID, name)
	switch {
	case errors.Is(err, profilestore.ErrNameTaken):
		uierrors.WriteNameTaken(w, "That display name is already in use.")
		return
	case errors.Is(err, profilestore.ErrNotFound):
		// No document yet (e.g. the account was resolved from cache only);
		// create it with the new name.
		if err := h.Profiles.UpsertResolved(ctx, u.ID, name, h.darkMode(u.ID)); err != nil {
			h.ErrLog.LogWriteFailed(w, r, "rename: upsert", err, "Could not save the new name.")
			return
		}
	case err != nil:
		h.ErrLog.LogWriteFailed(w, r, "rename: update", err, "Could not save the new name.")
		return
	}

	h.Resolver.Warm(u.ID, name, h.darkMode(u.ID))
	if err := h.Board.RenameUser(ctx, u.ID, name); err != nil {
		// The profile write already succeeded; stale names on old records
		// correct themselves on the next toggle.
		h.Log.Warn("rename: board propagation failed",
			zap.String("user_id", u.ID), zap.Error(err))
	}

	h.Log.Info("profile renamed", zap.String("user_id", u.ID))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(profileResponse{
		ID:          u.ID,
		DisplayName: name,
		DarkMode:    h.darkMode(u.ID),
	})
}

type darkModeRequest struct {
	DarkMode bool `json:"dark_mode"`
}

// HandleDarkMode handles PUT /api/profile/darkmode.
//
// The preference applies optimistically: the cache takes the value even if
// the remote write fails, so the response is always 200.
func (h *Handler) HandleDarkMode(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req darkModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "darkmode: bad body", err, "Invalid request body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	h.Resolver.SetDarkMode(ctx, u.ID, req.DarkMode)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(darkModeRequest{DarkMode: req.DarkMode})
}

func (h *Handler) darkMode(userID string) bool {
	entry, ok := h.Resolver.Cached(userID)
	return ok && entry.DarkMode
}
