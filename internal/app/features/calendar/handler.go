// internal/app/features/calendar/handler.go
package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/whosinapp/whosin/internal/app/features/errors"
	"github.com/whosinapp/whosin/internal/app/store/availability"
	profilestore "github.com/whosinapp/whosin/internal/app/store/profiles"
	"github.com/whosinapp/whosin/internal/app/system/auth"
	"github.com/whosinapp/whosin/internal/app/system/normalize"
	"github.com/whosinapp/whosin/internal/app/system/timeouts"
	"github.com/whosinapp/whosin/internal/domain/models"
	"go.uber.org/zap"
)

type Handler struct {
	Board    *availability.Board
	Days     *availability.Store
	Profiles *profilestore.Store
	Resolver *profilestore.Resolver
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(
	board *availability.Board,
	days *availability.Store,
	profiles *profilestore.Store,
	resolver *profilestore.Resolver,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Board:    board,
		Days:     days,
		Profiles: profiles,
		Resolver: resolver,
		ErrLog:   errLog,
		Log:      logger,
	}
}

// ServeDay handles GET /api/calendar/{date}.
func (h *Handler) ServeDay(w http.ResponseWriter, r *http.Request) {
	date, ok := normalize.DateKey(chi.URLParam(r, "date"))
	if !ok {
		uierrors.WriteValidation(w, "Date must be YYYY-MM-DD.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rec, err := h.Board.Load(ctx, date)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "calendar: load day", err, "Could not load the day.")
		return
	}
	profiles, err := h.Profiles.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "calendar: list profiles", err, "Could not load the day.")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(availability.BuildDayView(rec, profiles))
}

// HandleToggle handles POST /api/calendar/{date}/toggle.
//
// The response is the resulting day view. A persistence failure rolls the
// board back and answers write_failed so the client can retry.
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	date, ok := normalize.DateKey(chi.URLParam(r, "date"))
	if !ok {
		uierrors.WriteValidation(w, "Date must be YYYY-MM-DD.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	name := h.displayName(ctx, u)
	rec, err := h.Board.Toggle(ctx, u.ID, name, date)
	if errors.Is(err, availability.ErrWriteFailed) {
		h.ErrLog.LogWriteFailed(w, r, "calendar: toggle", err,
			"Your response could not be saved. Try again.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "calendar: toggle", err, "Could not update the day.")
		return
	}

	profiles, err := h.Profiles.List(ctx)
	if err != nil {
		// The toggle landed; answer with the record alone rather than
		// failing the request.
		h.Log.Warn("calendar: list profiles after toggle", zap.Error(err))
		profiles = nil
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(availability.BuildDayView(rec, profiles))
}

// displayName resolves the name stamped onto the response document. The
// session name is a fallback only; the resolver is authoritative.
func (h *Handler) displayName(ctx context.Context, u *auth.SessionUser) string {
	if resolved, err := h.Resolver.Resolve(ctx, u.ID); err == nil {
		return resolved.Profile.DisplayName
	}
	if u.Name != "" {
		return u.Name
	}
	return profilestore.DefaultName(u.ID)
}

// parseRange reads and validates from/to query parameters.
func parseRange(r *http.Request) (from, to string, err error) {
	from, ok := normalize.DateKey(r.URL.Query().Get("from"))
	if !ok {
		return "", "", errors.New("from must be YYYY-MM-DD")
	}
	to, ok = normalize.DateKey(r.URL.Query().Get("to"))
	if !ok {
		return "", "", errors.New("to must be YYYY-MM-DD")
	}
	if to < from {
		return "", "", errors.New("to must not precede from")
	}
	return from, to, nil
}

func buildDayViews(recs []models.DateRecord, profiles []models.Profile) []models.DayView {
	views := make([]models.DayView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, availability.BuildDayView(rec, profiles))
	}
	return views
}
