// internal/app/features/calendar/stream.go
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	uierrors "github.com/whosinapp/whosin/internal/app/features/errors"
	"github.com/whosinapp/whosin/internal/app/system/timeouts"
	"github.com/whosinapp/whosin/internal/domain/models"
	"go.uber.org/zap"
)

// keepAliveInterval is how often a comment line goes out on an idle
// stream so proxies don't reap the connection.
const keepAliveInterval = 25 * time.Second

type streamPayload struct {
	Days []models.DayView `json:"days"`
}

// ServeStream handles GET /api/calendar/stream?from=&to=.
//
// Server-sent events: each "snapshot" event carries the full day views for
// the requested range. The first snapshot goes out immediately; later ones
// follow every change on the board. Clients reconcile by replacing their
// local state with the snapshot, so a dropped event costs nothing.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		uierrors.WriteValidation(w, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		uierrors.Write(w, http.StatusInternalServerError, uierrors.KindServer,
			"Streaming is not supported.")
		return
	}

	sub, err := h.Board.Subscribe(r.Context(), from, to)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "stream: subscribe", err, "Could not open the stream.")
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case snap, open := <-sub.C:
			if !open {
				return
			}
			if err := h.writeSnapshot(r.Context(), w, snap); err != nil {
				h.Log.Debug("stream: write failed", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) writeSnapshot(ctx context.Context, w http.ResponseWriter, recs []models.DateRecord) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	profiles, err := h.Profiles.List(ctx)
	if err != nil {
		// Emit the snapshot with the denormalized names rather than
		// stalling the stream.
		h.Log.Warn("stream: list profiles", zap.Error(err))
		profiles = nil
	}

	data, err := json.Marshal(streamPayload{Days: buildDayViews(recs, profiles)})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
	return err
}
