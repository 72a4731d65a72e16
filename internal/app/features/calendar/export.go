// internal/app/features/calendar/export.go
package calendar

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	uierrors "github.com/whosinapp/whosin/internal/app/features/errors"
	"github.com/whosinapp/whosin/internal/app/store/availability"
	"github.com/whosinapp/whosin/internal/app/system/timeouts"
	"github.com/whosinapp/whosin/internal/domain/models"
	"go.uber.org/zap"
)

// defaultExportWindow is the range exported when from/to are omitted.
const defaultExportWindow = 30 * 24 * time.Hour

// ServeExport handles GET /api/calendar/export.ics?from=&to=&user=.
//
// The feed carries one all-day event per date that has at least one
// available member, summarizing who is in. When user is set, only the
// dates that user marked available are included.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		if r.URL.Query().Get("from") != "" || r.URL.Query().Get("to") != "" {
			uierrors.WriteValidation(w, err.Error())
			return
		}
		now := time.Now().UTC()
		from = now.Format("2006-01-02")
		to = now.Add(defaultExportWindow).Format("2006-01-02")
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	recs, err := h.Days.Range(ctx, from, to)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "export: range", err, "Could not build the calendar feed.")
		return
	}
	profiles, err := h.Profiles.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "export: list profiles", err, "Could not build the calendar feed.")
		return
	}

	cal := buildICS(recs, profiles, r.URL.Query().Get("user"))
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="availability.ics"`)
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		h.Log.Warn("export: encode failed", zap.Error(err))
	}
}

func buildICS(recs []models.DateRecord, profiles []models.Profile, userID string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//whosin//availability//EN")

	now := time.Now().UTC()
	for _, rec := range recs {
		view := availability.BuildDayView(rec, profiles)
		if len(view.Available) == 0 {
			continue
		}
		if userID != "" && !availableFor(view, userID) {
			continue
		}
		day, err := time.Parse("2006-01-02", rec.Date)
		if err != nil {
			continue
		}

		names := make([]string, 0, len(view.Available))
		for _, resp := range view.Available {
			names = append(names, resp.DisplayName)
		}
		sort.Strings(names)

		ev := ical.NewComponent(ical.CompEvent)
		ev.Props.SetText(ical.PropUID, rec.Date+"@whosin")
		ev.Props.SetText(ical.PropSummary, summaryLine(len(names)))
		ev.Props.SetText(ical.PropDescription, "Available: "+strings.Join(names, ", "))
		ev.Props.SetDateTime(ical.PropDateTimeStamp, now)

		dtstart := ical.NewProp("DTSTART")
		dtstart.SetDate(day)
		ev.Props.Set(dtstart)
		dtend := ical.NewProp("DTEND")
		dtend.SetDate(day.AddDate(0, 0, 1))
		ev.Props.Set(dtend)

		cal.Children = append(cal.Children, ev)
	}
	return cal
}

func availableFor(view models.DayView, userID string) bool {
	for _, resp := range view.Available {
		if resp.UserID == userID {
			return true
		}
	}
	return false
}

func summaryLine(n int) string {
	if n == 1 {
		return "1 person available"
	}
	return fmt.Sprintf("%d people available", n)
}
