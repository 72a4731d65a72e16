// internal/app/features/calendar/routes.go
package calendar

import (
	"github.com/go-chi/chi/v5"
	"github.com/whosinapp/whosin/internal/app/system/auth"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/stream", h.ServeStream)
	r.Get("/export.ics", h.ServeExport)
	r.Get("/{date}", h.ServeDay)
	r.Post("/{date}/toggle", h.HandleToggle)
	return r
}
