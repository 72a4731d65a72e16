// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/whosinapp/whosin/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
	}
}

// HandleLogout handles POST /logout. The session cookie is the
// session-scoped identity tier; destroying it ends the visit without
// touching the durable cache or the profile document.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.Log.Info("sign-out", zap.String("user_id", u.ID))
	}
	if err := h.SessionMgr.Destroy(w, r); err != nil {
		h.Log.Error("logout: destroy session", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
