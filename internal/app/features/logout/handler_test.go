package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/whosinapp/whosin/internal/app/features/logout"
	"github.com/whosinapp/whosin/internal/app/system/auth"
	"github.com/whosinapp/whosin/internal/testutil"
	"go.uber.org/zap"
)

func TestHandleLogout_ClearsSession(t *testing.T) {
	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	h := logout.NewHandler(sessionMgr, logger)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected an expired session cookie")
	}
}

func TestHandleLogout_SignedInUser(t *testing.T) {
	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	h := logout.NewHandler(sessionMgr, logger)

	req := testutil.WithUser(httptest.NewRequest(http.MethodPost, "/logout", nil), "u1", "Ada")
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}
