// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/whosinapp/whosin/internal/app/features/errors"
	profilestore "github.com/whosinapp/whosin/internal/app/store/profiles"
	"github.com/whosinapp/whosin/internal/app/system/auth"
	"github.com/whosinapp/whosin/internal/app/system/authutil"
	"github.com/whosinapp/whosin/internal/app/system/normalize"
	"github.com/whosinapp/whosin/internal/app/system/ratelimit"
	"github.com/whosinapp/whosin/internal/app/system/timeouts"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

var validate = validator.New()

// sanitize strips any markup from user-supplied names.
var sanitize = bluemonday.StrictPolicy()

type Handler struct {
	Profiles   *profilestore.Store
	Resolver   *profilestore.Resolver
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Limiter    *ratelimit.SignInLimiter
	Log        *zap.Logger
}

func NewHandler(
	profiles *profilestore.Store,
	resolver *profilestore.Resolver,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	limiter *ratelimit.SignInLimiter,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Profiles:   profiles,
		Resolver:   resolver,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Limiter:    limiter,
		Log:        logger,
	}
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signUpRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"display_name" validate:"required,max=80"`
}

type userResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	DarkMode bool   `json:"dark_mode"`
}

// HandleSignIn handles POST /login.
//
// Verifies the password, establishes the session, and warms the identity
// cache so the UI has a display name immediately.
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "sign-in: bad body", err, "Invalid request body.")
		return
	}
	req.Email = normalize.Email(req.Email)
	if err := validate.Struct(req); err != nil {
		uierrors.WriteValidation(w, "Email and password are required.")
		return
	}

	if allowed, reason := h.Limiter.Check(r, req.Email); !allowed {
		h.Log.Warn("sign-in: rate limited", zap.String("email", req.Email))
		uierrors.Write(w, http.StatusTooManyRequests, uierrors.KindRateLimited, reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	profile, err := h.Profiles.GetByEmail(ctx, req.Email)
	if errors.Is(err, profilestore.ErrNotFound) {
		uierrors.WriteAuth(w, "Invalid email or password.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "sign-in: lookup failed", err, "Sign-in is unavailable right now.")
		return
	}
	if profile.PasswordHash == nil || !authutil.CheckPassword(req.Password, *profile.PasswordHash) {
		uierrors.WriteAuth(w, "Invalid email or password.")
		return
	}

	h.Limiter.ResetEmail(req.Email)
	if err := h.SessionMgr.Establish(w, r, &auth.SessionUser{
		ID:    profile.UserID,
		Name:  profile.DisplayName,
		Email: profile.Email,
	}); err != nil {
		h.ErrLog.LogServerError(w, r, "sign-in: session", err, "Could not establish session.")
		return
	}
	h.Resolver.Warm(profile.UserID, profile.DisplayName, profile.DarkMode)

	h.Log.Info("sign-in", zap.String("user_id", profile.UserID))
	writeUser(w, http.StatusOK, profile.UserID, profile.DisplayName, profile.Email, profile.DarkMode)
}

// HandleSignUp handles POST /login/signup.
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "sign-up: bad body", err, "Invalid request body.")
		return
	}
	req.Email = normalize.Email(req.Email)
	req.DisplayName = normalize.Name(sanitize.Sanitize(req.DisplayName))
	if err := validate.Struct(req); err != nil {
		uierrors.WriteValidation(w, "Email, password, and display name are required.")
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		uierrors.WriteValidation(w, authutil.PasswordRules())
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "sign-up: hash", err, "Could not create account.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	userID := uuid.NewString()
	err = h.Profiles.Create(ctx, profilestore.CreateInput{
		UserID:       userID,
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		AuthMethod:   "password",
		PasswordHash: &hash,
	})
	switch {
	case errors.Is(err, profilestore.ErrNameTaken):
		uierrors.WriteNameTaken(w, "That display name is already in use.")
		return
	case errors.Is(err, profilestore.ErrEmailTaken):
		uierrors.Write(w, http.StatusConflict, uierrors.KindValidation,
			"An account with that email already exists.")
		return
	case errors.Is(err, profilestore.ErrEmptyName):
		uierrors.WriteValidation(w, "Display name is required.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "sign-up: create", err, "Could not create account.")
		return
	}

	if err := h.SessionMgr.Establish(w, r, &auth.SessionUser{
		ID:    userID,
		Name:  req.DisplayName,
		Email: req.Email,
	}); err != nil {
		h.ErrLog.LogServerError(w, r, "sign-up: session", err, "Account created; sign in to continue.")
		return
	}
	h.Resolver.Warm(userID, req.DisplayName, false)

	h.Log.Info("sign-up", zap.String("user_id", userID))
	writeUser(w, http.StatusCreated, userID, req.DisplayName, req.Email, false)
}

func writeUser(w http.ResponseWriter, status int, id, name, email string, darkMode bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		User userResponse `json:"user"`
	}{User: userResponse{ID: id, Name: name, Email: email, DarkMode: darkMode}})
}
