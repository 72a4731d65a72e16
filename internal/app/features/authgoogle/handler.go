// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/whosinapp/whosin/internal/app/store/oauthstate"
	profilestore "github.com/whosinapp/whosin/internal/app/store/profiles"
	"github.com/whosinapp/whosin/internal/app/system/auth"
	"github.com/whosinapp/whosin/internal/app/system/authutil"
	"github.com/whosinapp/whosin/internal/app/system/normalize"
	"github.com/whosinapp/whosin/internal/app/system/timeouts"
	"github.com/whosinapp/whosin/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var sanitize = bluemonday.StrictPolicy()

// Handler handles Google OAuth sign-in.
//
// Google accounts map to user IDs of the form "g:<google user id>", so the
// same Google identity always lands on the same profile document.
type Handler struct {
	Profiles   *profilestore.Store
	Resolver   *profilestore.Resolver
	SessionMgr *auth.SessionManager
	StateStore *oauthstate.Store
	Log        *zap.Logger

	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	profiles *profilestore.Store,
	resolver *profilestore.Resolver,
	sessionMgr *auth.SessionManager,
	stateStore *oauthstate.Store,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Profiles:     profiles,
		Resolver:     resolver,
		SessionMgr:   sessionMgr,
		StateStore:   stateStore,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured reports whether Google sign-in is available.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeLogin handles GET /auth/google: saves a one-time state and sends
// the browser to Google's consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	returnURL := r.URL.Query().Get("return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(10 * time.Minute)
	if err := h.StateStore.Save(ctx, state, returnURL, expiresAt); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	url := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /auth/google/callback: validates the state,
// exchanges the code, fetches the Google identity, and signs the user in,
// creating the profile on first sight.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, "/login?error=google_denied", http.StatusSeeOther)
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.StateStore.Validate(ctxTimeout, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		http.Redirect(w, r, "/login?error=invalid_code", http.StatusSeeOther)
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange", http.StatusSeeOther)
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}

	profile, err := h.findOrCreateProfile(ctx, googleUser)
	if err != nil {
		if errors.Is(err, errEmailInUse) {
			http.Redirect(w, r, "/login?error=email_in_use", http.StatusSeeOther)
			return
		}
		h.Log.Error("Google OAuth: profile lookup failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	if err := h.SessionMgr.Establish(w, r, &auth.SessionUser{
		ID:    profile.UserID,
		Name:  profile.DisplayName,
		Email: profile.Email,
	}); err != nil {
		h.Log.Error("Google OAuth: session", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	h.Resolver.Warm(profile.UserID, profile.DisplayName, profile.DarkMode)

	h.Log.Info("sign-in via google", zap.String("user_id", profile.UserID))
	if returnURL == "" || returnURL[0] != '/' {
		returnURL = "/"
	}
	http.Redirect(w, r, returnURL, http.StatusSeeOther)
}

var errEmailInUse = errors.New("email belongs to a password account")

// UserIDFor returns the stable user ID for a Google account.
func UserIDFor(googleID string) string {
	return "g:" + googleID
}

// findOrCreateProfile resolves the Google identity to a profile, creating
// one on first sign-in. An email already registered to a password account
// is rejected rather than silently linked.
func (h *Handler) findOrCreateProfile(ctx context.Context, gu *googleUserInfo) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	userID := UserIDFor(gu.ID)
	profile, err := h.Profiles.GetByID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, profilestore.ErrNotFound) {
		return nil, err
	}

	// Keep the email only if it passes the structural check; a malformed
	// value from the userinfo payload is dropped rather than stored or
	// matched against existing accounts.
	email := normalize.Email(gu.Email)
	if !authutil.IsValidEmail(email) {
		email = ""
	}
	if email != "" {
		if existing, err := h.Profiles.GetByEmail(ctx, email); err == nil {
			if existing.AuthMethod != "google" {
				return nil, errEmailInUse
			}
			return existing, nil
		} else if !errors.Is(err, profilestore.ErrNotFound) {
			return nil, err
		}
	}

	name := normalize.Name(sanitize.Sanitize(gu.Name))
	if name == "" {
		name = profilestore.DefaultName(userID)
	}
	err = h.Profiles.Create(ctx, profilestore.CreateInput{
		UserID:      userID,
		DisplayName: name,
		Email:       email,
		AuthMethod:  "google",
	})
	if errors.Is(err, profilestore.ErrNameTaken) {
		// Collision with an existing member's name; disambiguate with the
		// Google ID prefix and retry once.
		name = fmt.Sprintf("%s (%s)", name, shortID(gu.ID))
		err = h.Profiles.Create(ctx, profilestore.CreateInput{
			UserID:      userID,
			DisplayName: name,
			Email:       email,
			AuthMethod:  "google",
		})
	}
	if err != nil {
		return nil, err
	}
	return h.Profiles.GetByID(ctx, userID)
}

func shortID(id string) string {
	if len(id) > 6 {
		return id[:6]
	}
	return id
}

// googleUserInfo is the slice of Google's userinfo response this app uses.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo
// endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
