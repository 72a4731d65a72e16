// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	authgooglefeature "github.com/whosinapp/whosin/internal/app/features/authgoogle"
	calendarfeature "github.com/whosinapp/whosin/internal/app/features/calendar"
	errorsfeature "github.com/whosinapp/whosin/internal/app/features/errors"
	healthfeature "github.com/whosinapp/whosin/internal/app/features/health"
	loginfeature "github.com/whosinapp/whosin/internal/app/features/login"
	logoutfeature "github.com/whosinapp/whosin/internal/app/features/logout"
	profilefeature "github.com/whosinapp/whosin/internal/app/features/profile"
	"github.com/whosinapp/whosin/internal/app/system/auth"
	"github.com/whosinapp/whosin/internal/app/system/metrics"
	"github.com/whosinapp/whosin/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed, so the shared runtime is ready.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", metrics.Handler(rt.registry))

	// Authentication.
	loginHandler := loginfeature.NewHandler(rt.profiles, rt.resolver, sessionMgr, errLog,
		ratelimit.NewSignInLimiter(), logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	googleHandler := authgooglefeature.NewHandler(rt.profiles, rt.resolver, sessionMgr, rt.states,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Identity and preferences.
	profileHandler := profilefeature.NewHandler(rt.profiles, rt.resolver, rt.board, errLog, logger)
	r.Mount("/api/profile", profilefeature.Routes(profileHandler, sessionMgr))

	// Availability calendar.
	calendarHandler := calendarfeature.NewHandler(rt.board, rt.days, rt.profiles, rt.resolver, errLog, logger)
	r.Mount("/api/calendar", calendarfeature.Routes(calendarHandler, sessionMgr))

	return r, nil
}
