// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authfeature "github.com/ideaslab/server/internal/app/features/auth"
	authdiscordfeature "github.com/ideaslab/server/internal/app/features/authdiscord"
	apierrors "github.com/ideaslab/server/internal/app/features/errors"
	healthfeature "github.com/ideaslab/server/internal/app/features/health"
	profilefeature "github.com/ideaslab/server/internal/app/features/profile"
	settingsfeature "github.com/ideaslab/server/internal/app/features/settings"
	signupfeature "github.com/ideaslab/server/internal/app/features/signup"
	"github.com/ideaslab/server/internal/app/system/auth"
	"github.com/ideaslab/server/internal/app/system/captcha"
	"github.com/ideaslab/server/internal/app/system/profilesync"
	"github.com/ideaslab/server/internal/app/system/ratelimit"
)

// BuildHandler constructs the root HTTP handler (router) for this
// WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and Startup have completed, so the gateway session in deps is already
// live. The router mounts one feature router per path prefix: the login
// procedures, the signed-in profile and signup procedures, the admin
// settings surface, the browser OAuth flow, and the health check.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	errLog := apierrors.NewErrorLogger(logger)
	sync := profilesync.New(deps.Users, deps.Guild, logger)
	verifier := captcha.New(appCfg.HCaptchaSecret, "", logger)

	r := chi.NewRouter()

	// Global auth middleware: loads the session principal into context
	// so handlers can use auth.CurrentUser / auth.SessionPrincipal.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Bot.Connected, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Login procedures: PIN and token redemption, then logout. Attempts
	// are throttled per client IP since PINs are guessable.
	authHandler := authfeature.NewHandler(deps.Pins, deps.Tokens, sessionMgr, errLog, logger)
	authHandler.Guard = ratelimit.NewLoginGuard()
	r.Mount("/api/auth/login", authfeature.LoginRoutes(authHandler))
	r.Mount("/api/auth/logout", authfeature.LogoutRoutes(authHandler, sessionMgr))

	// Signed-in profile: fetch and update.
	profileHandler := profilefeature.NewHandler(deps.Users, deps.Stats, deps.Guild, sync, errLog, logger)
	r.Mount("/api/auth/profile", profilefeature.Routes(profileHandler, sessionMgr))

	// Registration: handle availability is public, signup needs a session.
	signupHandler := signupfeature.NewHandler(deps.Users, deps.Settings, verifier, deps.Guild, sync, errLog, appCfg.BaseURL, logger)
	r.Mount("/api/auth/handle", signupfeature.HandleRoutes(signupHandler))
	r.Mount("/api/auth/signup", signupfeature.Routes(signupHandler, sessionMgr))

	// Admin settings surface.
	settingsHandler := settingsfeature.NewHandler(deps.Settings, deps.Guild, errLog, logger)
	r.Mount("/api/settings", settingsfeature.Routes(settingsHandler, sessionMgr))

	// Browser OAuth login, mounted only when credentials are configured.
	oauthHandler := authdiscordfeature.NewHandler(sessionMgr, deps.States, deps.Guild, appCfg.DiscordClientID, appCfg.DiscordClientSecret, appCfg.BaseURL, logger)
	if oauthHandler.IsConfigured() {
		r.Mount("/auth/discord", authdiscordfeature.Routes(oauthHandler))
	} else {
		logger.Info("Discord OAuth login not configured; /auth/discord is disabled")
	}

	return r, nil
}
