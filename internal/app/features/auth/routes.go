// internal/app/features/auth/routes.go
package auth

import (
	"github.com/go-chi/chi/v5"

	sessionauth "github.com/ideaslab/server/internal/app/system/auth"
)

// LoginRoutes serves the credential-exchange endpoints, mounted at
// /api/auth/login.
func LoginRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/pin", h.HandleLoginPin)
	r.Post("/token", h.HandleLoginToken)
	return r
}

// LogoutRoutes serves session destruction, mounted at /api/auth/logout.
func LogoutRoutes(h *Handler, sessionMgr *sessionauth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.With(sessionMgr.RequireSignedIn).Post("/", h.HandleLogout)
	return r
}
