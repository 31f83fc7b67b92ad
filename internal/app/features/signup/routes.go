// internal/app/features/signup/routes.go
package signup

import (
	"github.com/go-chi/chi/v5"

	sessionauth "github.com/ideaslab/server/internal/app/system/auth"
)

// Routes serves registration, mounted at /api/auth/signup.
func Routes(h *Handler, sessionMgr *sessionauth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.With(sessionMgr.RequireSignedIn).Post("/", h.HandleSignup)
	return r
}

// HandleRoutes serves the public availability check, mounted at
// /api/auth/handle.
func HandleRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/check", h.HandleCheckHandle)
	return r
}
