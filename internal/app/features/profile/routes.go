// internal/app/features/profile/routes.go
package profile

import (
	"github.com/go-chi/chi/v5"

	sessionauth "github.com/ideaslab/server/internal/app/system/auth"
)

// Routes serves the profile procedures, mounted at /api/auth/profile.
func Routes(h *Handler, sessionMgr *sessionauth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireSignedIn)
	r.Get("/", h.HandleGetProfile)
	r.Post("/", h.HandleUpdateProfile)
	return r
}
