// internal/app/features/settings/routes.go
package settings

import (
	"github.com/go-chi/chi/v5"

	sessionauth "github.com/ideaslab/server/internal/app/system/auth"
)

// Routes serves the admin settings procedures, mounted at /api/settings.
func Routes(h *Handler, sessionMgr *sessionauth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireAdmin)
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleUpdate)
	return r
}
