// internal/app/features/authdiscord/routes.go
package authdiscord

import "github.com/go-chi/chi/v5"

// Routes returns the router for the OAuth endpoints, mounted at
// /auth/discord. Both routes are public.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLogin)
	r.Get("/callback", h.ServeCallback)
	return r
}
