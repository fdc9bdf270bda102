package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Middleware = func(http.Handler) http.Handler

func SetupRoutes(h *Handler, guard Middleware, limiter Middleware) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(limiter)
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})
	r.Get("/refresh", h.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(guard)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})

	return r
}
