package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler, guard func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(guard)

	r.Get("/", h.List)
	r.Get("/me", h.Me)
	r.Patch("/me", h.UpdateMe)
	r.Delete("/me", h.DeleteMe)
	r.Get("/{id}", h.Get)

	return r
}
