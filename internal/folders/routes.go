package folders

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler, guard func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(guard)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/root", h.Root)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/children", h.Contents)
	r.Get("/{id}/classrooms", h.Classrooms)
	r.Get("/{id}/directories", h.Directories)

	return r
}
