package classrooms

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler, guard func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.ListPublic)

	r.Group(func(r chi.Router) {
		r.Use(guard)

		r.Get("/all", h.ListMine)
		r.Get("/created", h.ListCreated)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/join", h.Join)
		r.Post("/{id}/leave", h.Leave)
		r.Put("/{id}/folder", h.Move)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(h.manager, RoleTeacher))
			r.Get("/{id}/invitations", h.ListInvitations)
			r.Post("/{id}/invitations", h.CreateInvitation)
			r.Delete("/{id}/invitations/{invitationId}", h.RevokeInvitation)
		})
	})

	return r
}
