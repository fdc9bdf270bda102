// Package users serves profile reads and self-service updates on top of the
// auth credential store.
package users

import (
	"net/http"

	"github.com/colearn/backend/internal/apperr"
	"github.com/colearn/backend/internal/auth"
	"github.com/colearn/backend/internal/cache"
	"github.com/colearn/backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	store *auth.Store
	cache *cache.UserCache
}

func NewHandler(store *auth.Store, c *cache.UserCache) *Handler {
	return &Handler{store: store, cache: c}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	out := make([]utils.UserData, 0, len(users))
	for _, u := range users {
		out = append(out, u.Data())
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.GetUserFromContext(r.Context())
	if !ok {
		utils.WriteError(w, apperr.Unauthenticated("no authorization provided"))
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, apperr.NotFound("User not found"))
		return
	}
	user, err := h.store.FindUserByID(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user.Data())
}

type updateRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Picture   *string `json:"picture"`
	Password  *string `json:"password"`
}

func (req updateRequest) toUpdate() (auth.UserUpdate, error) {
	upd := auth.UserUpdate{Picture: req.Picture}
	if req.FirstName != nil {
		name := utils.NormalizeName(*req.FirstName)
		if name == "" {
			return upd, apperr.Validation("firstName cannot be empty")
		}
		upd.FirstName = &name
	}
	if req.LastName != nil {
		name := utils.NormalizeName(*req.LastName)
		if name == "" {
			return upd, apperr.Validation("lastName cannot be empty")
		}
		upd.LastName = &name
	}
	if req.Email != nil {
		if utils.NormalizeEmail(*req.Email) == "" {
			return upd, apperr.Validation("email cannot be empty")
		}
		upd.Email = req.Email
	}
	if req.Password != nil {
		if *req.Password == "" {
			return upd, apperr.Validation("password cannot be empty")
		}
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			return upd, apperr.Server(err)
		}
		upd.Password = &hashed
	}
	return upd, nil
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	me, ok := utils.GetUserFromContext(r.Context())
	if !ok {
		utils.WriteError(w, apperr.Unauthenticated("no authorization provided"))
		return
	}
	var req updateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	upd, err := req.toUpdate()
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	user, err := h.store.UpdateUser(r.Context(), me.ID, upd)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), me.ID.String())
	utils.WriteJSON(w, http.StatusOK, user.Data())
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	me, ok := utils.GetUserFromContext(r.Context())
	if !ok {
		utils.WriteError(w, apperr.Unauthenticated("no authorization provided"))
		return
	}
	if err := h.store.DeleteUser(r.Context(), me.ID); err != nil {
		utils.WriteError(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), me.ID.String())
	utils.WriteMessage(w, http.StatusOK, "User deleted successfully")
}
