package folders

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/colearn/backend/internal/apperr"
	"github.com/colearn/backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler { return &Handler{store: store} }

// caller returns the authenticated user id and the {id} URL param when withID is set.
func caller(r *http.Request, withID bool) (userID, folderID uuid.UUID, err error) {
	raw, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, uuid.Nil, apperr.Unauthenticated("no authorization provided")
	}
	if userID, err = uuid.Parse(raw); err != nil {
		return uuid.Nil, uuid.Nil, apperr.Unauthenticated("no authorization provided")
	}
	if withID {
		if folderID, err = uuid.Parse(chi.URLParam(r, "id")); err != nil {
			return uuid.Nil, uuid.Nil, errNotFound
		}
	}
	return userID, folderID, nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r, false)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	folders, err := h.store.List(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, folders)
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r, false)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	root, err := h.store.GetOrCreateRoot(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, root)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, err := caller(r, true)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	folder, err := h.store.Get(r.Context(), userID, id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, folder)
}

func (h *Handler) Contents(w http.ResponseWriter, r *http.Request) {
	userID, id, err := caller(r, true)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	contents, err := h.store.Contents(r.Context(), userID, id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, contents)
}

func (h *Handler) Directories(w http.ResponseWriter, r *http.Request) {
	userID, id, err := caller(r, true)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	children, err := h.store.Children(r.Context(), userID, id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, children)
}

func (h *Handler) Classrooms(w http.ResponseWriter, r *http.Request) {
	userID, id, err := caller(r, true)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	classrooms, err := h.store.Classrooms(r.Context(), userID, id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, classrooms)
}

type createRequest struct {
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parentId"`
	Color    string     `json:"color"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r, false)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req createRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	folder, err := h.store.Create(r.Context(), userID, CreateFolder{
		Name:     req.Name,
		ParentID: req.ParentID,
		Color:    req.Color,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, folder)
}

// updateRequest keeps parentId raw so that an explicit null (move to top level)
// can be told apart from an absent field.
type updateRequest struct {
	Name     *string         `json:"name"`
	Color    *string         `json:"color"`
	ParentID json.RawMessage `json:"parentId"`
}

func (req updateRequest) toUpdate() (FolderUpdate, error) {
	upd := FolderUpdate{Name: req.Name, Color: req.Color}
	if req.ParentID == nil {
		return upd, nil
	}
	upd.Move = true
	if bytes.Equal(bytes.TrimSpace(req.ParentID), []byte("null")) {
		return upd, nil
	}
	var parent uuid.UUID
	if err := json.Unmarshal(req.ParentID, &parent); err != nil {
		return upd, apperr.Validation("parentId must be a folder id or null")
	}
	upd.MoveTo = &parent
	return upd, nil
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, id, err := caller(r, true)
	if err != nil {
		utils.WriteError(w, err)
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
	folder, err := h.store.Update(r.Context(), userID, id, upd)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, folder)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, id, err := caller(r, true)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.store.Delete(r.Context(), userID, id); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Folder deleted successfully")
}
