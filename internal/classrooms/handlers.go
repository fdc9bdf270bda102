package classrooms

import (
	"net/http"
	"time"

	"github.com/colearn/backend/internal/apperr"
	"github.com/colearn/backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	manager       *Manager
	invitationTTL time.Duration
}

func NewHandler(manager *Manager, invitationTTL time.Duration) *Handler {
	return &Handler{manager: manager, invitationTTL: invitationTTL}
}

func currentUser(r *http.Request) (uuid.UUID, error) {
	raw, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, apperr.Unauthenticated("no authorization provided")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Unauthenticated("no authorization provided")
	}
	return id, nil
}

func urlID(r *http.Request, param string, notFound *apperr.Error) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}

// target resolves the caller and the {id} classroom of the request.
func target(r *http.Request) (userID, classroomID uuid.UUID, err error) {
	if userID, err = currentUser(r); err != nil {
		return
	}
	classroomID, err = urlID(r, "id", errClassroomNotFound)
	return
}

func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	list, err := h.manager.ListPublic(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	list, err := h.manager.ListMine(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) ListCreated(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	list, err := h.manager.ListCreated(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, classroomID, err := target(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	c, err := h.manager.Get(r.Context(), userID, classroomID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

type createRequest struct {
	Name           string     `json:"name"`
	Description    *string    `json:"description"`
	Tags           []string   `json:"tags"`
	Avatar         *string    `json:"avatar"`
	Cover          *string    `json:"cover"`
	IsPrivate      bool       `json:"isPrivate"`
	ParentFolderID *uuid.UUID `json:"parentFolderId"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req createRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	c, err := h.manager.Create(r.Context(), userID, CreateClassroom(req))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, c)
}

type updateRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Avatar      *string   `json:"avatar"`
	Cover       *string   `json:"cover"`
	IsPrivate   *bool     `json:"isPrivate"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, classroomID, err := target(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req updateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	c, err := h.manager.Update(r.Context(), userID, classroomID, ClassroomUpdate(req))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, classroomID, err := target(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.manager.Delete(r.Context(), userID, classroomID); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Classroom deleted successfully")
}

type joinRequest struct {
	InvitationToken string     `json:"invitationToken"`
	ParentFolderID  *uuid.UUID `json:"parentFolderId"`
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	userID, classroomID, err := target(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req joinRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	enrollment, err := h.manager.Join(r.Context(), userID, classroomID, req.InvitationToken, req.ParentFolderID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, enrollment)
}

func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, classroomID, err := target(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.manager.Leave(r.Context(), userID, classroomID); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Left classroom successfully")
}

type moveRequest struct {
	FolderID *uuid.UUID `json:"folderId"`
}

func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	userID, classroomID, err := target(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req moveRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	if req.FolderID == nil {
		utils.WriteError(w, apperr.Validation("folderId is required"))
		return
	}
	if err := h.manager.MoveEnrollment(r.Context(), userID, classroomID, *req.FolderID); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Classroom moved successfully")
}

type invitationRequest struct {
	Role      string `json:"role"`
	ExpiresIn string `json:"expiresIn"`
	MaxUses   *int   `json:"maxUses"`
}

func (h *Handler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	userID, classroomID, err := target(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req invitationRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	ttl := h.invitationTTL
	if req.ExpiresIn != "" {
		if ttl, err = time.ParseDuration(req.ExpiresIn); err != nil {
			utils.WriteError(w, apperr.Validation("expiresIn must be a duration like 72h"))
			return
		}
	}

	inv, signed, err := h.manager.CreateInvitation(r.Context(), classroomID, userID, CreateInvitation{
		Role:      req.Role,
		ExpiresIn: ttl,
		MaxUses:   req.MaxUses,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"invitation": inv,
		"token":      signed,
	})
}

func (h *Handler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	_, classroomID, err := target(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	list, err := h.manager.ListInvitations(r.Context(), classroomID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) RevokeInvitation(w http.ResponseWriter, r *http.Request) {
	_, classroomID, err := target(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	invitationID, err := urlID(r, "invitationId", errInvitationNotFound)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.manager.RevokeInvitation(r.Context(), classroomID, invitationID); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Invitation revoked")
}
