package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/colearn/backend/internal/apperr"
	"github.com/colearn/backend/internal/config"
	"github.com/colearn/backend/internal/token"
	"github.com/colearn/backend/internal/utils"
	"github.com/google/uuid"
)

const msgInvalidCredentials = "User credentials are invalid"

type Handler struct {
	store  *Store
	issuer *token.Issuer
	cfg    config.Config
}

func NewHandler(store *Store, issuer *token.Issuer, cfg config.Config) *Handler {
	return &Handler{store: store, issuer: issuer, cfg: cfg}
}

type registerRequest struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Picture   *string `json:"picture"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string         `json:"accessToken"`
	User        utils.UserData `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	if req.Password == "" {
		utils.WriteError(w, apperr.Validation("Password is required"))
		return
	}
	if utils.NormalizeEmail(req.Email) == "" || utils.NormalizeName(req.FirstName) == "" || utils.NormalizeName(req.LastName) == "" {
		utils.WriteError(w, apperr.Validation("firstName, lastName and email are required"))
		return
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		utils.WriteError(w, apperr.Server(err))
		return
	}

	user := &User{
		FirstName: utils.NormalizeName(req.FirstName),
		LastName:  utils.NormalizeName(req.LastName),
		Email:     req.Email,
		Password:  hashed,
		Picture:   req.Picture,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user.Data(),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		utils.WriteError(w, apperr.Validation("Email and password are required"))
		return
	}

	user, err := h.store.FindUserByEmail(r.Context(), req.Email)
	if apperr.Is(err, apperr.KindNotFound) {
		utils.WriteError(w, apperr.Validation(msgInvalidCredentials))
		return
	}
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if user.Password == "" {
		utils.WriteError(w, apperr.Validation(msgInvalidCredentials))
		return
	}
	if !CheckPassword(user.Password, req.Password) {
		utils.WriteError(w, apperr.Unauthenticated(msgInvalidCredentials))
		return
	}

	accessToken, _, err := h.issuer.Issue(user.ID.String(), token.Access)
	if err != nil {
		utils.WriteError(w, apperr.Server(err))
		return
	}
	refreshToken, refreshExpiry, err := h.issuer.Issue(user.ID.String(), token.Refresh)
	if err != nil {
		utils.WriteError(w, apperr.Server(err))
		return
	}
	session, err := h.store.CreateSession(r.Context(), user.ID, refreshToken, refreshExpiry)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	h.setRefreshCookies(w, refreshToken, session.ID, h.issuer.TTL(token.Refresh))
	utils.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: accessToken, User: user.Data()})
}

// Refresh exchanges a refresh cookie pair for a new access token and rotates
// the session: the presented session is revoked and a new one is issued.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, rawSessionID, ok := refreshCookies(r)
	if !ok {
		utils.WriteError(w, apperr.Unauthenticated("No refreshToken provided"))
		return
	}

	claims, err := h.issuer.Verify(refreshToken, token.Refresh)
	if err != nil {
		utils.WriteError(w, apperr.Unauthenticated("Invalid refreshToken"))
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		utils.WriteError(w, apperr.Unauthenticated("Invalid refreshToken"))
		return
	}
	sessionID, err := uuid.Parse(rawSessionID)
	if err != nil {
		utils.WriteError(w, errInvalidRefresh)
		return
	}

	session, err := h.store.FindSession(r.Context(), sessionID, userID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if !session.Active(time.Now()) || session.Token != refreshToken {
		utils.WriteError(w, errInvalidRefresh)
		return
	}

	user, err := h.store.FindUserByID(r.Context(), userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			err = apperr.Unauthenticated("User not found")
		}
		utils.WriteError(w, err)
		return
	}

	accessToken, _, err := h.issuer.IssueWithTTL(user.ID.String(), token.Access, h.cfg.RefreshedAccessTTL)
	if err != nil {
		utils.WriteError(w, apperr.Server(err))
		return
	}
	nextRefresh, nextExpiry, err := h.issuer.Issue(user.ID.String(), token.Refresh)
	if err != nil {
		utils.WriteError(w, apperr.Server(err))
		return
	}
	next, err := h.store.RotateSession(r.Context(), session, nextRefresh, nextExpiry)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	h.setRefreshCookies(w, nextRefresh, next.ID, h.issuer.TTL(token.Refresh))
	utils.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: accessToken, User: user.Data()})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, apperr.Unauthenticated("no authorization provided"))
		return
	}

	refreshToken, rawSessionID, _ := refreshCookies(r)
	h.clearRefreshCookies(w)
	if refreshToken == "" {
		utils.WriteError(w, apperr.Unauthenticated("No refreshToken provided"))
		return
	}

	claims, err := token.Decode(refreshToken)
	if err != nil || claims.UserID != userID {
		utils.WriteError(w, apperr.Forbidden("Forbidden"))
		return
	}

	sessionID, err := uuid.Parse(rawSessionID)
	if err != nil {
		utils.WriteError(w, errInvalidRefresh)
		return
	}
	owner, _ := uuid.Parse(userID)
	if err := h.store.RevokeSession(r.Context(), sessionID, owner); err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.GetUserFromContext(r.Context())
	if !ok {
		utils.WriteError(w, apperr.Server(errors.New("auth guard did not attach a user")))
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}
