package auth

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	RefreshTokenCookie   = "refreshToken"
	RefreshTokenIDCookie = "refreshTokenId"
)

func (h *Handler) cookie(name, value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if h.cfg.CookieSecure {
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

// setRefreshCookies sets both refresh cookies with the lifetime of the refresh token.
func (h *Handler) setRefreshCookies(w http.ResponseWriter, refreshToken string, sessionID uuid.UUID, ttl time.Duration) {
	maxAge := int(ttl / time.Second)
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, h.cookie(RefreshTokenCookie, refreshToken, maxAge))
	http.SetCookie(w, h.cookie(RefreshTokenIDCookie, sessionID.String(), maxAge))
}

func (h *Handler) clearRefreshCookies(w http.ResponseWriter) {
	http.SetCookie(w, h.cookie(RefreshTokenCookie, "", -1))
	http.SetCookie(w, h.cookie(RefreshTokenIDCookie, "", -1))
}

// refreshCookies returns the refresh token and session id, or ok=false when
// either is missing.
func refreshCookies(r *http.Request) (refreshToken, sessionID string, ok bool) {
	tokenCookie, err := r.Cookie(RefreshTokenCookie)
	if err != nil || tokenCookie.Value == "" {
		return "", "", false
	}
	idCookie, err := r.Cookie(RefreshTokenIDCookie)
	if err != nil || idCookie.Value == "" {
		return tokenCookie.Value, "", false
	}
	return tokenCookie.Value, idCookie.Value, true
}
