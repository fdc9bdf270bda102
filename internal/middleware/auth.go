package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/colearn/backend/internal/apperr"
	"github.com/colearn/backend/internal/token"
	"github.com/colearn/backend/internal/utils"
)

type TokenVerifier interface {
	Verify(tokenString string, kind token.Kind) (*token.Claims, error)
}

type UserFetcher interface {
	FindUserByID(ctx context.Context, id string) (utils.UserData, error)
}

// AuthMiddleware authenticates the bearer access token and attaches the resolved
// user to the request context.
//
//	missing header        401 no authorization provided
//	bad signature/claims  403 token invalid
//	expired               401 token expired
//	user gone             401 user not found
func AuthMiddleware(verifier TokenVerifier, fetcher UserFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r.Header.Get("Authorization"))
			if raw == "" {
				utils.WriteError(w, apperr.Unauthenticated("no authorization provided"))
				return
			}

			claims, err := verifier.Verify(raw, token.Access)
			switch {
			case errors.Is(err, token.ErrTokenExpired):
				utils.WriteError(w, apperr.Unauthenticated("token expired"))
				return
			case err != nil:
				utils.WriteError(w, apperr.Forbidden("token invalid"))
				return
			}

			user, err := fetcher.FindUserByID(r.Context(), claims.UserID)
			if apperr.Is(err, apperr.KindNotFound) {
				utils.WriteError(w, apperr.Unauthenticated("user not found"))
				return
			}
			if err != nil {
				utils.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.WithUser(r.Context(), user)))
		})
	}
}

func bearerToken(header string) string {
	scheme, value, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(value)
}
