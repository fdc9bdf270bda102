package classrooms

import (
	"context"
	"net/http"

	"github.com/colearn/backend/internal/apperr"
	"github.com/colearn/backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// RoleLookup is satisfied by *Manager.
type RoleLookup interface {
	RoleOf(ctx context.Context, userID, classroomID uuid.UUID) (string, error)
}

// RequireRole admits the request only when the caller's role in the {id}
// classroom is one of roles. It runs after the auth guard.
func RequireRole(lookup RoleLookup, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawUser, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				utils.WriteError(w, apperr.Unauthenticated("no authorization provided"))
				return
			}
			userID, err := uuid.Parse(rawUser)
			if err != nil {
				utils.WriteError(w, apperr.Unauthenticated("no authorization provided"))
				return
			}
			classroomID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				utils.WriteError(w, errClassroomNotFound)
				return
			}

			role, err := lookup.RoleOf(r.Context(), userID, classroomID)
			if err != nil && !apperr.Is(err, apperr.KindNotFound) {
				utils.WriteError(w, err)
				return
			}
			if !allowed[role] {
				utils.WriteError(w, apperr.Forbidden("access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
