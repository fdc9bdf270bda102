package utils

import (
	"context"

	"github.com/google/uuid"
)

// UserData is the authenticated caller as resolved by the auth guard. It never
// carries the password hash.
type UserData struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Picture   *string   `json:"picture,omitempty"`
}

type contextKey string

const (
	ContextUserIDKey contextKey = "userID"
	ContextUserKey   contextKey = "user"
)

func WithUser(ctx context.Context, user UserData) context.Context {
	ctx = context.WithValue(ctx, ContextUserIDKey, user.ID.String())
	return context.WithValue(ctx, ContextUserKey, user)
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID := ctx.Value(ContextUserIDKey)
	userIDStr, ok := userID.(string)
	return userIDStr, ok
}

func GetUserFromContext(ctx context.Context) (UserData, bool) {
	user, ok := ctx.Value(ContextUserKey).(UserData)
	return user, ok
}
