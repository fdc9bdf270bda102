package auth

import (
	"context"

	"github.com/colearn/backend/internal/cache"
	"github.com/colearn/backend/internal/utils"
	"github.com/google/uuid"
)

// UserInfo resolves the user named by an access token for the auth guard.
type UserInfo struct {
	Store *Store
	Cache *cache.UserCache
}

func (ui UserInfo) FindUserByID(ctx context.Context, id string) (utils.UserData, error) {
	if user, ok := ui.Cache.Get(ctx, id); ok {
		return user, nil
	}

	userID, err := uuid.Parse(id)
	if err != nil {
		return utils.UserData{}, errUserNotFound
	}
	user, err := ui.Store.FindUserByID(ctx, userID)
	if err != nil {
		return utils.UserData{}, err
	}

	data := user.Data()
	ui.Cache.Set(ctx, data)
	return data, nil
}
