// Package cache keeps recently resolved users in redis so the auth guard does not
// hit postgres on every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/colearn/backend/internal/utils"
	"github.com/redis/go-redis/v9"
)

const userKeyPrefix = "colearn:user:"

// UserCache is safe to use through a nil pointer, which behaves as an always-empty cache.
type UserCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewUserCache(rdb *redis.Client, ttl time.Duration) *UserCache {
	if rdb == nil {
		return nil
	}
	return &UserCache{rdb: rdb, ttl: ttl}
}

func key(id string) string { return userKeyPrefix + id }

func (c *UserCache) Get(ctx context.Context, id string) (utils.UserData, bool) {
	if c == nil {
		return utils.UserData{}, false
	}
	val, err := c.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return utils.UserData{}, false
	}
	if err != nil {
		log.Printf("[cache] get user %s: %v", id, err)
		return utils.UserData{}, false
	}

	var user utils.UserData
	if err := json.Unmarshal(val, &user); err != nil {
		log.Printf("[cache] decode user %s: %v", id, err)
		return utils.UserData{}, false
	}
	return user, true
}

func (c *UserCache) Set(ctx context.Context, user utils.UserData) {
	if c == nil {
		return
	}
	b, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(user.ID.String()), b, c.ttl).Err(); err != nil {
		log.Printf("[cache] set user %s: %v", user.ID, err)
	}
}

func (c *UserCache) Invalidate(ctx context.Context, id string) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, key(id)).Err(); err != nil {
		log.Printf("[cache] invalidate user %s: %v", id, err)
	}
}

// Connect returns nil when addr is empty. A configured but unreachable redis is fatal.
func Connect(ctx context.Context, addr, password string) *redis.Client {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("redis ping failed: %v", err)
	}
	log.Printf("Connected to redis at %s", addr)
	return rdb
}
