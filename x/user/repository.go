//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mock/repository.go
package user

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/totegamma/sigchat/core"
	"github.com/totegamma/sigchat/x/store"
)

const (
	cacheKeyPrefix  = "sigchat:user:"
	cacheExpiration = 600
	maxCacheKeyLen  = 250
)

// Repository is the interface for user repository
type Repository interface {
	Insert(ctx context.Context, user core.User) (core.User, error)
	FindByUsername(ctx context.Context, username string) (core.User, error)
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	users *store.Collection[core.User]
	mc    *memcache.Client
}

// NewRepository creates a new user repository. mc may be nil to disable caching.
func NewRepository(users *store.Collection[core.User], mc *memcache.Client) Repository {
	return &repository{users: users, mc: mc}
}

// Insert stores a user
func (r *repository) Insert(ctx context.Context, user core.User) (core.User, error) {
	ctx, span := tracer.Start(ctx, "User.Repository.Insert")
	defer span.End()

	created, err := r.users.Insert(ctx, user)
	if err != nil {
		span.RecordError(err)
		return core.User{}, err
	}

	return created, nil
}

func cacheKey(username string) (string, bool) {
	key := cacheKeyPrefix + base64.RawURLEncoding.EncodeToString([]byte(username))
	return key, len(key) <= maxCacheKeyLen
}

// cached users never go stale because users are never updated
type cachedUser struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
	Salt         string `json:"salt"`
}

// FindByUsername returns the first user with the given username
func (r *repository) FindByUsername(ctx context.Context, username string) (core.User, error) {
	ctx, span := tracer.Start(ctx, "User.Repository.FindByUsername")
	defer span.End()

	key, cacheable := cacheKey(username)
	cacheable = cacheable && r.mc != nil

	if cacheable {
		item, err := r.mc.Get(key)
		if err == nil {
			var cached cachedUser
			err = json.Unmarshal(item.Value, &cached)
			if err == nil {
				return core.User(cached), nil
			}
		}
		if err != nil && err != memcache.ErrCacheMiss {
			slog.DebugContext(ctx, "user cache unavailable", slog.String("error", err.Error()), slog.String("module", "user"))
		}
	}

	user, err := r.users.FindOne(ctx, core.User{Username: username})
	if err != nil {
		return core.User{}, err
	}

	if cacheable {
		value, err := json.Marshal(cachedUser(user))
		if err == nil {
			err = r.mc.Set(&memcache.Item{Key: key, Value: value, Expiration: cacheExpiration})
		}
		if err != nil {
			slog.DebugContext(ctx, "failed to cache user", slog.String("error", err.Error()), slog.String("module", "user"))
		}
	}

	return user, nil
}

// Count returns the number of registered users
func (r *repository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "User.Repository.Count")
	defer span.End()

	return r.users.Count(ctx)
}
