//go:build wireinject

package sigchat

import (
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"

	"github.com/totegamma/sigchat/core"
	"github.com/totegamma/sigchat/x/hasher"
	"github.com/totegamma/sigchat/x/key"
	"github.com/totegamma/sigchat/x/message"
	"github.com/totegamma/sigchat/x/realtime"
	"github.com/totegamma/sigchat/x/store"
	"github.com/totegamma/sigchat/x/user"
)

// Lv0
var hasherServiceProvider = wire.NewSet(hasher.NewService)
var realtimeServiceProvider = wire.NewSet(realtime.NewService)

// Lv1
var keyServiceProvider = wire.NewSet(key.NewService)
var messageServiceProvider = wire.NewSet(message.NewService, message.NewRepository)
var userServiceProvider = wire.NewSet(user.NewService, user.NewRepository, SetupHasherService)

// -----------

func SetupHasherService() core.HasherService {
	wire.Build(hasherServiceProvider)
	return nil
}

func SetupRealtimeService(hub *realtime.Hub, rdb *redis.Client) realtime.Service {
	wire.Build(realtimeServiceProvider)
	return nil
}

func SetupKeyService(rt core.RealtimeService) core.KeyService {
	wire.Build(keyServiceProvider)
	return nil
}

func SetupMessageService(messages *store.Collection[core.Message], rt core.RealtimeService) core.MessageService {
	wire.Build(messageServiceProvider)
	return nil
}

func SetupUserService(users *store.Collection[core.User], mc *memcache.Client, config core.Config) core.UserService {
	wire.Build(userServiceProvider)
	return nil
}
