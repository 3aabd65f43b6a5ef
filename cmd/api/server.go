package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/totegamma/sigchat"
	"github.com/totegamma/sigchat/core"
	"github.com/totegamma/sigchat/x/key"
	"github.com/totegamma/sigchat/x/message"
	"github.com/totegamma/sigchat/x/realtime"
	"github.com/totegamma/sigchat/x/store"
	"github.com/totegamma/sigchat/x/user"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	e        *echo.Echo
	hub      *realtime.Hub
	rdb      *redis.Client
	mc       *memcache.Client
	messages *store.Collection[core.Message]
	users    *store.Collection[core.User]
	registry *prometheus.Registry

	messageService core.MessageService
	userService    core.UserService
	cancel         context.CancelFunc
}

func loadCollections(ctx context.Context, config Config) (*store.Collection[core.Message], *store.Collection[core.User], error) {
	storeConfig := store.Config{
		DataDir: config.Server.DataDir,
		Dsn:     config.Server.Dsn,
	}

	messageDialector, err := store.Dialector(storeConfig, "messages")
	if err != nil {
		return nil, nil, core.NewErrorStartup("messages", err)
	}
	userDialector, err := store.Dialector(storeConfig, "users")
	if err != nil {
		return nil, nil, core.NewErrorStartup("users", err)
	}

	messages := store.NewCollection[core.Message]("messages", messageDialector, store.Options{})
	users := store.NewCollection[core.User]("users", userDialector, store.Options{})

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return messages.Load(egctx)
	})
	eg.Go(func() error {
		return users.Load(egctx)
	})

	err = eg.Wait()
	if err != nil {
		messages.Close()
		users.Close()
		return nil, nil, core.NewErrorStartup("load collections", err)
	}

	return messages, users, nil
}

func setupRedis(config Config) (*redis.Client, error) {
	if config.Server.RedisAddr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Server.RedisAddr,
		Password: "", // no password set
		DB:       config.Server.RedisDB,
	})
	err := redisotel.InstrumentTracing(
		rdb,
		redisotel.WithAttributes(
			attribute.KeyValue{
				Key:   "db.name",
				Value: attribute.StringValue("redis"),
			},
		),
	)
	if err != nil {
		rdb.Close()
		return nil, core.NewErrorStartup("redis tracing", err)
	}

	return rdb, nil
}

// newServer loads the collections and wires every component. Nothing listens yet.
func newServer(ctx context.Context, config Config) (*server, error) {
	messages, users, err := loadCollections(ctx, config)
	if err != nil {
		return nil, err
	}

	rdb, err := setupRedis(config)
	if err != nil {
		messages.Close()
		users.Close()
		return nil, err
	}

	hub := realtime.NewHub()
	go hub.Run()

	realtimeService := sigchat.SetupRealtimeService(hub, rdb)
	relayCtx, cancel := context.WithCancel(context.Background())
	err = realtimeService.Start(relayCtx)
	if err != nil {
		cancel()
		hub.Shutdown(time.Second)
		messages.Close()
		users.Close()
		if rdb != nil {
			rdb.Close()
		}
		return nil, core.NewErrorStartup("realtime relay", err)
	}

	var mc *memcache.Client
	if config.Server.MemcachedAddr != "" {
		mc = memcache.New(config.Server.MemcachedAddr)
	}

	s := &server{
		hub:      hub,
		rdb:      rdb,
		mc:       mc,
		messages: messages,
		users:    users,
		registry: prometheus.NewRegistry(),
		cancel:   cancel,
	}

	coreConfig := core.SetupConfig(config.Hasher)

	s.messageService = sigchat.SetupMessageService(messages, realtimeService)
	s.userService = sigchat.SetupUserService(users, mc, coreConfig)
	keyService := sigchat.SetupKeyService(realtimeService)

	messageHandler := message.NewHandler(s.messageService)
	keyHandler := key.NewHandler(keyService)
	userHandler := user.NewHandler(s.userService)
	realtimeHandler := realtime.NewHandler(hub)

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	if config.Server.EnableTrace {
		skipper := otelecho.WithSkipper(
			func(c echo.Context) bool {
				return c.Path() == "/metrics" || c.Path() == "/health"
			},
		)
		e.Use(otelecho.Middleware("sigchat", skipper))
	}

	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "sigchat",
		Registerer: s.registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health" || c.Path() == "/socket"
		},
	}))

	err = realtime.RegisterMetrics(s.registry)
	if err != nil {
		s.Close()
		return nil, core.NewErrorStartup("metrics", err)
	}

	e.Static("/", config.Server.StaticDir)
	e.GET("/", func(c echo.Context) error {
		return c.File(filepath.Join(config.Server.StaticDir, "index.html"))
	})

	api := e.Group("/api")
	api.POST("/send-message", messageHandler.Send)
	api.POST("/release-public-key", keyHandler.Release)
	api.POST("/register", userHandler.Register)
	api.POST("/login", userHandler.Login)

	e.GET("/socket", realtimeHandler.Connect)

	e.GET("/health", func(c echo.Context) (err error) {
		ctx := c.Request().Context()

		err = s.messages.Ping(ctx)
		if err != nil {
			return c.String(http.StatusInternalServerError, "db error")
		}
		err = s.users.Ping(ctx)
		if err != nil {
			return c.String(http.StatusInternalServerError, "db error")
		}

		if s.rdb != nil {
			err = s.rdb.Ping(ctx).Err()
			if err != nil {
				return c.String(http.StatusInternalServerError, "redis error")
			}
		}

		if s.mc != nil {
			err = s.mc.Ping()
			if err != nil {
				return c.String(http.StatusInternalServerError, "memcached error")
			}
		}

		return c.String(http.StatusOK, "ok")
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	s.e = e
	return s, nil
}

// collectMetrics refreshes the resource gauges until ctx is done
func (s *server) collectMetrics(ctx context.Context, interval time.Duration) error {
	var resourceCountMetrics = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sigchat_resources_count",
			Help: "resources count",
		},
		[]string{"type"},
	)
	err := s.registry.Register(resourceCountMetrics)
	if err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			tctx, cancel := context.WithTimeout(ctx, 10*time.Second)

			count, err := s.messageService.Count(tctx)
			if err != nil {
				slog.Error(fmt.Sprintf("failed to count messages: %v", err))
			} else {
				resourceCountMetrics.WithLabelValues("message").Set(float64(count))
			}

			count, err = s.userService.Count(tctx)
			if err != nil {
				slog.Error(fmt.Sprintf("failed to count users: %v", err))
			} else {
				resourceCountMetrics.WithLabelValues("user").Set(float64(count))
			}

			cancel()
		}
	}()

	return nil
}

// Close shuts the server down in reverse order of construction
func (s *server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.e != nil {
		err := s.e.Shutdown(ctx)
		if err != nil {
			slog.Error(fmt.Sprintf("failed to shutdown http server: %v", err))
		}
	}

	s.cancel()

	err := s.hub.Shutdown(shutdownTimeout)
	if err != nil {
		slog.Error(fmt.Sprintf("failed to shutdown realtime hub: %v", err))
	}

	if s.rdb != nil {
		s.rdb.Close()
	}

	if s.mc != nil {
		s.mc.Close()
	}

	s.messages.Close()
	s.users.Close()
}
