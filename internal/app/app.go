package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	redisbroadcast "github.com/vovakirdan/chatline-server/internal/broadcast/redis"
	"github.com/vovakirdan/chatline-server/internal/config"
	"github.com/vovakirdan/chatline-server/internal/core"
	"github.com/vovakirdan/chatline-server/internal/service/messages"
	"github.com/vovakirdan/chatline-server/internal/service/users"
	"github.com/vovakirdan/chatline-server/internal/store"
	"github.com/vovakirdan/chatline-server/internal/store/open"
	transporthttp "github.com/vovakirdan/chatline-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	redis           *goredis.Client
	relay           *redisbroadcast.Relay
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := open.Store(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             core.NewHub(logger),
		store:           st,
		log:             logger,
	}

	publisher := core.Fanout{{Name: "hub", Publisher: a.hub}}
	if cfg.Redis.Addr != "" {
		client, err := initRedis(ctx, cfg.Redis)
		if err != nil {
			a.cleanup()
			return nil, err
		}
		a.redis = client

		origin := uuid.NewString()
		publisher = append(publisher, core.Sink{Name: "redis", Publisher: redisbroadcast.NewPublisher(client, cfg.Redis.Channel, origin)})
		a.relay = redisbroadcast.NewRelay(client, cfg.Redis.Channel, origin, a.hub, logger)
		logger.Info().Str("addr", cfg.Redis.Addr).Str("channel", cfg.Redis.Channel).Str("origin", origin).Msg("redis broadcast enabled")
	}

	var opts []messages.Option
	if cfg.Messages.Sanitize {
		opts = append(opts, messages.WithSanitizer(messages.StrictSanitizer()))
	}
	msgSvc := messages.New(messages.NewRepository(st, logger), publisher, logger, opts...)
	userSvc := users.New(st)

	a.server = transporthttp.NewServer(a.hub, msgSvc, userSvc, cfg, logger)
	return a, nil
}

func initRedis(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)

	if a.relay != nil {
		go func() {
			if err := a.relay.Run(ctx); err != nil {
				a.log.Error().Err(err).Msg("redis relay stopped")
			}
		}()
	}

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
