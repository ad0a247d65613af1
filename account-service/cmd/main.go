package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	usercmd "github.com/flathunt/platform/account-service/internal/command"
	"github.com/flathunt/platform/account-service/internal/handler"
	userqry "github.com/flathunt/platform/account-service/internal/query"
	"github.com/flathunt/platform/account-service/internal/repository"
	"github.com/flathunt/platform/shared/auth"
	"github.com/flathunt/platform/shared/config"
	"github.com/flathunt/platform/shared/database"
	"github.com/flathunt/platform/shared/events"
	"github.com/flathunt/platform/shared/logging"
	redisClient "github.com/flathunt/platform/shared/redis"
	"github.com/flathunt/platform/shared/server"
	"github.com/flathunt/platform/shared/utils"
	"github.com/gin-gonic/gin"
)

const serviceName = "account-service"

func main() {
	cfg, err := config.Load("8081")
	if err != nil {
		logging.New(serviceName, "info").Error(context.Background(), "failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(serviceName, cfg.LogLevel)
	if err := run(cfg, logger); err != nil {
		logger.Error(context.Background(), "service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		return err
	}
	tokens, err := auth.NewJWTService(cfg.JWTSecret)
	if err != nil {
		return err
	}

	// Document store (source of truth)
	st, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Warn(closeCtx, "failed to close store", "error", err)
		}
	}()
	if cfg.Mode() != config.ModeProduction {
		if err := st.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	// Redis (event streaming + listing counter). The service runs without it.
	var (
		publisher events.EventPublisher = events.NopPublisher{}
		listings  repository.ListingCounter
	)
	redis, err := redisClient.NewClient(ctx, redisClient.OptionsFromConfig(cfg))
	if err != nil {
		logger.Warn(ctx, "redis unavailable, events disabled", "addr", cfg.RedisAddr, "error", err)
	} else {
		defer redis.Close()
		publisher = events.NewPublisher(redis.Client)
		listings = redisClient.NewCounter(redis.Client, repository.ListingCountKeyPrefix)
	}

	// --- CQRS wiring ---
	hasher := utils.NewBcryptHasher(utils.SaltRounds)
	readRepo := repository.NewUserReadRepository(st.Users(), listings)
	commandSvc := usercmd.NewUserCommandService(st, readRepo, hasher, tokens, publisher, logger, cfg.StoreTimeout)
	querySvc := userqry.NewUserQueryService(st.Users(), readRepo, hasher, tokens, logger, cfg.StoreTimeout)

	if redis != nil {
		subscriber := events.NewSubscriber(redis.Client, logger, events.SubscriberConfig{
			Group:    "account-service-group",
			Consumer: hostname(),
			Stream:   events.ListingEventsStream,
			Handler:  commandSvc.HandleListingEvent,
		})
		// Deferred after redis.Close, so the consumer has returned before
		// the client is closed.
		stop := subscriber.Background(ctx)
		defer stop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(serviceName, logger, st.Ping)
	handler.NewUserHandler(commandSvc, querySvc).RegisterRoutes(router.Group("/v1"))

	logger.Info(ctx, "starting", "port", cfg.Port, "mode", cfg.Mode(), "driver", cfg.StoreDriver)
	return server.Run(ctx, ":"+cfg.Port, router, logger, cfg.ShutdownTimeout)
}

func hostname() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return serviceName + "-" + h
	}
	return serviceName + "-1"
}
