package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	aptcmd "github.com/flathunt/platform/listing-service/internal/command"
	"github.com/flathunt/platform/listing-service/internal/handler"
	aptqry "github.com/flathunt/platform/listing-service/internal/query"
	"github.com/flathunt/platform/listing-service/internal/repository"
	"github.com/flathunt/platform/shared/auth"
	"github.com/flathunt/platform/shared/config"
	"github.com/flathunt/platform/shared/database"
	"github.com/flathunt/platform/shared/events"
	"github.com/flathunt/platform/shared/geo"
	"github.com/flathunt/platform/shared/logging"
	redisClient "github.com/flathunt/platform/shared/redis"
	"github.com/flathunt/platform/shared/server"
	"github.com/gin-gonic/gin"
)

const serviceName = "listing-service"

func main() {
	cfg, err := config.Load("8082")
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

	// Redis is only used to publish listing events here.
	var publisher events.EventPublisher = events.NopPublisher{}
	redis, err := redisClient.NewClient(ctx, redisClient.OptionsFromConfig(cfg))
	if err != nil {
		logger.Warn(ctx, "redis unavailable, events disabled", "addr", cfg.RedisAddr, "error", err)
	} else {
		defer redis.Close()
		publisher = events.NewPublisher(redis.Client)
	}

	// --- CQRS wiring ---
	readRepo := repository.NewApartmentReadRepository(st, cfg.StoreTimeout)
	origin := geo.NewPoint(cfg.SearchOriginLng, cfg.SearchOriginLat)
	commandSvc := aptcmd.NewApartmentCommandService(st, tokens, publisher, logger, cfg.StoreTimeout)
	querySvc := aptqry.NewApartmentQueryService(readRepo, origin, logger)

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(serviceName, logger, st.Ping)
	handler.NewApartmentHandler(commandSvc, querySvc).RegisterRoutes(router.Group("/v1"))

	logger.Info(ctx, "starting", "port", cfg.Port, "mode", cfg.Mode(), "driver", cfg.StoreDriver)
	return server.Run(ctx, ":"+cfg.Port, router, logger, cfg.ShutdownTimeout)
}
