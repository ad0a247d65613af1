package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/flathunt/platform/api-gateway/internal/client"
	"github.com/flathunt/platform/api-gateway/internal/schema"
	"github.com/flathunt/platform/shared/config"
	"github.com/flathunt/platform/shared/logging"
	"github.com/flathunt/platform/shared/middleware"
	"github.com/flathunt/platform/shared/server"
	"github.com/gin-gonic/gin"
)

const serviceName = "api-gateway"

func main() {
	cfg, err := config.Load("5085")
	if err != nil {
		logging.New(serviceName, "info").Error(context.Background(), "failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(serviceName, cfg.LogLevel)
	if err := run(cfg, logger); err != nil {
		logger.Error(context.Background(), "gateway stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	accounts := client.NewAccountClient(cfg.AccountServiceURL, nil)
	listings := client.NewListingClient(cfg.ListingServiceURL, nil)

	s, err := schema.New(accounts, listings, logger)
	if err != nil {
		return err
	}
	graphqlHandler := gin.WrapH(schema.NewHandler(&s, cfg.GraphiQL))

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(serviceName, logger, nil)
	router.Use(middleware.CaptureAuthorization())
	router.GET("/graphql", graphqlHandler)
	router.POST("/graphql", graphqlHandler)

	logger.Info(ctx, "starting", "port", cfg.Port, "graphiql", cfg.GraphiQL,
		"account_service", cfg.AccountServiceURL, "listing_service", cfg.ListingServiceURL)
	return server.Run(ctx, ":"+cfg.Port, middleware.CORS(cfg.AllowedOrigins())(router), logger, cfg.ShutdownTimeout)
}
