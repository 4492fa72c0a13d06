package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glimo/internal/api"
	"glimo/internal/cache"
	"glimo/internal/middleware"
	"glimo/internal/payment"
	"glimo/internal/realtime"
	"glimo/internal/repository"
	"glimo/internal/service"
	"glimo/pkg/auth"
	"glimo/pkg/logger"
	"glimo/pkg/notify"
	"glimo/pkg/storage"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "glimo",
		Usage: "chat, rewards and payments backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "directory holding config.yaml and an optional .env",
				Value:   configPath,
				EnvVars: []string{"APP_CONFIG_DIR"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP and realtime server",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply database migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "down", Usage: "roll every migration back"},
				},
				Action: migrate,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func migrate(c *cli.Context) error {
	cfg, err := LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogEncoding); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	down := c.Bool("down")
	if err := repository.Migrate(cfg.Database, down); err != nil {
		return err
	}
	logger.Logger().Info("Migrations applied", zap.Bool("down", down))
	return nil
}

func serve(c *cli.Context) error {
	cfg, err := LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogEncoding); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	defer repo.Close()

	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer rdb.Close()

	objects, err := storage.NewS3Storage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	notifier, err := notify.New(cfg.Telegram)
	if err != nil {
		zapLogger.Warn("Admin notifications disabled", zap.Error(err))
		notifier = notify.Nop{}
	}

	ids, err := snowflake.NewNode(cfg.Snowflake.Node)
	if err != nil {
		return fmt.Errorf("failed to create id generator: %w", err)
	}

	var broker realtime.Broker = realtime.NewLocalBroker()
	if cfg.Realtime.Broker == "redis" {
		broker = realtime.NewRedisBroker(rdb)
	}
	hub := realtime.NewHub(service.NewSubscriptionAuthorizer(repo))
	go func() {
		if err := broker.Run(ctx, hub); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("Realtime broker stopped", zap.Error(err))
		}
	}()

	profileService := service.NewProfileService(repo, objects)
	rewardService := service.NewRewardService(repo)
	conversationService := service.NewConversationService(repo)
	messageService := service.NewMessageService(repo, objects, broker, ids)
	typingService := service.NewTypingService(repo, cache.NewTypingStore(rdb), broker)
	paymentService := service.NewPaymentService(
		repo,
		payment.NewStripeProvider(cfg.Payments.Config),
		notifier,
		cfg.Payments.Bundles,
		cfg.Payments.PremiumPriceID,
	)
	partnershipService := service.NewPartnershipService(repo, broker)
	groupService := service.NewGroupService(repo)
	catalogService := service.NewCatalogService(repo)

	sessionAuth := auth.NewSessionAuth(cfg.Auth.JWTSecret, cfg.Auth.Audience)
	authz := middleware.NewAuthorization(profileService)
	messageLimit := middleware.NewRateLimiter(rdb, "messages", middleware.PerMinute(cfg.RateLimit.MessagesPerMinute)).Handler()
	checkoutLimit := middleware.NewRateLimiter(rdb, "checkout", middleware.PerMinute(cfg.RateLimit.CheckoutPerMinute)).Handler()

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	config := cors.DefaultConfig()
	if len(cfg.Realtime.AllowedOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = cfg.Realtime.AllowedOrigins
	}
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	a := router.Group("/api/v1")
	api.NewProfileRoutes(a, profileService, rewardService, sessionAuth)
	api.NewRewardRoutes(a, rewardService, sessionAuth)
	api.NewPaymentRoutes(a, paymentService, sessionAuth, checkoutLimit)
	api.NewMessageRoutes(a, messageService, conversationService, sessionAuth, messageLimit)
	api.NewGroupRoutes(a, groupService, messageService, sessionAuth, messageLimit)
	api.NewTypingRoutes(a, typingService, sessionAuth)
	api.NewPartnershipRoutes(a, partnershipService, sessionAuth)
	api.NewOfferRoutes(a, catalogService, rewardService, sessionAuth)
	api.NewCatalogRoutes(a, catalogService, sessionAuth)
	api.NewAdminRoutes(a, api.AdminServices{
		Profiles:      profileService,
		Rewards:       rewardService,
		Conversations: conversationService,
		Catalog:       catalogService,
	}, sessionAuth, authz)
	api.NewRealtimeRoutes(a, hub, sessionAuth, cfg.Realtime.AllowedOrigins)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	zapLogger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
