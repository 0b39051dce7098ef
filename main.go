package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"siteaudit-api/config"
	"siteaudit-api/database"
	billingapi "siteaudit-api/internal/api/billing"
	plansapi "siteaudit-api/internal/api/plans"
	stripewebhooks "siteaudit-api/internal/api/stripewebhook"
	appbilling "siteaudit-api/internal/app/billing"
	routes "siteaudit-api/internal/app/http"
	"siteaudit-api/internal/app/http/middleware"
	"siteaudit-api/internal/infra/repository"
	"siteaudit-api/internal/infra/stripe"
	"siteaudit-api/internal/shared/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "siteaudit-api",
		Short:        "Site audit billing and entitlement API",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadEnv()
			logger.Init(cfg.LogLevel, cfg.LogFormat)

			db, err := database.Open(cfg.DBURL)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			slog.Info("database migrated")
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "run AutoMigrate before serving")
	return cmd
}

func serve(ctx context.Context, migrate bool) error {
	cfg := config.LoadEnv()
	log := logger.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBURL)
	if err != nil {
		return err
	}
	if migrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	var ledger appbilling.Ledger = repository.NewNotificationLedger(db)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		ledger = repository.NewRedisLedger(ledger, rdb, repository.DefaultMarkerTTL, log)
		log.Info("redis ledger enabled")
	}

	catalog := appbilling.Catalog{
		SubscriptionPrices: cfg.Stripe.SubscriptionPrices,
		SingleReportPrice:  cfg.Stripe.SingleReportPrice,
		PackPrices:         cfg.Stripe.PackPrices,
	}
	svc := appbilling.NewService(
		repository.NewBillingStore(db),
		ledger,
		stripe.NewClient(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, nil),
		log,
		appbilling.Options{Catalog: catalog, AllowedReturnHosts: cfg.AllowedReturnHosts},
	)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Billing:   billingapi.NewHandler(svc),
		Plans:     plansapi.NewHandler(catalog),
		Webhook:   stripewebhooks.NewHandler(svc),
		Export:    svc,
		JWTSecret: cfg.JWTSecret,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
