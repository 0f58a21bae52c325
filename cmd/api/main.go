package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielharo/rentably-backend/api/controllers"
	"github.com/danielharo/rentably-backend/api/routes"
	"github.com/danielharo/rentably-backend/internal/analytics"
	"github.com/danielharo/rentably-backend/internal/audit"
	internalauth "github.com/danielharo/rentably-backend/internal/auth"
	"github.com/danielharo/rentably-backend/internal/coupons"
	"github.com/danielharo/rentably-backend/internal/delivery"
	"github.com/danielharo/rentably-backend/internal/orders"
	"github.com/danielharo/rentably-backend/internal/products"
	"github.com/danielharo/rentably-backend/internal/quotations"
	"github.com/danielharo/rentably-backend/internal/reservations"
	"github.com/danielharo/rentably-backend/internal/users"
	squarewebhook "github.com/danielharo/rentably-backend/internal/webhooks/square"
	"github.com/danielharo/rentably-backend/pkg/auth/session"
	"github.com/danielharo/rentably-backend/pkg/config"
	"github.com/danielharo/rentably-backend/pkg/db"
	"github.com/danielharo/rentably-backend/pkg/logger"
	"github.com/danielharo/rentably-backend/pkg/mailer"
	"github.com/danielharo/rentably-backend/pkg/migrate"
	"github.com/danielharo/rentably-backend/pkg/redis"
	"github.com/danielharo/rentably-backend/pkg/square"
)

const webhookDedupTTL = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create square client", err)
		os.Exit(1)
	}

	mailClient, err := mailer.NewClient(cfg.Sendgrid, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mailer", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	usersRepo := users.NewRepository(gdb)

	auditService, err := audit.NewService(gdb)
	exitOnErr(logg, "audit service", err)

	authService, err := internalauth.NewService(internalauth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	exitOnErr(logg, "auth service", err)

	registerService, err := internalauth.NewRegisterService(internalauth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	exitOnErr(logg, "register service", err)

	couponsService, err := coupons.NewService(coupons.NewRepository(gdb))
	exitOnErr(logg, "coupons service", err)

	productsService, err := products.NewService(products.NewRepository(gdb))
	exitOnErr(logg, "products service", err)

	deliveryService, err := delivery.NewService(delivery.NewRepository(gdb))
	exitOnErr(logg, "delivery service", err)

	analyticsService, err := analytics.NewService(analytics.NewRepository(gdb))
	exitOnErr(logg, "analytics service", err)

	reservationsService, err := reservations.NewService(reservations.NewRepository(gdb), dbClient)
	exitOnErr(logg, "reservations service", err)

	quotationsService, err := quotations.NewService(
		quotations.NewRepository(gdb),
		dbClient,
		auditService,
		couponsService,
		usersRepo,
		squareClient,
		mailClient,
		cfg.Square.Timeout,
	)
	exitOnErr(logg, "quotations service", err)

	ordersService, err := orders.NewService(orders.NewRepository(gdb), dbClient, auditService, reservationsService)
	exitOnErr(logg, "orders service", err)

	webhookService, err := squarewebhook.NewService(squarewebhook.ServiceParams{
		Logger:            logg,
		Quotations:        quotationsService,
		Orders:            ordersService,
		Reservations:      reservationsService,
		Coupons:           couponsService,
		TransactionRunner: dbClient,
	})
	exitOnErr(logg, "square webhook service", err)

	webhookGuard, err := squarewebhook.NewIdempotencyGuard(redisClient, webhookDedupTTL, "square-webhook")
	exitOnErr(logg, "webhook idempotency guard", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			Redis:           redisClient,
			Pingers:         []controllers.Pinger{dbClient, redisClient},
			Sessions:        sessionManager,
			AuthService:     authService,
			RegisterService: registerService,
			Quotations:      quotationsService,
			Orders:          ordersService,
			Products:        productsService,
			Coupons:         couponsService,
			Delivery:        deliveryService,
			Analytics:       analyticsService,
			SquareClient:    squareClient,
			SquareWebhook:   webhookService,
			WebhookGuard:    webhookGuard,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func exitOnErr(logg *logger.Logger, what string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+what, err)
	os.Exit(1)
}
