package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ovenbird/bakery-backend/api/routes"
	"github.com/ovenbird/bakery-backend/internal/audit"
	authsvc "github.com/ovenbird/bakery-backend/internal/auth"
	"github.com/ovenbird/bakery-backend/internal/cart"
	"github.com/ovenbird/bakery-backend/internal/catalog"
	"github.com/ovenbird/bakery-backend/internal/checkout"
	"github.com/ovenbird/bakery-backend/internal/orders"
	"github.com/ovenbird/bakery-backend/internal/pricing"
	"github.com/ovenbird/bakery-backend/internal/settings"
	"github.com/ovenbird/bakery-backend/internal/users"
	"github.com/ovenbird/bakery-backend/pkg/config"
	"github.com/ovenbird/bakery-backend/pkg/db"
	"github.com/ovenbird/bakery-backend/pkg/logger"
	"github.com/ovenbird/bakery-backend/pkg/metrics"
	"github.com/ovenbird/bakery-backend/pkg/migrate"
	"github.com/ovenbird/bakery-backend/pkg/redis"
)

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

	gormDB := dbClient.DB()

	auditService, err := audit.NewService(audit.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(gormDB)
	catalogService, err := catalog.NewService(catalogRepo, dbClient, auditService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	pricingRepo := pricing.NewRepository(gormDB)
	pricingService, err := pricing.NewService(pricingRepo, catalogRepo, auditService)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing service", err)
		os.Exit(1)
	}
	resolver, err := pricing.NewResolver(pricingRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create discount resolver", err)
		os.Exit(1)
	}

	settingsService, err := settings.NewService(settings.NewRepository(gormDB), cfg.Checkout, auditService)
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	guestStore, err := cart.NewGuestStore(redisClient, cfg.Checkout.GuestCartTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create guest cart store", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cart.NewRepository(gormDB), guestStore, catalogRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(gormDB)
	authService, err := authsvc.NewService(authsvc.ServiceParams{
		Users:          usersRepo,
		Carts:          cartService,
		Audit:          auditService,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(gormDB)
	ordersService, err := orders.NewService(ordersRepo, auditService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	checkoutService, err := checkout.NewService(
		dbClient,
		usersRepo,
		cartService,
		catalogRepo,
		ordersRepo,
		resolver,
		settingsService,
		auditService,
		metrics.NewCheckoutMetrics(registry),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

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
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Registry: registry,
			Auth:     authService,
			Catalog:  catalogService,
			Pricing:  pricingService,
			Resolver: resolver,
			Cart:     cartService,
			Checkout: checkoutService,
			Orders:   ordersService,
			Settings: settingsService,
			Audit:    auditService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
