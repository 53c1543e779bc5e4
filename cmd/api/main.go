package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/denizaksoy/ovenline-backend/api/routes"
	"github.com/denizaksoy/ovenline-backend/internal/accounts"
	"github.com/denizaksoy/ovenline-backend/internal/addresses"
	"github.com/denizaksoy/ovenline-backend/internal/audit"
	"github.com/denizaksoy/ovenline-backend/internal/cart"
	"github.com/denizaksoy/ovenline-backend/internal/catalog"
	"github.com/denizaksoy/ovenline-backend/internal/checkout"
	"github.com/denizaksoy/ovenline-backend/internal/coupons"
	"github.com/denizaksoy/ovenline-backend/internal/orders"
	"github.com/denizaksoy/ovenline-backend/internal/stock"
	"github.com/denizaksoy/ovenline-backend/pkg/config"
	"github.com/denizaksoy/ovenline-backend/pkg/db"
	"github.com/denizaksoy/ovenline-backend/pkg/logger"
	"github.com/denizaksoy/ovenline-backend/pkg/metrics"
	"github.com/denizaksoy/ovenline-backend/pkg/migrate"
	"github.com/denizaksoy/ovenline-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderMetrics(registry)

	gdb := dbClient.DB()
	accountsRepo := accounts.NewRepository(gdb)
	catalogRepo := catalog.NewRepository(gdb)
	stockRepo := stock.NewRepository(gdb)
	cartRepo := cart.NewRepository(gdb)
	addressRepo := addresses.NewRepository(gdb)
	couponRepo := coupons.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	auditRepo := audit.NewRepository(gdb)

	accountsService, err := accounts.NewService(accountsRepo, cfg.JWT, cfg.Password, cfg.Accounts)
	if err != nil {
		fatalWiring(logg, "accounts", err)
	}
	catalogService, err := catalog.NewService(catalogRepo, stockRepo, dbClient)
	if err != nil {
		fatalWiring(logg, "catalog", err)
	}
	cartService, err := cart.NewService(cartRepo, catalogRepo, stockRepo)
	if err != nil {
		fatalWiring(logg, "cart", err)
	}
	addressService, err := addresses.NewService(addressRepo, dbClient)
	if err != nil {
		fatalWiring(logg, "addresses", err)
	}
	auditService, err := audit.NewService(auditRepo)
	if err != nil {
		fatalWiring(logg, "audit", err)
	}
	stockService, err := stock.NewService(stockRepo, dbClient, orderMetrics)
	if err != nil {
		fatalWiring(logg, "stock", err)
	}
	couponService, err := coupons.NewService(couponRepo, orderRepo, logg)
	if err != nil {
		fatalWiring(logg, "coupons", err)
	}
	ordersService, err := orders.NewService(
		orderRepo,
		stockService,
		auditService,
		accounts.NewCourierDirectory(accountsRepo),
		dbClient,
		orderMetrics,
	)
	if err != nil {
		fatalWiring(logg, "orders", err)
	}
	checkoutService, err := checkout.NewService(
		cartRepo,
		catalogRepo,
		stockService,
		couponService,
		addressService,
		orderRepo,
		auditService,
		dbClient,
		orderMetrics,
	)
	if err != nil {
		fatalWiring(logg, "checkout", err)
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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			accountsService,
			catalogService,
			cartService,
			addressService,
			checkoutService,
			ordersService,
			stockService,
			auditService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func fatalWiring(logg *logger.Logger, component string, err error) {
	logg.Error(context.Background(), "failed to create "+component+" service", err)
	os.Exit(1)
}
