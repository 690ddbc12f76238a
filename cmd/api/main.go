package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/RedAvocado22/quadzone-checkout/api/routes"
	"github.com/RedAvocado22/quadzone-checkout/internal/cart"
	"github.com/RedAvocado22/quadzone-checkout/internal/checkout"
	"github.com/RedAvocado22/quadzone-checkout/internal/coupons"
	"github.com/RedAvocado22/quadzone-checkout/internal/orders"
	"github.com/RedAvocado22/quadzone-checkout/internal/products"
	"github.com/RedAvocado22/quadzone-checkout/internal/shipping"
	"github.com/RedAvocado22/quadzone-checkout/internal/users"
	"github.com/RedAvocado22/quadzone-checkout/pkg/config"
	"github.com/RedAvocado22/quadzone-checkout/pkg/db"
	"github.com/RedAvocado22/quadzone-checkout/pkg/geo"
	"github.com/RedAvocado22/quadzone-checkout/pkg/logger"
	"github.com/RedAvocado22/quadzone-checkout/pkg/metrics"
	"github.com/RedAvocado22/quadzone-checkout/pkg/migrate"
	"github.com/RedAvocado22/quadzone-checkout/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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

	if err := migrate.MaybeRunDev(context.Background(), cfg, dbClient, logg); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
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
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	geoClient, err := geo.NewClient(
		geo.WithBaseURLs(cfg.Geo.GeocodeBaseURL, cfg.Geo.RouteBaseURL),
		geo.WithAPIKey(cfg.Geo.APIKey),
		geo.WithTimeout(cfg.Geo.Timeout),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create geo client", err)
		os.Exit(1)
	}

	estimator, err := shipping.NewEstimator(geoClient, cfg.Shipping, checkoutMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping estimator", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	productsRepo := products.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	couponsRepo := coupons.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)

	couponService, err := coupons.NewService(couponsRepo, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(ordersRepo, dbClient, products.NewTxReleaser(productsRepo))
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		dbClient,
		usersRepo,
		productsRepo,
		ordersRepo,
		couponService,
		cartService,
		estimator,
		cfg.Pricing,
		checkoutMetrics,
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
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Registry:     registry,
			Checkout:     checkoutService,
			Coupons:      couponService,
			Orders:       orderService,
			Cart:         cartService,
			ProductsRepo: productsRepo,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
