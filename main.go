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

	"EstateMarket/config"
	"EstateMarket/handlers"
	"EstateMarket/middleware"
	"EstateMarket/payment"
	"EstateMarket/routes"
	"EstateMarket/services"
	"EstateMarket/store"
	"EstateMarket/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, envLoaded := config.Load()
	if !envLoaded {
		logger.Info("No .env file found, using system environment variables", "event", "config_loaded")
	}

	ctx := context.Background()
	mongoClient, db, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		logger.Error("database connection failed", "event", "startup_failed", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Warn("mongo disconnect failed", "error", err.Error())
		}
	}()

	mongoStores := store.NewMongo(db, store.CollectionNames{
		Users:      cfg.Collections.Users,
		Properties: cfg.Collections.Properties,
		Wishlist:   cfg.Collections.Wishlist,
		Offers:     cfg.Collections.Offers,
		Reviews:    cfg.Collections.Reviews,
	})
	if err := mongoStores.EnsureIndexes(ctx); err != nil {
		logger.Error("index creation failed", "event", "startup_failed", "error", err.Error())
		os.Exit(1)
	}

	redisClient := utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()
	cache := utils.NewCache(redisClient, cfg.CacheTTL)
	if err := cache.Ping(ctx); err != nil {
		// Listings are still served from Mongo; cache calls fail soft.
		logger.Warn("redis unavailable", "event", "cache_unavailable", "addr", cfg.RedisAddr, "error", err.Error())
	}

	tokens, err := utils.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		logger.Error("jwt setup failed", "event", "startup_failed", "error", err.Error())
		os.Exit(1)
	}
	gateway, err := payment.NewStripe(cfg.StripeSecretKey)
	if err != nil {
		logger.Error("payment gateway setup failed", "event", "startup_failed", "error", err.Error())
		os.Exit(1)
	}

	propertyService := services.NewPropertyService(mongoStores.Properties, mongoStores.Wishlist, mongoStores.Offers, mongoStores.Users, cache, logger)
	wishlistService := services.NewWishlistService(mongoStores.Wishlist, mongoStores.Properties, logger)
	offerService := services.NewOfferService(mongoStores.Offers, mongoStores.Properties, mongoStores.Wishlist, mongoStores.Users, logger)
	paymentService := services.NewPaymentService(gateway, cfg.PaymentCurrency, mongoStores.Offers, mongoStores.Properties, cache, logger)
	reviewService := services.NewReviewService(mongoStores.Reviews, mongoStores.Properties, mongoStores.Users, logger)
	userService := services.NewUserService(mongoStores.Users, mongoStores.Wishlist, mongoStores.Offers, mongoStores.Reviews, propertyService, tokens, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = utils.NewRequestValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{Timeout: cfg.RequestTimeout}))

	routes.RegisterRoutes(e, routes.Controllers{
		Properties: handlers.NewPropertyController(propertyService, logger),
		Wishlist:   handlers.NewWishlistController(wishlistService, logger),
		Offers:     handlers.NewOfferController(offerService, logger),
		Payments:   handlers.NewPaymentController(paymentService, logger),
		Reviews:    handlers.NewReviewController(reviewService, logger),
		Users:      handlers.NewUserController(userService, logger),
		Health: handlers.NewHealthController(map[string]handlers.Pinger{
			"mongo": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis": cache.Ping,
		}),
	}, tokens, mongoStores.Users)

	go func() {
		logger.Info("server starting", "event", "server_starting", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "event", "server_failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	stop, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-stop.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "event", "shutdown_failed", "error", err.Error())
	}
	logger.Info("server stopped", "event", "server_stopped")
}
