package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coolwednesday/bookstore-go-app/internal/api"
	"github.com/coolwednesday/bookstore-go-app/internal/cache"
	"github.com/coolwednesday/bookstore-go-app/internal/db"
	"github.com/coolwednesday/bookstore-go-app/internal/events"
	"github.com/coolwednesday/bookstore-go-app/internal/metrics"
	"github.com/coolwednesday/bookstore-go-app/internal/repository"
	"github.com/coolwednesday/bookstore-go-app/internal/services"
	"github.com/coolwednesday/bookstore-go-app/pkg/config"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	// Initialize OpenTelemetry metrics
	ctx := context.Background()
	appMetrics, meterProvider, err := metrics.InitMetrics(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error shutting down meter provider")
		}
	}()

	// Initialize database
	database, err := db.NewDB(cfg.GetDSN(), meterProvider.Meter(cfg.OTELServiceName), cfg.OTELServiceName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	// Initialize schema
	schemaSQL, err := os.ReadFile("schema.sql")
	if err != nil {
		log.Warn().Err(err).Msg("Could not read schema.sql, assuming schema already exists")
	} else {
		if err := database.InitSchema(ctx, string(schemaSQL)); err != nil {
			log.Warn().Err(err).Msg("Could not initialize schema, assuming schema already exists")
		}
	}

	// Book read cache
	bookCache, err := cache.NewBooks(cfg.BookCacheSize, appMetrics)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create book cache")
	}

	// Order event publishing, optional
	var publisher events.Publisher = events.Nop{}
	if cfg.RabbitMQURL != "" {
		rabbit, err := events.NewRabbit(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
		}
		publisher = rabbit
	}
	defer publisher.Close()

	// Repositories
	bookRepo := repository.NewBookRepo(database, appMetrics)
	categoryRepo := repository.NewCategoryRepo(database, appMetrics)
	cartRepo := repository.NewCartRepo(database, appMetrics)
	orderRepo := repository.NewOrderRepo(database, appMetrics)
	userRepo := repository.NewUserRepo(database, appMetrics)

	// Services
	bookService := services.NewBookService(bookRepo, categoryRepo, bookCache, appMetrics)
	categoryService := services.NewCategoryService(categoryRepo)
	cartService := services.NewCartService(cartRepo, bookRepo, appMetrics)
	orderService := services.NewOrderService(orderRepo, cartRepo, publisher, appMetrics)
	userService := services.NewUserService(userRepo, cfg.BcryptCost, cfg.SessionTTL)

	// Initialize app
	app := api.NewApp(cfg, database, appMetrics, bookService, categoryService, cartService, orderService, userService)

	// Setup router
	router := mux.NewRouter()
	app.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.AppPort).Str("otlp_endpoint", cfg.OTELExporterOTLPEndpoint).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
