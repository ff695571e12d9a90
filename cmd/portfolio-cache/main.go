package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/smartfolio/portfolio-cache/internal/httpapi"
	"github.com/smartfolio/portfolio-cache/internal/pricing"
	"github.com/smartfolio/portfolio-cache/internal/store"
	"github.com/smartfolio/portfolio-cache/pkg/cache"
	"github.com/smartfolio/portfolio-cache/pkg/logging"
)

func main() {
	// Logging
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "false") == "true",
		Output: os.Stderr,
	})

	// Configuration from environment
	port := getEnv("PORT", "8080")
	requestTimeout := time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second

	// Cache manager
	manager, err := cache.NewManager(cache.ConfigFromEnv(), logging.NewLogger("cache"))
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid cache configuration")
	}
	defer manager.Close()

	// Pricing client
	prices := pricing.NewClient(os.Getenv("DEXSCREENER_URL"), requestTimeout, logging.NewLogger("pricing"))

	// Optional API-key auth for the mutating management endpoints
	ctx := context.Background()
	var auth func(http.Handler) http.Handler
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		keys, err := store.NewMongo(ctx, uri,
			getEnv("MONGO_DB", "portfolio"),
			getEnv("MONGO_COLLECTION", "api_keys"))
		if err != nil {
			logger.Fatal().Err(err).Msg("mongo connect failed")
		}
		defer keys.Close(ctx)
		auth = httpapi.APIKeyAuth(keys)
		logger.Info().Msg("api key auth enabled for cache management")
	}

	// The report builder runs the database joins and is wired by the
	// deployment that owns the portfolio data; without one the report
	// endpoint responds 503.
	handler := httpapi.NewHandler(manager, prices, nil, logging.NewLogger("httpapi"))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler.Routes(auth),
		ReadTimeout:  requestTimeout,
		WriteTimeout: requestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
	logger.Info().Msg("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
