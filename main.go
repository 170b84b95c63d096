package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/weight-tracker-be/internal/api"
	"github.com/isdelr/weight-tracker-be/internal/auth"
	"github.com/isdelr/weight-tracker-be/internal/config"
	"github.com/isdelr/weight-tracker-be/internal/database"
	"github.com/isdelr/weight-tracker-be/internal/logger"
	"github.com/isdelr/weight-tracker-be/internal/services"
	"github.com/rs/zerolog/log"
)

const usage = "usage: weight-tracker-be <user-api|weight-api>"

// Default ports of each service, matching the frontend's defaults.
const (
	userAPIPort   = 8001
	weightAPIPort = 8000
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	mode := os.Args[1]

	var defaultPort int
	switch mode {
	case "user-api":
		defaultPort = userAPIPort
	case "weight-api":
		defaultPort = weightAPIPort
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(defaultPort)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up database
	db, err := database.New(ctx, database.Dialect(cfg.DatabaseDriver), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	codec := auth.NewCodec([]byte(cfg.JWTSecret), cfg.TokenTTL)

	// Set up router
	var router http.Handler
	switch mode {
	case "user-api":
		router = api.NewUserRouter(cfg.AllowedOrigins, codec, services.NewUserService(db, codec))
	case "weight-api":
		router = api.NewWeightRouter(cfg.AllowedOrigins, codec, services.NewWeightService(db))
	}

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("service", mode).Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
