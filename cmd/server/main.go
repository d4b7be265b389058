// Command server runs the credits and operation-accounting backend for
// the image editing app. It loads configuration from the environment
// (optionally via .env), opens the SQLite ledger database, wires the
// Stripe gateway and S3 asset store, and serves the HTTP API until
// interrupted.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shemnduati/AiImageApp/internal/assets"
	"github.com/shemnduati/AiImageApp/internal/config"
	httpapi "github.com/shemnduati/AiImageApp/internal/http"
	"github.com/shemnduati/AiImageApp/internal/observability"
	"github.com/shemnduati/AiImageApp/internal/payments"
	"github.com/shemnduati/AiImageApp/internal/repo"
	"github.com/shemnduati/AiImageApp/internal/services"
	"github.com/shemnduati/AiImageApp/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// Best effort: a missing .env is fine outside local dev.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty || sysutil.IsTruthy(os.Getenv("PRETTY_LOGS")) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}

	var gw payments.Gateway
	if cfg.Stripe.SecretKey != "" {
		gw = payments.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.PublishableKey)
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set; credit purchases disabled")
	}

	var remover services.AssetRemover
	if cfg.S3.Enabled {
		r, err := assets.NewS3Remover(ctx, assets.Config{
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("setup asset store")
		}
		remover = r
	}

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, gw, remover, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}
