package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sandburr/invoicing/internal/config"
	"github.com/sandburr/invoicing/internal/db"
	"github.com/sandburr/invoicing/internal/obs"
	"github.com/sandburr/invoicing/internal/server"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet at this point
		panic(err)
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel)

	conn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("database setup failed")
	}
	if *migrateOnlyFlag {
		logger.Info().Msg("migrations completed; exiting as requested")
		return
	}

	logger.Info().
		Str("env", cfg.AppEnv).
		Str("addr", cfg.HTTPAddr()).
		Msg("starting server")

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           server.New(cfg, conn, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
	logger.Info().Msg("server stopped")
}
