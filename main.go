package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"excelytics/adapters/sqldb"
	"excelytics/internal/config"
	"excelytics/internal/container"
	"excelytics/internal/logging"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load environment variables from .env file
	envErr := godotenv.Load()

	appConfig, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  appConfig.Log.Level,
		Format: appConfig.Log.Format,
	})
	if envErr != nil {
		logging.Debug().Msg("no .env file found, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqldb.Open(ctx, appConfig.Database.Driver, appConfig.Database.URL)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize database")
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create container")
	}
	if err := appContainer.InitWithDatabase(ctx, db); err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize container")
	}
	if err := appContainer.EnsureAdmin(ctx); err != nil {
		logging.Fatal().Err(err).Msg("failed to create bootstrap admin")
	}

	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           appContainer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logging.Error().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		logging.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := appContainer.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("failed to release resources")
	}
	logging.Info().Msg("server stopped")
}
