package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"adboard-booking/internal/adapi"
	"adboard-booking/internal/config"
	"adboard-booking/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading configuration")
	}
	setupLogger(cfg)

	api := adapi.New(cfg.BookingAPIURL, cfg.BookingAPITimeout)

	// Create a new server instance
	srv := server.NewServer(cfg, api)

	// Create a listener on the desired address
	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", srv.Addr).Msg("Error creating listener")
	}

	// Channel to receive errors from the server
	errChan := make(chan error, 1)

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("env", cfg.Env).
			Str("booking_api", cfg.BookingAPIURL).
			Msg("Server started")
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Wait for an interrupt or server error
	select {
	case err := <-errChan:
		log.Fatal().Err(err).Msg("Server error")
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Initiating graceful shutdown")

		// In-flight submits are given the upstream timeout to finish.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.BookingAPITimeout+5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Fatal().Err(err).Msg("Could not gracefully shut down the server")
		}

		log.Info().Msg("Server gracefully stopped")
	}
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
