package server

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"adboard-booking/internal/adapi"
	"adboard-booking/internal/config"
)

// Server hosts the booking editor and wizard sessions of the admin console.
type Server struct {
	api            adapi.Service
	sessions       *sessionStore
	limiter        *visitorLimiter
	allowedOrigins []string
	trustProxy     bool
}

// NewServer builds the HTTP server for cfg, talking to the booking API through api.
func NewServer(cfg *config.Config, api adapi.Service) *http.Server {
	s := &Server{
		api:            api,
		sessions:       newSessionStore(),
		limiter:        newVisitorLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		allowedOrigins: cfg.AllowedOrigins,
		trustProxy:     cfg.TrustProxy,
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.BookingAPITimeout + 15*time.Second,
	}

	if cfg.SessionIdleTimeout > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		go s.runJanitor(ctx, cfg.SessionIdleTimeout)
		srv.RegisterOnShutdown(cancel)
	}

	return srv
}
