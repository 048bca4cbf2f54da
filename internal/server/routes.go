package server

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// RegisterRoutes sets up the router with all endpoints.
func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.trustProxy {
		// Rate limiting keys on RemoteAddr, which RealIP rewrites from
		// client-supplied headers.
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(s.limiter.middleware) // Apply rate limiting middleware

	r.Get("/health", s.healthHandler)
	r.Get("/creatives", s.listCreativesHandler)

	// Booking-set editors
	r.Route("/editors", func(r chi.Router) {
		r.Post("/", s.createEditorHandler)
		r.Route("/{editorID}", func(r chi.Router) {
			r.Get("/", s.getEditorHandler)
			r.Delete("/", s.closeEditorHandler)
			r.Post("/drafts", s.addDraftHandler)
			r.Patch("/drafts/{draftID}", s.updateDraftHandler)
			r.Post("/drafts/{draftID}/today", s.setTodayHandler)
			r.Delete("/drafts/{draftID}", s.requestDeleteHandler)
			r.Post("/delete-confirmation", s.confirmDeleteHandler)
			r.Post("/submit", s.submitHandler)
		})
	})

	// Create-and-book wizards
	r.Route("/wizards", func(r chi.Router) {
		r.Post("/", s.createWizardHandler)
		r.Route("/{wizardID}", func(r chi.Router) {
			r.Get("/", s.getWizardHandler)
			r.Post("/creative", s.creativeCreatedHandler)
			r.Delete("/creative", s.creativeCancelledHandler)
			r.Delete("/booking", s.bookingClosedHandler)
		})
	})

	return r
}

// healthHandler provides health information about the upstream booking API.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := s.api.Health(r.Context())
	editors, wizards := s.sessions.counts()
	stats["open_editors"] = strconv.Itoa(editors)
	stats["open_wizards"] = strconv.Itoa(wizards)

	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, stats)
}

// listCreativesHandler serves the creative list owners reload after a submit.
func (s *Server) listCreativesHandler(w http.ResponseWriter, r *http.Request) {
	creatives, err := s.api.Creatives(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error fetching creatives")
		writeError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Error fetching creatives!")
		return
	}
	writeJSON(w, http.StatusOK, creatives)
}

// requestLogger logs every request once it has been served.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("ip", r.RemoteAddr).
			Msg("HTTP Request")
	})
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitorLimiter keeps one token bucket per client address.
type visitorLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
}

func newVisitorLimiter(limit rate.Limit, burst int) *visitorLimiter {
	return &visitorLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
	}
}

func (v *visitorLimiter) get(addr string) *rate.Limiter {
	ip := addr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		ip = host
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	vis, exists := v.visitors[ip]
	if !exists {
		vis = &visitor{limiter: rate.NewLimiter(v.limit, v.burst)}
		v.visitors[ip] = vis
	}
	vis.lastSeen = time.Now()
	return vis.limiter
}

// prune forgets the clients not seen since cutoff.
func (v *visitorLimiter) prune(cutoff time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for ip, vis := range v.visitors {
		if vis.lastSeen.Before(cutoff) {
			delete(v.visitors, ip)
		}
	}
}

func (v *visitorLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !v.get(r.RemoteAddr).Allow() {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too Many Requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}
