package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"rentease/internal/config"
	"rentease/internal/domain"
	"rentease/internal/metrics"
	"rentease/internal/service"
	"rentease/internal/store"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// HTTPServer exposes the marketplace over a JSON API.
type HTTPServer struct {
	cfg      config.APIConfig
	auth     domain.AuthService
	listings domain.ListingService
	rentals  domain.RentalService
	messages domain.MessageService
	records  domain.RecordStore
	reports  domain.ReportWriter
	tokens   *TokenService
	logger   *zerolog.Logger
	server   *http.Server
	limiters sync.Map // map[string]*rate.Limiter
}

func NewHTTPServer(
	cfg config.APIConfig,
	authSvc domain.AuthService,
	listings domain.ListingService,
	rentals domain.RentalService,
	messages domain.MessageService,
	records domain.RecordStore,
	reports domain.ReportWriter,
	tokens *TokenService,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		auth:     authSvc,
		listings: listings,
		rentals:  rentals,
		messages: messages,
		records:  records,
		reports:  reports,
		tokens:   tokens,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/api/v1/auth/signup", srv.handleSignUp)
	mux.HandleFunc("/api/v1/auth/signin", srv.handleSignIn)
	mux.HandleFunc("/api/v1/auth/signout", srv.requireUser(srv.handleSignOut))
	mux.HandleFunc("/api/v1/auth/me", srv.requireUser(srv.handleMe))
	mux.HandleFunc("/api/v1/listings", srv.handleListings)
	mux.HandleFunc("/api/v1/listings/", srv.handleListingByID)
	mux.HandleFunc("/api/v1/rentals", srv.requireUser(srv.handleRentals))
	mux.HandleFunc("/api/v1/rentals/", srv.requireUser(srv.handleRentalByID))
	mux.HandleFunc("/api/v1/messages", srv.requireUser(srv.handleMessages))
	mux.HandleFunc("/api/v1/messages/read", srv.requireUser(srv.handleMarkRead))
	mux.HandleFunc("/api/v1/conversations", srv.requireUser(srv.handleConversations))
	mux.HandleFunc("/api/v1/export", srv.requireUser(srv.handleExport))
	mux.HandleFunc("/api/v1/reports/rentals", srv.requireUser(srv.handleRentalsReport))

	handler := srv.loggingMiddleware(srv.rateLimitMiddleware(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler exposes the full middleware chain for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *HTTPServer) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RateLimit.RPS > 0 {
			if !s.getLimiter(clientKey(r)).Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (s *HTTPServer) getLimiter(key string) *rate.Limiter {
	if v, ok := s.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := s.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(s.cfg.RateLimit.RPS), burst)
	actual, loaded := s.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps domain errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, store.ErrUserExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrListingNotFound),
		errors.Is(err, service.ErrRentalNotFound),
		errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrOwnListing),
		errors.Is(err, service.ErrInvalidDates),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidPriceUnit),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrInvalidCondition),
		errors.Is(err, service.ErrSelfMessage):
		writeError(w, http.StatusBadRequest, err.Error())
	case service.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		// Storage and other infrastructure failures stay opaque.
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
