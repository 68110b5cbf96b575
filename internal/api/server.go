package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ran-controller/ran-controller-pro/internal/auth"
	"github.com/ran-controller/ran-controller-pro/internal/config"
	"github.com/ran-controller/ran-controller-pro/internal/handover"
	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/internal/registry"
	"github.com/ran-controller/ran-controller-pro/internal/session"
	"github.com/ran-controller/ran-controller-pro/internal/storage"
	"github.com/ran-controller/ran-controller-pro/internal/validation"
	"github.com/ran-controller/ran-controller-pro/internal/vbsp"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// Controller is the part of the protocol server the API drives.
// Registry state may only be touched inside Do.
type Controller interface {
	Do(ctx context.Context, fn func() error) error
	Registry() *registry.Registry
	Notifier() session.Notifier
	Intents() session.IntentService
	SendHandover(cmd models.HandoverCommand) error
	SetRANSharing(addr emage.EtherAddress, alloc []emage.CellAllocation) error
}

type ctxKey int

const claimsKey ctxKey = iota

// RESTServer represents the REST API server
type RESTServer struct {
	config    *config.Config
	store     storage.Store
	ctrl      Controller
	handover  *handover.Manager
	auth      *auth.JWTManager
	validator *validation.Validator
	router    chi.Router
	server    *http.Server
}

// NewRESTServer wires the router; the server listens on cfg.API.Host:cfg.API.Port
func NewRESTServer(cfg *config.Config, store storage.Store, ctrl Controller, ho *handover.Manager) *RESTServer {
	s := &RESTServer{
		config:    cfg,
		store:     store,
		ctrl:      ctrl,
		handover:  ho,
		auth:      auth.NewJWTManager(&cfg.JWT, cfg.Accounts),
		validator: validation.NewValidator(),
		router:    chi.NewRouter(),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the router
func (s *RESTServer) Handler() http.Handler {
	return s.router
}

func (s *RESTServer) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.API.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Route("/api/v1", s.setupAPIRoutes)
}

// ListenAndServe serves until Shutdown is called
func (s *RESTServer) ListenAndServe() error {
	log.Info().Str("addr", s.server.Addr).Msg("REST API listening")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests
func (s *RESTServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// requestLogger logs one line per request through zerolog
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// authMiddleware requires a valid bearer access token and stores its claims
func (s *RESTServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			s.respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := s.auth.ValidateToken(token)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// adminOnly rejects tokens without the admin flag
func (s *RESTServer) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(claimsKey).(*auth.Claims)
		if !ok || !claims.IsAdmin {
			s.respondError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *RESTServer) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *RESTServer) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondFailure maps domain errors to status codes
func (s *RESTServer) respondFailure(w http.ResponseWriter, err error) {
	s.respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrHandoverInProgress):
		return http.StatusConflict
	case errors.Is(err, session.ErrTargetNotProvisioned):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrInvalidArgument),
		errors.Is(err, handover.ErrInvalidParam),
		errors.Is(err, validation.ErrValidation),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, registry.ErrNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, vbsp.ErrUnknownPeer):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrDuplicate),
		errors.Is(err, storage.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, vbsp.ErrNotConnected),
		errors.Is(err, vbsp.ErrServerClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
