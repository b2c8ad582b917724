package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hongminglow/account-service/internal/account"
	"github.com/hongminglow/account-service/internal/auth"
	"github.com/hongminglow/account-service/internal/config"
	"github.com/hongminglow/account-service/internal/http/handlers"
	"github.com/hongminglow/account-service/internal/http/respond"
	"github.com/hongminglow/account-service/internal/logging"
	"github.com/hongminglow/account-service/internal/middleware"
	"github.com/hongminglow/account-service/internal/password"
	"github.com/hongminglow/account-service/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.UserStore, log logging.Logger) (*Server, error) {
	hasher, err := password.New(cfg.PasswordAlgorithm, cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL())
	accounts := account.NewService(store, hasher, tokens, log)

	var active middleware.ActiveChecker
	if cfg.TokenRequireActive {
		active = accounts
	}
	limits := middleware.NewRouteLimiters(middleware.Limits(cfg.RateLimit))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recoverer(log))
	r.Use(middleware.CORS(cfg.CORSOrigins()))
	r.Use(limits.Global...)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	handlers.NewHealthHandler(time.Now()).Register(r)
	handlers.NewAccountHandler(accounts, log).Register(r, limits, middleware.Bearer(tokens, active, log))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}, nil
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
