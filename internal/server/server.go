// Package server wires the router, middleware and handlers, and runs the
// HTTP server.
//
// DEPENDENCY FLOW:
//
//	cmd/server/main.go: config → logger → backend.New → instrumented.Wrap → Connect
//	server.New:         Store → services → handlers → routes
//
// The server owns the store from then on and disconnects it on shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/playlister/internal/auth"
	"github.com/sakif/playlister/internal/config"
	"github.com/sakif/playlister/internal/handler"
	"github.com/sakif/playlister/internal/middleware"
	"github.com/sakif/playlister/internal/observability"
	"github.com/sakif/playlister/internal/repository"
	"github.com/sakif/playlister/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server is the HTTP front of the application.
type Server struct {
	router   *chi.Mux
	config   config.Config
	logger   *slog.Logger
	store    repository.Store
	tokens   *auth.TokenService
	registry *prometheus.Registry
	prom     *observability.Prom
}

// New builds the router. store should already be wrapped with metrics if
// store metrics are wanted; prom and registry serve /metrics.
func New(
	cfg config.Config,
	store repository.Store,
	registry *prometheus.Registry,
	prom *observability.Prom,
	logger *slog.Logger,
) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, 0)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		store:    store,
		tokens:   tokens,
		registry: registry,
		prom:     prom,
	}
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// setupRoutes registers middleware and routes.
//
// ROUTES:
//
//	GET    /healthz
//	GET    /metrics
//	POST   /auth/register
//	POST   /auth/login
//	GET    /auth/logout
//	GET    /auth/loggedIn          (optional auth)
//	POST   /store/playlist         (auth)
//	GET    /store/playlist/{id}    (auth)
//	PUT    /store/playlist/{id}    (auth)
//	DELETE /store/playlist/{id}    (auth)
//	GET    /store/playlists        (auth)
//	GET    /store/playlistpairs    (auth)
//
// Middleware runs in registration order; Recoverer sits inside the logger
// and metrics so a panic is still recorded as a 500.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.prom))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.CORS(strings.Split(s.config.CORSOrigin, ",")))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	authService := service.NewAuthService(s.store, s.tokens, auth.NewPasswordService(), s.logger)
	authHandler := handler.NewAuthHandler(authService, s.config.IsProduction(), s.logger)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/logout", authHandler.HandleLogout)
		r.With(auth.OptionalAuth(s.tokens)).Get("/loggedIn", authHandler.HandleLoggedIn)
	})

	playlistHandler := handler.NewPlaylistHandler(service.NewPlaylistService(s.store, s.logger), s.logger)

	s.router.Route("/store", func(r chi.Router) {
		r.Use(auth.RequireAuth(s.tokens))
		r.Post("/playlist", playlistHandler.HandleCreate)
		r.Get("/playlist/{id}", playlistHandler.HandleGet)
		r.Put("/playlist/{id}", playlistHandler.HandleUpdate)
		r.Delete("/playlist/{id}", playlistHandler.HandleDelete)
		r.Get("/playlists", playlistHandler.HandleList)
		r.Get("/playlistpairs", playlistHandler.HandlePairs)
	})
}

// handleHealth reports liveness and which backend is serving. It does not
// touch the database.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","backend":%q}`, s.store.Backend())
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests and
// disconnects the store.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("backend", s.store.Backend()),
			slog.String("env", s.config.Env),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			runErr = fmt.Errorf("graceful shutdown failed: %w", err)
		} else {
			s.logger.Info("server stopped gracefully")
		}
	}

	return errors.Join(runErr, s.close())
}

func (s *Server) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.store.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnecting store: %w", err)
	}
	return nil
}
