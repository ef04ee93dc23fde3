// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where the whole
// dependency chain is assembled:
//
//	sqlite.DB → AuthService/TaskService → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces (not the concrete *sqlite.DB), handlers get services (not
// repositories), and nothing below main knows how anything above it is
// constructed.
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it testable — the API tests
// build a Server against an in-memory database and drive its Handler()
// directly, without binding a port or running main.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/taskboard/internal/auth"
	"github.com/sakif/taskboard/internal/config"
	"github.com/sakif/taskboard/internal/handler"
	"github.com/sakif/taskboard/internal/middleware"
	sqliteRepo "github.com/sakif/taskboard/internal/repository/sqlite"
	"github.com/sakif/taskboard/internal/service"
)

// Server owns the router, the configuration, and the database connection.
// The DB is closed during graceful shutdown (flushes the WAL, releases the
// file lock).
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server: opens the database, builds the services and
// handlers, and wires all routes.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /                         → API info (public)
//	GET    /health                   → DB health probe (public)
//	POST   /auth/register            → create account (public)
//	POST   /auth/login               → issue bearer token (public)
//	GET    /auth/me                  → current user (bearer)
//	GET    /auth/github/login        → OAuth redirect (public, optional)
//	GET    /auth/github/callback     → OAuth completion (public, optional)
//	POST   /tasks/                   → create task (bearer)
//	GET    /tasks/?skip&limit        → list tasks (bearer)
//	GET    /tasks/{id}               → get task (bearer)
//	PUT    /tasks/{id}               → partial update (bearer)
//	DELETE /tasks/{id}               → delete task (bearer)
//	GET    /tasks/status/{status}    → filter by status (bearer)
//	GET    /tasks/priority/{priority}→ filter by priority (bearer)
//
// MIDDLEWARE ORDER MATTERS — it executes in the order added:
// RequestID → RealIP → StripSlashes → Recoverer → request logger. The
// auth middleware is attached per route group, not globally, because the
// register/login/health routes must stay reachable without a token.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)    // Adds X-Request-ID header
	s.router.Use(chimiddleware.RealIP)       // Extracts real IP from X-Forwarded-For
	s.router.Use(chimiddleware.StripSlashes) // /tasks/ and /tasks are the same route
	s.router.Use(chimiddleware.Recoverer)    // Recovers from panics, returns 500
	s.router.Use(middleware.Logger(s.logger))

	// === Build the dependency chain ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)

	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	taskService := service.NewTaskService(s.db, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	taskHandler := handler.NewTaskHandler(taskService, s.logger)
	metaHandler := handler.NewMetaHandler(s.db, s.logger)

	requireAuth := auth.RequireAuth(authService)

	// === Public routes ===
	s.router.Get("/", metaHandler.HandleRoot)
	s.router.Get("/health", metaHandler.HandleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.With(requireAuth).Get("/me", authHandler.HandleMe)

		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	// === Task routes — every one behind the identity resolver ===
	// Static segments win over params in chi, so /tasks/status/x routes to
	// the status filter, not to HandleGetByID with id="status".
	s.router.Route("/tasks", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", taskHandler.HandleCreate)
		r.Get("/", taskHandler.HandleList)
		r.Get("/status/{status}", taskHandler.HandleListByStatus)
		r.Get("/priority/{priority}", taskHandler.HandleListByPriority)
		r.Get("/{id}", taskHandler.HandleGetByID)
		r.Put("/{id}", taskHandler.HandleUpdate)
		r.Delete("/{id}", taskHandler.HandleDelete)
	})

	return nil
}

// Handler exposes the assembled router. Used by tests to drive the full
// stack through httptest without listening on a real port.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the server's resources (the database). Start does this
// itself on shutdown; Close exists for callers that never Start — tests.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the database connection
//
// Skipping step 3 could leave the WAL unflushed. The defer runs even if
// something panics on the way down.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
