// Package server wires handlers, middleware, and routes, and owns the HTTP
// server lifecycle.
//
// This is the composition root: every dependency chain is assembled in New,
// in one place, rather than scattered across the codebase. main.go only
// loads config and calls New + Start.
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
	"github.com/go-chi/cors"

	"github.com/rahat/quickcal/internal/auth"
	"github.com/rahat/quickcal/internal/calendar"
	"github.com/rahat/quickcal/internal/config"
	"github.com/rahat/quickcal/internal/handler"
	"github.com/rahat/quickcal/internal/middleware"
	"github.com/rahat/quickcal/internal/ocr"
	sqliteRepo "github.com/rahat/quickcal/internal/repository/sqlite"
	"github.com/rahat/quickcal/internal/service"
)

// Server holds the router and the resources it owns. The database is closed
// during graceful shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency graph:
//
//	sqlite.DB → CredentialRepository
//	GoogleProvider → calendar.Client, AuthService
//	TokenService → middleware + AuthService
//	services → handlers → routes
//
// Each layer receives interfaces, not concrete types, so the services are
// testable with fakes.
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

// setupRoutes configures middleware and all route handlers.
//
// ROUTE STRUCTURE:
//
//	GET  /healthz           → liveness probe
//	GET  /api/authenticate  → redirect to Google consent screen
//	GET  /oauth2callback    → complete OAuth, issue bearer token
//	POST /api/logout        → best-effort revoke (OptionalAuth)
//	GET  /api/me            → session identity + linked state (RequireAuth)
//	POST /api/create_event  → create calendar event (RequireAuth)
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	google := auth.NewGoogleProvider(
		s.config.GoogleClientID,
		s.config.GoogleClientSecret,
		s.config.GoogleRedirectURL,
	)

	// === Global middleware (order matters: ID → IP → recover → log → CORS) ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// The extension/frontend lives on another origin and sends the
	// Authorization header, so both the origin and the header must be
	// allowed explicitly.
	if len(s.config.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.config.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	// === Services ===
	authSvc := service.NewAuthService(s.db, tokens, google, s.logger)

	var extractor ocr.TextExtractor
	if s.config.OCREnabled {
		extractor = ocr.NewTesseract(s.config.TesseractCmd)
	}
	cal := calendar.NewClient(google, s.config.EventTimeZone)
	eventSvc := service.NewEventService(s.db, cal, extractor, s.config.OCREnabled, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(google, authSvc, s.config.FrontendURL, s.logger)
	eventHandler := handler.NewEventHandler(eventSvc, s.logger)

	// === Routes ===
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Get("/oauth2callback", authHandler.HandleCallback)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/authenticate", authHandler.HandleAuthenticate)

		r.With(auth.OptionalAuth(tokens)).Post("/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", authHandler.HandleMe)
			r.Post("/create_event", eventHandler.HandleCreateEvent)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests (30s),
// close the database.
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
			slog.Bool("ocr", s.config.OCREnabled),
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
