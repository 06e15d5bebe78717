// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the wiring layer: it opens the database, builds the
// services and handlers, decides which middleware guards which route and
// runs the server until a shutdown signal arrives.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New creates:
//	  sqlite.DB → ProfileService → ProfileHandler
//	  sqlite.DB + linkcheck.Checker → LinkService → LinkHandler
//	  OIDCVerifier / TokenService → auth middleware
//
// All dependencies are assembled here (the composition root) rather than
// scattered across packages.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/cofounder-match/internal/auth"
	"github.com/sakif/cofounder-match/internal/config"
	"github.com/sakif/cofounder-match/internal/handler"
	"github.com/sakif/cofounder-match/internal/linkcheck"
	"github.com/sakif/cofounder-match/internal/middleware"
	sqliteRepo "github.com/sakif/cofounder-match/internal/repository/sqlite"
	"github.com/sakif/cofounder-match/internal/service"
)

// Server owns the router and the database connection. The connection is
// closed when Start returns.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB

	sources []auth.IdentitySource
	tokens  *auth.TokenService // nil when sessions are disabled
}

// New opens the database and builds the full route tree. ctx bounds
// startup work such as OIDC discovery.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

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

	if err := s.setupIdentity(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.setupRoutes()
	return s, nil
}

// setupIdentity builds the credential sources in the order they are tried:
// bearer tokens from the external provider, then the session cookie.
func (s *Server) setupIdentity(ctx context.Context) error {
	if s.config.OIDCIssuerURL != "" {
		verifier, err := auth.NewOIDCVerifier(ctx, s.config.OIDCIssuerURL, s.config.OIDCAudience)
		if err != nil {
			return fmt.Errorf("setting up OIDC: %w", err)
		}
		s.sources = append(s.sources, verifier)
	}

	if s.config.JWTSecret != "" {
		tokens, err := auth.NewTokenService(s.config.JWTSecret)
		if err != nil {
			return fmt.Errorf("setting up sessions: %w", err)
		}
		s.tokens = tokens
		s.sources = append(s.sources, tokens)
	}

	if len(s.sources) == 0 {
		s.logger.Warn("no identity source configured; every write will be rejected")
	}
	return nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                    → liveness + database ping
//	GET    /auth/github/login          → GitHub sign-in (when configured)
//	GET    /auth/github/callback
//	POST   /auth/logout
//	GET    /api/me                     → optional auth
//	POST   /api/me                     → required auth
//	PATCH  /api/me
//	POST   /api/me/onboarding
//	POST   /api/me/photos
//	DELETE /api/me/photos/{key}
//	POST   /api/me/links/recheck       → required auth, rate limited
//	GET    /api/profiles               → optional auth
//	GET    /api/profiles/{id}
//
// MIDDLEWARE ORDER:
// RequestID must precede Logger so each log line carries the request id;
// RealIP must precede the rate limiter's IP fallback.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	profileService := service.NewProfileService(s.db, s.logger)
	checker := linkcheck.New(linkcheck.Config{
		Timeout:   s.config.LinkCheckTimeout,
		UserAgent: s.config.LinkCheckUserAgent,
	}, nil, s.logger)
	linkService := service.NewLinkService(s.db, checker, s.logger)

	profileHandler := handler.NewProfileHandler(profileService, s.logger)
	linkHandler := handler.NewLinkHandler(linkService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	if s.config.GitHubEnabled() && s.tokens != nil {
		github := auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
		authHandler := handler.NewAuthHandler(github, s.tokens, profileService, s.logger)

		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		s.router.Post("/auth/logout", authHandler.HandleLogout)
	}

	requireAuth := auth.RequireAuth(s.sources...)
	optionalAuth := auth.OptionalAuth(s.sources...)
	recheckLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Requests: s.config.RecheckPerMinute,
		Window:   time.Minute,
		Burst:    s.config.RecheckBurst,
	}, middleware.IdentityKey)

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/me", profileHandler.HandleMe)
			r.Get("/profiles", profileHandler.HandleList)
			r.Get("/profiles/{id}", profileHandler.HandleGet)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/me", profileHandler.HandleEnsure)
			r.Patch("/me", profileHandler.HandleSaveDraft)
			r.Post("/me/onboarding", profileHandler.HandleCompleteOnboarding)
			r.Post("/me/photos", profileHandler.HandleAddPhoto)
			r.Delete("/me/photos/{key}", profileHandler.HandleRemovePhoto)
			r.With(recheckLimit).Post("/me/links/recheck", linkHandler.HandleRecheck)
		})
	})
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it on return.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT or SIGTERM, then drains
// in-flight requests for up to the configured grace period and closes the
// database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.Int("identity_sources", len(s.sources)),
			slog.Bool("github_sign_in", s.config.GitHubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownGracePeriod)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
