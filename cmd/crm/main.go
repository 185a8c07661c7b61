// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/enrollhq/crm/internal/config"
	"github.com/enrollhq/crm/internal/digest"
	"github.com/enrollhq/crm/internal/handler"
	"github.com/enrollhq/crm/internal/handler/api"
	"github.com/enrollhq/crm/internal/mailer"
	"github.com/enrollhq/crm/internal/middleware"
	"github.com/enrollhq/crm/internal/model"
	"github.com/enrollhq/crm/internal/render"
	"github.com/enrollhq/crm/internal/session"
	"github.com/enrollhq/crm/internal/store"
	"github.com/enrollhq/crm/internal/version"
	"github.com/enrollhq/crm/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	seedOnly := flag.Bool("seed", false, "Seed default accounts and exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "crm - Admissions CRM\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CRM_SESSION_SECRET     Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CRM_DB_PATH            SQLite database path (default: ./data/crm.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CRM_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CRM_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CRM_ADMIN_EMAIL        Recipient for new-lead notifications\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AUTOSEND_API_KEY       Autosend API key (empty disables email)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CRM_DIGEST_SCHEDULE    Cron expression for the daily digest (default: 0 8 * * *)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("crm %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(*seedOnly); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(seedOnly bool) error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	// Run migrations
	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	ctx := context.Background()

	// Seed default accounts on demand
	if seedOnly || cfg.DoSeed {
		if err := store.Seed(ctx, db, logger); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
		if seedOnly {
			slog.Info("seeding complete")
			return nil
		}
	}

	// Initialize session manager
	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// Initialize mailer and daily digest
	mail := mailer.New(cfg, logger)
	slog.Info("mailer initialized", "enabled", mail.Enabled(), "sender", cfg.SenderEmail)

	if cfg.DigestEnabled() {
		dig := digest.New(db, mail, cfg.AdminEmail, cfg.DigestSchedule, logger)
		if err := dig.Start(); err != nil {
			return fmt.Errorf("starting digest scheduler: %w", err)
		}
		defer dig.Stop()
		slog.Info("daily digest scheduled", "schedule", cfg.DigestSchedule, "to", cfg.AdminEmail)
	}

	// Initialize template renderer
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}

	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	// Initialize handlers
	pageHandler := handler.New(db, renderer, sessionManager, cfg, versionInfo, logger)
	apiHandler := api.NewHandler(db, logger, mail)

	// Create router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(chimw.Timeout(30 * time.Second))

	// Security headers middleware (CSP, HSTS, X-Frame-Options, etc.)
	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	r.Use(middleware.SecurityHeaders(securityConfig))

	r.Use(sessionManager.LoadAndSave)

	// CSRF protection for browser form posts. The JSON API is exempt,
	// its write routes are either public (intake) or session-guarded.
	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())
	r.Use(middleware.SkipCSRF("/api/"))
	r.Use(middleware.CSRF(csrfConfig))
	slog.Info("CSRF protection initialized", "secure", !cfg.IsDevelopment())

	// Public pages
	r.Get(handler.RouteRoot, pageHandler.Home)
	r.Get("/thanks", pageHandler.Thanks)
	r.Get(handler.RouteLogin, pageHandler.LoginForm)
	r.Post(handler.RouteLogin, pageHandler.Login)
	r.Get("/logout", pageHandler.Logout)
	r.Post("/logout", pageHandler.Logout)

	// Static file serving (cache for 1 day)
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	staticHandler := middleware.StaticCache(86400)(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Handle("/static/*", staticHandler)

	// JSON API
	r.Route("/api", func(r chi.Router) {
		// Public intake endpoint used by the website form
		r.Post("/leads", apiHandler.CreateLead)

		// Staff endpoints require a session
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessionManager))
			r.Use(middleware.LoadUser(sessionManager, db))

			r.Get("/leads", apiHandler.ListLeads)
			r.Get("/leads/{id}", apiHandler.GetLead)
			r.Put("/leads/{id}", apiHandler.UpdateLead)
			r.Post("/leads/{id}/notes", apiHandler.CreateNote)

			// User management is admin only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Get("/users", apiHandler.ListUsers)
				r.Delete("/users/{id}", apiHandler.DeleteUser)
			})
		})
	})

	// Staff dashboard (protected)
	r.Route(handler.RouteCRM, func(r chi.Router) {
		r.Use(middleware.Auth(sessionManager))
		r.Use(middleware.LoadUser(sessionManager, db))
		r.Use(middleware.RequireRole(model.RoleStaff))

		r.Get("/", pageHandler.Dashboard)
		r.Get("/leads", pageHandler.Leads)
		r.Get("/leads/{id}", pageHandler.LeadDetail)
		r.Get("/settings", pageHandler.Settings)

		// Admin-only pages
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Get("/users", pageHandler.Users)
			r.Post("/users", pageHandler.CreateUser)
		})
	})

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
