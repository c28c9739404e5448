package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/resolveit/platform/internal/adapters/legacy"
	"github.com/resolveit/platform/internal/attachment"
	complaintapi "github.com/resolveit/platform/internal/complaint/api"
	"github.com/resolveit/platform/internal/complaint/domain"
	"github.com/resolveit/platform/internal/complaint/engine"
	complaintinfra "github.com/resolveit/platform/internal/complaint/infrastructure"
	"github.com/resolveit/platform/internal/notification"
	"github.com/resolveit/platform/internal/shared/auth"
	"github.com/resolveit/platform/internal/shared/config"
	"github.com/resolveit/platform/internal/shared/database"
	"github.com/resolveit/platform/internal/shared/events"
	"github.com/resolveit/platform/internal/shared/metrics"
	secmiddleware "github.com/resolveit/platform/internal/shared/middleware"
	"github.com/resolveit/platform/internal/user"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	DB     *database.DB
	Bus    *events.Bus
}

func main() {
	ctx := context.Background()

	// Local development loads settings from .env; absence is fine
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	app := &App{Config: cfg}

	// Initialize database (optional - fall back to in-memory storage)
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		fmt.Printf("Warning: Database not available: %v\n", err)
		fmt.Println("Running with in-memory storage...")
	} else {
		app.DB = db
		defer db.Close()

		// Run migrations
		if err := database.Migrate(ctx, db.Pool); err != nil {
			fmt.Printf("Warning: Migration failed: %v\n", err)
		}
	}

	// Initialize event bus with EventStoreDB (optional - skip if not available)
	bus, err := events.NewBus(ctx, cfg.EventStore)
	if err != nil {
		fmt.Printf("Warning: EventStoreDB not available: %v\n", err)
		fmt.Println("Running without event streaming...")
	} else {
		app.Bus = bus
		defer bus.Close()
		fmt.Println("EventStoreDB Event Bus initialized")
	}

	// Storage layer: Postgres when available, in-memory otherwise
	var (
		complaintRepo domain.Repository
		userDir       user.Directory
		notifRepo     notification.Repository
	)
	if app.DB != nil {
		complaintRepo = complaintinfra.NewPostgresRepository(app.DB.Pool)
		userDir = user.NewPostgresRepository(app.DB.Pool)
		notifRepo = notification.NewPostgresRepository(app.DB.Pool)
	} else {
		memDir := user.NewMemoryDirectory()
		memRepo := complaintinfra.NewMemoryRepository()
		memRepo.ResolveUsername = memDir.Username
		complaintRepo = memRepo
		userDir = memDir
		notifRepo = notification.NewMemoryRepository()
	}

	attachments := attachment.NewDiskStore(cfg.Uploads.Dir)

	// Notification delivery workers
	notifier := notification.NewService(notifRepo,
		[]notification.Provider{notification.NewLogProvider()},
		notification.DefaultServiceConfig())
	if err := notifier.Start(ctx); err != nil {
		fmt.Printf("Warning: Notification service failed to start: %v\n", err)
	}
	defer notifier.Stop()

	var publisher events.Publisher
	if app.Bus != nil {
		publisher = app.Bus
	}
	lifecycle := engine.New(complaintRepo, userDir, attachments, publisher, notifier)

	// One-shot import from the legacy SQL Server system
	if cfg.Legacy.Enabled {
		importer, err := legacy.New(cfg.Legacy, lifecycle)
		if err != nil {
			fmt.Printf("Warning: Legacy import unavailable: %v\n", err)
		} else {
			imported, err := importer.Run(ctx)
			if err != nil {
				fmt.Printf("Warning: Legacy import failed: %v\n", err)
			} else {
				fmt.Printf("Legacy import complete (%d complaints)\n", imported)
			}
			importer.Close()
		}
	}

	rateLimiter := secmiddleware.NewIPRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware)
	r.Use(rateLimiter.Middleware)
	r.Use(secmiddleware.MaxBody(cfg.Uploads.MaxBytes))

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler(app))
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	// API info
	r.Get("/", infoHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Resolves the caller when a token is present; anonymous
		// submission stays open either way
		r.Use(auth.Middleware(cfg.Auth))

		complaintHandler := complaintapi.NewHandler(lifecycle)
		r.Mount("/complaints", complaintHandler.Routes())

		notifHandler := notification.NewHandler(notifRepo)
		r.Mount("/notifications", notifHandler.Routes())
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		fmt.Println("\nShutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Server shutdown error: %v\n", err)
		}
		close(done)
	}()

	fmt.Println("============================================")
	fmt.Println("ResolveIt Complaint Management Platform")
	fmt.Println("============================================")
	fmt.Printf("Environment:    %s\n", cfg.Server.Env)
	fmt.Printf("Server:         http://localhost:%d\n", cfg.Server.Port)
	fmt.Printf("API:            http://localhost:%d/api/v1\n", cfg.Server.Port)
	fmt.Printf("Health:         http://localhost:%d/health\n", cfg.Server.Port)
	fmt.Printf("Uploads:        %s\n", cfg.Uploads.Dir)
	fmt.Printf("EventStoreDB:   %s:%d\n", cfg.EventStore.Host, cfg.EventStore.Port)
	fmt.Println("============================================")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	<-done
	fmt.Println("Server stopped")
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "ResolveIt Complaint Management Platform",
		"version": "0.1.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
		})
	}
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		// Check database
		if app.DB != nil {
			if err := app.DB.Health(r.Context()); err != nil {
				checks["database"] = "not ready: " + err.Error()
			} else {
				checks["database"] = "ready"
			}
		} else {
			checks["database"] = "not configured"
		}

		// Check EventStoreDB
		if app.Bus != nil {
			if err := app.Bus.Health(); err != nil {
				checks["eventstore"] = "not ready: " + err.Error()
			} else {
				checks["eventstore"] = "ready"
			}
		} else {
			checks["eventstore"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
