// Tutorcito - simulated web development tutor server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/tutorcito/internal/api"
	"github.com/ashureev/tutorcito/internal/auth"
	"github.com/ashureev/tutorcito/internal/config"
	"github.com/ashureev/tutorcito/internal/curriculum"
	"github.com/ashureev/tutorcito/internal/identity"
	"github.com/ashureev/tutorcito/internal/lifecycle"
	"github.com/ashureev/tutorcito/internal/metrics"
	"github.com/ashureev/tutorcito/internal/middleware"
	"github.com/ashureev/tutorcito/internal/realtime"
	"github.com/ashureev/tutorcito/internal/shared"
	"github.com/ashureev/tutorcito/internal/store"
	"github.com/ashureev/tutorcito/internal/tutor"
	"github.com/ashureev/tutorcito/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "db_path", cfg.DBPath)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	catalog := curriculum.Default()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.NewMetrics()
	}

	conversationLogger, err := tutor.NewConversationLogger(tutor.ConversationLogConfig{
		Enabled:       cfg.ConversationLog.Enabled,
		Dir:           cfg.ConversationLog.Dir,
		GlobalEnabled: cfg.ConversationLog.GlobalEnabled,
		GlobalPath:    cfg.ConversationLog.GlobalPath,
		QueueSize:     cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}

	// Initialize services. Chat, auth and the idle sweep share per-client
	// locks so a logout or sweep waits for any reply in flight.
	locks := &shared.ClientLocks{}
	sm := realtime.NewSessionManager()
	if m != nil {
		sm.OnSizeChange(func(total int) { m.RealtimeConns.Set(float64(total)) })
	}

	tutorService := tutor.NewService(repo, tutor.KeywordResponder{}, tutor.Config{ReplyDelay: cfg.ReplyDelay},
		tutor.WithMetrics(m),
		tutor.WithConversationLogger(conversationLogger),
		tutor.WithLocks(locks),
	)
	defer tutorService.Close()

	sessions := auth.NewSessions(repo, auth.StubAuthenticator{Delay: cfg.AuthDelay}, locks, m)
	sessions.OnLogout(sm.CloseSession)

	// Initialize handlers.
	apiHandler := api.NewHandler(repo, sessions, catalog)
	healthHandler := api.NewHealthHandler(repo)
	chatHandler := tutor.NewHandler(tutorService, repo, cfg)
	defer chatHandler.Close()
	wsHandler := realtime.NewChatHandler(repo, tutorService, sm, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(middleware.CORS(cfg.AllowedOrigins()))

	// Public routes.
	healthHandler.RegisterHealth(r)
	if m != nil {
		r.Handle("/metrics", metrics.Handler())
	}

	// Routes keyed by the anonymous client cookie.
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(repo, cfg.IsDevelopment()))
		apiHandler.RegisterRoutes(r)
		chatHandler.RegisterRoutes(r)
		r.Get("/ws/chat", wsHandler.ServeHTTP)
	})

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Create server.
	// Note: SSE responses stream for the length of the reply delay,
	// so there is no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start TTL worker.
	lifecycle.StartTTLWorker(ctx, repo, locks, cfg.SessionTTL, cfg.SweepInterval, m, func(clientID string) {
		sm.CloseSession(clientID)
		tutorService.Forget(clientID)
	})

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
