// Insurance A2A - personal insurance assistant server
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

	"github.com/ashureev/insurance-a2a/internal/agent"
	"github.com/ashureev/insurance-a2a/internal/api"
	"github.com/ashureev/insurance-a2a/internal/config"
	"github.com/ashureev/insurance-a2a/internal/convlog"
	"github.com/ashureev/insurance-a2a/internal/health"
	"github.com/ashureev/insurance-a2a/internal/llm"
	"github.com/ashureev/insurance-a2a/internal/middleware"
	"github.com/ashureev/insurance-a2a/internal/negotiation"
	"github.com/ashureev/insurance-a2a/internal/pricing"
	"github.com/ashureev/insurance-a2a/internal/profile"
	"github.com/ashureev/insurance-a2a/internal/session"
	"github.com/ashureev/insurance-a2a/internal/transport"
	"github.com/ashureev/insurance-a2a/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "llm_provider", cfg.LLM.Provider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Profile store.
	backend, closeBackend, err := openProfileBackend(ctx, cfg.Profile)
	if err != nil {
		slog.Error("Failed to initialize profile backend", "error", err)
		os.Exit(1)
	}
	defer closeBackend()
	profiles := profile.NewStore(ctx, backend, logger)

	// Completion provider and pricing.
	completer, err := llm.New(llm.Config{
		Provider:        cfg.LLM.Provider,
		OpenAIAPIKey:    cfg.LLM.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.LLM.OpenAIBaseURL,
		AnthropicAPIKey: cfg.LLM.AnthropicAPIKey,
		MaxRetries:      1,
	})
	if err != nil {
		slog.Error("Failed to initialize completion provider", "error", err)
		os.Exit(1)
	}
	catalog := pricing.Baseline()
	quotes := pricing.NewService(catalog, pricing.WithCacheTTL(cfg.PricingCacheTTL), pricing.WithLogger(logger))
	quotes.StartJanitor(ctx, 0)

	// Agents.
	requester := agent.NewRequester(completer, profiles, agent.Options{Model: cfg.LLM.RequesterModel, Logger: logger})
	provider := agent.NewProvider(completer, profiles, quotes, catalog, agent.Options{Model: cfg.LLM.ProviderModel, Logger: logger})
	claims := agent.NewClaims(agent.LayeredClassifier{
		Rules: agent.KeywordClassifier{},
		Model: agent.ModelClassifier{LLM: completer, Model: cfg.LLM.ProviderModel},
	}, profiles, agent.Options{Logger: logger})
	scheduler := agent.NewScheduler(catalog, profiles, agent.Options{Logger: logger})

	// Engine.
	registry := session.NewRegistry(session.WithLogger(logger))
	engine := negotiation.New(registry, requester, provider, claims, scheduler, negotiation.Options{
		SuppressionWindow: cfg.Engine.SuppressionWindow,
		HistoryWindow:     cfg.Engine.HistoryWindow,
		MinDetailLength:   cfg.Engine.MinDetailLength,
		MaxRenegotiations: cfg.Engine.MaxRenegotiations,
		AgentTimeout:      cfg.Engine.AgentTimeout,
		Pacing: negotiation.Pacing{
			LeadIn:   cfg.Engine.LeadInDelay,
			Step:     cfg.Engine.StepInterval,
			Settle:   cfg.Engine.SettleDelay,
			FollowUp: cfg.Engine.FollowUpDelay,
		},
		Logger: logger,
	})

	conversationLogger, err := convlog.New(convlog.Config{
		Enabled:   cfg.ConversationLog.Enabled,
		Dir:       cfg.ConversationLog.Dir,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := conversationLogger.Close(); closeErr != nil {
			slog.Error("Failed to close conversation logger", "error", closeErr)
		}
	}()

	// Handlers.
	conns := transport.NewConnections()
	wsHandler := transport.NewHandler(registry, engine, transport.Options{
		AllowedOrigins:    cfg.AllowedOrigins(),
		IsDev:             cfg.IsDevelopment(),
		RateLimitMessages: cfg.Transport.RateLimitMessages,
		RateLimitWindow:   cfg.Transport.RateLimitWindow,
		QueueSize:         cfg.Transport.SessionQueueSize,
		Renderer:          transport.NewRenderer(),
		ConversationLog:   conversationLogger,
		Connections:       conns,
		Logger:            logger,
	})
	profileHandler := api.NewProfileHandler(api.NewHandler(profiles, registry, conns, cfg.LLM.Provider))

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins()))

	profileHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws", wsHandler.ServeHTTP)

	// Chat page.
	r.Handle("/*", web.Handler())

	// Note: websocket connections are hijacked, so WriteTimeout does not apply to them.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Optional gRPC health service.
	healthDone := make(chan struct{})
	if cfg.GRPCHealthAddr != "" {
		hs := health.NewServer(logger)
		hs.MarkServing()
		go func() {
			defer close(healthDone)
			if err := hs.ListenAndServe(ctx, cfg.GRPCHealthAddr); err != nil {
				slog.Error("gRPC health service failed", "error", err)
			}
		}()
	} else {
		close(healthDone)
	}

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
	}
	conns.CloseAll("server shutting down")
	engine.Wait()
	<-healthDone

	slog.Info("Server stopped successfully")
}

// openProfileBackend opens the configured backend. The returned func
// releases it.
func openProfileBackend(ctx context.Context, cfg config.ProfileConfig) (profile.Backend, func(), error) {
	if cfg.Backend != "sqlite" {
		slog.Info("Using profile file", "path", cfg.Path)
		return profile.NewFileBackend(cfg.Path), func() {}, nil
	}

	db, err := profile.NewSQLiteBackend(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	slog.Info("Profile database connected", "path", cfg.DBPath)
	return db, func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Failed to close profile database", "error", closeErr)
		}
	}, nil
}
