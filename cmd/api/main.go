// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/heartline-ai/counseling-platform/internal/analysis"
	"github.com/heartline-ai/counseling-platform/internal/config"
	"github.com/heartline-ai/counseling-platform/internal/engine"
	"github.com/heartline-ai/counseling-platform/internal/handler"
	"github.com/heartline-ai/counseling-platform/internal/llm"
	"github.com/heartline-ai/counseling-platform/internal/loopwatch"
	"github.com/heartline-ai/counseling-platform/internal/middleware"
	"github.com/heartline-ai/counseling-platform/internal/model"
	natsclient "github.com/heartline-ai/counseling-platform/internal/nats"
	"github.com/heartline-ai/counseling-platform/internal/store"
	"github.com/heartline-ai/counseling-platform/pkg/logger"
	"github.com/heartline-ai/counseling-platform/pkg/tracing"
)

// auditedEvents persists optimization events and mirrors newly created ones
// onto the JetStream audit stream. The mirror is best-effort.
type auditedEvents struct {
	store  *store.EventStore
	stream *natsclient.StreamManager
	log    *logger.Logger
}

func (a *auditedEvents) CreatePending(ctx context.Context, event *model.OptimizationEvent) (bool, error) {
	created, err := a.store.CreatePending(ctx, event)
	if err != nil || !created {
		return created, err
	}
	if _, err := a.stream.PublishEvent(ctx, event); err != nil {
		a.log.Warn("failed to mirror optimization event",
			zap.String("conversation_id", event.ConversationID),
			zap.Error(err),
		)
	}
	return true, nil
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting counseling API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "counseling-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS
	natsConn, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer natsConn.Close()

	streamManager := natsclient.NewStreamManager(natsConn)
	if err := streamManager.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure stream", zap.Error(err))
		os.Exit(1)
	}

	// Generation collaborator. The engine cannot run without one: crisis
	// and conclusion replies depend on it.
	provider := llm.Provider(cfg.DefaultLLM)
	apiKey := cfg.AnthropicAPIKey
	if provider == llm.ProviderOpenAI {
		apiKey = cfg.OpenAIAPIKey
	}
	if apiKey == "" {
		log.Error("no LLM API key configured", zap.String("provider", string(provider)))
		os.Exit(1)
	}
	llmClient, err := llm.NewClient(provider, apiKey)
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}

	// Lightweight models handle the classifier-style collaborator calls.
	quickModel := "claude-3-5-haiku-20241022"
	if llmClient.Name() == "openai" {
		quickModel = "gpt-4o-mini"
	}
	emotionAnalyzer := analysis.NewLLMEmotionAnalyzer(llmClient, quickModel)
	quickClassifier := analysis.NewLLMQuickClassifier(llmClient, quickModel)

	// Stores
	conversations := store.NewConversationStore()
	states := store.NewStateStore()
	reports := store.NewReportStore()
	events := store.NewEventStore()

	// Engine
	eng := engine.New(engine.Deps{
		Messages:  streamManager,
		States:    states,
		Reports:   reports,
		Generator: llmClient,
		Emotion:   emotionAnalyzer,
		Quick:     quickClassifier,
		Logger:    log,
	}, "")

	// Out-of-band stuck-loop detector. Detected events are mirrored onto
	// the stream for audit.
	loopCfg := loopwatch.DefaultConfig()
	loopCfg.RepetitionWindow = cfg.RepetitionWindow
	loopCfg.RefusalWindow = cfg.RefusalWindow
	loopCfg.SimilarityThreshold = cfg.SimilarityThreshold
	loopCfg.PhaseTimeoutMessages = cfg.PhaseTimeoutMessages
	eventSink := &auditedEvents{store: events, stream: streamManager, log: log}
	detector := loopwatch.NewDetector(loopCfg, streamManager, states, eventSink, log)

	// Handlers
	healthHandler := handler.NewHealthHandler(natsConn)
	conversationHandler := handler.NewConversationHandler(conversations, events, log)
	messageHandler := handler.NewMessageHandler(eng, streamManager, conversations, log)
	scanHandler := handler.NewScanHandler(detector, conversations, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Create)
			r.Get("/", conversationHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Delete("/", conversationHandler.Delete)

				r.Get("/messages", messageHandler.List)
				r.Post("/messages", messageHandler.Evaluate)

				r.Get("/events", conversationHandler.ListEvents)
				r.Post("/scan", scanHandler.Scan)
			})
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
