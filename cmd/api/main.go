package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voyago/travel-concierge/cmd/mainconfig"
	"github.com/voyago/travel-concierge/internal/api/router"
	"github.com/voyago/travel-concierge/internal/app/bootstrap"
	appconfig "github.com/voyago/travel-concierge/internal/config"
	"github.com/voyago/travel-concierge/internal/http/handlers"
	"github.com/voyago/travel-concierge/internal/intent"
	"github.com/voyago/travel-concierge/internal/observability/metrics"
	"github.com/voyago/travel-concierge/internal/requirements"
	"github.com/voyago/travel-concierge/internal/safety"
	"github.com/voyago/travel-concierge/internal/transcript"
	"github.com/voyago/travel-concierge/internal/turn"
	"github.com/voyago/travel-concierge/pkg/logging"
)

func main() {
	// Local development convenience; production sets real env vars.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting travel-concierge API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)

	store, err := bootstrap.BuildSessionStore(cfg, awsCfg, redisClient, logger)
	if err != nil {
		logger.Error("failed to build session store", "error", err)
		os.Exit(1)
	}

	llmClient, model, err := bootstrap.BuildLLMClient(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to build llm client", "error", err)
		os.Exit(1)
	}

	conversationLog, sqlDB, err := bootstrap.BuildConversationLog(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open conversation log", "error", err)
		os.Exit(1)
	}
	if sqlDB != nil {
		defer sqlDB.Close()
	}

	transcripts := transcript.NewRedisStore(redisClient, cfg.TranscriptMaxMessages)

	extractor := requirements.NewLLMExtractor(llmClient, model, cfg.ExtractTimeout, logger)
	manager := requirements.NewManager(extractor, logger)
	classifier := intent.NewLLMClassifier(llmClient, model, cfg.ClassifyTimeout, logger)
	gate := safety.NewGate(safety.NewLLMProvider(llmClient, model), cfg.ModerateTimeout, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	turnMetrics := metrics.NewTurnMetrics(registry)

	publisher := bootstrap.BuildHandoffPublisher(cfg, awsCfg, logger)

	processor := turn.NewProcessor(
		store,
		classifier,
		manager,
		gate,
		turnTranscripts{redis: transcripts, log: conversationLog},
		publisher,
		turnMetrics,
		logger,
	)

	travelHandler := handlers.NewTravelHandler(processor, store, transcripts, logger)
	webchatHandler := handlers.NewWebchatHandler(processor, transcripts, logger)

	routerCfg := &router.Config{
		Logger:             logger,
		TravelHandler:      travelHandler,
		WebchatHandler:     webchatHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		TurnRateLimit:      cfg.TurnRateLimit,
		TurnRateBurst:      cfg.TurnRateBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// turnTranscripts fans each message out to the Redis transcript and the
// optional PostgreSQL conversation log. Both sinks tolerate being disabled.
type turnTranscripts struct {
	redis *transcript.RedisStore
	log   *transcript.ConversationLog
}

func (t turnTranscripts) Append(ctx context.Context, sessionID string, msg transcript.Message) error {
	redisErr := t.redis.Append(ctx, sessionID, msg)
	logErr := t.log.AppendMessage(ctx, sessionID, msg)
	if redisErr != nil {
		return redisErr
	}
	return logErr
}
