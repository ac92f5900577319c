package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/tsumiki/yoyakubot/internal/api/router"
	"github.com/tsumiki/yoyakubot/internal/channels/line"
	appconfig "github.com/tsumiki/yoyakubot/internal/config"
	"github.com/tsumiki/yoyakubot/internal/conversation"
	"github.com/tsumiki/yoyakubot/internal/observability/metrics"
	"github.com/tsumiki/yoyakubot/internal/sheets"
	"github.com/tsumiki/yoyakubot/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting reservation bot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	convMetrics := metrics.NewConversationMetrics(registry)

	extractor, err := conversation.NewGeminiExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if err != nil {
		logger.Error("failed to initialize Gemini client", "error", err)
		os.Exit(1)
	}
	defer extractor.Close()

	credentials, err := cfg.ServiceAccountKey()
	if err != nil {
		logger.Error("failed to resolve service account credentials", "error", err)
		os.Exit(1)
	}
	sheetsClient, err := sheets.NewClient(ctx, credentials, cfg.MasterSheetName, logger)
	if err != nil {
		logger.Error("failed to initialize Sheets client", "error", err)
		os.Exit(1)
	}
	if _, err := sheetsClient.EnsureMasterIndex(ctx); err != nil {
		// First store registration retries this; startup continues.
		logger.Warn("failed to ensure master index", "error", err)
	}

	lineClient := line.NewClient(cfg.LineChannelAccessToken)
	if cfg.LineAPIBase != "" {
		lineClient.SetAPIBase(cfg.LineAPIBase)
	}
	if cfg.LineDataAPIBase != "" {
		lineClient.SetDataAPIBase(cfg.LineDataAPIBase)
	}

	sessionStore, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize session store", "error", err)
		os.Exit(1)
	}

	engine := conversation.NewEngine(
		sessionStore,
		extractor,
		conversation.NewSheetsAdapter(sheetsClient),
		lineClient,
		logger,
		convMetrics,
	)

	queue := conversation.NewMemoryQueue(cfg.QueueBuffer)
	publisher := conversation.NewPublisher(queue, logger)
	worker := conversation.NewWorker(engine, queue, lineClient, logger, convMetrics, cfg.WorkerCount)
	worker.Start(ctx)

	webhook := line.NewWebhookHandler(cfg.LineChannelSecret, func(msg line.ParsedInboundMessage) {
		inbound := conversation.InboundMessage{
			UserID:      msg.UserID,
			ReplyToken:  msg.ReplyToken,
			MessageType: msg.MessageType,
			Text:        msg.Text,
			MessageID:   msg.MessageID,
		}
		if err := publisher.Publish(context.Background(), inbound); err != nil {
			convMetrics.ObserveInbound(msg.MessageType, "dropped")
			logger.Error("failed to enqueue inbound message", "user_id", msg.UserID, "error", err)
			return
		}
		convMetrics.ObserveInbound(msg.MessageType, "queued")
	})

	r := router.New(&router.Config{
		Logger:         logger,
		WebhookHandler: webhook,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	worker.Wait()
	logger.Info("server stopped")
}

// newSessionStore picks the session backend. Memory is the default; Redis
// keeps registrations across restarts.
func newSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (conversation.SessionStore, error) {
	if cfg.SessionBackend != "redis" {
		return conversation.NewMemorySessionStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}
	logger.Info("using redis session store", "addr", cfg.RedisAddr)
	return conversation.NewRedisSessionStore(client), nil
}
