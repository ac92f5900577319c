package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tsumiki/yoyakubot/internal/channels/line"
	httpmiddleware "github.com/tsumiki/yoyakubot/internal/http/middleware"
	"github.com/tsumiki/yoyakubot/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	WebhookHandler *line.WebhookHandler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// LINE points both its verification probe and event delivery at the root.
	r.Get("/", cfg.WebhookHandler.HandleHealth)
	r.Head("/", cfg.WebhookHandler.HandleHealth)
	r.Post("/", cfg.WebhookHandler.HandleInbound)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
