package handler

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pushfeed/pushfeed/pkg/delivery"
	"github.com/pushfeed/pushfeed/pkg/httpserver"
)

// Config carries the transport-level stream settings.
type Config struct {
	// KeepAliveInterval is how often a comment ping is written to an idle
	// stream. Pings are liveness probes only and never count as deliveries.
	KeepAliveInterval time.Duration `env:"KEEP_ALIVE_INTERVAL" envDefault:"15s"`
	// ChannelBufferSize bounds each stream's outbound queue.
	ChannelBufferSize int `env:"CHANNEL_BUFFER_SIZE" envDefault:"32"`
}

// Router mounts the notification API:
//
//	GET  /events               SSE subscribe stream
//	POST /notifications        publish a single notification
//	POST /notifications/batch  publish a batch
//	GET  /metrics              counter snapshot
//	GET  /healthz              liveness probe
//	GET  /                     demo page
func Router(engine *delivery.Engine, cfg Config) chi.Router {
	h := &handlers{engine: engine, cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", h.demoPage)
	r.Get("/events", h.subscribe)
	r.Post("/notifications", h.publish)
	r.Post("/notifications/batch", h.publishBatch)
	r.Get("/metrics", h.metrics)
	r.Get("/healthz", httpserver.HealthCheckHandler())

	return r
}

type handlers struct {
	engine *delivery.Engine
	cfg    Config
}
