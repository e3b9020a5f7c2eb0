package gateway

import (
	"context"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Service is the relay gateway: the session hub plus its HTTP surface
type Service struct {
	hub       *Hub
	wsHandler *WebSocketHandler
	registry  *prometheus.Registry
	config    Config
}

// Config holds configuration for the relay gateway
type Config struct {
	ConnectionConfig ConnectionConfig
	AllowedOrigins   []string
	Clock            clockwork.Clock
}

// DefaultConfig returns default configuration for the relay gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		AllowedOrigins:   []string{"*"},
	}
}

// NewService creates a relay gateway. results may be nil.
func NewService(config Config, results ResultSink) *Service {
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hub := NewHub(config.ConnectionConfig, config.Clock, NewMetrics(registry), results)

	return &Service{
		hub:       hub,
		wsHandler: NewWebSocketHandler(hub),
		registry:  registry,
		config:    config,
	}
}

// Start runs the hub until ctx is cancelled
func (s *Service) Start(ctx context.Context) {
	log.Info().Msg("starting relay gateway service")
	s.hub.Start(ctx)
	log.Info().Msg("relay gateway service stopped")
}

// Mount is an extra handler served next to the relay, such as a connect service
type Mount struct {
	Path    string
	Handler http.Handler
}

// Handler builds the gateway's HTTP handler: relay routes, metrics, health and
// any extra mounts, wrapped in CORS and h2c.
func (s *Service) Handler(mounts ...Mount) http.Handler {
	mux := http.NewServeMux()

	s.wsHandler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})

	for _, m := range mounts {
		mux.Handle(m.Path, m.Handler)
		log.Info().Str("path", m.Path).Msg("mounted handler")
	}

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	return h2c.NewHandler(c.Handler(mux), &http2.Server{})
}

func (s *Service) Stats() Stats {
	return s.hub.Stats()
}
