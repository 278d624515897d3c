package observability

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"careercoach/internal/config"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

const defaultMetricsPath = "/metrics"

// PrometheusConfig holds Prometheus-specific configuration.
// An empty Port serves the scrape endpoint from the web client itself.
type PrometheusConfig struct {
	Enabled  bool
	Endpoint string
	Port     string
}

// path returns the scrape path, falling back to /metrics
func (c PrometheusConfig) path() string {
	if c.Endpoint == "" {
		return defaultMetricsPath
	}
	return c.Endpoint
}

// scrapeTarget bundles the OTel reader with the HTTP handler serving its registry
type scrapeTarget struct {
	reader  metric.Reader
	handler http.Handler
}

// newScrapeTarget builds a private registry holding the OTel instruments plus
// Go runtime and process collectors. A private registry keeps repeated
// managers in one process (tests, reloads) from colliding on registration.
func newScrapeTarget() (*scrapeTarget, error) {
	registry := promclient.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register Go collector: %w", err)
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("failed to register process collector: %w", err)
	}

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	handler := promhttp.InstrumentMetricHandler(registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		Registry:          registry,
		ErrorHandling:     promhttp.ContinueOnError,
		EnableOpenMetrics: true,
	}))

	return &scrapeTarget{reader: exporter, handler: handler}, nil
}

// serveScrapeTarget runs a dedicated listener for the scrape endpoint and
// returns its shutdown func
func serveScrapeTarget(cfg PrometheusConfig, handler http.Handler) (func(context.Context) error, error) {
	mux := http.NewServeMux()
	mux.Handle("GET "+cfg.path(), handler)

	listener, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for metrics on port %s: %w", cfg.Port, err)
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       time.Minute,
	}

	log.Printf("[METRICS] Serving Prometheus scrape endpoint on %s%s", listener.Addr(), cfg.path())
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[METRICS] Scrape server stopped: %v", err)
		}
	}()

	return srv.Shutdown, nil
}

// MetricsHandler returns the scrape handler when it should be mounted on the
// web client's own mux, and nil otherwise
func (om *ObservabilityManager) MetricsHandler() (string, http.Handler) {
	if om == nil || om.scrape == nil || om.config.Prometheus.Port != "" {
		return "", nil
	}
	return om.config.Prometheus.path(), om.scrape.handler
}

// GetPrometheusConfig creates Prometheus configuration from provided config
func GetPrometheusConfig(cfg *config.Config) PrometheusConfig {
	if cfg == nil {
		return PrometheusConfig{Enabled: true, Endpoint: defaultMetricsPath, Port: "9090"}
	}
	p := cfg.Observability.Prometheus
	return PrometheusConfig{Enabled: p.Enabled, Endpoint: p.Endpoint, Port: p.Port}
}
