package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"careercoach/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ObservabilityConfig holds configuration for observability
type ObservabilityConfig struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	ConsoleOutput  bool
	PrettyPrint    bool
	SampleRate     float64
	Prometheus     PrometheusConfig
}

// Metrics holds all custom metrics
type Metrics struct {
	// Backend calls issued by the API client
	BackendRequestCount metric.Int64Counter
	BackendErrorCount   metric.Int64Counter
	BackendDuration     metric.Float64Histogram

	// Generation pages
	GenerationDuration metric.Float64Histogram
	GenerationCount    metric.Int64Counter

	// Resume mutations submitted through forms and the CLI
	ResumeChanges metric.Int64Counter

	RateLimitHits metric.Int64Counter

	// TLS certificates served by the web client
	CertReloadCount metric.Int64Counter
	CertExpiryTime  metric.Float64Gauge
}

// ObservabilityManager manages OpenTelemetry setup
type ObservabilityManager struct {
	config         ObservabilityConfig
	fullConfig     *config.Config
	resource       *resource.Resource
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	manualReader   *sdkmetric.ManualReader
	scrape         *scrapeTarget
	metrics        *Metrics
	shutdownFuncs  []func(context.Context) error
}

// NewObservabilityManager creates a new observability manager
func NewObservabilityManager(obsConfig ObservabilityConfig, fullConfig *config.Config) (*ObservabilityManager, error) {
	om := &ObservabilityManager{
		config:     obsConfig,
		fullConfig: fullConfig,
	}
	if !obsConfig.Enabled {
		return om, nil
	}

	if err := om.initResource(); err != nil {
		return nil, fmt.Errorf("failed to initialize resource: %w", err)
	}

	if err := om.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := om.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return om, nil
}

// initResource creates the OpenTelemetry resource shared by traces and metrics
func (om *ObservabilityManager) initResource() error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.config.ServiceVersion),
			attribute.String("service.instance.id", om.getServiceInstanceID()),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	om.resource = res
	return nil
}

// spanExporter picks the trace destination: console, OTLP or nowhere
func (om *ObservabilityManager) spanExporter() (trace.SpanExporter, error) {
	switch {
	case om.config.ConsoleOutput && om.config.PrettyPrint:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case om.config.ConsoleOutput:
		return stdouttrace.New()
	case om.fullConfig != nil && om.fullConfig.Observability.OTLP.Enabled:
		return om.createOTLPExporter()
	default:
		return &noOpSpanExporter{}, nil
	}
}

// initTracing installs the tracer provider and W3C trace context propagation
// so backend calls continue the page request's trace
func (om *ObservabilityManager) initTracing() error {
	exporter, err := om.spanExporter()
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	om.tracerProvider = trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(om.resource),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(om.config.SampleRate))),
	)
	otel.SetTracerProvider(om.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	om.shutdownFuncs = append(om.shutdownFuncs, om.tracerProvider.Shutdown)
	return nil
}

// initMetrics sets up OpenTelemetry metrics
func (om *ObservabilityManager) initMetrics() error {
	readers, err := om.setupMetricReaders()
	if err != nil {
		return err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(om.resource)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(opts...)

	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	return om.initCustomMetrics()
}

// setupMetricReaders sets up all metric readers based on configuration
func (om *ObservabilityManager) setupMetricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	if err := om.setupConsoleReader(&readers); err != nil {
		return nil, err
	}

	if err := om.setupOTLPReader(&readers); err != nil {
		return nil, err
	}

	if err := om.setupPrometheusReader(&readers); err != nil {
		return nil, err
	}

	// Without any exporter the metrics are still collectable on demand
	if len(readers) == 0 {
		om.manualReader = sdkmetric.NewManualReader()
		readers = append(readers, om.manualReader)
	}

	return readers, nil
}

// setupConsoleReader sets up console metric reader if enabled
func (om *ObservabilityManager) setupConsoleReader(readers *[]sdkmetric.Reader) error {
	if !om.config.ConsoleOutput {
		return nil
	}

	exporter, err := stdoutmetric.New()
	if err != nil {
		return fmt.Errorf("failed to create console metric exporter: %w", err)
	}

	interval := om.getMetricsCollectionInterval()
	*readers = append(*readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	return nil
}

// setupOTLPReader sets up OTLP metric reader if enabled
func (om *ObservabilityManager) setupOTLPReader(readers *[]sdkmetric.Reader) error {
	if om.fullConfig == nil || !om.fullConfig.Observability.OTLP.Enabled {
		return nil
	}

	otlpReader, err := om.createOTLPMetricsReader()
	if err != nil {
		return fmt.Errorf("failed to create OTLP metrics reader: %w", err)
	}
	*readers = append(*readers, otlpReader)
	return nil
}

// setupPrometheusReader adds the Prometheus reader. With a port configured the
// scrape endpoint gets its own listener, otherwise the web client mounts it.
func (om *ObservabilityManager) setupPrometheusReader(readers *[]sdkmetric.Reader) error {
	if !om.config.Prometheus.Enabled {
		return nil
	}

	target, err := newScrapeTarget()
	if err != nil {
		return err
	}
	om.scrape = target
	*readers = append(*readers, target.reader)

	if om.config.Prometheus.Port == "" {
		return nil
	}
	shutdown, err := serveScrapeTarget(om.config.Prometheus, target.handler)
	if err != nil {
		return err
	}
	om.shutdownFuncs = append(om.shutdownFuncs, shutdown)
	return nil
}

// initCustomMetrics creates all custom metrics
func (om *ObservabilityManager) initCustomMetrics() error {
	meter := om.meterProvider.Meter(om.config.ServiceName)
	om.metrics = &Metrics{}

	if err := om.createBackendMetrics(meter); err != nil {
		return err
	}

	if err := om.createGenerationMetrics(meter); err != nil {
		return err
	}

	var err error
	om.metrics.ResumeChanges, err = meter.Int64Counter(
		"careercoach_resume_changes_total",
		metric.WithDescription("Resumes created, updated or deleted through this client"),
	)
	if err != nil {
		return fmt.Errorf("failed to create resume changes metric: %w", err)
	}

	om.metrics.RateLimitHits, err = meter.Int64Counter(
		"careercoach_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return om.createCertificateMetrics(meter)
}

func (om *ObservabilityManager) createCertificateMetrics(meter metric.Meter) error {
	var err error

	om.metrics.CertReloadCount, err = meter.Int64Counter(
		"careercoach_cert_reloads_total",
		metric.WithDescription("Certificate reloads by outcome"),
	)
	if err != nil {
		return fmt.Errorf("failed to create certificate reload metric: %w", err)
	}

	om.metrics.CertExpiryTime, err = meter.Float64Gauge(
		"careercoach_cert_expiry_seconds",
		metric.WithDescription("Seconds until the server certificate expires"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create certificate expiry metric: %w", err)
	}

	return nil
}

func (om *ObservabilityManager) createBackendMetrics(meter metric.Meter) error {
	var err error

	om.metrics.BackendRequestCount, err = meter.Int64Counter(
		"careercoach_backend_requests_total",
		metric.WithDescription("Total number of requests sent to the resume backend"),
	)
	if err != nil {
		return fmt.Errorf("failed to create backend request count metric: %w", err)
	}

	om.metrics.BackendErrorCount, err = meter.Int64Counter(
		"careercoach_backend_errors_total",
		metric.WithDescription("Backend requests that failed or returned a non-2xx status"),
	)
	if err != nil {
		return fmt.Errorf("failed to create backend error count metric: %w", err)
	}

	om.metrics.BackendDuration, err = meter.Float64Histogram(
		"careercoach_backend_request_duration_seconds",
		metric.WithDescription("Latency of backend requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create backend duration metric: %w", err)
	}

	return nil
}

func (om *ObservabilityManager) createGenerationMetrics(meter metric.Meter) error {
	var err error

	om.metrics.GenerationDuration, err = meter.Float64Histogram(
		"careercoach_generation_duration_seconds",
		metric.WithDescription("Time spent waiting for interview question and learning path generation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create generation duration metric: %w", err)
	}

	om.metrics.GenerationCount, err = meter.Int64Counter(
		"careercoach_generations_total",
		metric.WithDescription("Total number of generation requests by kind and outcome"),
	)
	if err != nil {
		return fmt.Errorf("failed to create generation count metric: %w", err)
	}

	return nil
}

// GetMetrics returns the metrics instance
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om == nil || om.metrics == nil {
		return &Metrics{}
	}
	return om.metrics
}

// Collect reads current metric values when no exporter is configured
func (om *ObservabilityManager) Collect(ctx context.Context) (*MetricsSnapshot, error) {
	if om == nil || om.manualReader == nil {
		return nil, fmt.Errorf("no on-demand metric reader configured")
	}
	snapshot := &MetricsSnapshot{}
	if err := om.manualReader.Collect(ctx, &snapshot.ResourceMetrics); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if om == nil || !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	return otelhttp.NewMiddleware(
		om.config.ServiceName,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
	)
}

// HTTPTransport wraps base so outgoing backend calls are traced
func (om *ObservabilityManager) HTTPTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if om == nil || !om.config.Enabled {
		return base
	}
	return otelhttp.NewTransport(base,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
	)
}

// Tracer returns a tracer for the service
func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if om == nil || !om.config.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return om.tracerProvider.Tracer(name)
}

// Shutdown flushes and stops every component in reverse start order
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	if om == nil {
		return nil
	}
	var errs []error
	for _, shutdown := range slices.Backward(om.shutdownFuncs) {
		errs = append(errs, shutdown(ctx))
	}
	om.shutdownFuncs = nil
	return errors.Join(errs...)
}

// RecordBackendCall records one backend round trip
func (om *ObservabilityManager) RecordBackendCall(ctx context.Context, method, route string, status int, duration time.Duration, err error) {
	m := om.GetMetrics()
	if m.BackendRequestCount == nil || !om.customMetrics().BackendCalls {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.BackendRequestCount.Add(ctx, 1, attrs)
	if err != nil || status >= 400 {
		m.BackendErrorCount.Add(ctx, 1, attrs)
	}
	if om.customMetrics().TrackDurations {
		m.BackendDuration.Record(ctx, duration.Seconds(), attrs)
	}
}

// TrackGeneration instruments one generation request with a span and metrics
func (om *ObservabilityManager) TrackGeneration(ctx context.Context, kind string, resumeID int64, fn func(context.Context) error) error {
	ctx, span := om.Tracer("careercoach.generation").Start(ctx, "generate."+kind)
	defer span.End()

	span.SetAttributes(
		attribute.String("generation.kind", kind),
		attribute.Int64("resume.id", resumeID),
	)

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}

	m := om.GetMetrics()
	if m.GenerationCount != nil && om.customMetrics().Generation {
		attrs := metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.Bool("success", err == nil),
		)
		m.GenerationCount.Add(ctx, 1, attrs)
		if om.customMetrics().TrackDurations {
			m.GenerationDuration.Record(ctx, duration.Seconds(), attrs)
		}
	}

	return err
}

// RecordResumeChange records a create, update or delete outcome
func (om *ObservabilityManager) RecordResumeChange(ctx context.Context, action string, success bool) {
	m := om.GetMetrics()
	if m.ResumeChanges == nil || !om.customMetrics().ResumeChanges {
		return
	}
	m.ResumeChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.Bool("success", success),
	))
}

// RecordRateLimitHit records a rejected request
func (om *ObservabilityManager) RecordRateLimitHit(ctx context.Context, route string) {
	m := om.GetMetrics()
	if m.RateLimitHits == nil || !om.customMetrics().RateLimitHits {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}

// RecordCertReload records the outcome of a certificate reload
func (om *ObservabilityManager) RecordCertReload(ctx context.Context, success bool) {
	m := om.GetMetrics()
	if m.CertReloadCount == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.CertReloadCount.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordCertExpiry records the time left before the certificate expires
func (om *ObservabilityManager) RecordCertExpiry(ctx context.Context, remaining time.Duration) {
	m := om.GetMetrics()
	if m.CertExpiryTime == nil {
		return
	}
	m.CertExpiryTime.Record(ctx, remaining.Seconds())
}

// customMetrics returns the metric switches; everything is on without a full config
func (om *ObservabilityManager) customMetrics() config.CustomMetricsConfig {
	if om == nil || om.fullConfig == nil {
		return config.CustomMetricsConfig{
			BackendCalls:   true,
			Generation:     true,
			ResumeChanges:  true,
			RateLimitHits:  true,
			TrackDurations: true,
		}
	}
	return om.fullConfig.Observability.CustomMetrics
}

type noOpSpanExporter struct{}

func (n *noOpSpanExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (n *noOpSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

// createOTLPExporter creates an OTLP HTTP trace exporter
func (om *ObservabilityManager) createOTLPExporter() (trace.SpanExporter, error) {
	otlpConfig := om.fullConfig.Observability.OTLP

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(otlpConfig.Endpoint),
	}
	if otlpConfig.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	return exporter, nil
}

// createOTLPMetricsReader creates an OTLP HTTP metrics reader
func (om *ObservabilityManager) createOTLPMetricsReader() (sdkmetric.Reader, error) {
	otlpConfig := om.fullConfig.Observability.OTLP

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(otlpConfig.Endpoint),
	}
	if otlpConfig.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	interval := om.getMetricsCollectionInterval()
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)), nil
}

// getServiceInstanceID returns the service instance ID from config or a default
func (om *ObservabilityManager) getServiceInstanceID() string {
	if om.fullConfig != nil && om.fullConfig.Observability.ServiceInstance != "" {
		return om.fullConfig.Observability.ServiceInstance
	}
	return om.config.ServiceName + "-1"
}

// getMetricsCollectionInterval returns the configured export interval
func (om *ObservabilityManager) getMetricsCollectionInterval() time.Duration {
	if om.fullConfig != nil && om.fullConfig.Observability.Metrics.CollectionInterval > 0 {
		return om.fullConfig.Observability.Metrics.CollectionInterval
	}
	return 15 * time.Second
}
