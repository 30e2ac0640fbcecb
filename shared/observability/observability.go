package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// SetupTracing installs the global tracer provider. With stdout set, spans
// are pretty-printed to stdout; otherwise they are recorded but not exported.
func SetupTracing(serviceName string, stdout bool) (func(context.Context) error, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build trace resource: %w", err)
	}

	opts := []trace.TracerProviderOption{trace.WithResource(res)}
	if stdout {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize stdouttrace exporter: %w", err)
		}
		opts = append(opts, trace.WithBatcher(exp))
	}

	provider := trace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

// Metrics holds the application instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *promclient.Registry
	provider *sdkmetric.MeterProvider

	chatRequests     metric.Int64Counter
	speechRequests   metric.Int64Counter
	artifactsCreated metric.Int64Counter
	artifactsDeleted metric.Int64Counter
	artifactBytes    metric.Int64Counter
	upstreamDuration metric.Float64Histogram
}

// NewMetrics creates a meter provider backed by its own Prometheus registry
func NewMetrics(serviceName string) (*Metrics, error) {
	registry := promclient.NewRegistry()
	exp, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))
	meter := provider.Meter(serviceName)

	m := &Metrics{registry: registry, provider: provider}

	if m.chatRequests, err = meter.Int64Counter("chat_requests",
		metric.WithDescription("Chat requests by outcome")); err != nil {
		return nil, err
	}
	if m.speechRequests, err = meter.Int64Counter("tts_requests",
		metric.WithDescription("Speech synthesis requests by outcome")); err != nil {
		return nil, err
	}
	if m.artifactsCreated, err = meter.Int64Counter("audio_artifacts_created",
		metric.WithDescription("Audio files written")); err != nil {
		return nil, err
	}
	if m.artifactsDeleted, err = meter.Int64Counter("audio_artifacts_deleted",
		metric.WithDescription("Audio files removed by expiry, sweep or purge")); err != nil {
		return nil, err
	}
	if m.artifactBytes, err = meter.Int64Counter("audio_artifact_bytes",
		metric.WithUnit("By"),
		metric.WithDescription("Bytes of audio written")); err != nil {
		return nil, err
	}
	if m.upstreamDuration, err = meter.Float64Histogram("upstream_request_duration",
		metric.WithUnit("s"),
		metric.WithDescription("Latency of LLM and TTS upstream calls")); err != nil {
		return nil, err
	}

	return m, nil
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordChat(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.chatRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) RecordSpeech(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.speechRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// ObserveUpstream records one upstream call for service ("llm" or "tts")
func (m *Metrics) ObserveUpstream(ctx context.Context, service string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.upstreamDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.Bool("error", err != nil),
	))
}

// ArtifactCreated implements artifact.Observer
func (m *Metrics) ArtifactCreated(ctx context.Context, size int64) {
	if m == nil {
		return
	}
	m.artifactsCreated.Add(ctx, 1)
	m.artifactBytes.Add(ctx, size)
}

// ArtifactDeleted implements artifact.Observer
func (m *Metrics) ArtifactDeleted(ctx context.Context, err error) {
	if m == nil {
		return
	}
	m.artifactsDeleted.Add(ctx, 1, metric.WithAttributes(attribute.Bool("error", err != nil)))
}

func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
