// Package observe provides application-wide observability primitives for
// Vaani: OpenTelemetry metrics, distributed tracing, structured logging, and
// HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Vaani metrics.
const meterName = "github.com/BharatDhande/Vaani"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// RuleMatchDuration tracks the rule tier's classification latency.
	RuleMatchDuration metric.Float64Histogram

	// EscalationDuration tracks the LLM escalation round-trip latency.
	EscalationDuration metric.Float64Histogram

	// RouteDuration tracks the whole routing decision, matching the
	// latency_ms field returned to clients.
	RouteDuration metric.Float64Histogram

	// --- Counters ---

	// RouteDecisions counts routing outcomes. Use with attributes:
	//   attribute.String("tier", ...), attribute.String("intent", ...)
	// where tier is one of "rule", "llm", "suppressed", "fallback".
	RouteDecisions metric.Int64Counter

	// MemoryOps counts turn-store operations. Use with attributes:
	//   attribute.String("op", ...), attribute.String("status", ...)
	MemoryOps metric.Int64Counter

	// --- Error counters ---

	// EscalationErrors counts absorbed escalation failures. Use with
	// attribute: attribute.String("reason", ...)
	EscalationErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of sessions with live history.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// the sub-second routing budget: the rule tier lands in the lowest buckets,
// escalations in the upper ones.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.RuleMatchDuration, err = m.Float64Histogram("vaani.rules.duration",
		metric.WithDescription("Latency of the rule tier's classification."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.EscalationDuration, err = m.Float64Histogram("vaani.escalation.duration",
		metric.WithDescription("Round-trip latency of LLM escalations."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RouteDuration, err = m.Float64Histogram("vaani.route.duration",
		metric.WithDescription("End-to-end routing decision latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.RouteDecisions, err = m.Int64Counter("vaani.route.decisions",
		metric.WithDescription("Total routing outcomes by tier and intent."),
	); err != nil {
		return nil, err
	}
	if met.MemoryOps, err = m.Int64Counter("vaani.memory.ops",
		metric.WithDescription("Total turn-store operations by op and status."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.EscalationErrors, err = m.Int64Counter("vaani.escalation.errors",
		metric.WithDescription("Total absorbed escalation failures by reason."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("vaani.active_sessions",
		metric.WithDescription("Number of sessions with live conversation history."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("vaani.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordRouteDecision records a routing outcome with the standard attribute
// set.
func (m *Metrics) RecordRouteDecision(ctx context.Context, tier, intentName string) {
	m.RouteDecisions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tier", tier),
			attribute.String("intent", intentName),
		),
	)
}

// RecordMemoryOp records a turn-store operation counter increment.
func (m *Metrics) RecordMemoryOp(ctx context.Context, op, status string) {
	m.MemoryOps.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("status", status),
		),
	)
}

// RecordEscalationError records an absorbed escalation failure.
func (m *Metrics) RecordEscalationError(ctx context.Context, reason string) {
	m.EscalationErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}
