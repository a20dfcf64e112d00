// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"provider-enrollment/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability records workflow metrics and spans through the OpenTelemetry
// SDK. A nil *Observability is valid and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	updateCounter  otelmetric.Int64Counter
	updateDuration otelmetric.Float64Histogram
	deliveryCount  otelmetric.Int64Counter
}

// New registers a Prometheus exporter on the default registry.
func New(serviceName string, log logger.Logger, opts ...prometheus.Option) *Observability {
	exporter, err := prometheus.New(opts...)
	if err != nil {
		log.Warn("Failed to create Prometheus exporter", map[string]interface{}{"error": err})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())))
	otel.SetTracerProvider(tp)

	return newWithProviders(provider, tp, serviceName)
}

func newWithProviders(provider *metric.MeterProvider, tp *sdktrace.TracerProvider, serviceName string) *Observability {
	meter := provider.Meter(serviceName)

	updateCounter, _ := meter.Int64Counter(
		"workflow.update_status.count",
		otelmetric.WithDescription("Number of status update requests handled"),
	)

	updateDuration, _ := meter.Float64Histogram(
		"workflow.update_status.duration",
		otelmetric.WithDescription("Status update workflow duration"),
		otelmetric.WithUnit("ms"),
	)

	deliveryCount, _ := meter.Int64Counter(
		"workflow.delivery.count",
		otelmetric.WithDescription("Approval event deliveries by outcome"),
	)

	return &Observability{
		meterProvider:  provider,
		tracerProvider: tp,
		meter:          meter,
		tracer:         tp.Tracer(serviceName),
		updateCounter:  updateCounter,
		updateDuration: updateDuration,
		deliveryCount:  deliveryCount,
	}
}

// RecordStatusUpdate records one workflow run. outcome is "success" or an error code.
func (o *Observability) RecordStatusUpdate(ctx context.Context, status, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("status", status),
		attribute.String("outcome", outcome),
	)
	if o.updateCounter != nil {
		o.updateCounter.Add(ctx, 1, attrs)
	}
	if o.updateDuration != nil {
		o.updateDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

// RecordDelivery records the outcome of an approval event delivery:
// "delivered", "queued" or "lost".
func (o *Observability) RecordDelivery(ctx context.Context, outcome string) {
	if o == nil || o.deliveryCount == nil {
		return
	}
	o.deliveryCount.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// StartSpan starts a span named name. With a nil receiver the span from ctx
// (a no-op span if there is none) is returned.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
