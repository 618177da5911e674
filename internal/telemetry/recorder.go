package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sentinel-Gate/awaymail/internal/domain/gate"
)

const meterName = "github.com/Sentinel-Gate/awaymail/internal/domain/gate"

// MeterRecorder records gate decisions with OpenTelemetry instruments.
type MeterRecorder struct {
	decisions metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewMeterRecorder creates the instruments on mp.
func NewMeterRecorder(mp metric.MeterProvider) (*MeterRecorder, error) {
	meter := mp.Meter(meterName)

	decisions, err := meter.Int64Counter("awaymail.decisions",
		metric.WithDescription("Gate decisions by action and reason"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("awaymail.evaluation.duration",
		metric.WithDescription("Time spent evaluating one message"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &MeterRecorder{decisions: decisions, duration: duration}, nil
}

// RecordDecision implements gate.Recorder.
func (r *MeterRecorder) RecordDecision(d gate.Decision, elapsed time.Duration) {
	ctx := context.Background()
	r.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", d.Action.String()),
		attribute.String("reason", string(d.Reason)),
	))
	r.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("action", d.Action.String()),
	))
}

var _ gate.Recorder = (*MeterRecorder)(nil)
