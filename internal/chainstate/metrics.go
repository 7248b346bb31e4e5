package chainstate

import (
	"context"

	"github.com/gabapcia/blockledger/internal/pkg/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "chainstate"

type metrics struct {
	accepted  metric.Int64Counter
	rejected  metric.Int64Counter
	pruned    metric.Int64Counter
	tipHeight metric.Int64Gauge
}

func newTracer() trace.Tracer {
	return telemetry.Tracer(instrumentationName)
}

// newMetrics registers the chain instruments on the global meter provider.
// Instrument errors are reported through otel.Handle; the returned
// instruments are still safe to use.
func newMetrics() *metrics {
	meter := telemetry.Meter(instrumentationName)

	var (
		m   metrics
		err error
	)

	m.accepted, err = meter.Int64Counter("chainstate.blocks.accepted",
		metric.WithDescription("Blocks added to the chain"))
	handle(err)

	m.rejected, err = meter.Int64Counter("chainstate.blocks.rejected",
		metric.WithDescription("Blocks rejected, by reason"))
	handle(err)

	m.pruned, err = meter.Int64Counter("chainstate.nodes.pruned",
		metric.WithDescription("Blocks removed by the retention sweep"))
	handle(err)

	m.tipHeight, err = meter.Int64Gauge("chainstate.tip.height",
		metric.WithDescription("Height of the canonical tip"))
	handle(err)

	return &m
}

func handle(err error) {
	if err != nil {
		otel.Handle(err)
	}
}

func (m *metrics) recordAccepted(ctx context.Context, event BlockEvent) {
	m.accepted.Add(ctx, 1)
	m.tipHeight.Record(ctx, int64(event.TipHeight))
	if event.Pruned > 0 {
		m.pruned.Add(ctx, int64(event.Pruned))
	}
}

func (m *metrics) recordRejected(ctx context.Context, err error) {
	m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", rejectionReason(err))))
}
