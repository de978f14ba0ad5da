package processor

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/thebtf/rapport/internal/usage"
	"github.com/thebtf/rapport/pkg/models"
)

// cycleMetrics exposes cycle and append counters through the global OTel
// meter provider. With no provider installed the instruments are no-ops, so
// library users pay nothing.
type cycleMetrics struct {
	cycles  metric.Int64Counter
	derived metric.Int64Counter

	derivedTotal atomic.Int64
}

func newCycleMetrics() *cycleMetrics {
	meter := otel.Meter("github.com/thebtf/rapport/internal/processor")

	cycles, _ := meter.Int64Counter("rapport.cycles",
		metric.WithDescription("Query cycles executed, by outcome"))
	derived, _ := meter.Int64Counter("rapport.derived_events",
		metric.WithDescription("Derived conversation events appended, by category"))

	return &cycleMetrics{cycles: cycles, derived: derived}
}

func (m *cycleMetrics) wrapAppender(inner usage.EventAppender) usage.EventAppender {
	return &countingAppender{inner: inner, metrics: m}
}

func (m *cycleMetrics) recordCycle(ctx context.Context, productive bool) {
	m.cycles.Add(ctx, 1, metric.WithAttributes(attribute.Bool("productive", productive)))
}

func (m *cycleMetrics) recordDerived(category models.EventCategory) {
	m.derivedTotal.Add(1)
	m.derived.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("category", string(category))))
}
