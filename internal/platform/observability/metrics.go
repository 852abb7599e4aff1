package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/jwebchajari/Savia"

// Metrics records storefront counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	summaries     metric.Int64Counter
	orderTotals   metric.Int64Histogram
	cartMutations metric.Int64Counter
	cartConflicts metric.Int64Counter
	catalogReads  metric.Int64Counter
}

// NewMetrics registers instruments on the supplied meter, or the global one when nil.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}
	m := &Metrics{}
	var err error
	if m.summaries, err = meter.Int64Counter("savia.order.summaries",
		metric.WithDescription("Order summaries built for checkout")); err != nil {
		return nil, err
	}
	if m.orderTotals, err = meter.Int64Histogram("savia.order.grand_total",
		metric.WithDescription("Grand total of built order summaries"),
		metric.WithUnit("{ARS}")); err != nil {
		return nil, err
	}
	if m.cartMutations, err = meter.Int64Counter("savia.cart.mutations",
		metric.WithDescription("Committed cart mutations")); err != nil {
		return nil, err
	}
	if m.cartConflicts, err = meter.Int64Counter("savia.cart.conflicts",
		metric.WithDescription("Optimistic concurrency conflicts on cart writes")); err != nil {
		return nil, err
	}
	if m.catalogReads, err = meter.Int64Counter("savia.catalog.reads",
		metric.WithDescription("Catalog snapshots read from the realtime database")); err != nil {
		return nil, err
	}
	return m, nil
}

// SummaryBuilt records one order summary for the delivery method.
func (m *Metrics) SummaryBuilt(ctx context.Context, method string, grandTotal int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("delivery_method", method))
	m.summaries.Add(ctx, 1, attrs)
	m.orderTotals.Record(ctx, grandTotal, attrs)
}

// CartMutated records a committed cart operation.
func (m *Metrics) CartMutated(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.cartMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// CartConflict records a version conflict that forced a retry.
func (m *Metrics) CartConflict(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.cartConflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// CatalogRead records a catalog snapshot load.
func (m *Metrics) CatalogRead(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.catalogReads.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
