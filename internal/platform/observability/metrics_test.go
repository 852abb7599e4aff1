package observability

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetricsRecordCounters(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	m, err := NewMetrics(provider.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.SummaryBuilt(ctx, "homeDelivery", 3300)
	m.CartMutated(ctx, "add")
	m.CartMutated(ctx, "add")
	m.CartConflict(ctx, "add")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	totals := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, metric := range scope.Metrics {
			if sum, ok := metric.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[metric.Name] += dp.Value
				}
			}
		}
	}
	if totals["savia.cart.mutations"] != 2 || totals["savia.cart.conflicts"] != 1 || totals["savia.order.summaries"] != 1 {
		t.Fatalf("unexpected totals %v", totals)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.SummaryBuilt(context.Background(), "pickup", 1)
	m.CartMutated(context.Background(), "add")
	m.CartConflict(context.Background(), "add")
	m.CatalogRead(context.Background(), "rtdb")
}

func TestSetupTelemetryDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := SetupTelemetry(context.Background(), TelemetryConfig{})
	if err != nil {
		t.Fatalf("SetupTelemetry: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
