package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/orgplan/orgplan/internal/platform/telemetry"
)

// InitTracer and InitMeter replace the global providers, so these tests do
// not run in parallel.

func TestInitProviders(t *testing.T) {
	tests := []struct {
		name     string
		exporter string
		endpoint string
		wantErr  bool
	}{
		{name: "stdout", exporter: telemetry.ExporterStdout},
		{name: "otlp", exporter: telemetry.ExporterOTLP, endpoint: "http://localhost:4318"},
		{name: "otlp without endpoint", exporter: telemetry.ExporterOTLP, wantErr: true},
		{name: "unknown exporter", exporter: "zipkin", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			tp, err := telemetry.InitTracer(ctx, "orgplan-test", tt.exporter, tt.endpoint)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.NotNil(t, tp)
				// No collector runs in unit tests, so otlp flushes may fail.
				t.Cleanup(func() { _ = tp.Shutdown(ctx) })
			}

			mp, err := telemetry.InitMeter(ctx, "orgplan-test", tt.exporter, tt.endpoint)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, mp)
			t.Cleanup(func() { _ = mp.Shutdown(ctx) })
		})
	}
}

func TestInitTracer_SetsGlobalPropagator(t *testing.T) {
	ctx := context.Background()

	tp, err := telemetry.InitTracer(ctx, "orgplan-test", telemetry.ExporterStdout, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(ctx) })

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")
}

// sumOf returns the total of an Int64 counter across all attribute sets.
func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is %T, want Sum[int64]", name, m.Data)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s not collected", name)
	return 0
}

func TestNewMetrics_RecordsInstruments(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(ctx) })

	metrics, err := telemetry.NewMetrics(mp, "orgplan-test")
	require.NoError(t, err)

	metrics.OperationTotal.Add(ctx, 1, metric.WithAttributes(
		telemetry.AttrOperation.String("ClosePortfolio"),
		telemetry.AttrResult.String(telemetry.ResultRejected),
	))
	metrics.OperationTotal.Add(ctx, 1, metric.WithAttributes(
		telemetry.AttrOperation.String("CreatePortfolio"),
		telemetry.AttrResult.String(telemetry.ResultSuccess),
	))
	metrics.EventsPublishedTotal.Add(ctx, 3, metric.WithAttributes(telemetry.AttrEventType.String("portfolio.created")))
	metrics.EventDeliveriesTotal.Add(ctx, 2, metric.WithAttributes(
		telemetry.AttrSubscriber.String("journal"),
		telemetry.AttrResult.String(telemetry.ResultCircuitOpen),
	))
	metrics.ServerRequestTotal.Add(ctx, 1, metric.WithAttributes(telemetry.AttrHTTPRoute.String("/ops/events")))
	metrics.ServerRequestDuration.Record(ctx, 0.01)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, int64(2), sumOf(t, rm, "domain.operation.total"))
	assert.Equal(t, int64(3), sumOf(t, rm, "domain.events.published.total"))
	assert.Equal(t, int64(2), sumOf(t, rm, "domain.events.deliveries.total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "http.server.request.total"))
}

func TestNewNoopMetrics(t *testing.T) {
	t.Parallel()

	metrics := telemetry.NewNoopMetrics()
	require.NotNil(t, metrics)

	assert.NotPanics(t, func() {
		metrics.OperationTotal.Add(context.Background(), 1,
			metric.WithAttributes(telemetry.AttrOperation.String("CreateTeam")))
		metrics.EventsPublishedTotal.Add(context.Background(), 1)
		metrics.ServerRequestDuration.Record(context.Background(), 0.5)
	})
}
