package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *metric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestObservability_RecordsJobsAndMatches(t *testing.T) {
	reader := metric.NewManualReader()
	obs, err := NewWithReader("sponsorloop-test", reader)
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	ctx := context.Background()
	obs.RecordJob(ctx, "find-matches", "completed", 12*time.Millisecond)
	obs.RecordJob(ctx, "find-matches", "completed", 8*time.Millisecond)
	obs.RecordMatches(ctx, "api", "brand", 3)

	got := collect(t, reader)

	jobs, ok := got["jobs.processed"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, jobs.DataPoints, 1)
	assert.Equal(t, int64(2), jobs.DataPoints[0].Value)

	matches, ok := got["matches.served"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, matches.DataPoints, 1)
	assert.Equal(t, int64(3), matches.DataPoints[0].Value)

	_, ok = got["jobs.duration"].Data.(metricdata.Histogram[float64])
	assert.True(t, ok)
}

func TestObservability_NilIsNoOp(t *testing.T) {
	var obs *Observability

	assert.NotPanics(t, func() {
		obs.RecordJob(context.Background(), "x", "failed", time.Second)
		obs.RecordMatches(context.Background(), "api", "brand", 1)
		_ = obs.Shutdown(context.Background())
	})
}
