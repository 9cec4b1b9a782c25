package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthRegistry_Check(t *testing.T) {
	r := NewHealthRegistry()
	r.Register("local", PingChecker(func(context.Context) error { return nil }, HealthStatusUnhealthy))
	r.Register("redis", PingChecker(func(context.Context) error { return errors.New("refused") }, HealthStatusDegraded))

	results := r.Check(context.Background())

	require.Len(t, results, 2)
	assert.Equal(t, "local", results[0].Name)
	assert.Equal(t, HealthStatusHealthy, results[0].Status)
	assert.Equal(t, "redis", results[1].Name)
	assert.Equal(t, HealthStatusDegraded, results[1].Status)
	assert.Equal(t, "refused", results[1].Message)
	assert.Equal(t, HealthStatusDegraded, Overall(results))
}

func TestOverall(t *testing.T) {
	assert.Equal(t, HealthStatusHealthy, Overall(nil))
	assert.Equal(t, HealthStatusUnhealthy, Overall([]HealthCheckResult{
		{Status: HealthStatusDegraded},
		{Status: HealthStatusUnhealthy},
	}))
}

func TestTimer_Stop(t *testing.T) {
	m := NewInMemoryMetrics()

	StartTimer("sync", MetricSyncDuration).WithMetrics(m).WithTags(T("sink", "redis")).Stop(nil)
	StartTimer("sync", MetricSyncDuration).WithMetrics(m).WithTags(T("sink", "redis")).Stop(errors.New("boom"))

	assert.Len(t, m.GetTimings(MetricSyncDuration, T("sink", "redis"), T("result", "success")), 1)
	assert.Len(t, m.GetTimings(MetricSyncDuration, T("sink", "redis"), T("result", "failure")), 1)
}

func TestTimer_Elapsed(t *testing.T) {
	timer := StartTimer("op", "")
	time.Sleep(time.Millisecond)

	assert.Greater(t, timer.Elapsed(), time.Duration(0))
	assert.Greater(t, timer.Stop(nil), time.Duration(0))
}
