package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/baylab/nitrogen-dashboard/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingWarmer struct {
	calls atomic.Int32
	err   error
}

func (w *countingWarmer) Warm(_ context.Context) error {
	w.calls.Add(1)
	return w.err
}

func TestRunOnce(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	w := &countingWarmer{}
	s := New("", w, zap.NewNop(), metrics)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, int32(1), w.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WarmRuns.WithLabelValues("success")))
}

func TestRunOnce_Error(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	w := &countingWarmer{err: errors.New("scenario 2050: data unavailable")}
	s := New("", w, zap.NewNop(), metrics)

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WarmRuns.WithLabelValues("error")))
	assert.Zero(t, testutil.ToFloat64(metrics.WarmRuns.WithLabelValues("success")))
}

func TestStart_EmptyScheduleIsDisabled(t *testing.T) {
	w := &countingWarmer{}
	s := New("", w, zap.NewNop(), observability.NewMetricsForTesting())

	require.NoError(t, s.Start())
	s.Stop(context.Background())
	assert.Zero(t, w.calls.Load())
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := New("every tuesday", &countingWarmer{}, zap.NewNop(), observability.NewMetricsForTesting())
	assert.Error(t, s.Start())
}

func TestStart_RunsOnSchedule(t *testing.T) {
	w := &countingWarmer{}
	s := New("@every 1s", w, zap.NewNop(), observability.NewMetricsForTesting())

	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return w.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}
