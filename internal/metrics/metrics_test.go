package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.TickCompleted()
	m.TickCompleted()
	m.SnapshotWritten(nil)
	m.SnapshotWritten(errors.New("disk full"))
	m.SummaryScheduled("daily")
	m.TaskCompleted("commit", nil, 10*time.Millisecond)
	m.TaskCompleted("commit", errors.New("index.lock"), time.Millisecond)
	m.TaskDropped("commit")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshots.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshots.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.summaries.WithLabelValues("daily")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("commit", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("commit", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dropped.WithLabelValues("commit")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.taskDuration))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.TickCompleted()
		m.SnapshotWritten(nil)
		m.SummaryScheduled("weekly")
		m.TaskCompleted("commit", nil, 0)
		m.TaskDropped("commit")
	})
}

func TestServer(t *testing.T) {
	m := New()
	m.TickCompleted()

	srv, err := Listen("127.0.0.1:0", m)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "scribe_ticks_total 1"))

	resp, err = http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(t, <-done)
}
