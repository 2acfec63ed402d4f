package scheduler

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bashhack/scribe/internal/activity"
	"github.com/bashhack/scribe/internal/git"
	"github.com/bashhack/scribe/internal/logger"
	"github.com/bashhack/scribe/internal/snapshot"
	"github.com/bashhack/scribe/internal/summary"
)

// syncQueue runs every task inline.
type syncQueue struct {
	mu    sync.Mutex
	names []string
}

func (q *syncQueue) Submit(name string, fn git.TaskFunc) *git.Task {
	q.mu.Lock()
	q.names = append(q.names, name)
	q.mu.Unlock()
	return git.Resolved(name, fn(context.Background()))
}

type fakeWriter struct {
	flushes []map[string]int
	err     error
}

func (w *fakeWriter) Append(counts map[string]int, now time.Time) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.flushes = append(w.flushes, counts)
	return snapshot.LogFileName(now), nil
}

type fakeCommitter struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (c *fakeCommitter) CommitAll(_ context.Context, message string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, message)
	return c.err == nil, c.err
}

type fakeSummaries struct {
	windows []summary.Window
}

func (f *fakeSummaries) Generate(_ context.Context, w summary.Window) (string, error) {
	f.windows = append(f.windows, w)
	return w.FileName(), nil
}

func (f *fakeSummaries) days(kind summary.Kind) []string {
	var days []string
	for _, w := range f.windows {
		if w.Kind == kind {
			days = append(days, w.Day)
		}
	}
	return days
}

type fakeRecorder struct {
	records []map[string]int
}

func (r *fakeRecorder) Record(_ context.Context, _ time.Time, counts map[string]int) error {
	r.records = append(r.records, counts)
	return nil
}

type countingObserver struct {
	ticks, snapshots, failures int
	summaries                  map[string]int
}

func (o *countingObserver) TickCompleted() { o.ticks++ }

func (o *countingObserver) SnapshotWritten(err error) {
	if err != nil {
		o.failures++
		return
	}
	o.snapshots++
}

func (o *countingObserver) SummaryScheduled(kind string) {
	if o.summaries == nil {
		o.summaries = make(map[string]int)
	}
	o.summaries[kind]++
}

type harness struct {
	scheduler *Scheduler
	writer    *fakeWriter
	committer *fakeCommitter
	queue     *syncQueue
	summaries *fakeSummaries
	recorder  *fakeRecorder
	observer  *countingObserver
}

func newHarness(intervalMinutes int) *harness {
	h := &harness{
		writer:    &fakeWriter{},
		committer: &fakeCommitter{},
		queue:     &syncQueue{},
		summaries: &fakeSummaries{},
		recorder:  &fakeRecorder{},
		observer:  &countingObserver{},
	}
	h.scheduler = New(Config{IntervalMinutes: intervalMinutes}, Dependencies{
		Writer:    h.writer,
		Committer: h.committer,
		Queue:     h.queue,
		Summaries: h.summaries,
		Recorder:  h.recorder,
		Observer:  h.observer,
		Logger:    logger.Discard(),
	})
	return h
}

// runTicks calls Tick every interval from start for the given duration.
func (h *harness) runTicks(start time.Time, d time.Duration) {
	for now := start; now.Before(start.Add(d)); now = now.Add(h.scheduler.interval) {
		h.scheduler.Tick(context.Background(), now)
	}
}

func TestTickAlwaysSnapshots(t *testing.T) {
	h := newHarness(1)
	now := time.Date(2026, time.October, 15, 9, 30, 0, 0, time.UTC)

	h.scheduler.Store().RecordEdit("a.txt", 2)
	h.scheduler.Tick(context.Background(), now)
	h.scheduler.Tick(context.Background(), now.Add(time.Minute))

	require.Len(t, h.writer.flushes, 2)
	assert.Equal(t, map[string]int{"a.txt": 2}, h.writer.flushes[0])
	assert.Empty(t, h.writer.flushes[1], "an idle interval still produces a snapshot")

	assert.Equal(t, []string{"Log at 2026-10-15T09-30-00", "Log at 2026-10-15T09-31-00"}, h.committer.messages)
	assert.Len(t, h.recorder.records, 1, "empty flushes are not indexed")
	assert.Equal(t, 2, h.observer.ticks)
	assert.Equal(t, 2, h.observer.snapshots)
}

func TestTickWriteFailureSkipsCommit(t *testing.T) {
	h := newHarness(1)
	h.writer.err = errors.New("disk full")
	h.scheduler.Store().RecordEdit("a.txt", 1)

	h.scheduler.Tick(context.Background(), time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC))

	assert.Empty(t, h.committer.messages)
	assert.Empty(t, h.recorder.records)
	assert.Equal(t, 1, h.observer.failures)
	assert.Equal(t, 0, h.scheduler.Store().Len(), "the failed tick's edits are lost")
}

func TestDailyFiresOncePerDay(t *testing.T) {
	h := newHarness(1)
	start := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

	h.runTicks(start, 24*time.Hour)

	assert.Equal(t, []string{"2026-10-16"}, h.summaries.days(summary.Daily))
	assert.Empty(t, h.summaries.days(summary.Weekly), "Thursday to Friday crosses no weekly boundary")
	assert.Equal(t, 1440, len(h.writer.flushes))

	w := h.summaries.windows[0]
	assert.True(t, time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC).Equal(w.Since))
	assert.True(t, time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC).Equal(w.Until))
}

func TestWeeklyFiresOncePerWeek(t *testing.T) {
	tests := map[string]struct {
		interval int
		start    time.Time
	}{
		"one minute aligned":   {interval: 1, start: time.Date(2026, time.October, 12, 1, 0, 0, 0, time.UTC)},
		"one minute offset":    {interval: 1, start: time.Date(2026, time.October, 12, 1, 0, 30, 0, time.UTC)},
		"five minutes offset":  {interval: 5, start: time.Date(2026, time.October, 12, 1, 2, 30, 0, time.UTC)},
		"fifteen minute ticks": {interval: 15, start: time.Date(2026, time.October, 12, 0, 7, 0, 0, time.UTC)},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			h := newHarness(tc.interval)
			h.runTicks(tc.start, 21*24*time.Hour)

			assert.Equal(t, []string{"2026-10-18", "2026-10-25", "2026-11-01"}, h.summaries.days(summary.Weekly))

			dailies := h.summaries.days(summary.Daily)
			seen := make(map[string]bool)
			for _, day := range dailies {
				assert.False(t, seen[day], "daily summary for %s fired twice", day)
				seen[day] = true
			}
			assert.GreaterOrEqual(t, len(dailies), 20)
			assert.LessOrEqual(t, len(dailies), 22)
		})
	}
}

func TestDailyAndWeeklyInOneTick(t *testing.T) {
	h := newHarness(60)

	// Monday 00:00 is one minute after the Sunday boundary.
	h.scheduler.Tick(context.Background(), time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, []string{"2026-10-19"}, h.summaries.days(summary.Daily))
	assert.Equal(t, []string{"2026-10-18"}, h.summaries.days(summary.Weekly))
	assert.Equal(t, []string{"commit", "daily-summary", "weekly-summary"}, h.queue.names)
	assert.Equal(t, map[string]int{"daily": 1, "weekly": 1}, h.observer.summaries)
}

func TestMissedBoundaryIsSkipped(t *testing.T) {
	h := newHarness(1)

	h.scheduler.Tick(context.Background(), time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC))
	// The process slept through Sunday night and midnight.
	h.scheduler.Tick(context.Background(), time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC))

	assert.Empty(t, h.summaries.windows)
}

func TestSetIntervalKeepsLatest(t *testing.T) {
	h := newHarness(1)

	h.scheduler.SetInterval(3)
	h.scheduler.SetInterval(0)
	h.scheduler.SetInterval(7)

	require.Len(t, h.scheduler.intervalCh, 1)
	assert.Equal(t, 7, <-h.scheduler.intervalCh)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunAppliesIntervalChange(t *testing.T) {
	out := &syncBuffer{}
	h := newHarness(1)
	h.scheduler.logger = logger.New(false, "", true, out, out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.scheduler.Run(ctx, nil) }()

	h.scheduler.SetInterval(2)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Logging every 2 minute(s)")
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRunFlushesOnStreamClose(t *testing.T) {
	root := t.TempDir()
	committer := &fakeCommitter{}
	fixed := time.Date(2026, time.October, 15, 9, 30, 0, 0, time.Local)

	s := New(Config{IntervalMinutes: 1, ShutdownTimeout: time.Second}, Dependencies{
		Writer:    snapshot.NewWriter(root),
		Committer: committer,
		Queue:     &syncQueue{},
		Summaries: &fakeSummaries{},
		Logger:    logger.Discard(),
		Now:       func() time.Time { return fixed },
	})

	events := make(chan activity.Event)
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), events) }()

	events <- activity.Event{Kind: activity.KindOpen, Path: "a.txt"}
	events <- activity.Event{Kind: activity.KindChange, Path: "b.txt", Changes: 1}
	events <- activity.Event{Kind: activity.KindChange, Path: "a.txt", Changes: 2}
	close(events)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the event stream closed")
	}

	content, err := os.ReadFile(filepath.Join(root, "log-2026-10-15.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "- Edited: a.txt (2 times)\n- Edited: b.txt (1 times)\n")
	assert.Equal(t, []string{"Log at 2026-10-15T09-30-00"}, committer.messages)
}

func TestRunSkipsFinalFlushWhenIdle(t *testing.T) {
	h := newHarness(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.scheduler.Run(ctx, nil))
	assert.Empty(t, h.writer.flushes)
	assert.Empty(t, h.committer.messages)
}

func TestRunAppliesBufferedEventsOnCancel(t *testing.T) {
	tests := map[string]struct {
		events int
		close  bool
	}{
		"open stream":   {events: 5},
		"closed stream": {events: 5, close: true},
		"single event":  {events: 1},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			h := newHarness(1)

			events := make(chan activity.Event, tc.events)
			for i := 0; i < tc.events; i++ {
				events <- activity.Event{Kind: activity.KindChange, Path: "a.txt", Changes: 1}
			}
			if tc.close {
				close(events)
			}

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			require.NoError(t, h.scheduler.Run(ctx, events))

			total := 0
			for _, counts := range h.writer.flushes {
				total += counts["a.txt"]
			}
			assert.Equal(t, tc.events, total)
			assert.Len(t, h.committer.messages, 1)
		})
	}
}

func TestFinalFlushTimesOut(t *testing.T) {
	q := git.NewQueue(1, logger.Discard())
	defer func() { _ = q.Close(context.Background()) }()

	release := make(chan struct{})
	defer close(release)
	q.Submit("blocker", func(ctx context.Context) error {
		<-release
		return nil
	})

	s := New(Config{IntervalMinutes: 1, ShutdownTimeout: 50 * time.Millisecond}, Dependencies{
		Writer:    &fakeWriter{},
		Committer: &fakeCommitter{},
		Queue:     q,
		Summaries: &fakeSummaries{},
		Logger:    logger.Discard(),
	})
	s.Store().RecordEdit("a.txt", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	require.NoError(t, s.Run(ctx, nil))
	assert.Less(t, time.Since(start), 5*time.Second, "shutdown must not wait past its timeout")
}
