package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/bashhack/scribe/internal/activity"
	"github.com/bashhack/scribe/internal/git"
	"github.com/bashhack/scribe/internal/logger"
	"github.com/bashhack/scribe/internal/summary"
)

// commitTimestampLayout formats the time in snapshot commit messages.
const commitTimestampLayout = "2006-01-02T15-04-05"

// Queue accepts background git work.
type Queue interface {
	Submit(name string, fn git.TaskFunc) *git.Task
}

// Committer commits the log store.
type Committer interface {
	CommitAll(ctx context.Context, message string) (bool, error)
}

// SnapshotWriter appends drained counts to the day's log.
type SnapshotWriter interface {
	Append(counts map[string]int, now time.Time) (string, error)
}

// SummaryGenerator writes and commits a summary document.
type SummaryGenerator interface {
	Generate(ctx context.Context, w summary.Window) (string, error)
}

// Recorder keeps a queryable copy of each flush. Optional.
type Recorder interface {
	Record(ctx context.Context, at time.Time, counts map[string]int) error
}

// Observer is told what each tick did. Optional.
type Observer interface {
	TickCompleted()
	SnapshotWritten(err error)
	SummaryScheduled(kind string)
}

// Config holds the scheduler settings.
type Config struct {
	// IntervalMinutes is the tick interval, at least 1.
	IntervalMinutes int

	// ShutdownTimeout bounds the wait for the final flush commit.
	ShutdownTimeout time.Duration
}

// Dependencies are the collaborators a Scheduler drives.
type Dependencies struct {
	Writer    SnapshotWriter
	Committer Committer
	Queue     Queue
	Summaries SummaryGenerator
	Recorder  Recorder
	Observer  Observer
	Logger    logger.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Scheduler turns editor events into periodic log snapshots and
// calendar-aligned summaries.
//
// Run owns the edit store, the ticker and the duplicate-suppression keys;
// nothing else touches them while it is running. Tick may be called
// directly when Run is not.
type Scheduler struct {
	store     *activity.Store
	writer    SnapshotWriter
	committer Committer
	queue     Queue
	summaries SummaryGenerator
	recorder  Recorder
	observer  Observer
	logger    logger.Logger
	now       func() time.Time

	interval        time.Duration
	shutdownTimeout time.Duration

	intervalMu sync.Mutex
	intervalCh chan int

	lastDailyKey  string
	lastWeeklyKey string
}

// New creates a Scheduler with an empty edit store.
func New(cfg Config, deps Dependencies) *Scheduler {
	minutes := cfg.IntervalMinutes
	if minutes < 1 {
		minutes = 1
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}

	return &Scheduler{
		store:           activity.NewStore(),
		writer:          deps.Writer,
		committer:       deps.Committer,
		queue:           deps.Queue,
		summaries:       deps.Summaries,
		recorder:        deps.Recorder,
		observer:        deps.Observer,
		logger:          log,
		now:             now,
		interval:        time.Duration(minutes) * time.Minute,
		shutdownTimeout: timeout,
		intervalCh:      make(chan int, 1),
	}
}

// Store exposes the edit store. It must only be used while Run is not
// running.
func (s *Scheduler) Store() *activity.Store {
	return s.store
}

// SetInterval changes the tick interval of a running scheduler. The new
// interval takes effect from the next tick. Values below 1 become 1.
func (s *Scheduler) SetInterval(minutes int) {
	if minutes < 1 {
		minutes = 1
	}

	s.intervalMu.Lock()
	defer s.intervalMu.Unlock()

	// Only the latest pending value matters.
	select {
	case <-s.intervalCh:
	default:
	}
	s.intervalCh <- minutes
}

// Run applies events and ticks until ctx ends or events is closed, then
// flushes whatever is still pending. A nil events channel means no event
// source.
func (s *Scheduler) Run(ctx context.Context, events <-chan activity.Event) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Scheduler started with a %s interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Received cancellation signal, shutting down gracefully...")
			s.drainPending(events)
			s.shutdown()
			return nil

		case event, ok := <-events:
			if !ok {
				s.logger.Info("Event stream closed, shutting down")
				s.shutdown()
				return nil
			}
			event.Apply(s.store)

		case minutes := <-s.intervalCh:
			interval := time.Duration(minutes) * time.Minute
			if interval != s.interval {
				s.interval = interval
				ticker.Reset(interval)
				s.logger.InfoToUser("Logging every %d minute(s)", minutes)
			}

		case <-ticker.C:
			s.Tick(ctx, s.now())
		}
	}
}

// Tick performs one scheduling step at now: it always snapshots, and it
// queues the daily and weekly summaries when their boundaries are crossed.
// Errors are logged, never returned.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	s.flush(ctx, s.store.Drain(), now)

	today := summary.DayKey(now)
	if now.Hour() == 0 && s.lastDailyKey != today {
		s.submitSummary(summary.DailyWindow(now))
		s.lastDailyKey = today
	}

	boundary := summary.WeeklyBoundary(now)
	weekKey := summary.DayKey(boundary)
	if absDuration(now.Sub(boundary)) < s.interval && s.lastWeeklyKey != weekKey {
		s.submitSummary(summary.WeeklyWindow(boundary, now))
		s.lastWeeklyKey = weekKey
	}

	if s.observer != nil {
		s.observer.TickCompleted()
	}
}

// flush writes counts to the log and queues a commit. It returns nil when
// the write failed and nothing was queued.
func (s *Scheduler) flush(ctx context.Context, counts map[string]int, now time.Time) *git.Task {
	path, err := s.writer.Append(counts, now)
	if s.observer != nil {
		s.observer.SnapshotWritten(err)
	}
	if err != nil {
		s.logger.Warning("Failed to write activity log: %v", err)
		return nil
	}

	if s.recorder != nil && len(counts) > 0 {
		if err := s.recorder.Record(ctx, now, counts); err != nil {
			s.logger.Warning("Failed to index activity: %v", err)
		}
	}

	message := "Log at " + now.Format(commitTimestampLayout)
	filename := filepath.Base(path)

	return s.queue.Submit("commit", func(ctx context.Context) error {
		committed, err := s.committer.CommitAll(ctx, message)
		if err != nil {
			return err
		}
		if committed {
			s.logger.Info("Committed log to %s", filename)
		}
		return nil
	})
}

func (s *Scheduler) submitSummary(w summary.Window) {
	s.logger.Info("Scheduling %s summary for %s", w.Kind, w.Day)
	if s.observer != nil {
		s.observer.SummaryScheduled(string(w.Kind))
	}

	s.queue.Submit(string(w.Kind)+"-summary", func(ctx context.Context) error {
		_, err := s.summaries.Generate(ctx, w)
		return err
	})
}

// drainPending applies events that were delivered but not yet received,
// without waiting for more.
func (s *Scheduler) drainPending(events <-chan activity.Event) {
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			event.Apply(s.store)
		default:
			return
		}
	}
}

// shutdown writes a last snapshot when edits are pending and waits, within
// the shutdown timeout, for it to be committed.
func (s *Scheduler) shutdown() {
	if s.store.Len() == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	task := s.flush(ctx, s.store.Drain(), s.now())
	if task == nil {
		return
	}

	if err := task.Wait(ctx); err != nil {
		s.logger.Warning("Final flush was not committed: %v", err)
		return
	}
	s.logger.Info("Final flush committed")
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
