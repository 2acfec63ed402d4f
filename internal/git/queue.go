package git

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	scribeErrors "github.com/bashhack/scribe/internal/errors"
	"github.com/bashhack/scribe/internal/logger"
)

// TaskFunc is the body of a queued task.
type TaskFunc func(ctx context.Context) error

// Task is a handle to a queued unit of work. It resolves exactly once.
type Task struct {
	ID   string
	Name string

	fn   TaskFunc
	done chan struct{}
	err  error
}

func newTask(name string, fn TaskFunc) *Task {
	return &Task{
		ID:   uuid.NewString(),
		Name: name,
		fn:   fn,
		done: make(chan struct{}),
	}
}

// Resolved returns a task that has already finished with err.
func Resolved(name string, err error) *Task {
	t := newTask(name, nil)
	t.resolve(err)
	return t
}

func (t *Task) resolve(err error) {
	t.err = err
	close(t.done)
}

// Done is closed once the task has finished, failed or been dropped.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the task outcome. It is only meaningful after Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task resolves or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Observer is told about every task outcome.
type Observer interface {
	TaskCompleted(name string, err error, elapsed time.Duration)
	TaskDropped(name string)
}

// Queue runs tasks one at a time, in submission order, on a single worker
// goroutine. git takes an index lock per repository, so the log store never
// has two git processes in flight.
type Queue struct {
	tasks    chan *Task
	logger   logger.Logger
	observer Observer
	warnings *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	stopped chan struct{}
}

// QueueOption customizes a Queue.
type QueueOption func(*Queue)

// WithObserver reports task outcomes to o.
func WithObserver(o Observer) QueueOption {
	return func(q *Queue) {
		q.observer = o
	}
}

// WithWarningLimit limits how often failures are surfaced to the user.
// Every failure is still written to the debug log.
func WithWarningLimit(every time.Duration, burst int) QueueOption {
	return func(q *Queue) {
		q.warnings = rate.NewLimiter(rate.Every(every), burst)
	}
}

// NewQueue starts a queue that buffers up to size pending tasks.
func NewQueue(size int, log logger.Logger, opts ...QueueOption) *Queue {
	if size < 1 {
		size = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		tasks:    make(chan *Task, size),
		logger:   log,
		warnings: rate.NewLimiter(rate.Every(time.Minute), 3),
		ctx:      ctx,
		cancel:   cancel,
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}

	go q.work()
	return q
}

// Submit enqueues fn and returns immediately. When the queue is full or
// closed the returned task is already resolved with ErrQueueFull or
// ErrQueueClosed.
func (q *Queue) Submit(name string, fn TaskFunc) *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return Resolved(name, scribeErrors.ErrQueueClosed)
	}

	task := newTask(name, fn)
	select {
	case q.tasks <- task:
		q.logger.Info("Queued task %s (%s)", task.Name, task.ID)
	default:
		task.resolve(scribeErrors.ErrQueueFull)
		q.logger.Warning("Dropped task %s: queue full", task.Name)
		if q.observer != nil {
			q.observer.TaskDropped(task.Name)
		}
	}
	return task
}

// Close stops accepting tasks and waits for queued ones to finish. If ctx
// ends first, the running task's context is cancelled, any remaining tasks
// resolve with ErrQueueClosed, and ctx's error is returned.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	q.mu.Unlock()

	select {
	case <-q.stopped:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-q.stopped
		return ctx.Err()
	}
}

func (q *Queue) work() {
	defer close(q.stopped)

	for task := range q.tasks {
		if q.ctx.Err() != nil {
			task.resolve(scribeErrors.ErrQueueClosed)
			continue
		}
		q.execute(task)
	}
}

func (q *Queue) execute(task *Task) {
	start := time.Now()
	err := q.safeRun(task)
	elapsed := time.Since(start)

	if err != nil {
		q.logger.Info("Task %s (%s) failed: %v", task.Name, task.ID, err)
		if q.warnings.Allow() {
			q.logger.WarningToUser("%s failed: %v", task.Name, err)
		}
	} else {
		q.logger.Info("Task %s (%s) finished in %s", task.Name, task.ID, elapsed)
	}

	if q.observer != nil {
		q.observer.TaskCompleted(task.Name, err, elapsed)
	}
	task.resolve(err)
}

func (q *Queue) safeRun(task *Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task.fn(q.ctx)
}
