package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bashhack/scribe/internal/activity"
	"github.com/bashhack/scribe/internal/config"
	scribeErrors "github.com/bashhack/scribe/internal/errors"
	"github.com/bashhack/scribe/internal/git"
	"github.com/bashhack/scribe/internal/history"
	"github.com/bashhack/scribe/internal/index"
	"github.com/bashhack/scribe/internal/lock"
	"github.com/bashhack/scribe/internal/logger"
	"github.com/bashhack/scribe/internal/metrics"
	"github.com/bashhack/scribe/internal/scheduler"
	"github.com/bashhack/scribe/internal/snapshot"
	"github.com/bashhack/scribe/internal/summary"
)

// eventBuffer is how many editor events may wait for the scheduler loop.
const eventBuffer = 256

// Locker manages the per-log-store process lock
type Locker interface {
	Acquire() error
	Release() error
}

// AppOptions contains app configuration and dependencies.
// Nil optional fields are filled with defaults by NewApp and Initialize.
type AppOptions struct {
	// Config holds the application configuration settings (required).
	Config *config.Config

	// Loader reloads Config when the config file changes (optional).
	Loader *config.Loader

	// Logger provides logging functionality (optional).
	Logger logger.Logger

	// Locker prevents two scribe processes from sharing a log store (optional).
	Locker Locker

	// Executor runs git (optional, defaults to os/exec).
	Executor git.CommandExecutor

	// Interactor answers restore and diff prompts (optional).
	Interactor history.UserInteractor

	// Stdin carries editor events when the source is stdin.
	Stdin io.Reader

	// Stdout is the writer for standard output.
	Stdout io.Writer

	// Stderr is the writer for error output.
	Stderr io.Writer

	// Now is the clock (optional, defaults to time.Now).
	Now func() time.Time

	// ExecLookPath is used to find the git executable (optional).
	ExecLookPath func(file string) (string, error)
}

// App wires scribe's components together and owns their lifecycle.
type App struct {
	Config  *config.Config
	Logger  logger.Logger
	Locker  Locker
	Repo    *git.Repo
	Metrics *metrics.Metrics

	// Set up by Run or OpenForWrite.
	Queue     *git.Queue
	Index     *index.Index
	Summaries *summary.Generator
	Scheduler *scheduler.Scheduler

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	loader       *config.Loader
	executor     git.CommandExecutor
	interactor   history.UserInteractor
	now          func() time.Time
	execLookPath func(file string) (string, error)
	locked       bool
}

// NewApp creates an App from opts. It panics if opts.Config is nil.
func NewApp(opts AppOptions) *App {
	if opts.Config == nil {
		panic("Config is required in AppOptions")
	}

	app := &App{
		Config:       opts.Config,
		Logger:       opts.Logger,
		Locker:       opts.Locker,
		Stdin:        opts.Stdin,
		Stdout:       opts.Stdout,
		Stderr:       opts.Stderr,
		loader:       opts.Loader,
		executor:     opts.Executor,
		interactor:   opts.Interactor,
		now:          opts.Now,
		execLookPath: opts.ExecLookPath,
	}

	if app.Stdin == nil {
		app.Stdin = os.Stdin
	}
	if app.Stdout == nil {
		app.Stdout = os.Stdout
	}
	if app.Stderr == nil {
		app.Stderr = os.Stderr
	}
	if app.now == nil {
		app.now = time.Now
	}
	if app.execLookPath == nil {
		app.execLookPath = exec.LookPath
	}

	return app
}

// Initialize finalizes the configuration and builds the components every
// command needs: the logger and the log store repository.
func (a *App) Initialize() error {
	if err := a.Config.Finalize(); err != nil {
		if errors.Is(err, scribeErrors.ErrInvalidConfiguration) || errors.Is(err, scribeErrors.ErrNoWorkspace) {
			return err
		}
		return scribeErrors.Wrap(scribeErrors.ErrInvalidConfiguration, err.Error())
	}

	if a.Logger == nil {
		a.Logger = logger.New(a.Config.Debug, a.Config.LogFile, a.Config.Verbose, a.Stdout, a.Stderr)
	}

	if a.executor == nil {
		if _, err := a.execLookPath("git"); err != nil {
			return fmt.Errorf("git is not found in PATH")
		}
		a.executor = git.NewExecExecutor()
	}

	if a.Metrics == nil {
		a.Metrics = metrics.New()
	}

	a.Repo = git.NewRepo(a.Config.RootDir, a.Logger,
		git.WithExecutor(a.executor),
		git.WithIdentity(a.Config.Git.AuthorName, a.Config.Git.AuthorEmail))

	return nil
}

// OpenForWrite takes the log store lock and makes sure the repository
// exists. Commands that commit call it before touching the store.
func (a *App) OpenForWrite(ctx context.Context) error {
	if a.Locker == nil {
		locker, err := lock.New(a.Config.RootDir)
		if err != nil {
			return scribeErrors.Wrap(err, "failed to initialize lock")
		}
		a.Locker = locker
	}

	if err := a.Locker.Acquire(); err != nil {
		if errors.Is(err, scribeErrors.ErrAlreadyRunning) {
			return err
		}
		return scribeErrors.Wrap(scribeErrors.ErrLockAcquisitionFailure, err.Error())
	}
	a.locked = true

	if err := a.Repo.EnsureInitialized(ctx); err != nil {
		return err
	}

	a.Summaries = summary.NewGenerator(a.Config.RootDir, a.Repo, a.Repo, a.Logger)
	return nil
}

// openIndex opens the activity index. A failure leaves the index disabled.
func (a *App) openIndex() {
	if !a.Config.Index.Enabled || a.Index != nil {
		return
	}
	idx, err := index.Open(a.Config.Index.Path)
	if err != nil {
		a.Logger.Warning("Activity index disabled: %v", err)
		return
	}
	a.Index = idx
}

// eventSource returns the configured editor event source, or nil.
func (a *App) eventSource() activity.Source {
	switch a.Config.Source {
	case config.SourceStdin:
		return activity.NewStreamSource(a.Stdin, a.Logger)
	case config.SourceWatch:
		return activity.NewWatchSource(a.Config.Workspace, a.Logger, a.Config.RootDir)
	}
	return nil
}

// Run tracks editor activity until ctx ends or the event source is
// exhausted. The final flush happens before it returns.
func (a *App) Run(ctx context.Context) error {
	if err := a.OpenForWrite(ctx); err != nil {
		return err
	}

	a.Queue = git.NewQueue(a.Config.QueueSize, a.Logger, git.WithObserver(a.Metrics))
	a.openIndex()

	deps := scheduler.Dependencies{
		Writer:    snapshot.NewWriter(a.Config.RootDir),
		Committer: a.Repo,
		Queue:     a.Queue,
		Summaries: a.Summaries,
		Observer:  a.Metrics,
		Logger:    a.Logger,
		Now:       a.now,
	}
	if a.Index != nil {
		deps.Recorder = a.Index
	}
	a.Scheduler = scheduler.New(scheduler.Config{
		IntervalMinutes: a.Config.IntervalMinutes,
		ShutdownTimeout: a.Config.ShutdownTimeout,
	}, deps)

	g, gctx := errgroup.WithContext(ctx)
	runCtx, stop := context.WithCancel(gctx)
	defer stop()

	if a.Config.MetricsAddr != "" {
		server, err := metrics.Listen(a.Config.MetricsAddr, a.Metrics)
		if err != nil {
			return err
		}
		a.Logger.InfoToUser("Serving metrics on http://%s/metrics", server.Addr())
		g.Go(func() error {
			return server.Serve(runCtx)
		})
	}

	var events chan activity.Event
	if source := a.eventSource(); source != nil {
		events = make(chan activity.Event, eventBuffer)
		g.Go(func() error {
			return source.Run(runCtx, events)
		})
	}

	g.Go(func() error {
		// The scheduler owns shutdown; everything else stops with it.
		defer stop()
		return a.Scheduler.Run(runCtx, events)
	})

	a.watchConfig()
	a.printStartup()

	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}

// watchConfig applies interval changes from the config file while running.
func (a *App) watchConfig() {
	if a.loader == nil {
		return
	}
	watching := a.loader.Watch(func(cfg *config.Config, err error) {
		if err != nil {
			a.Logger.WarningToUser("Ignoring config change: %v", err)
			return
		}
		a.Scheduler.SetInterval(cfg.IntervalMinutes)
	})
	if watching {
		a.Logger.Info("Watching %s for changes", a.Config.ConfigFile)
	}
}

func (a *App) printStartup() {
	a.Logger.StatusMessage("✏️  Scribe active")
	if !a.Config.Verbose {
		return
	}
	a.Logger.InfoToUser("Workspace: %s", a.Config.Workspace)
	a.Logger.InfoToUser("Log store: %s", a.Config.RootDir)
	a.Logger.InfoToUser("Logging every %d minute(s) from %s", a.Config.IntervalMinutes, a.Config.Source)
	if a.Index != nil {
		a.Logger.InfoToUser("Activity index: %s", a.Config.Index.Path)
	}
}

// Browser returns the history browser for the restore, diff and history
// commands.
func (a *App) Browser() *history.Browser {
	interactor := a.interactor
	if interactor == nil {
		interactor = history.NewNonInteractiveInteractor()
	}
	return history.NewBrowser(a.Repo, interactor, a.Logger, a.Stdout)
}

// SetInteractor replaces the prompt implementation.
func (a *App) SetInteractor(i history.UserInteractor) {
	a.interactor = i
}

// Close releases resources held by the App. Pending git tasks get up to
// the shutdown timeout to finish.
func (a *App) Close() error {
	var errs []error

	if a.Queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
		if err := a.Queue.Close(ctx); err != nil {
			a.logError("Git tasks were abandoned during shutdown: %v", err)
			errs = append(errs, err)
		}
		cancel()
	}

	if a.Index != nil {
		if err := a.Index.Close(); err != nil {
			a.logError("Failed to close activity index: %v", err)
			errs = append(errs, err)
		}
	}

	if a.Locker != nil && a.locked {
		if err := a.Locker.Release(); err != nil {
			a.logError("Failed to release lock during cleanup: %v", err)
			errs = append(errs, err)
		}
		a.locked = false
	}

	if c, ok := a.interactor.(io.Closer); ok {
		_ = c.Close()
	}

	if a.Logger != nil {
		if err := a.Logger.Close(); err != nil {
			_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to close logger: %v\n", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (a *App) logError(format string, args ...interface{}) {
	if a.Logger != nil {
		a.Logger.Error(format, args...)
		return
	}
	_, _ = fmt.Fprintf(a.Stderr, "❌ "+format+"\n", args...)
}
