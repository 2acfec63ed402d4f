// Package git manages the scribe log store repository.
//
// The log store is a plain directory versioned by the git binary. All git
// work goes through a CommandExecutor, so tests can substitute a recording
// mock for os/exec.
//
// # Core Components
//
// - Repo: bootstrap, commit, history and restore operations on the log store
// - Queue: a single-worker task queue that serializes git invocations
// - Task: a future for one queued unit of work
// - CommandExecutor: interface for executing git commands
//
// # Usage
//
//	repo := git.NewRepo(cfg.RootDir, log, git.WithIdentity(cfg.Git.AuthorName, cfg.Git.AuthorEmail))
//	if err := repo.EnsureInitialized(ctx); err != nil {
//		return err
//	}
//
//	queue := git.NewQueue(cfg.QueueSize, log)
//	defer queue.Close(shutdownCtx)
//
//	task := queue.Submit("commit", func(ctx context.Context) error {
//		_, err := repo.CommitAll(ctx, "Log at 2026-10-15T09-30-00")
//		return err
//	})
//
// Submit never blocks. A failed task is logged and not retried; the next
// commit picks up whatever the failed one left behind.
//
// # Error Handling
//
// Failed git invocations return *errors.GitError wrapping
// errors.ErrGitOperationFailed, with git's stderr in Output.
package git
