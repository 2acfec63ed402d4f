// Package lock provides file-based locking for scribe.
//
// Only one scribe process may write to a given log store at a time. The
// Locker takes an exclusive flock on a PID file in the system temp
// directory, keyed by a hash of the log store root, so two workspaces never
// contend while two processes pointed at the same store always do.
//
// # Usage
//
//	locker, err := lock.New(cfg.RootDir)
//	if err != nil {
//		return err
//	}
//	if err := locker.Acquire(); err != nil {
//		// errors.Is(err, errors.ErrAlreadyRunning) when another scribe owns the store
//		return err
//	}
//	defer locker.Release()
//
// A crashed holder never leaves a blocking lock behind: the kernel drops the
// flock with the process, and the next Acquire reuses the file.
package lock
