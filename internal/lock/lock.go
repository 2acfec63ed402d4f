package lock

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	scribeErrors "github.com/bashhack/scribe/internal/errors"
)

// maxAcquireAttempts bounds retries when the lock file is replaced between
// opening and locking it.
const maxAcquireAttempts = 3

// Locker guarantees a single scribe writer per log store.
//
// The lock is an flock(2) on a file in the system temp directory, named
// after a hash of the log store root. The kernel drops the flock when the
// holding process dies, so a leftover file from a crashed run never blocks
// a new one.
type Locker struct {
	lockFile string
	lockFd   *os.File
	pid      int
}

// New creates a Locker for the log store rooted at root.
func New(root string) (*Locker, error) {
	if runtime.GOOS == "windows" {
		return nil, scribeErrors.NewLockError("", 0,
			scribeErrors.Wrap(scribeErrors.ErrLockAcquisitionFailure,
				"scribe only supports Unix-like operating systems"))
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	rootHash := fmt.Sprintf("%x", sha256.Sum256([]byte(abs)))[:16]

	return &Locker{
		lockFile: filepath.Join(os.TempDir(), fmt.Sprintf("scribe-%s.lock", rootHash)),
		pid:      os.Getpid(),
	}, nil
}

// Path returns the lock file location.
func (l *Locker) Path() string {
	return l.lockFile
}

// Held reports whether this Locker currently owns the lock.
func (l *Locker) Held() bool {
	return l.lockFd != nil
}

// Acquire takes the lock or fails with ErrAlreadyRunning when another live
// process owns it.
func (l *Locker) Acquire() error {
	if l.lockFd != nil {
		return nil
	}

	for attempt := 0; attempt < maxAcquireAttempts; attempt++ {
		fd, err := os.OpenFile(l.lockFile, os.O_CREATE|os.O_RDWR, 0o600)
		if err != nil {
			return scribeErrors.NewLockError(l.lockFile, 0,
				scribeErrors.Wrap(scribeErrors.ErrLockAcquisitionFailure, err.Error()))
		}

		if err := syscall.Flock(int(fd.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
			_ = fd.Close()

			// EWOULDBLOCK and EAGAIN are distinct on some older systems.
			if errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN) {
				return scribeErrors.NewLockError(l.lockFile, l.holderPID(), scribeErrors.ErrAlreadyRunning)
			}
			return scribeErrors.NewLockError(l.lockFile, 0,
				scribeErrors.Wrap(scribeErrors.ErrLockAcquisitionFailure, err.Error()))
		}

		// A releasing holder unlinks the file; if that happened after our
		// open we locked an orphaned inode and must start over.
		if !sameFile(fd, l.lockFile) {
			_ = syscall.Flock(int(fd.Fd()), syscall.LOCK_UN)
			_ = fd.Close()
			continue
		}

		l.lockFd = fd
		if err := l.writePid(); err != nil {
			_ = l.Release()
			return err
		}
		return nil
	}

	return scribeErrors.NewLockError(l.lockFile, 0,
		scribeErrors.Wrap(scribeErrors.ErrLockAcquisitionFailure, "lock file kept changing during acquisition"))
}

func (l *Locker) writePid() error {
	if err := l.lockFd.Truncate(0); err != nil {
		return scribeErrors.NewLockError(l.lockFile, l.pid,
			scribeErrors.Wrap(err, "failed to truncate lock file"))
	}
	if _, err := l.lockFd.WriteAt([]byte(strconv.Itoa(l.pid)), 0); err != nil {
		return scribeErrors.NewLockError(l.lockFile, l.pid,
			scribeErrors.Wrap(err, "failed to write PID to lock file"))
	}
	return nil
}

// holderPID returns the PID recorded by the current holder, or 0.
func (l *Locker) holderPID() int {
	data, err := os.ReadFile(l.lockFile)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

func sameFile(fd *os.File, path string) bool {
	held, err := fd.Stat()
	if err != nil {
		return false
	}
	current, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(held, current)
}

// Release unlocks and removes the lock file. Releasing an unheld lock is a no-op.
func (l *Locker) Release() error {
	if l.lockFd == nil {
		return nil
	}

	var err error

	// Remove while still holding the flock so no new holder's file is deleted.
	if removeErr := os.Remove(l.lockFile); removeErr != nil && !os.IsNotExist(removeErr) {
		err = scribeErrors.NewLockError(l.lockFile, l.pid,
			scribeErrors.Wrap(removeErr, "failed to remove lock file"))
	}

	if flockErr := syscall.Flock(int(l.lockFd.Fd()), syscall.LOCK_UN); flockErr != nil && err == nil {
		err = scribeErrors.NewLockError(l.lockFile, l.pid,
			scribeErrors.Wrap(flockErr, "failed to release lock"))
	}

	if closeErr := l.lockFd.Close(); closeErr != nil && err == nil {
		err = scribeErrors.NewLockError(l.lockFile, l.pid,
			scribeErrors.Wrap(closeErr, "failed to close lock file"))
	}

	l.lockFd = nil
	return err
}
