package lock

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scribeErrors "github.com/bashhack/scribe/internal/errors"
)

func TestAcquireAndRelease(t *testing.T) {
	locker, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, locker.Acquire())
	assert.True(t, locker.Held())

	data, err := os.ReadFile(locker.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(data)))

	require.NoError(t, locker.Release())
	assert.False(t, locker.Held())

	_, err = os.Stat(locker.Path())
	assert.True(t, os.IsNotExist(err), "lock file should be removed on release")

	require.NoError(t, locker.Release(), "second release is a no-op")
}

func TestSecondLockerIsRejected(t *testing.T) {
	root := t.TempDir()

	first, err := New(root)
	require.NoError(t, err)
	require.NoError(t, first.Acquire())
	defer func() { _ = first.Release() }()

	second, err := New(root)
	require.NoError(t, err)

	err = second.Acquire()
	require.Error(t, err)
	assert.ErrorIs(t, err, scribeErrors.ErrAlreadyRunning)

	var lockErr *scribeErrors.LockError
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, os.Getpid(), lockErr.PID)

	require.NoError(t, first.Release())
	require.NoError(t, second.Acquire(), "lock should be available after release")
	require.NoError(t, second.Release())
}

func TestDifferentRootsDoNotContend(t *testing.T) {
	a, err := New(t.TempDir())
	require.NoError(t, err)
	b, err := New(t.TempDir())
	require.NoError(t, err)

	assert.NotEqual(t, a.Path(), b.Path())
	require.NoError(t, a.Acquire())
	require.NoError(t, b.Acquire())
	require.NoError(t, a.Release())
	require.NoError(t, b.Release())
}

func TestLeftoverLockFileIsReused(t *testing.T) {
	tests := map[string]string{
		"dead pid":       "999999",
		"garbage":        "not-a-pid",
		"empty lock":     "",
		"our own pid":    strconv.Itoa(os.Getpid()),
		"trailing space": "12345\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			locker, err := New(t.TempDir())
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(locker.Path(), []byte(content), 0o600))

			require.NoError(t, locker.Acquire(), "an unlocked leftover file must not block")
			defer func() { _ = locker.Release() }()

			data, err := os.ReadFile(locker.Path())
			require.NoError(t, err)
			assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))
		})
	}
}

func TestConcurrentLockersAreExclusive(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping concurrency test in short mode")
	}

	root := t.TempDir()
	const workers = 5

	var (
		mu      sync.Mutex
		holders int
		maxSeen int
		wins    int
		wg      sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			locker, err := New(root)
			if err != nil {
				t.Errorf("New: %v", err)
				return
			}
			if err := locker.Acquire(); err != nil {
				return
			}

			mu.Lock()
			holders++
			wins++
			if holders > maxSeen {
				maxSeen = holders
			}
			mu.Unlock()

			time.Sleep(20 * time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()

			if err := locker.Release(); err != nil {
				t.Errorf("Release: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, wins, 1)
	assert.Equal(t, 1, maxSeen, "at most one locker may hold the lock at a time")
}
