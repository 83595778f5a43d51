package dubbing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVideoLocks(t *testing.T) {
	assert := require.New(t)
	locks := newVideoLocks()

	unlock, err := locks.Lock(context.Background(), "a")
	assert.NoError(err)

	other, err := locks.Lock(context.Background(), "b")
	assert.NoError(err, "different videos don't block each other")
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locks.Lock(ctx, "a")
	assert.ErrorIs(err, context.DeadlineExceeded)

	acquired := make(chan struct{})
	go func() {
		unlock, err := locks.Lock(context.Background(), "a")
		if err == nil {
			unlock()
		}
		close(acquired)
	}()

	unlock()
	unlock() // second call is a no-op

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never got the lock")
	}

	assert.Zero(locks.len(), "released locks are forgotten")
}

func TestScratchCleanup(t *testing.T) {
	assert := require.New(t)
	dir := t.TempDir()
	sc := newScratch(dir)

	a := sc.Path(".wav")
	b := sc.Path(".mp4")
	assert.NotEqual(a, b)
	assert.Equal(dir, filepath.Dir(a))

	assert.NoError(os.WriteFile(a, []byte("a"), 0o644))

	kept := sc.Track(filepath.Join(dir, "kept"))
	assert.NoError(os.WriteFile(kept, []byte("k"), 0o644))
	sc.Forget(kept)

	// b was never created, that is fine
	assert.NoError(sc.Cleanup())
	assert.Zero(sc.Len())

	assert.NoFileExists(a)
	assert.FileExists(kept)
}

func TestRetryTransient(t *testing.T) {
	calls := 0
	err := retryTransient(func() error {
		calls++
		if calls == 1 {
			return &os.PathError{Op: "write", Path: "x", Err: syscall.EINTR}
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	calls = 0
	permanent := errors.New("disk full")
	err = retryTransient(func() error {
		calls++
		return permanent
	})
	require.ErrorIs(t, err, permanent)
	require.Equal(t, 1, calls)
}

func TestStagingPathIsNextToTarget(t *testing.T) {
	target := filepath.Join("/data", "videos", "intro.mp4")
	staged := stagingPath(target)

	require.Equal(t, filepath.Dir(target), filepath.Dir(staged))
	require.Equal(t, ".mp4", filepath.Ext(staged))
	require.NotEqual(t, target, staged)
}

func TestSwap(t *testing.T) {
	assert := require.New(t)
	dir := t.TempDir()

	target := filepath.Join(dir, "v.mp4")
	assert.NoError(os.WriteFile(target, []byte("old"), 0o600))

	staged := stagingPath(target)
	assert.NoError(os.WriteFile(staged, []byte("new"), 0o644))

	assert.NoError(swap(staged, target))

	data, err := os.ReadFile(target)
	assert.NoError(err)
	assert.Equal("new", string(data))
	assert.NoFileExists(staged)

	info, err := os.Stat(target)
	assert.NoError(err)
	assert.Equal(os.FileMode(0o600), info.Mode().Perm())
}
