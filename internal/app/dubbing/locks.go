package dubbing

import (
	"context"
	"sync"
)

// videoLocks serializes runs per video. Entries live only while someone
// holds or waits for them.
type videoLocks struct {
	mu    sync.Mutex
	locks map[string]*videoLock
}

type videoLock struct {
	ch   chan struct{}
	refs int
}

func newVideoLocks() *videoLocks {
	return &videoLocks{
		locks: make(map[string]*videoLock),
	}
}

// Lock blocks until videoID is free or ctx is done.
func (l *videoLocks) Lock(ctx context.Context, videoID string) (unlock func(), err error) {
	l.mu.Lock()
	lock, ok := l.locks[videoID]
	if !ok {
		lock = &videoLock{ch: make(chan struct{}, 1)}
		l.locks[videoID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(videoID, lock)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.ch
			l.release(videoID, lock)
		})
	}, nil
}

func (l *videoLocks) release(videoID string, lock *videoLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, videoID)
	}
}

func (l *videoLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
