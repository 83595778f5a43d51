package dubbing

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/google/uuid"
)

const tmpPrefix = "redub_"

// scratch tracks every temporary path a run creates so they can all be
// removed on the way out, whatever the outcome.
type scratch struct {
	dir string

	mu    sync.Mutex
	paths map[string]struct{}
}

func newScratch(dir string) *scratch {
	return &scratch{
		dir:   dir,
		paths: make(map[string]struct{}),
	}
}

// Path reserves a fresh path in the scratch dir.
func (s *scratch) Path(ext string) string {
	return s.Track(filepath.Join(s.dir, tmpPrefix+uuid.NewString()+ext))
}

// Track registers path for cleanup and returns it.
func (s *scratch) Track(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paths[path] = struct{}{}
	return path
}

// Forget drops path from cleanup, after it was moved into place.
func (s *scratch) Forget(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.paths, path)
}

// Cleanup removes every tracked path. Each removal is attempted even if
// others fail.
func (s *scratch) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for path := range s.paths {
		err := retryTransient(func() error { return os.Remove(path) })
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
			continue
		}
		delete(s.paths, path)
	}

	return errors.Join(errs...)
}

func (s *scratch) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.paths)
}

func isTransient(err error) bool {
	return errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EBUSY)
}

// retryTransient runs fn a second time when the first attempt hit a
// transient errno.
func retryTransient(fn func() error) error {
	err := fn()
	if err != nil && isTransient(err) {
		metrics.TransientRetries.Inc()
		err = fn()
	}

	return err
}

func writeFile(path string, data []byte) error {
	return retryTransient(func() error {
		return os.WriteFile(path, data, 0o644)
	})
}
