package dubbing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// stagingPath is where the remix of target is written. It lives next to
// target so the final rename never crosses a filesystem.
func stagingPath(target string) string {
	dir, name := filepath.Split(target)
	ext := filepath.Ext(name)

	return filepath.Join(dir, "."+strings.TrimSuffix(name, ext)+".redub-"+uuid.NewString()+ext)
}

// swap atomically replaces target with staged. Readers see either the old
// asset or the new one, never a partial file.
func swap(staged, target string) error {
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat target: %w", err)
	}

	if err := retryTransient(func() error { return syncFile(staged) }); err != nil {
		return fmt.Errorf("sync staged output: %w", err)
	}

	if err := os.Chmod(staged, info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod staged output: %w", err)
	}

	if err := retryTransient(func() error { return os.Rename(staged, target) }); err != nil {
		return fmt.Errorf("rename %s to %s: %w", staged, target, err)
	}

	// best effort, the rename itself already happened
	_ = syncDir(filepath.Dir(target))

	return nil
}

func syncFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()

	return d.Sync()
}
