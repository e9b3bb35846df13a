package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockSuffix names the sidecar lock file of a guarded path.
const lockSuffix = ".lock"

// withLock runs fn while holding an exclusive lock on path+".lock".
func withLock(path string, fn func() error) error {
	lock := flock.New(path + lockSuffix)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquiring lock on %s: %w", path, err)
	}
	defer lock.Unlock()
	return fn()
}

// withReadLock runs fn while holding a shared lock on path+".lock".
func withReadLock(path string, fn func() error) error {
	lock := flock.New(path + lockSuffix)
	if err := lock.RLock(); err != nil {
		return fmt.Errorf("acquiring read lock on %s: %w", path, err)
	}
	defer lock.Unlock()
	return fn()
}

// atomicWrite writes data to a temp file in the target directory and renames
// it into place so readers never see a partial write.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}
	committed = true
	return nil
}

// lockAndWrite combines withLock and atomicWrite.
func lockAndWrite(path string, data []byte) error {
	return withLock(path, func() error {
		return atomicWrite(path, data)
	})
}
