package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const lastFile = "last.json"

// LastStore persists the most recent successful analysis result. It holds
// at most one value; every Save replaces the previous one.
type LastStore struct {
	path string
}

// NewLastStore returns a store rooted at dir. An empty dir selects DefaultDir.
func NewLastStore(dir string) (*LastStore, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return &LastStore{path: filepath.Join(dir, lastFile)}, nil
}

// Path returns the file backing the store.
func (s *LastStore) Path() string { return s.path }

// Save encodes v as JSON and replaces the stored value.
func (s *LastStore) Save(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling last result: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	return lockAndWrite(s.path, data)
}

// Load decodes the stored value into v. It reports false when nothing has
// been saved yet.
func (s *LastStore) Load(v any) (bool, error) {
	if _, err := os.Stat(filepath.Dir(s.path)); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	var data []byte
	err := withReadLock(s.path, func() error {
		var err error
		data, err = os.ReadFile(s.path)
		return err
	})
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading last result: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding last result %s: %w", s.path, err)
	}
	return true, nil
}

// Clear removes the stored value.
func (s *LastStore) Clear() error {
	err := withLock(s.path, func() error {
		return os.Remove(s.path)
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
