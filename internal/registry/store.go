package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"nudeploy/internal/utils"
)

var (
	lockWaitTimeout = 30 * time.Second
	lockPollEvery   = 100 * time.Millisecond
)

// JSONFileStore keeps the registry as a JSON array in a single file.
// A missing file is an empty registry.
type JSONFileStore struct {
	path    string
	useLock bool
}

// NewJSONFileStore creates a store for path. When useLock is set, mutations
// hold an advisory lock on "<path>.lock".
func NewJSONFileStore(path string, useLock bool) *JSONFileStore {
	return &JSONFileStore{path: path, useLock: useLock}
}

func (s *JSONFileStore) Path() string {
	return s.path
}

func (s *JSONFileStore) Load() ([]PackageInfo, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []PackageInfo{}, nil
		}
		return nil, fmt.Errorf("read '%s': %w", s.path, err)
	}
	if len(data) == 0 {
		return []PackageInfo{}, nil
	}
	var packages []PackageInfo
	if err := json.Unmarshal(data, &packages); err != nil {
		return nil, fmt.Errorf("unmarshal '%s': %w", s.path, err)
	}
	return packages, nil
}

// Save rewrites the whole file through a temp file and rename.
func (s *JSONFileStore) Save(packages []PackageInfo) error {
	if packages == nil {
		packages = []PackageInfo{}
	}
	data, err := json.MarshalIndent(packages, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	return utils.WriteFileAtomic(s.path, data, 0o644)
}

// WithLock runs fn while holding the registry lock.
func (s *JSONFileStore) WithLock(fn func() error) error {
	if !s.useLock {
		return fn()
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}
	lock, err := acquireFileLock(s.path + ".lock")
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.release()
	}()
	return fn()
}
