package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileKV persists flags as one JSON object in a file under the data
// directory. Writes go through a temp file and rename so a crash never leaves
// a half-written state file.
type FileKV struct {
	path string
	mu   sync.RWMutex

	values map[string]string
}

// NewFileKV opens (or creates) the flag file at dataDir/access_state.json.
func NewFileKV(dataDir string) (*FileKV, error) {
	dataDir = filepath.Clean(dataDir)
	if dataDir == "" || dataDir == "." {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	kv := &FileKV{
		path:   filepath.Join(dataDir, "access_state.json"),
		values: make(map[string]string),
	}
	if err := kv.load(); err != nil {
		return nil, err
	}
	return kv, nil
}

var _ KV = (*FileKV)(nil)

// Path returns the backing file path, for the change watcher.
func (f *FileKV) Path() string {
	return f.path
}

func (f *FileKV) load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read flag file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("decode flag file: %w", err)
	}

	f.mu.Lock()
	f.values = values
	f.mu.Unlock()
	return nil
}

// Reload re-reads the backing file, replacing the in-memory view. Used by the
// change watcher when another process rewrites the file.
func (f *FileKV) Reload() error {
	return f.load()
}

func (f *FileKV) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	value, ok := f.values[key]
	return value, ok
}

func (f *FileKV) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return f.persistLocked()
}

func (f *FileKV) Delete(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.values, key)
	}
	return f.persistLocked()
}

func (f *FileKV) persistLocked() error {
	data, err := json.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("encode flag file: %w", err)
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp flag file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("commit flag file: %w", err)
	}
	return nil
}
