// Package storage persists events, work sessions and view state in a single
// JSON file laid out like the browser's localStorage: one object whose keys
// hold JSON values.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Keys used in the data file. They match the browser application so a
// localStorage dump can be imported as-is.
const (
	KeyEvents           = "scheduler-events"
	KeySessions         = "work-sessions"
	KeyCurrentDate      = "scheduler-current-date"
	KeyView             = "scheduler-view"
	KeyActiveCategories = "scheduler-active-categories"
)

// KV is a file-backed JSON key/value store. Every Set rewrites the whole
// file atomically.
type KV struct {
	path string

	mu   sync.Mutex
	data map[string]json.RawMessage
}

// Open loads path. A missing file is an empty store; the file is created on
// the first Set.
func Open(path string) (*KV, error) {
	kv := &KV{path: path, data: make(map[string]json.RawMessage)}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return kv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	if len(b) == 0 {
		return kv, nil
	}
	if err := json.Unmarshal(b, &kv.data); err != nil {
		return nil, fmt.Errorf("failed to parse data file %s: %w", path, err)
	}
	return kv, nil
}

// Path returns the backing file.
func (kv *KV) Path() string { return kv.path }

// Raw returns the stored JSON for key.
func (kv *KV) Raw(key string) (json.RawMessage, bool) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	v, ok := kv.data[key]
	return v, ok
}

// Get decodes key into v and reports whether it was present.
func (kv *KV) Get(key string, v any) (bool, error) {
	raw, ok := kv.Raw(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores v under key and saves the file.
func (kv *KV) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	prev, had := kv.data[key]
	kv.data[key] = raw
	if err := kv.save(); err != nil {
		if had {
			kv.data[key] = prev
		} else {
			delete(kv.data, key)
		}
		return err
	}
	return nil
}

// save writes to a temp file in the same directory and renames it over the
// target so a crash never leaves a truncated file.
func (kv *KV) save() error {
	dir := filepath.Dir(kv.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	b, err := json.MarshalIndent(kv.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data file: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".plan-data-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close data file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("failed to chmod data file: %w", err)
	}
	if err := os.Rename(tmpName, kv.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}
