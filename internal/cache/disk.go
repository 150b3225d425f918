package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskStore implements persistent disk-based storage of serialized results
type DiskStore struct {
	dir string
	ttl time.Duration
}

// NewDiskStore creates a new disk store rooted at dir
func NewDiskStore(dir string, ttl time.Duration) *DiskStore {
	return &DiskStore{
		dir: dir,
		ttl: ttl,
	}
}

type diskEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get retrieves a value from the disk store
func (s *DiskStore) Get(key string) ([]byte, bool) {
	path := s.path(key)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false
	}

	return entry.Data, true
}

// Set stores a value on disk. A zero ttl falls back to the store default;
// a zero default means no expiry.
func (s *DiskStore) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = s.ttl
	}

	// A non-zero ttl always stamps an expiry; negative values produce an
	// already-expired entry that Get drops on first read
	entry := diskEntry{Data: value}
	if ttl != 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	if err := os.WriteFile(s.path(key), data, 0644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}

	return nil
}

// Delete removes a value from the disk store
func (s *DiskStore) Delete(key string) error {
	return os.Remove(s.path(key))
}

// Clear removes all stored files
func (s *DiskStore) Clear() error {
	return os.RemoveAll(s.dir)
}

// path generates the file path for a key
func (s *DiskStore) path(key string) string {
	safe := strings.ReplaceAll(key, ":", "_")
	return filepath.Join(s.dir, safe+".cache")
}
