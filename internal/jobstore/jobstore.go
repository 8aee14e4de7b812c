package jobstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// StoreDirPerm is the permission for the job directory (0700 = rwx------)
	StoreDirPerm os.FileMode = 0700
	// StoreFilePerm is the permission for job files (0600 = rw-------)
	StoreFilePerm os.FileMode = 0600

	// MaxKeyLength bounds job keys so they stay valid file names everywhere.
	MaxKeyLength = 128
)

// ErrNotFound is returned by Load when no record exists for a key.
var ErrNotFound = errors.New("job record not found")

// Record is the persisted form of a pending job. It never carries clipboard
// contents, only the schedule.
type Record struct {
	Key     string `json:"key"`
	RunID   string `json:"run_id"`
	Due     int64  `json:"due"`
	Created int64  `json:"created"`
}

// DueTime returns Due as a time.Time.
func (r Record) DueTime() time.Time {
	return time.Unix(r.Due, 0)
}

// Store keeps one JSON file per job key.
type Store struct {
	dir string
}

// New opens a store rooted at dir, creating it if needed. An empty dir
// selects ~/.sensclip/jobs.
func New(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, ".sensclip", "jobs")
	}

	if err := os.MkdirAll(dir, StoreDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	return &Store{dir: filepath.Clean(dir)}, nil
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes rec, replacing any record with the same key.
func (s *Store) Save(rec Record) error {
	path, err := s.path(rec.Key)
	if err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal job record: %w", err)
	}

	// Write to a temp file and rename so a crash never leaves half a record.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, StoreFilePerm); err != nil {
		return fmt.Errorf("failed to write job record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to commit job record: %w", err)
	}

	return nil
}

// Load reads the record stored under key.
func (s *Store) Load(key string) (Record, error) {
	path, err := s.path(key)
	if err != nil {
		return Record{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("failed to read job record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to unmarshal job record: %w", err)
	}
	if rec.Key != key {
		return Record{}, fmt.Errorf("job record key mismatch: file %q holds %q", key, rec.Key)
	}

	return rec, nil
}

// Delete removes the record for key. Deleting a missing record is not an error.
func (s *Store) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete job record: %w", err)
	}
	return nil
}

// List returns all readable records sorted by due time.
func (s *Store) List() ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list job directory: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		rec, err := s.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Due < records[j].Due })
	return records, nil
}

func (s *Store) path(key string) (string, error) {
	if !IsValidKey(key) {
		return "", fmt.Errorf("invalid job key %q", key)
	}

	path := filepath.Join(s.dir, key+".json")
	// The key alphabet already excludes separators; keep the prefix check anyway
	// so a future alphabet change cannot escape the directory.
	if !strings.HasPrefix(filepath.Clean(path), s.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid job path")
	}
	return path, nil
}

// IsValidKey reports whether key is safe to use as a file name.
func IsValidKey(key string) bool {
	if key == "" || len(key) > MaxKeyLength || key == "." || key == ".." {
		return false
	}
	for _, r := range key {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '_' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}
