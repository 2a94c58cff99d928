package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Load when no document exists for the key.
var ErrNotFound = errors.New("document not found")

// Store persists JSON documents in a flat directory, one file per key.
// Keys are stable identifiers (a frame's timestamp string for captions, a
// fixed name for the global context); saving the same key overwrites.
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Save serializes v and writes it under key. If v cannot be serialized,
// a diagnostic wrapper holding the stringified input is written instead,
// so every save leaves a file on disk.
func (s *Store) Save(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return s.SaveDiagnostic(key, fmt.Sprintf("%v", v))
	}
	return os.WriteFile(s.path(key), data, 0644)
}

// SaveDiagnostic persists raw content that failed to parse or serialize
// as the expected schema, wrapped so repair tooling can inspect it later.
func (s *Store) SaveDiagnostic(key, raw string) error {
	wrapper := map[string]string{
		"raw":   raw,
		"error": "json_parse_error",
	}
	data, err := json.MarshalIndent(wrapper, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to serialize diagnostic wrapper: %w", err)
	}
	return os.WriteFile(s.path(key), data, 0644)
}

// Load reads the document stored under key into out. Returns ErrNotFound
// when the key has never been saved.
func (s *Store) Load(key string, out any) error {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read document: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse document %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a document is stored under key.
func (s *Store) Exists(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}

// Keys lists all stored document keys.
func (s *Store) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		keys = append(keys, entry.Name()[:len(entry.Name())-len(".json")])
	}
	return keys, nil
}
