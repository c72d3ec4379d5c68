package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// JSONStore keeps the whole set as one indented JSON array and rewrites it
// atomically (temp file, fsync, rename) on every append.
type JSONStore struct {
	set
}

// NewJSONStore creates a snapshot store at path. Nothing is read until Load.
func NewJSONStore(path string) *JSONStore {
	s := &JSONStore{}
	s.init(path)
	return s
}

// Load implements ResultStore.
func (s *JSONStore) Load() ([]DocumentationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.reset(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read store %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		s.reset(nil)
		return nil
	}

	var results []DocumentationResult
	if err := json.Unmarshal(data, &results); err != nil {
		return &CorruptStoreError{Path: s.path, Err: err}
	}
	s.reset(results)
	return nil
}

// AppendAndFlush implements ResultStore. On a write failure the result is
// dropped from memory and the error wraps ErrPersist.
func (s *JSONStore) AppendAndFlush(result DocumentationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		if err := s.load(); err != nil {
			return err
		}
	}
	if _, dup := s.index[result.Title]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicate, result.Title)
	}

	s.add(result)
	if err := s.flush(); err != nil {
		s.rollback()
		return fmt.Errorf("%w %s: %w", ErrPersist, s.path, err)
	}
	return nil
}

func (s *JSONStore) flush() error {
	data, err := json.MarshalIndent(s.results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return writeFileAtomic(s.path, append(data, '\n'))
}

// Close implements ResultStore.
func (s *JSONStore) Close() error {
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	syncDir(dir)
	return nil
}

// syncDir makes a rename durable where the platform allows it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
