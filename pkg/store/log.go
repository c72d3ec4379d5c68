package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// LogStore appends one JSON record per line and fsyncs after each append,
// so a flush costs O(1) regardless of store size. A final line cut short by
// a crash is ignored on load and truncated before the next append.
type LogStore struct {
	set

	file      *os.File
	validSize int64 // bytes covered by complete records
	torn      bool
	newline   bool // the last complete record lacks a trailing newline
}

// NewLogStore creates an append-log store at path. Nothing is read until Load.
func NewLogStore(path string) *LogStore {
	s := &LogStore{}
	s.init(path)
	return s
}

// Load implements ResultStore.
func (s *LogStore) Load() ([]DocumentationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

func (s *LogStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.validSize, s.torn, s.newline = 0, false, false
		s.reset(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read store %s: %w", s.path, err)
	}

	results, valid, torn, err := parseLog(s.path, data)
	if err != nil {
		return err
	}
	s.validSize = valid
	s.torn = torn
	s.newline = valid > 0 && data[valid-1] != '\n'
	s.reset(results)
	return nil
}

// parseLog returns the records in data and the byte length they cover. Only
// the final line may be unparsable, and only when it has no newline.
func parseLog(path string, data []byte) (results []DocumentationResult, valid int64, torn bool, err error) {
	reader := bufio.NewReader(bytes.NewReader(data))
	var offset int64
	for lineNo := 1; ; lineNo++ {
		line, readErr := reader.ReadBytes('\n')
		if len(line) == 0 && readErr == io.EOF {
			break
		}
		complete := readErr == nil
		offset += int64(len(line))

		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			valid = offset
		} else {
			var r DocumentationResult
			if uerr := json.Unmarshal(trimmed, &r); uerr != nil {
				if !complete {
					return results, valid, true, nil
				}
				return nil, 0, false, &CorruptStoreError{Path: path, Line: lineNo, Err: uerr}
			}
			results = append(results, r)
			valid = offset
		}
		if !complete {
			break
		}
	}
	return results, valid, false, nil
}

// AppendAndFlush implements ResultStore. On a write failure the file is cut
// back to its previous length, the result is dropped from memory and the
// error wraps ErrPersist.
func (s *LogStore) AppendAndFlush(result DocumentationResult) error {
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

	line, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("%w %s: marshal: %w", ErrPersist, s.path, err)
	}
	if s.newline {
		line = append([]byte{'\n'}, line...)
	}
	line = append(line, '\n')

	s.add(result)
	if err := s.write(line); err != nil {
		s.rollback()
		return fmt.Errorf("%w %s: %w", ErrPersist, s.path, err)
	}
	s.newline = false
	return nil
}

func (s *LogStore) write(line []byte) error {
	if err := s.openFile(); err != nil {
		return err
	}
	if s.torn {
		if err := s.file.Truncate(s.validSize); err != nil {
			return fmt.Errorf("truncate torn record: %w", err)
		}
		s.torn = false
	}
	if _, err := s.file.WriteAt(line, s.validSize); err != nil {
		_ = s.file.Truncate(s.validSize)
		return fmt.Errorf("write: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		_ = s.file.Truncate(s.validSize)
		return fmt.Errorf("sync: %w", err)
	}
	s.validSize += int64(len(line))
	return nil
}

func (s *LogStore) openFile() error {
	if s.file != nil {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	s.file = f
	return nil
}

// Close releases the append handle.
func (s *LogStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return fmt.Errorf("failed to close store %s: %w", s.path, err)
	}
	return nil
}
