// Package store persists documentation results so an interrupted run can
// resume without regenerating completed titles.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// FailedPlaceholder is the documentation recorded for a title whose
// generation exhausted its retries.
const FailedPlaceholder = "FAILED"

// Status of a documentation result.
type Status string

// Result statuses.
const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Store errors.
var (
	ErrDuplicate = errors.New("title already stored")
	ErrPersist   = errors.New("failed to persist store")
)

// DocumentationResult is the outcome for one title.
type DocumentationResult struct {
	Title         string `json:"title"`
	Documentation string `json:"documentation"`
	Status        Status `json:"status"`
}

// Success builds a successful result.
func Success(title, documentation string) DocumentationResult {
	return DocumentationResult{Title: title, Documentation: documentation, Status: StatusSuccess}
}

// Failure builds the failed sentinel result.
func Failure(title string) DocumentationResult {
	return DocumentationResult{Title: title, Documentation: FailedPlaceholder, Status: StatusFailed}
}

// Failed reports whether r is a failed sentinel.
func (r DocumentationResult) Failed() bool {
	return r.Status == StatusFailed
}

// UnmarshalJSON infers a missing status from the documentation, so files
// holding only title and documentation still load.
func (r *DocumentationResult) UnmarshalJSON(data []byte) error {
	type plain DocumentationResult
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err //nolint:wrapcheck // wrapped by the loader
	}
	if p.Title == "" {
		return errors.New("record has no title")
	}
	if p.Status == "" {
		p.Status = StatusSuccess
		if p.Documentation == FailedPlaceholder {
			p.Status = StatusFailed
		}
	}
	if p.Status != StatusSuccess && p.Status != StatusFailed {
		return fmt.Errorf("unknown status %q", p.Status)
	}
	*r = DocumentationResult(p)
	return nil
}

// CorruptStoreError reports a persisted store that could not be parsed.
type CorruptStoreError struct {
	Path string
	Line int // 0 when the whole file is one document
	Err  error
}

func (e *CorruptStoreError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("store %s is corrupt at line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("store %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptStoreError) Unwrap() error {
	return e.Err
}

// ResultStore is a key-unique, insertion-ordered set of results backed by a
// file. Every AppendAndFlush is durable before it returns.
type ResultStore interface {
	// Load reads the persisted file, replacing the in-memory set. A missing
	// file yields an empty set.
	Load() ([]DocumentationResult, error)
	// AppendAndFlush adds result and persists it. Safe for concurrent use.
	AppendAndFlush(result DocumentationResult) error
	Has(title string) bool
	Results() []DocumentationResult
	Len() int
	Path() string
	Close() error
}

// Open returns the backend for path: a JSON lines log for .jsonl/.ndjson,
// otherwise a JSON snapshot.
func Open(path string) ResultStore {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return NewLogStore(path)
	default:
		return NewJSONStore(path)
	}
}
