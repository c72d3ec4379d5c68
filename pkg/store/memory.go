package store

import "sync"

// set is the in-memory state shared by both backends.
type set struct {
	mu      sync.RWMutex
	path    string
	loaded  bool
	results []DocumentationResult
	index   map[string]int
}

func (s *set) init(path string) {
	s.path = path
	s.index = make(map[string]int)
}

// reset replaces the contents; first occurrence of a title wins.
// Caller holds mu.
func (s *set) reset(results []DocumentationResult) {
	s.results = make([]DocumentationResult, 0, len(results))
	s.index = make(map[string]int, len(results))
	for _, r := range results {
		if _, dup := s.index[r.Title]; dup {
			continue
		}
		s.index[r.Title] = len(s.results)
		s.results = append(s.results, r)
	}
	s.loaded = true
}

// add appends r. Caller holds mu and has checked for duplicates.
func (s *set) add(r DocumentationResult) {
	s.index[r.Title] = len(s.results)
	s.results = append(s.results, r)
}

// rollback removes the last added result. Caller holds mu.
func (s *set) rollback() {
	last := s.results[len(s.results)-1]
	delete(s.index, last.Title)
	s.results = s.results[:len(s.results)-1]
}

func (s *set) snapshot() []DocumentationResult {
	out := make([]DocumentationResult, len(s.results))
	copy(out, s.results)
	return out
}

func (s *set) Has(title string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[title]
	return ok
}

func (s *set) Results() []DocumentationResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

func (s *set) Path() string {
	return s.path
}
