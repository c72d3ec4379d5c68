package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]func(path string) ResultStore {
	t.Helper()
	return map[string]func(string) ResultStore{
		"json":  func(p string) ResultStore { return NewJSONStore(p + ".json") },
		"jsonl": func(p string) ResultStore { return NewLogStore(p + ".jsonl") },
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	assert.IsType(t, &JSONStore{}, Open("project_knowledge.json"))
	assert.IsType(t, &JSONStore{}, Open("results"))
	assert.IsType(t, &LogStore{}, Open("results.jsonl"))
	assert.IsType(t, &LogStore{}, Open("results.NDJSON"))
}

func TestStoreBehaviour(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "knowledge")

			t.Run("missing file loads empty", func(t *testing.T) {
				s := newStore(base + "-missing")
				results, err := s.Load()
				require.NoError(t, err)
				assert.Empty(t, results)
				assert.Zero(t, s.Len())
			})

			t.Run("every flush is durable", func(t *testing.T) {
				path := base + "-durable"
				s := newStore(path)
				_, err := s.Load()
				require.NoError(t, err)

				for i := 1; i <= 5; i++ {
					require.NoError(t, s.AppendAndFlush(Success(fmt.Sprintf("Title %d", i), "doc")))

					reopened := newStore(path)
					results, err := reopened.Load()
					require.NoError(t, err)
					assert.Len(t, results, i)
					require.NoError(t, reopened.Close())
				}
				require.NoError(t, s.Close())
			})

			t.Run("duplicate rejected", func(t *testing.T) {
				s := newStore(base + "-dup")
				_, err := s.Load()
				require.NoError(t, err)

				require.NoError(t, s.AppendAndFlush(Success("A", "first")))
				err = s.AppendAndFlush(Success("A", "second"))
				require.ErrorIs(t, err, ErrDuplicate)

				assert.Equal(t, []DocumentationResult{Success("A", "first")}, s.Results())
				require.NoError(t, s.Close())
			})

			t.Run("insertion order and failures", func(t *testing.T) {
				path := base + "-order"
				s := newStore(path)
				require.NoError(t, s.AppendAndFlush(Success("B", "b")))
				require.NoError(t, s.AppendAndFlush(Failure("A")))
				require.NoError(t, s.Close())

				reopened := newStore(path)
				results, err := reopened.Load()
				require.NoError(t, err)
				require.Len(t, results, 2)
				assert.Equal(t, "B", results[0].Title)
				assert.True(t, results[1].Failed())
				assert.Equal(t, FailedPlaceholder, results[1].Documentation)
				assert.True(t, reopened.Has("A"))
				assert.False(t, reopened.Has("C"))
			})

			t.Run("concurrent appends", func(t *testing.T) {
				path := base + "-concurrent"
				s := newStore(path)
				_, err := s.Load()
				require.NoError(t, err)

				var wg sync.WaitGroup
				for i := 0; i < 20; i++ {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						assert.NoError(t, s.AppendAndFlush(Success(fmt.Sprintf("T%02d", i), "doc")))
					}(i)
				}
				wg.Wait()
				require.NoError(t, s.Close())

				reopened := newStore(path)
				results, err := reopened.Load()
				require.NoError(t, err)
				assert.Len(t, results, 20)
			})

			t.Run("persist failure rolls back", func(t *testing.T) {
				dir := filepath.Join(t.TempDir(), "gone")
				require.NoError(t, os.Mkdir(dir, 0755))
				s := newStore(filepath.Join(dir, "store"))
				_, err := s.Load()
				require.NoError(t, err)
				require.NoError(t, os.RemoveAll(dir))

				err = s.AppendAndFlush(Success("A", "doc"))
				require.ErrorIs(t, err, ErrPersist)
				assert.False(t, s.Has("A"))
				assert.Zero(t, s.Len())
			})
		})
	}
}

func TestJSONStoreFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project_knowledge.json")
	s := NewJSONStore(path)
	require.NoError(t, s.AppendAndFlush(Success("Smart Irrigation System", "Project Overview")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[
  {
    "title": "Smart Irrigation System",
    "documentation": "Project Overview",
    "status": "success"
  }
]
`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestJSONStoreLegacyRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project_knowledge.json")
	legacy := `[{"title":"A","documentation":"text"},{"title":"B","documentation":"FAILED"},{"title":"A","documentation":"later"}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	results, err := NewJSONStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []DocumentationResult{
		Success("A", "text"),
		Failure("B"),
	}, results)
}

func TestJSONStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project_knowledge.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title":"A",`), 0644))

	s := NewJSONStore(path)
	_, err := s.Load()
	var corrupt *CorruptStoreError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, path, corrupt.Path)

	err = s.AppendAndFlush(Success("B", "doc"))
	require.ErrorAs(t, err, &corrupt)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, `[{"title":"A",`, string(data), "corrupt store must not be overwritten")
}

func TestLogStoreTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.jsonl")
	body := `{"title":"A","documentation":"a","status":"success"}` + "\n" +
		`{"title":"B","documentation":"FAILED","status":"failed"}` + "\n" +
		`{"title":"C","docum`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	s := NewLogStore(path)
	results, err := s.Load()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, s.Has("C"))

	require.NoError(t, s.AppendAndFlush(Success("C", "c")))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `{"title":"C","documentation":"c","status":"success"}`, lines[2])

	reopened := NewLogStore(path)
	results, err = reopened.Load()
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestLogStoreMissingFinalNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"title":"A","documentation":"a"}`), 0644))

	s := NewLogStore(path)
	_, err := s.Load()
	require.NoError(t, err)
	require.NoError(t, s.AppendAndFlush(Success("B", "b")))
	require.NoError(t, s.Close())

	results, err := NewLogStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []DocumentationResult{Success("A", "a"), Success("B", "b")}, results)
}

func TestLogStoreCorruptMiddleLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.jsonl")
	body := `{"title":"A","documentation":"a"}` + "\n" + "not json\n" + `{"title":"B","documentation":"b"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	_, err := NewLogStore(path).Load()
	var corrupt *CorruptStoreError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, 2, corrupt.Line)
}

func TestUnknownStatusIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"title":"A","documentation":"a","status":"maybe"}`+"\n"), 0644))

	_, err := NewLogStore(path).Load()
	var corrupt *CorruptStoreError
	require.ErrorAs(t, err, &corrupt)
}
