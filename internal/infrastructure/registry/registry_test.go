package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QASchemaScraper/internal/domain"
)

var fixedNow = func() time.Time { return time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC) }

func newStore(t *testing.T) (*FileStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "extension", "schema_registry.json")
	return NewFileStore(path, fixedNow, nil), path
}

func TestExtractExamIDAndPattern(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "42", ExtractExamID("https://x/academy/1/tracks/42/exam"))
	assert.Equal(t, "", ExtractExamID("https://x/academy/1/tracks/abc/exam"))
	assert.Equal(t, "", ExtractExamID(""))

	assert.Equal(t, "tracks/42/exam", URLPattern("https://x/academy/1/tracks/42/exam"))
	assert.Equal(t, "learn.example.com", URLPattern("https://learn.example.com/quiz/7"))
}

func TestUpsertSameExamIDUpdatesInPlace(t *testing.T) {
	t.Parallel()

	store, path := newStore(t)

	ok, err := store.Upsert("Inbound", "https://x/academy/1/tracks/42/exam", "schemas/inbound_v1.json")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Upsert("Inbound", "https://x/academy/9/tracks/42/exam?attempt=2", "schemas/inbound_v2.json")
	require.NoError(t, err)
	require.True(t, ok)

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "schemas/inbound_v2.json", entries[0].SchemaFile)
	assert.Equal(t, "42", entries[0].ExamID)
	assert.Equal(t, "tracks/42/exam", entries[0].ExamURLPattern)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc domain.Registry
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "1.0", doc.Version)
	assert.Equal(t, "2025-07-01", doc.Updated)
}

func TestUpsertAppendsDistinctExams(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)

	_, err := store.Upsert("Inbound", "https://x/academy/1/tracks/42/exam", "schemas/a.json")
	require.NoError(t, err)
	_, err = store.Upsert("SEO", "https://x/academy/1/tracks/43/exam", "schemas/b.json")
	require.NoError(t, err)
	_, err = store.Upsert("Quiz", "https://learn.example.com/quiz/1", "schemas/c.json")
	require.NoError(t, err)
	_, err = store.Upsert("Other quiz", "https://other.example.com/quiz/1", "schemas/d.json")
	require.NoError(t, err)

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 4, "entries without exam id must not collide on the empty id")
}

func TestUpsertWithoutExamURL(t *testing.T) {
	t.Parallel()

	store, path := newStore(t)

	ok, err := store.Upsert("Inbound", "", "schemas/a.json")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoFileExists(t, path)
}

func TestRemoveAndMatch(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	_, err := store.Upsert("Inbound", "https://x/academy/1/tracks/42/exam", "schemas/a.json")
	require.NoError(t, err)
	_, err = store.Upsert("Quiz", "https://learn.example.com/quiz/1", "schemas/c.json")
	require.NoError(t, err)

	entry, ok, err := store.Match("https://x/academy/77/tracks/42/exam/question/3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Inbound", entry.Name)

	entry, ok, err = store.Match("https://learn.example.com/quiz/99")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Quiz", entry.Name)

	_, ok, err = store.Match("https://elsewhere.example.net/")
	require.NoError(t, err)
	assert.False(t, ok)

	removed, err := store.Remove("42")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Remove("42")
	require.NoError(t, err)
	assert.False(t, removed)

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Quiz", entries[0].Name)
}

func TestListEmptyRegistry(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	entries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConcurrentUpsertsAreSerialized(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Upsert(fmt.Sprintf("Course %d", i), fmt.Sprintf("https://x/academy/1/tracks/%d/exam", i), "schemas/x.json")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := store.List()
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}

func TestLoadRejectsCorruptRegistry(t *testing.T) {
	t.Parallel()

	store, path := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := store.Upsert("Inbound", "https://x/academy/1/tracks/42/exam", "schemas/a.json")
	assert.Error(t, err)
}
