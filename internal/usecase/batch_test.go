package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QASchemaScraper/internal/domain"
	"QASchemaScraper/internal/schema"
)

type scriptedScraper struct {
	store *schema.Store

	mu       sync.Mutex
	inFlight int
	peak     int
}

func (s *scriptedScraper) Scrape(_ context.Context, req ScrapeRequest) (ScrapeResult, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if strings.Contains(req.ListingURL, "broken") {
		return ScrapeResult{}, fmt.Errorf("fetch listing: %w", &domain.FetchError{URL: req.ListingURL, StatusCode: 500})
	}

	name := req.ListingURL[strings.LastIndex(req.ListingURL, "/")+1:]
	built := domain.Schema{
		SchemaVersion: "1.0",
		CourseInfo:    domain.CourseInfo{Name: name},
		Questions:     []domain.QuestionSchema{{ID: 1, Question: "What is " + name + "?", Answer: domain.SingleAnswer(name)}},
	}
	store := s.store
	if req.OutputDir != "" {
		store = store.WithDir(req.OutputDir)
	}
	path, err := store.Save(built, req.Filename)
	if err != nil {
		return ScrapeResult{}, err
	}
	return ScrapeResult{Schema: built, SchemaPath: path}, nil
}

type recordingNotifier struct {
	messages []string
	err      error
}

func (r *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	r.messages = append(r.messages, digest)
	return r.err
}

func TestParseURLList(t *testing.T) {
	t.Parallel()

	urls, err := ParseURLList(strings.NewReader("# courses\nhttps://a.example.com/one\n\n   \n  https://a.example.com/two  \n#https://skipped\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com/one", "https://a.example.com/two"}, urls)
}

func TestReadURLFileMissing(t *testing.T) {
	t.Parallel()

	_, err := ReadURLFile(filepath.Join(t.TempDir(), "none.txt"))
	assert.Error(t, err)
}

func TestBatchContinuesPastFailuresAndReports(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := schema.NewStore(dir, "1.0", fixedNow, nil)
	scraper := &scriptedScraper{store: store}
	notifier := &recordingNotifier{err: errors.New("telegram down")}

	batch := NewBatch(BatchDeps{Scraper: scraper, Store: store, Notifier: notifier})
	urls := []string{
		"https://a.example.com/alpha",
		"https://a.example.com/broken",
		"https://a.example.com/gamma",
		"https://a.example.com/delta",
	}

	report := batch.Run(context.Background(), urls, BatchOptions{Merge: true, Concurrency: 2})

	assert.Equal(t, 4, report.Attempted)
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, []string{
		filepath.Join(dir, "a_example_com_alpha_schema.json"),
		filepath.Join(dir, "a_example_com_gamma_schema.json"),
		filepath.Join(dir, "a_example_com_delta_schema.json"),
	}, report.SchemaFiles)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "https://a.example.com/broken", report.Failures[0].URL)
	assert.Contains(t, report.Failures[0].Error, "status 500")

	assert.Equal(t, filepath.Join(dir, schema.DefaultMergedFilename), report.MergedPath)
	assert.FileExists(t, report.MergedPath)

	assert.LessOrEqual(t, scraper.peak, 2)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "3/4 courses succeeded")
	assert.Contains(t, notifier.messages[0], "https://a.example.com/broken")
}

func TestBatchWithoutMergeOrNotifier(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	store := schema.NewStore(dir, "1.0", fixedNow, nil)

	report := NewBatch(BatchDeps{Scraper: &scriptedScraper{store: store}}).
		Run(context.Background(), []string{"https://a.example.com/solo"}, BatchOptions{OutputDir: out})

	assert.Equal(t, 1, report.Succeeded)
	assert.Empty(t, report.MergedPath)
	assert.Equal(t, []string{filepath.Join(out, "a_example_com_solo_schema.json")}, report.SchemaFiles)

	_, err := os.Stat(filepath.Join(out, schema.DefaultMergedFilename))
	assert.True(t, os.IsNotExist(err))
}

func TestBatchGivesSameHostCoursesTheirOwnFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := schema.NewStore(dir, "1.0", fixedNow, nil)
	urls := []string{
		"https://a.example.com/courses/alpha",
		"https://a.example.com/courses/gamma",
		"https://a.example.com/courses/alpha",
	}

	report := NewBatch(BatchDeps{Scraper: &scriptedScraper{store: store}, Store: store}).
		Run(context.Background(), urls, BatchOptions{Merge: true, Concurrency: 3})

	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, []string{
		filepath.Join(dir, "a_example_com_courses_alpha_schema.json"),
		filepath.Join(dir, "a_example_com_courses_gamma_schema.json"),
	}, report.SchemaFiles)

	raw, err := os.ReadFile(report.MergedPath)
	require.NoError(t, err)
	var merged domain.MergedSchema
	require.NoError(t, json.Unmarshal(raw, &merged))
	assert.Len(t, merged.Courses, 2)
	assert.Equal(t, 2, merged.TotalQuestions)
}

func TestBuildReportMessage(t *testing.T) {
	t.Parallel()

	msg := BuildReportMessage(BatchReport{
		Attempted:   2,
		Succeeded:   1,
		SchemaFiles: []string{"schemas/a_schema.json"},
		Failures:    []BatchFailure{{URL: "https://x/b", Error: "boom"}},
		MergedPath:  "schemas/merged_schema.json",
	})

	assert.Equal(t, "Batch scrape: 1/2 courses succeeded\n- schemas/a_schema.json\nFailures:\n- https://x/b: boom\nMerged: schemas/merged_schema.json\n", msg)
}
