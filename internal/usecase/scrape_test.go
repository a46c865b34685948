package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QASchemaScraper/internal/domain"
	"QASchemaScraper/internal/schema"
)

type fakeRegistry struct {
	upserts []domain.RegistryEntry
	err     error
}

func (f *fakeRegistry) Upsert(courseName, examURL, schemaFile string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.upserts = append(f.upserts, domain.RegistryEntry{CourseName: courseName, ExamURL: examURL, SchemaFile: schemaFile})
	return true, nil
}

func (f *fakeRegistry) Remove(string) (bool, error) { return false, nil }

func (f *fakeRegistry) List() ([]domain.RegistryEntry, error) { return f.upserts, nil }

func (f *fakeRegistry) Match(string) (domain.RegistryEntry, bool, error) {
	return domain.RegistryEntry{}, false, nil
}

type fakeHistory struct {
	runs []domain.ScrapeRun
	err  error
}

func (f *fakeHistory) RecordRun(_ context.Context, run domain.ScrapeRun) error {
	if f.err != nil {
		return f.err
	}
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeHistory) RecentRuns(context.Context, int) ([]domain.ScrapeRun, error) {
	return f.runs, nil
}

func newTestScraper(t *testing.T, pages map[string]string, reg *fakeRegistry, hist *fakeHistory) (*Scraper, string) {
	t.Helper()

	dir := t.TempDir()
	fetcher := &stubFetcher{pages: pages}
	deps := ScraperDeps{
		Aggregator:   NewAggregator(AggregatorDeps{Fetcher: fetcher, Pipeline: buildPipeline(t, fetcher, nil), Now: fixedNow}),
		Normalizer:   schema.NewNormalizer("1.0", 10, fixedNow, nil),
		Store:        schema.NewStore(filepath.Join(dir, "schemas"), "1.0", fixedNow, nil),
		ExtensionDir: filepath.Join(dir, "extension"),
	}
	if reg != nil {
		deps.Registry = reg
	}
	if hist != nil {
		deps.History = hist
	}
	return NewScraper(deps), dir
}

func TestScrapeSavesRegistersAndRecords(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistry{}
	hist := &fakeHistory{}
	scraper, dir := newTestScraper(t, courseSite(), reg, hist)

	result, err := scraper.Scrape(context.Background(), ScrapeRequest{
		ListingURL: listingURL,
		CourseName: "HubSpot: Inbound Marketing!",
		ExamURL:    "https://app.example.com/academy/1/tracks/42/exam",
	})
	require.NoError(t, err)

	want := filepath.Join(dir, "schemas", "hubspot_inbound_marketing_schema.json")
	assert.Equal(t, want, result.SchemaPath)
	assert.FileExists(t, want)
	assert.Len(t, result.Schema.Questions, 3)
	assert.True(t, result.Registered)

	assert.FileExists(t, filepath.Join(dir, "extension", "schemas", "hubspot_inbound_marketing_schema.json"))
	require.Len(t, reg.upserts, 1)
	assert.Equal(t, "schemas/hubspot_inbound_marketing_schema.json", reg.upserts[0].SchemaFile)
	assert.Equal(t, "HubSpot: Inbound Marketing!", reg.upserts[0].CourseName)

	require.Len(t, hist.runs, 1)
	assert.Equal(t, 3, hist.runs[0].QuestionCount)
	assert.Equal(t, 1, hist.runs[0].DegradedAnswers)
	assert.Equal(t, want, hist.runs[0].SchemaFile)
}

func TestScrapeToleratesRegistryAndHistoryFailures(t *testing.T) {
	t.Parallel()

	scraper, _ := newTestScraper(t, courseSite(), &fakeRegistry{err: errors.New("disk full")}, &fakeHistory{err: errors.New("locked")})

	result, err := scraper.Scrape(context.Background(), ScrapeRequest{
		ListingURL: listingURL,
		ExamURL:    "https://app.example.com/academy/1/tracks/42/exam",
	})
	require.NoError(t, err)
	assert.False(t, result.Registered)
	assert.FileExists(t, result.SchemaPath)
}

func TestScrapeWithoutQuestionsIsAnError(t *testing.T) {
	t.Parallel()

	scraper, dir := newTestScraper(t, map[string]string{listingURL: `<main><p>Welcome to the course.</p></main>`}, nil, nil)

	_, err := scraper.Scrape(context.Background(), ScrapeRequest{ListingURL: listingURL})
	require.ErrorIs(t, err, domain.ErrNoCandidates)

	_, statErr := os.Stat(filepath.Join(dir, "schemas"))
	assert.True(t, os.IsNotExist(statErr), "no schema should be written")
}

func TestScrapeRejectsInvalidURL(t *testing.T) {
	t.Parallel()

	scraper, _ := newTestScraper(t, nil, nil, nil)

	for _, raw := range []string{"", "academy.example.com/course", "ftp://academy.example.com/x", "https://"} {
		_, err := scraper.Scrape(context.Background(), ScrapeRequest{ListingURL: raw})
		assert.ErrorIs(t, err, domain.ErrInvalidURL, raw)
	}
}

func TestScrapeHonoursOutputDirAndFilename(t *testing.T) {
	t.Parallel()

	scraper, dir := newTestScraper(t, courseSite(), nil, nil)
	out := filepath.Join(dir, "custom")

	result, err := scraper.Scrape(context.Background(), ScrapeRequest{ListingURL: listingURL, OutputDir: out, Filename: "inbound.json"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "inbound.json"), result.SchemaPath)
	assert.False(t, result.Registered)
}
