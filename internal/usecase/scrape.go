package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"QASchemaScraper/internal/domain"
	"QASchemaScraper/internal/ports"
	"QASchemaScraper/internal/schema"
)

// ScraperDeps wires the aggregator to the schema and bookkeeping adapters.
// Registry and History are optional.
type ScraperDeps struct {
	Aggregator *Aggregator
	Normalizer *schema.Normalizer
	Store      *schema.Store
	Registry   ports.RegistryStore
	History    ports.HistoryRepository
	// ExtensionDir receives a copy of schemas registered for an exam URL.
	ExtensionDir string
	Logger       *slog.Logger
}

// ScrapeRequest describes one course to scrape.
type ScrapeRequest struct {
	ListingURL string
	CourseName string
	// OutputDir overrides the store directory for this scrape.
	OutputDir string
	Filename  string
	ExamURL   string
}

// ScrapeResult is what a successful scrape produced.
type ScrapeResult struct {
	Course     domain.CourseRecord
	Schema     domain.Schema
	SchemaPath string
	Registered bool
}

// Scraper runs the full scrape of one course: aggregate, normalize, save, register, record.
type Scraper struct {
	aggregator   *Aggregator
	normalizer   *schema.Normalizer
	store        *schema.Store
	registry     ports.RegistryStore
	history      ports.HistoryRepository
	extensionDir string
	logger       *slog.Logger
}

// NewScraper constructs the scrape use case.
func NewScraper(deps ScraperDeps) *Scraper {
	return &Scraper{
		aggregator:   deps.Aggregator,
		normalizer:   deps.Normalizer,
		store:        deps.Store,
		registry:     deps.Registry,
		history:      deps.History,
		extensionDir: deps.ExtensionDir,
		logger:       deps.Logger,
	}
}

// Scrape fails when the listing cannot be fetched, holds no questions, or the
// schema cannot be written. Registry and history problems are only logged.
func (s *Scraper) Scrape(ctx context.Context, req ScrapeRequest) (ScrapeResult, error) {
	if err := ValidateURL(req.ListingURL); err != nil {
		return ScrapeResult{}, err
	}

	course, err := s.aggregator.AggregateCourse(ctx, req.ListingURL, req.CourseName)
	if err != nil {
		return ScrapeResult{}, fmt.Errorf("aggregate %s: %w", req.ListingURL, err)
	}
	if len(course.Questions) == 0 {
		return ScrapeResult{}, fmt.Errorf("%s: %w", req.ListingURL, domain.ErrNoCandidates)
	}

	built := s.normalizer.Build(course)

	store := s.store
	if req.OutputDir != "" {
		store = store.WithDir(req.OutputDir)
	}
	path, err := store.Save(built, req.Filename)
	if err != nil {
		return ScrapeResult{}, fmt.Errorf("save schema: %w", err)
	}

	result := ScrapeResult{Course: course, Schema: built, SchemaPath: path}
	if req.ExamURL != "" {
		result.Registered = s.register(course.CourseName, req.ExamURL, path)
	}
	s.record(ctx, course, built, path)

	s.info("course scraped", "course", course.CourseName, "questions", len(built.Questions), "path", path)
	return result, nil
}

// register copies the schema next to the extension and maps the exam URL to it.
func (s *Scraper) register(courseName, examURL, schemaPath string) bool {
	if s.registry == nil {
		return false
	}

	copied, err := s.store.CopyInto(schemaPath, filepath.Join(s.extensionDir, "schemas"))
	if err != nil {
		s.warn("could not copy schema to extension", "path", schemaPath, "error", err)
		return false
	}

	relative := filepath.ToSlash(filepath.Join("schemas", filepath.Base(copied)))
	ok, err := s.registry.Upsert(courseName, examURL, relative)
	if err != nil {
		s.warn("could not update registry", "exam_url", examURL, "error", err)
		return false
	}
	return ok
}

func (s *Scraper) record(ctx context.Context, course domain.CourseRecord, built domain.Schema, path string) {
	if s.history == nil {
		return
	}

	scrapedAt := course.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now()
	}
	err := s.history.RecordRun(ctx, domain.ScrapeRun{
		CourseName:      course.CourseName,
		ListingURL:      course.ListingURL,
		SchemaFile:      path,
		QuestionCount:   len(built.Questions),
		DegradedAnswers: course.DegradedCount(),
		ScrapedAt:       scrapedAt,
	})
	if err != nil {
		s.warn("could not record scrape history", "course", course.CourseName, "error", err)
	}
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%q: %w", raw, domain.ErrInvalidURL)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%q: %w", raw, domain.ErrInvalidURL)
	}
	return nil
}

func (s *Scraper) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Scraper) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
