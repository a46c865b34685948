package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"QASchemaScraper/internal/domain"
	"QASchemaScraper/internal/extract"
	"QASchemaScraper/internal/ports"
)

// AggregatorDeps wires the driven adapters into the course aggregator.
type AggregatorDeps struct {
	Fetcher  ports.PageFetcher
	Pipeline extract.Pipeline
	Logger   *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Aggregator scrapes one course: the listing page, then every located question in order.
type Aggregator struct {
	fetcher  ports.PageFetcher
	pipeline extract.Pipeline
	now      func() time.Time
	logger   *slog.Logger
}

// NewAggregator constructs the orchestration component.
func NewAggregator(deps AggregatorDeps) *Aggregator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		fetcher:  deps.Fetcher,
		pipeline: deps.Pipeline,
		now:      now,
		logger:   deps.Logger,
	}
}

// AggregateCourse fetches the listing once and resolves each question sequentially.
// Only a failed listing fetch is fatal; per-question failures degrade that entry.
// An empty course name defaults to the listing host.
func (a *Aggregator) AggregateCourse(ctx context.Context, listingURL, courseName string) (domain.CourseRecord, error) {
	if courseName == "" {
		courseName = hostOf(listingURL)
	}

	doc, err := a.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		return domain.CourseRecord{}, fmt.Errorf("fetch listing: %w", err)
	}

	listing, err := extract.NewPage(doc, listingURL)
	if err != nil {
		return domain.CourseRecord{}, fmt.Errorf("parse listing: %w", err)
	}

	candidates := a.pipeline.Locator.Locate(listing)
	a.info("questions located", "course", courseName, "count", len(candidates))

	record := domain.CourseRecord{
		CourseName: courseName,
		ListingURL: listingURL,
		ScrapedAt:  a.now(),
		Questions:  make([]domain.QAEntry, 0, len(candidates)),
	}

	for i, candidate := range candidates {
		a.info("processing question", "n", i+1, "of", len(candidates), "question", shorten(candidate.Text, 50))

		answer := a.resolve(ctx, listing, candidate)
		record.Questions = append(record.Questions, domain.QAEntry{
			ID:                    i + 1,
			Question:              candidate.Text,
			AnswerSourceURL:       candidate.AnswerURL(),
			Answer:                answer,
			ScrapedFromListingURL: listingURL,
		})
	}

	if degraded := record.DegradedCount(); degraded > 0 {
		a.warn("course has degraded answers", "course", courseName, "degraded", degraded, "total", len(record.Questions))
	}
	return record, nil
}

// resolve contains any failure of one question at the question boundary.
func (a *Aggregator) resolve(ctx context.Context, listing extract.Page, candidate domain.QuestionCandidate) (answer domain.AnswerExtraction) {
	defer func() {
		if r := recover(); r != nil {
			a.error("answer extraction crashed", "question", shorten(candidate.Text, 50), "panic", r)
			answer = domain.ExtractionFailed(candidate.AnswerURL())
		}
	}()
	return a.pipeline.Resolver.Resolve(ctx, listing, candidate)
}

func hostOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return raw
	}
	return parsed.Host
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func (a *Aggregator) info(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Info(msg, args...)
	}
}

func (a *Aggregator) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}

func (a *Aggregator) error(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Error(msg, args...)
	}
}
