package usecase

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"QASchemaScraper/internal/ports"
	"QASchemaScraper/internal/schema"
)

// CourseScraper scrapes one course end to end.
type CourseScraper interface {
	Scrape(ctx context.Context, req ScrapeRequest) (ScrapeResult, error)
}

// BatchDeps wires the batch driver.
type BatchDeps struct {
	Scraper  CourseScraper
	Store    *schema.Store
	Notifier ports.Notifier
	Logger   *slog.Logger
}

// BatchOptions tunes one batch run.
type BatchOptions struct {
	OutputDir   string
	Merge       bool
	Concurrency int
}

// BatchFailure is one course that could not be scraped.
type BatchFailure struct {
	URL   string
	Error string
}

// BatchReport always carries attempted vs. succeeded counts.
type BatchReport struct {
	Attempted   int
	Succeeded   int
	SchemaFiles []string
	Failures    []BatchFailure
	MergedPath  string
}

// Batch scrapes many courses, continuing past per-course failures.
type Batch struct {
	scraper  CourseScraper
	store    *schema.Store
	notifier ports.Notifier
	logger   *slog.Logger
}

// NewBatch constructs the batch driver. Store and Notifier are optional.
func NewBatch(deps BatchDeps) *Batch {
	return &Batch{
		scraper:  deps.Scraper,
		store:    deps.Store,
		notifier: deps.Notifier,
		logger:   deps.Logger,
	}
}

// ReadURLFile returns one URL per non-blank line, skipping "#" comments.
func ReadURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url file: %w", err)
	}
	defer f.Close()

	return ParseURLList(f)
}

// ParseURLList reads the URL file format from r.
func ParseURLList(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}
	return urls, nil
}

// Run scrapes every URL with at most opts.Concurrency courses in flight.
// Schema files and failures are reported in input order.
func (b *Batch) Run(ctx context.Context, urls []string, opts BatchOptions) BatchReport {
	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}

	paths := make([]string, len(urls))
	errs := make([]error, len(urls))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, listingURL := range urls {
		g.Go(func() error {
			b.info("scraping course", "n", i+1, "of", len(urls), "url", listingURL)
			result, err := b.scraper.Scrape(ctx, ScrapeRequest{
				ListingURL: listingURL,
				OutputDir:  opts.OutputDir,
				Filename:   schema.FilenameForURL(listingURL),
			})
			if err != nil {
				b.error("course failed", "url", listingURL, "error", err)
				errs[i] = err
				return nil
			}
			paths[i] = result.SchemaPath
			return nil
		})
	}
	_ = g.Wait()

	report := BatchReport{Attempted: len(urls)}
	written := map[string]struct{}{}
	for i, listingURL := range urls {
		if errs[i] != nil {
			report.Failures = append(report.Failures, BatchFailure{URL: listingURL, Error: errs[i].Error()})
			continue
		}
		report.Succeeded++
		if _, dup := written[paths[i]]; dup {
			continue
		}
		written[paths[i]] = struct{}{}
		report.SchemaFiles = append(report.SchemaFiles, paths[i])
	}

	if opts.Merge && len(report.SchemaFiles) > 0 && b.store != nil {
		store := b.store
		if opts.OutputDir != "" {
			store = store.WithDir(opts.OutputDir)
		}
		merged, err := store.Merge(report.SchemaFiles, "")
		if err != nil {
			b.error("merge failed", "error", err)
		} else {
			report.MergedPath = merged
		}
	}

	b.info("batch complete", "attempted", report.Attempted, "succeeded", report.Succeeded)

	if b.notifier != nil {
		if err := b.notifier.PublishDigest(ctx, BuildReportMessage(report)); err != nil {
			b.warn("could not publish batch report", "error", err)
		}
	}
	return report
}

// BuildReportMessage renders a report as plain text.
func BuildReportMessage(report BatchReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Batch scrape: %d/%d courses succeeded\n", report.Succeeded, report.Attempted)
	for _, path := range report.SchemaFiles {
		fmt.Fprintf(&sb, "- %s\n", path)
	}
	if len(report.Failures) > 0 {
		sb.WriteString("Failures:\n")
		for _, f := range report.Failures {
			fmt.Fprintf(&sb, "- %s: %s\n", f.URL, f.Error)
		}
	}
	if report.MergedPath != "" {
		fmt.Fprintf(&sb, "Merged: %s\n", report.MergedPath)
	}
	return sb.String()
}

func (b *Batch) info(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}

func (b *Batch) warn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}

func (b *Batch) error(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Error(msg, args...)
	}
}
