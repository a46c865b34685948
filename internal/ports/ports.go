package ports

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"QASchemaScraper/internal/domain"
)

// PageFetcher retrieves and parses one page. Failures are returned, never retried.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// RegistryStore maintains the exam URL to schema file mapping used by the extension.
type RegistryStore interface {
	Upsert(courseName, examURL, schemaFile string) (bool, error)
	Remove(examID string) (bool, error)
	List() ([]domain.RegistryEntry, error)
	Match(pageURL string) (domain.RegistryEntry, bool, error)
}

// HistoryRepository persists a log of completed course scrapes.
type HistoryRepository interface {
	RecordRun(ctx context.Context, run domain.ScrapeRun) error
	RecentRuns(ctx context.Context, limit int) ([]domain.ScrapeRun, error)
}

// Notifier streams batch reports to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}
