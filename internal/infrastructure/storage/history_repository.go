package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"QASchemaScraper/internal/domain"
	"QASchemaScraper/internal/ports"
)

const historyTable = "scrape_runs"

const createHistoryTable = `CREATE TABLE IF NOT EXISTS scrape_runs (
	id               TEXT PRIMARY KEY,
	course_name      TEXT NOT NULL,
	listing_url      TEXT NOT NULL,
	schema_file      TEXT NOT NULL,
	question_count   INTEGER NOT NULL,
	degraded_answers INTEGER NOT NULL,
	scraped_at       BIGINT NOT NULL
)`

// HistoryRepository persists completed scrape runs into SQLite or Postgres.
type HistoryRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.HistoryRepository = (*HistoryRepository)(nil)

// Open connects to driver ("sqlite" or "postgres") and creates the table if needed.
func Open(ctx context.Context, driver, dsn string) (*HistoryRepository, error) {
	var placeholder sq.PlaceholderFormat
	switch driver {
	case "sqlite":
		placeholder = sq.Question
	case "postgres":
		placeholder = sq.Dollar
	default:
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	repo := NewHistoryRepository(db, placeholder)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewHistoryRepository wires a sql.DB implementation.
func NewHistoryRepository(db *sql.DB, placeholder sq.PlaceholderFormat) *HistoryRepository {
	return &HistoryRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}
}

// Migrate creates the history table.
func (r *HistoryRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createHistoryTable); err != nil {
		return fmt.Errorf("create history table: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (r *HistoryRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// RecordRun inserts one run, generating an id when it has none.
func (r *HistoryRepository) RecordRun(ctx context.Context, run domain.ScrapeRun) error {
	if r.db == nil {
		return nil
	}

	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	_, err := r.builder.
		Insert(historyTable).
		Columns("id", "course_name", "listing_url", "schema_file", "question_count", "degraded_answers", "scraped_at").
		Values(run.ID, run.CourseName, run.ListingURL, run.SchemaFile, run.QuestionCount, run.DegradedAnswers, run.ScrapedAt.Unix()).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return &domain.PersistenceError{Op: "insert", Path: historyTable, Err: err}
	}

	return nil
}

// RecentRuns returns at most limit runs, newest first.
func (r *HistoryRepository) RecentRuns(ctx context.Context, limit int) ([]domain.ScrapeRun, error) {
	if r.db == nil {
		return nil, nil
	}

	query := r.builder.
		Select("id", "course_name", "listing_url", "schema_file", "question_count", "degraded_answers", "scraped_at").
		From(historyTable).
		OrderBy("scraped_at DESC", "id")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	rows, err := query.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var runs []domain.ScrapeRun
	for rows.Next() {
		var (
			run       domain.ScrapeRun
			scrapedAt int64
		)
		if err := rows.Scan(&run.ID, &run.CourseName, &run.ListingURL, &run.SchemaFile, &run.QuestionCount, &run.DegradedAnswers, &scrapedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.ScrapedAt = time.Unix(scrapedAt, 0)
		runs = append(runs, run)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return runs, nil
}
