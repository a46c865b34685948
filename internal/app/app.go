package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"QASchemaScraper/internal/config"
	"QASchemaScraper/internal/domain"
	"QASchemaScraper/internal/extract"
	"QASchemaScraper/internal/infrastructure/fetch"
	"QASchemaScraper/internal/infrastructure/registry"
	"QASchemaScraper/internal/infrastructure/storage"
	"QASchemaScraper/internal/infrastructure/telegram"
	"QASchemaScraper/internal/logging"
	"QASchemaScraper/internal/matcher"
	"QASchemaScraper/internal/ports"
	"QASchemaScraper/internal/schema"
	"QASchemaScraper/internal/usecase"
)

// Application wires configs to use cases.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	scraper  *usecase.Scraper
	batch    *usecase.Batch
	store    *schema.Store
	registry *registry.FileStore
	history  *storage.HistoryRepository
	matcher  *matcher.Matcher
}

// New builds the application. A history database that cannot be opened is
// logged and history is disabled; unknown strategy names are an error.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format, nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	fetcher := fetch.New(nil, fetch.Options{
		Timeout:           cfg.Fetch.Timeout,
		Delay:             cfg.Fetch.Delay,
		UserAgent:         cfg.Fetch.UserAgent,
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
		RespectRobots:     cfg.Fetch.RespectRobots,
	}, baseLogger.With("component", "fetcher"))

	extractOpts := extract.Options{
		EmphasisSelector:  cfg.Extraction.EmphasisSelector,
		MinQuestionLength: cfg.Extraction.MinQuestionLength,
		MaxOptionLength:   cfg.Extraction.MaxOptionLength,
	}
	pipeline, err := extract.DefaultRegistry(extractOpts).Build(
		cfg.Extraction.CandidateStrategies,
		cfg.Extraction.AnswerStrategies,
		extractOpts,
		fetcher,
		baseLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("build extraction pipeline: %w", err)
	}

	store := schema.NewStore(cfg.Schema.OutputDir, cfg.Schema.Version, nil, baseLogger.With("component", "schema.store"))
	reg := registry.NewFileStore(cfg.Registry.Path, nil, baseLogger.With("component", "registry"))

	a := &Application{
		cfg:      cfg,
		logger:   baseLogger,
		store:    store,
		registry: reg,
		matcher:  matcher.New(cfg.Matcher.PartialThreshold),
	}

	var history ports.HistoryRepository
	if cfg.History.Driver != "none" && cfg.History.DSN != "" {
		repo, err := storage.Open(ctx, cfg.History.Driver, cfg.History.DSN)
		if err != nil {
			baseLogger.Warn("scrape history disabled", "driver", cfg.History.Driver, "error", err)
		} else {
			a.history = repo
			history = repo
		}
	}

	a.scraper = usecase.NewScraper(usecase.ScraperDeps{
		Aggregator: usecase.NewAggregator(usecase.AggregatorDeps{
			Fetcher:  fetcher,
			Pipeline: pipeline,
			Logger:   baseLogger.With("component", "aggregator"),
		}),
		Normalizer:   schema.NewNormalizer(cfg.Schema.Version, cfg.Schema.MaxKeywords, nil, baseLogger.With("component", "normalizer")),
		Store:        store,
		Registry:     reg,
		History:      history,
		ExtensionDir: cfg.Registry.ExtensionDir,
		Logger:       baseLogger.With("component", "scraper"),
	})

	var notifier ports.Notifier
	tg := cfg.Notifications.Telegram
	if tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	a.batch = usecase.NewBatch(usecase.BatchDeps{
		Scraper:  a.scraper,
		Store:    store,
		Notifier: notifier,
		Logger:   baseLogger.With("component", "batch"),
	})

	return a, nil
}

// Close releases the history database.
func (a *Application) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}

// Config returns the effective configuration.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Scrape scrapes one course and saves its schema.
func (a *Application) Scrape(ctx context.Context, req usecase.ScrapeRequest) (usecase.ScrapeResult, error) {
	return a.scraper.Scrape(ctx, req)
}

// ScrapeBatch scrapes every course listed in urlFile.
func (a *Application) ScrapeBatch(ctx context.Context, urlFile string, opts usecase.BatchOptions) (usecase.BatchReport, error) {
	urls, err := usecase.ReadURLFile(urlFile)
	if err != nil {
		return usecase.BatchReport{}, err
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = a.cfg.Batch.Concurrency
	}
	a.logger.Info("starting batch", "courses", len(urls), "concurrency", opts.Concurrency)
	return a.batch.Run(ctx, urls, opts), nil
}

// ListSchemas summarizes the schemas in dir, or in the configured output directory.
func (a *Application) ListSchemas(dir string) ([]domain.SchemaFileInfo, error) {
	store := a.store
	if dir != "" {
		store = store.WithDir(dir)
	}
	return store.List()
}

// Merge merges schema files and returns the output path plus the inputs that do not exist.
func (a *Application) Merge(paths []string, output string) (string, []string, error) {
	var missing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, p)
		}
	}
	if len(missing) == len(paths) {
		return "", missing, fmt.Errorf("none of the %d schema files exist", len(paths))
	}

	out, err := a.store.Merge(paths, output)
	return out, missing, err
}

// Lookup searches saved schemas for question. With an exam URL only the
// schema registered for that exam is searched.
func (a *Application) Lookup(question, examURL string) (matcher.Match, bool, error) {
	var paths []string
	if examURL != "" {
		entry, ok, err := a.registry.Match(examURL)
		if err != nil {
			return matcher.Match{}, false, err
		}
		if !ok {
			return matcher.Match{}, false, fmt.Errorf("no schema registered for %s", examURL)
		}
		paths = []string{filepath.Join(a.cfg.Registry.ExtensionDir, filepath.FromSlash(entry.SchemaFile))}
	} else {
		infos, err := a.store.List()
		if err != nil {
			return matcher.Match{}, false, err
		}
		for _, info := range infos {
			paths = append(paths, info.Path)
		}
	}

	schemas := make([]domain.Schema, 0, len(paths))
	for _, p := range paths {
		s, err := a.store.Load(p)
		if err != nil {
			a.logger.Warn("skipping schema in lookup", "path", p, "error", err)
			continue
		}
		schemas = append(schemas, s)
	}

	m, ok := a.matcher.Find(question, schemas)
	return m, ok, nil
}

// RegistryEntries lists the extension registry.
func (a *Application) RegistryEntries() ([]domain.RegistryEntry, error) {
	return a.registry.List()
}

// RemoveRegistryEntry deletes the entries for examID.
func (a *Application) RemoveRegistryEntry(examID string) (bool, error) {
	return a.registry.Remove(examID)
}

// History returns the most recent scrape runs.
func (a *Application) History(ctx context.Context, limit int) ([]domain.ScrapeRun, error) {
	if a.history == nil {
		return nil, fmt.Errorf("scrape history is disabled")
	}
	return a.history.RecentRuns(ctx, limit)
}
