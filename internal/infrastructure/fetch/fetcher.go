package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"QASchemaScraper/internal/domain"
	"QASchemaScraper/internal/ports"
)

// maxResponseBodyBytes limits the size of fetched pages.
const maxResponseBodyBytes = 10 * 1024 * 1024

// Options configures a Fetcher.
type Options struct {
	Timeout   time.Duration
	Delay     time.Duration
	UserAgent string
	// RequestsPerSecond caps requests per host across all callers; 0 disables the limiter.
	RequestsPerSecond float64
	RespectRobots     bool
}

// Fetcher retrieves pages and parses them with goquery.
// Every attempt, successful or not, is followed by Delay before control returns.
type Fetcher struct {
	client    *http.Client
	userAgent string
	delay     time.Duration
	rps       float64
	robots    *RobotsChecker
	logger    *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

var _ ports.PageFetcher = (*Fetcher)(nil)

// New wires an HTTP client; a nil client gets one with the configured timeout.
func New(client *http.Client, opts Options, log *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	f := &Fetcher{
		client:    client,
		userAgent: opts.UserAgent,
		delay:     opts.Delay,
		rps:       opts.RequestsPerSecond,
		logger:    log,
		limiters:  map[string]*rate.Limiter{},
	}
	if opts.RespectRobots {
		f.robots = NewRobotsChecker(client, opts.UserAgent)
	}
	return f
}

// Fetch downloads url and parses it. No retries happen here; the caller decides what a failure means.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	f.info("fetching", "url", pageURL)

	doc, err := f.fetch(ctx, pageURL)
	if err != nil {
		f.warn("fetch failed", "url", pageURL, "error", err)
	}

	if waitErr := f.pause(ctx); waitErr != nil && err == nil {
		return nil, &domain.FetchError{URL: pageURL, Err: waitErr}
	}

	return doc, err
}

func (f *Fetcher) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return nil, &domain.FetchError{URL: pageURL, Err: fmt.Errorf("invalid url")}
	}

	if f.robots != nil {
		allowed, rErr := f.robots.IsAllowed(ctx, parsed)
		if rErr != nil {
			f.debug("robots check failed, allowing", "url", pageURL, "error", rErr)
		} else if !allowed {
			return nil, &domain.FetchError{URL: pageURL, Err: domain.ErrRobotsDisallowed}
		}
	}

	if limiter := f.limiterFor(parsed.Host); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, &domain.FetchError{URL: pageURL, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: pageURL, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: pageURL, Err: fmt.Errorf("request document: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &domain.FetchError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, &domain.FetchError{URL: pageURL, Err: fmt.Errorf("parse document: %w", err)}
	}
	doc.Url = resp.Request.URL

	return doc, nil
}

// pause suspends the caller for the politeness delay.
func (f *Fetcher) pause(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}

	timer := time.NewTimer(f.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fetcher) limiterFor(host string) *rate.Limiter {
	if f.rps <= 0 {
		return nil
	}

	host = strings.ToLower(host)

	f.mu.Lock()
	defer f.mu.Unlock()

	limiter, ok := f.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(f.rps), 1)
		f.limiters[host] = limiter
	}
	return limiter
}

func (f *Fetcher) info(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Info(msg, args...)
	}
}

func (f *Fetcher) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
