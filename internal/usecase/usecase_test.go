package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"QASchemaScraper/internal/domain"
	"QASchemaScraper/internal/extract"
)

const listingURL = "https://academy.example.com/course/inbound/"

var fixedNow = func() time.Time { return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC) }

type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (*goquery.Document, error) {
	s.mu.Lock()
	s.calls = append(s.calls, url)
	s.mu.Unlock()

	html, ok := s.pages[url]
	if !ok {
		return nil, &domain.FetchError{URL: url, StatusCode: 404}
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func buildPipeline(t *testing.T, fetcher *stubFetcher, reg *extract.Registry, answers ...string) extract.Pipeline {
	t.Helper()

	opts := extract.Options{EmphasisSelector: "strong", MinQuestionLength: 10, MaxOptionLength: 200}
	if reg == nil {
		reg = extract.DefaultRegistry(opts)
	}
	if len(answers) == 0 {
		answers = []string{"list_item", "answer_selector", "emphasis_in_article", "emphasis_in_document"}
	}
	p, err := reg.Build([]string{"links", "text_lines", "selectors"}, answers, opts, fetcher, nil)
	require.NoError(t, err)
	return p
}

// courseSite is a listing with three linked questions; the second answer page is missing.
func courseSite() map[string]string {
	return map[string]string{
		listingURL: `<html><body><div class="entry-content"><ul>
  <li><a href="/q/inbound">What is inbound marketing?</a></li>
  <li><a href="/q/missing">Which page could not be fetched?</a></li>
  <li><a href="/q/channels">Which channels count as inbound?</a></li>
</ul></div></body></html>`,
		"https://academy.example.com/q/inbound":  `<article><ul><li><strong>A business methodology</strong></li></ul></article>`,
		"https://academy.example.com/q/channels": `<article><ul><li><strong>Blogging</strong></li><li><strong>Social media</strong></li></ul></article>`,
	}
}
