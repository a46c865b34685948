package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"QASchemaScraper/internal/domain"
)

const listingURL = "https://academy.example.com/course/inbound/"

func pageFrom(t *testing.T, html, rawURL string) Page {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	page, err := NewPage(doc, rawURL)
	require.NoError(t, err)
	return page
}

// stubFetcher serves inline HTML by URL.
type stubFetcher struct {
	pages map[string]string
	calls []string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (*goquery.Document, error) {
	s.calls = append(s.calls, url)
	html, ok := s.pages[url]
	if !ok {
		return nil, &domain.FetchError{URL: url, StatusCode: 404}
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// countingFinder records whether the cascade reached it.
type countingFinder struct {
	inner CandidateFinder
	calls int
}

func (c *countingFinder) Name() string { return c.inner.Name() }

func (c *countingFinder) Find(page Page) []domain.QuestionCandidate {
	c.calls++
	return c.inner.Find(page)
}
