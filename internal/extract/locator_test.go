package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QASchemaScraper/internal/domain"
)

func TestContentRegionPrefersEntryContent(t *testing.T) {
	t.Parallel()

	page := pageFrom(t, `<body><main>outer</main><div class="entry-content">inner</div></body>`, listingURL)
	assert.Equal(t, "inner", page.Region.Text())
}

func TestLocatorStopsAtFirstStrategyWithCandidates(t *testing.T) {
	t.Parallel()

	html := `<main>
<ul>
  <li><a href="/q/inbound-basics">What is inbound marketing?</a></li>
  <li><a href="https://academy.example.com/q/visits">Which tool tracks site visits?</a></li>
</ul>
<p>What is the best time to publish a blog post?</p>
</main>`
	page := pageFrom(t, html, listingURL)

	textLines := &countingFinder{inner: TextLineFinder{}}
	locator := NewLocator([]CandidateFinder{LinkFinder{}, textLines}, 10, nil)

	got := locator.Locate(page)

	require.Len(t, got, 2)
	assert.Equal(t, 0, textLines.calls, "text heuristic must not run once links produced candidates")

	assert.Equal(t, "What is inbound marketing?", got[0].Text)
	assert.Equal(t, domain.OffPage("https://academy.example.com/q/inbound-basics"), got[0].Resolution)
	assert.Equal(t, "links", got[0].Strategy)
	assert.Equal(t, listingURL, got[0].ScrapedFromListingURL)
	assert.Equal(t, "https://academy.example.com/q/visits", got[1].Resolution.URL)
}

func TestLocatorFallsThroughWhenCandidatesAreTooShort(t *testing.T) {
	t.Parallel()

	html := `<main>
<ul><li><a href="/next">Next</a></li></ul>
<p>What is the purpose of a buyer persona?</p>
</main>`
	page := pageFrom(t, html, listingURL)

	locator := NewLocator([]CandidateFinder{LinkFinder{}, TextLineFinder{}}, 10, nil)
	got := locator.Locate(page)

	require.Len(t, got, 1)
	assert.Equal(t, "What is the purpose of a buyer persona?", got[0].Text)
	assert.Equal(t, domain.OnPage(0), got[0].Resolution)
	assert.Equal(t, "text_lines", got[0].Strategy)
}

func TestLinkFinderSkipsForeignAndSelfLinks(t *testing.T) {
	t.Parallel()

	html := `<main><ul>
  <li><a href="https://other.example.org/q/1">What is an external question?</a></li>
  <li><a href="#section">Which anchor is this one?</a></li>
  <li><a href="/course/inbound">What about the listing itself?</a></li>
  <li>No link at all in this list item</li>
  <li><a href="/q/keep">What stays in the result?</a></li>
</ul></main>`
	got := LinkFinder{}.Find(pageFrom(t, html, listingURL))

	require.Len(t, got, 1)
	assert.Equal(t, "https://academy.example.com/q/keep", got[0].Resolution.URL)
}

func TestLinkFinderCountsNestedLinksOnce(t *testing.T) {
	t.Parallel()

	html := `<main><ul>
  <li>Module one
    <ul>
      <li><a href="/q/what-is-inbound">What is inbound marketing?</a></li>
      <li><a href="/q/flywheel">What replaced the funnel?</a></li>
    </ul>
  </li>
  <li><a href="/q/what-is-inbound#recap">What is inbound marketing?</a></li>
</ul></main>`
	got := LinkFinder{}.Find(pageFrom(t, html, listingURL))

	require.Len(t, got, 2)
	assert.Equal(t, "https://academy.example.com/q/what-is-inbound", got[0].Resolution.URL)
	assert.Equal(t, "What is inbound marketing?", got[0].Text)
	assert.Equal(t, "https://academy.example.com/q/flywheel", got[1].Resolution.URL)
}

func TestTextLineFinderFilters(t *testing.T) {
	t.Parallel()

	html := `<main>
<p>What is short?</p>
<p>This line has no question mark at all, what a shame</p>
<p>Does it start with a lead word or not at all?</p>
<p>Which of the following is a top-of-funnel offer?</p>
<p>True or false: a persona is a real customer?</p>
</main>`
	got := TextLineFinder{}.Find(pageFrom(t, html, listingURL))

	require.Len(t, got, 2)
	assert.Equal(t, "Which of the following is a top-of-funnel offer?", got[0].Text)
	assert.Equal(t, domain.OnPage(0), got[0].Resolution)
	assert.Equal(t, "True or false: a persona is a real customer?", got[1].Text)
	assert.Equal(t, domain.OnPage(1), got[1].Resolution)
}

func TestSelectorFinderUsesFirstMatchingPattern(t *testing.T) {
	t.Parallel()

	html := `<main>
<div class="question-item"><a href="/answers/1">Which metric measures engagement?</a></div>
<div class="question-item">Why do contacts unsubscribe from emails?</div>
<h2>Where is this heading with a question?</h2>
</main>`
	got := SelectorFinder{}.Find(pageFrom(t, html, listingURL))

	require.Len(t, got, 2)
	assert.Equal(t, domain.OffPage("https://academy.example.com/answers/1"), got[0].Resolution)
	assert.Equal(t, "Which metric measures engagement?", got[0].Text)
	assert.Equal(t, domain.OnPage(1), got[1].Resolution)
	assert.Equal(t, "Why do contacts unsubscribe from emails?", got[1].Text)
}

func TestLocatorReturnsNothingWhenCascadeIsExhausted(t *testing.T) {
	t.Parallel()

	page := pageFrom(t, `<main><p>Nothing to see here.</p></main>`, listingURL)
	locator := NewLocator([]CandidateFinder{LinkFinder{}, TextLineFinder{}, SelectorFinder{}}, 10, nil)

	assert.Empty(t, locator.Locate(page))
}
