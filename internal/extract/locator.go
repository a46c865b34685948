package extract

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"QASchemaScraper/internal/domain"
)

// CandidateFinder is one question-locating strategy.
type CandidateFinder interface {
	Name() string
	Find(page Page) []domain.QuestionCandidate
}

// Locator runs candidate finders in order; the first one yielding a candidate wins.
// Results of different finders are never merged.
type Locator struct {
	finders   []CandidateFinder
	minLength int
	logger    *slog.Logger
}

// NewLocator wires the cascade. Candidates shorter than minLength runes are rejected.
func NewLocator(finders []CandidateFinder, minLength int, log *slog.Logger) *Locator {
	return &Locator{finders: finders, minLength: minLength, logger: log}
}

// Locate returns the ordered question candidates of a listing page, possibly none.
// The length filter runs before a strategy is judged, so a strategy whose
// candidates are all too short does not win and the next one is tried.
func (l *Locator) Locate(page Page) []domain.QuestionCandidate {
	for _, finder := range l.finders {
		raw := finder.Find(page)

		found := make([]domain.QuestionCandidate, 0, len(raw))
		for _, c := range raw {
			if utf8.RuneCountInString(strings.TrimSpace(c.Text)) < l.minLength {
				continue
			}
			found = append(found, c)
		}

		l.debug("candidate strategy tried", "strategy", finder.Name(), "raw", len(raw), "accepted", len(found))
		if len(found) > 0 {
			l.info("questions located", "strategy", finder.Name(), "count", len(found), "url", page.RawURL)
			return found
		}
	}

	l.warn("no questions located", "url", page.RawURL)
	return nil
}

func (l *Locator) info(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Info(msg, args...)
	}
}

func (l *Locator) warn(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}

func (l *Locator) debug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

// LinkFinder turns list items linking to other pages of the same site into off-page candidates.
// A link counts for its innermost list item only, and each target is emitted once.
type LinkFinder struct{}

func (LinkFinder) Name() string { return "links" }

func (f LinkFinder) Find(page Page) []domain.QuestionCandidate {
	var out []domain.QuestionCandidate
	seen := map[string]struct{}{}
	page.Region.Find("li").Each(func(_ int, li *goquery.Selection) {
		link := ownMatches(li, "a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		target, ok := sameSiteTarget(page.URL, href)
		if !ok {
			return
		}
		if _, dup := seen[target]; dup {
			return
		}
		seen[target] = struct{}{}
		c, err := domain.NewQuestionCandidate(collapse(link.Text()), domain.OffPage(target), page.RawURL, f.Name())
		if err != nil {
			return
		}
		out = append(out, c)
	})
	return out
}

// questionLeads are the interrogative or imperative openings of a question line.
var questionLeads = []string{
	"What", "Which", "How", "Why", "True or false", "Fill in the blank",
	"Imagine", "When", "Where", "Who",
}

const (
	minQuestionLineLength = 20
	maxQuestionLineLength = 500
)

// TextLineFinder keeps flattened text lines that read like questions.
type TextLineFinder struct{}

func (TextLineFinder) Name() string { return "text_lines" }

func (f TextLineFinder) Find(page Page) []domain.QuestionCandidate {
	var out []domain.QuestionCandidate
	index := 0
	for _, line := range strings.Split(page.Region.Text(), "\n") {
		line = strings.TrimSpace(line)
		if !looksLikeQuestion(line) {
			continue
		}
		c, err := domain.NewQuestionCandidate(line, domain.OnPage(index), page.RawURL, f.Name())
		if err != nil {
			continue
		}
		out = append(out, c)
		index++
	}
	return out
}

func looksLikeQuestion(line string) bool {
	n := utf8.RuneCountInString(line)
	if n < minQuestionLineLength || n >= maxQuestionLineLength {
		return false
	}
	if !strings.Contains(line, "?") {
		return false
	}
	for _, lead := range questionLeads {
		if strings.HasPrefix(line, lead) {
			return true
		}
	}
	return false
}

type selectorPattern struct {
	selector     string
	needQuestion bool
}

// questionSelectors are tried in order; the first pattern matching anything wins.
var questionSelectors = []selectorPattern{
	{selector: `div[class*="question"]`},
	{selector: "p", needQuestion: true},
	{selector: "h1", needQuestion: true},
	{selector: "h2", needQuestion: true},
	{selector: "h3", needQuestion: true},
	{selector: "h4", needQuestion: true},
	{selector: "strong", needQuestion: true},
	{selector: `div[class*="qa"]`},
	{selector: `div[class*="faq"]`},
}

// SelectorFinder falls back to class and tag patterns. Matched elements that
// link to another page of the site resolve off-page, the rest on-page by position.
type SelectorFinder struct{}

func (SelectorFinder) Name() string { return "selectors" }

func (f SelectorFinder) Find(page Page) []domain.QuestionCandidate {
	for _, pattern := range questionSelectors {
		matches := page.Region.Find(pattern.selector)
		if pattern.needQuestion {
			matches = matches.FilterFunction(func(_ int, s *goquery.Selection) bool {
				return strings.Contains(s.Text(), "?")
			})
		}
		if matches.Length() == 0 {
			continue
		}

		var out []domain.QuestionCandidate
		matches.Each(func(i int, s *goquery.Selection) {
			if c, ok := f.candidate(page, i, s); ok {
				out = append(out, c)
			}
		})
		return out
	}
	return nil
}

func (f SelectorFinder) candidate(page Page, index int, s *goquery.Selection) (domain.QuestionCandidate, bool) {
	link := s.Find("a[href]").First()
	if href, ok := link.Attr("href"); ok {
		if target, ok := sameSiteTarget(page.URL, href); ok {
			c, err := domain.NewQuestionCandidate(collapse(link.Text()), domain.OffPage(target), page.RawURL, f.Name())
			return c, err == nil
		}
	}

	c, err := domain.NewQuestionCandidate(collapse(s.Text()), domain.OnPage(index), page.RawURL, f.Name())
	return c, err == nil
}
