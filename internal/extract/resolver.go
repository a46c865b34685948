package extract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"QASchemaScraper/internal/domain"
	"QASchemaScraper/internal/ports"
)

// AnswerFinder is one answer-extraction strategy. It only runs for the
// resolution kinds it applies to.
type AnswerFinder interface {
	Name() string
	Applies(kind domain.ResolutionKind) bool
	Find(page Page, candidate domain.QuestionCandidate) (domain.AnswerText, domain.Method, bool)
}

// Resolver extracts the answer of one question, fetching the answer page when it lives elsewhere.
type Resolver struct {
	fetcher ports.PageFetcher
	finders []AnswerFinder
	options *OptionScanner
	logger  *slog.Logger
}

// NewResolver wires the answer cascade and the option scanner.
func NewResolver(fetcher ports.PageFetcher, finders []AnswerFinder, options *OptionScanner, log *slog.Logger) *Resolver {
	return &Resolver{fetcher: fetcher, finders: finders, options: options, logger: log}
}

// Resolve never fails: a fetch failure or an exhausted cascade is recorded in the result's Method.
func (r *Resolver) Resolve(ctx context.Context, listing Page, candidate domain.QuestionCandidate) domain.AnswerExtraction {
	page := listing
	sourceURL := candidate.AnswerURL()

	if candidate.Resolution.Kind == domain.ResolutionOffPage {
		doc, err := r.fetcher.Fetch(ctx, sourceURL)
		if err != nil {
			r.warn("answer page unavailable", "url", sourceURL, "error", err)
			return domain.FetchFailed(sourceURL)
		}
		page, err = NewPage(doc, sourceURL)
		if err != nil {
			r.warn("answer page unusable", "url", sourceURL, "error", err)
			return domain.ExtractionFailed(sourceURL)
		}
	}

	result := domain.NotFound(sourceURL)
	for _, finder := range r.finders {
		if !finder.Applies(candidate.Resolution.Kind) {
			continue
		}
		answer, method, ok := finder.Find(page, candidate)
		r.debug("answer strategy tried", "strategy", finder.Name(), "found", ok)
		if !ok {
			continue
		}
		result = domain.AnswerExtraction{
			SourceURL:  sourceURL,
			RawText:    strings.Join(answer, "\n"),
			Structured: answer,
			Method:     method,
		}
		break
	}

	if r.options != nil {
		result.Options = r.options.Scan(page)
	}

	if result.Method == domain.MethodNotFound {
		r.warn("could not extract answer", "url", sourceURL, "question", truncate(candidate.Text, 50))
	}
	return result
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func (r *Resolver) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

func (r *Resolver) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

// ListItemFinder reads an on-page answer from the candidate's list item:
// the following sibling first, overridden by an explicit "Answer:" or "A:" marker.
type ListItemFinder struct{}

func (ListItemFinder) Name() string { return "list_item" }

func (ListItemFinder) Applies(kind domain.ResolutionKind) bool {
	return kind == domain.ResolutionOnPage
}

func (ListItemFinder) Find(page Page, candidate domain.QuestionCandidate) (domain.AnswerText, domain.Method, bool) {
	items := page.Region.Find("li")
	index := candidate.Resolution.Index
	if index >= items.Length() {
		return nil, "", false
	}

	item := items.Eq(index)
	answer := collapse(item.Next().Text())
	method := domain.MethodNextSibling

	itemText := collapse(item.Text())
	for _, marker := range []string{"Answer:", "A:"} {
		if _, after, ok := strings.Cut(itemText, marker); ok {
			answer = strings.TrimSpace(after)
			method = domain.MethodInlineMarker
			break
		}
	}

	if answer == "" {
		return nil, "", false
	}
	return domain.SingleAnswer(answer), method, true
}

// answerSelectors are content-region patterns tried in order; the first that matches an element decides.
var answerSelectors = []string{
	`div[class*="answer"]`,
	`div[class*="content"]`,
	`div[class*="explanation"]`,
	`div[class*="solution"]`,
	".answer-content",
	".content-body",
}

// SelectorAnswerFinder is the general on-page fallback over answer-like containers.
type SelectorAnswerFinder struct{}

func (SelectorAnswerFinder) Name() string { return "answer_selector" }

func (SelectorAnswerFinder) Applies(kind domain.ResolutionKind) bool {
	return kind == domain.ResolutionOnPage
}

func (SelectorAnswerFinder) Find(page Page, _ domain.QuestionCandidate) (domain.AnswerText, domain.Method, bool) {
	for _, sel := range answerSelectors {
		match := page.Region.Find(sel).First()
		if match.Length() == 0 {
			continue
		}
		text := collapse(match.Text())
		if text == "" {
			return nil, "", false
		}
		return domain.SingleAnswer(text), domain.MethodAnswerSelector, true
	}
	return nil, "", false
}

// EmphasisFinder collects emphasized text inside list items of an answer page.
// Every match is kept so "choose all that apply" questions produce a list.
// Emphasis inside a nested list item is read from that item only.
type EmphasisFinder struct {
	// Selector is the emphasis tag, "strong" unless configured otherwise.
	Selector string
	// WithinArticle restricts the search to the first article element.
	WithinArticle bool
}

func (f EmphasisFinder) Name() string {
	if f.WithinArticle {
		return "emphasis_in_article"
	}
	return "emphasis_in_document"
}

func (EmphasisFinder) Applies(kind domain.ResolutionKind) bool {
	return kind == domain.ResolutionOffPage
}

func (f EmphasisFinder) Find(page Page, _ domain.QuestionCandidate) (domain.AnswerText, domain.Method, bool) {
	scope := page.Doc.Selection
	method := domain.MethodEmphasisInDocument
	if f.WithinArticle {
		scope = page.Doc.Find("article").First()
		method = domain.MethodEmphasisInArticle
		if scope.Length() == 0 {
			return nil, "", false
		}
	}

	selector := f.Selector
	if selector == "" {
		selector = "strong"
	}

	var answers domain.AnswerText
	scope.Find("li").Each(func(_ int, li *goquery.Selection) {
		if text := collapse(ownMatches(li, selector).First().Text()); text != "" {
			answers = append(answers, text)
		}
	})

	if len(answers) == 0 {
		return nil, "", false
	}
	return answers, method, true
}
