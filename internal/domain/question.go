package domain

import (
	"fmt"
	"strings"
)

// ResolutionKind tells the resolver where a question's answer lives.
type ResolutionKind string

const (
	ResolutionOnPage  ResolutionKind = "on_page"
	ResolutionOffPage ResolutionKind = "off_page"
)

// Resolution points at the answer location of one question.
// OnPage carries a positional index into the listing document; OffPage carries an absolute URL.
type Resolution struct {
	Kind  ResolutionKind
	Index int
	URL   string
}

// OnPage resolves the answer from the already-fetched listing document.
func OnPage(index int) Resolution {
	return Resolution{Kind: ResolutionOnPage, Index: index}
}

// OffPage resolves the answer from a separately linked page.
func OffPage(url string) Resolution {
	return Resolution{Kind: ResolutionOffPage, URL: url}
}

// QuestionCandidate is a located question awaiting answer resolution.
type QuestionCandidate struct {
	Text                  string
	Resolution            Resolution
	ScrapedFromListingURL string
	// Strategy names the locator strategy that produced the candidate.
	Strategy string
}

// NewQuestionCandidate validates the descriptor before it enters the pipeline.
func NewQuestionCandidate(text string, res Resolution, listingURL, strategy string) (QuestionCandidate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return QuestionCandidate{}, fmt.Errorf("question candidate: empty text")
	}

	switch res.Kind {
	case ResolutionOnPage:
		if res.Index < 0 {
			return QuestionCandidate{}, fmt.Errorf("question candidate: negative index %d", res.Index)
		}
	case ResolutionOffPage:
		if res.URL == "" {
			return QuestionCandidate{}, fmt.Errorf("question candidate: empty answer url")
		}
	default:
		return QuestionCandidate{}, fmt.Errorf("question candidate: unknown resolution %q", res.Kind)
	}

	return QuestionCandidate{
		Text:                  text,
		Resolution:            res,
		ScrapedFromListingURL: listingURL,
		Strategy:              strategy,
	}, nil
}

// AnswerURL returns the page the answer is read from.
func (q QuestionCandidate) AnswerURL() string {
	if q.Resolution.Kind == ResolutionOffPage {
		return q.Resolution.URL
	}
	return q.ScrapedFromListingURL
}
