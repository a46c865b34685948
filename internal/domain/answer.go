package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Method identifies which heuristic produced an answer. It is always set.
type Method string

const (
	MethodInlineMarker       Method = "inline_marker"
	MethodNextSibling        Method = "next_sibling"
	MethodAnswerSelector     Method = "answer_selector"
	MethodEmphasisInArticle  Method = "strong_tag_in_article_list_item"
	MethodEmphasisInDocument Method = "strong_tag_in_list_item"
	MethodNotFound           Method = "not_found"
	MethodFetchError         Method = "fetch_error"
	MethodError              Method = "error"
)

// Placeholder texts recorded for degraded answers.
const (
	AnswerNotFoundText  = "Answer not found"
	FetchFailedText     = "Failed to fetch page"
	ExtractionErrorText = "Error extracting answer"
)

// Degraded reports whether the method marks an answer that was not really extracted.
func (m Method) Degraded() bool {
	switch m {
	case MethodNotFound, MethodFetchError, MethodError:
		return true
	default:
		return false
	}
}

// AnswerText holds one answer or several ("choose all that apply").
// A single value encodes as a JSON string, several as a JSON array.
type AnswerText []string

// SingleAnswer wraps a scalar answer.
func SingleAnswer(s string) AnswerText {
	return AnswerText{s}
}

// IsEmpty is true when no value carries non-whitespace text.
func (a AnswerText) IsEmpty() bool {
	for _, v := range a {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// IsList reports whether the answer must be treated as a list downstream.
func (a AnswerText) IsList() bool {
	return len(a) > 1
}

// Trimmed returns a copy with whitespace trimmed and empty values dropped.
func (a AnswerText) Trimmed() AnswerText {
	out := make(AnswerText, 0, len(a))
	for _, v := range a {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// String joins list answers with "; " for logs and tables.
func (a AnswerText) String() string {
	return strings.Join(a, "; ")
}

func (a AnswerText) MarshalJSON() ([]byte, error) {
	switch len(a) {
	case 0:
		return json.Marshal("")
	case 1:
		return json.Marshal(a[0])
	default:
		return json.Marshal([]string(a))
	}
}

func (a *AnswerText) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*a = nil
			return nil
		}
		*a = AnswerText{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("answer must be a string or a list of strings: %w", err)
	}
	*a = list
	return nil
}

// Option is one multiple-choice option with its correctness flag.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// AnswerExtraction is the resolver's result for one question.
type AnswerExtraction struct {
	SourceURL  string
	RawText    string
	Structured AnswerText
	Options    []Option
	Method     Method
}

// NotFound is the normal outcome when every answer strategy came up empty.
func NotFound(sourceURL string) AnswerExtraction {
	return AnswerExtraction{SourceURL: sourceURL, RawText: AnswerNotFoundText, Method: MethodNotFound}
}

// FetchFailed records a degraded answer for a page that could not be retrieved.
func FetchFailed(sourceURL string) AnswerExtraction {
	return AnswerExtraction{
		SourceURL:  sourceURL,
		RawText:    FetchFailedText,
		Structured: SingleAnswer(FetchFailedText),
		Method:     MethodFetchError,
	}
}

// ExtractionFailed records a degraded answer for unexpected page structure.
func ExtractionFailed(sourceURL string) AnswerExtraction {
	return AnswerExtraction{
		SourceURL:  sourceURL,
		RawText:    ExtractionErrorText,
		Structured: SingleAnswer(ExtractionErrorText),
		Method:     MethodError,
	}
}
