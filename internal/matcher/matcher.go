// Package matcher finds the saved question that corresponds to a question seen
// on an exam page, using the same rules as the browser extension.
package matcher

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antzucaro/matchr"

	"QASchemaScraper/internal/domain"
)

// MatchType tells which rule accepted a match.
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchPartial MatchType = "partial"
	MatchKeyword MatchType = "keyword"
)

// Match is a schema question accepted for a lookup.
type Match struct {
	Question   domain.QuestionSchema
	Course     string
	MatchType  MatchType
	Similarity float64
}

// Matcher checks each schema question in order: exact, then edit-distance
// similarity, then keyword overlap. The first question accepted by any rule wins.
type Matcher struct {
	threshold float64
}

// New sets the minimum similarity of a partial match.
func New(threshold float64) *Matcher {
	return &Matcher{threshold: threshold}
}

// Find returns the first matching question across schemas, in file order.
func (m *Matcher) Find(question string, schemas []domain.Schema) (Match, bool) {
	needle := Normalize(question)
	words := strings.Split(needle, " ")

	for _, schema := range schemas {
		for _, qa := range schema.Questions {
			candidate := Normalize(qa.Question)

			if needle == candidate {
				return Match{Question: qa, Course: schema.CourseInfo.Name, MatchType: MatchExact, Similarity: 1}, true
			}

			if sim := Similarity(needle, candidate); sim >= m.threshold {
				return Match{Question: qa, Course: schema.CourseInfo.Name, MatchType: MatchPartial, Similarity: sim}, true
			}

			if len(qa.MatchingKeywords) == 0 {
				continue
			}
			hits := keywordHits(words, qa.MatchingKeywords)
			need := math.Min(3, float64(len(qa.MatchingKeywords))*0.5)
			if hits > 0 && float64(hits) >= need {
				sim := float64(hits) / float64(len(qa.MatchingKeywords))
				return Match{Question: qa, Course: schema.CourseInfo.Name, MatchType: MatchKeyword, Similarity: sim}, true
			}
		}
	}
	return Match{}, false
}

// Normalize trims, collapses whitespace, drops punctuation and lower-cases.
func Normalize(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == ' ' {
			return r
		}
		return -1
	}, collapsed)
	return strings.ToLower(cleaned)
}

// Similarity is (len(longer) - distance) / len(longer); two empty strings are identical.
func Similarity(a, b string) float64 {
	longer := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longer {
		longer = n
	}
	if longer == 0 {
		return 1
	}
	dist := matchr.Levenshtein(a, b)
	return float64(longer-dist) / float64(longer)
}

// keywordHits counts keywords contained in, or containing, some question word.
func keywordHits(words, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		for _, w := range words {
			if w == "" {
				continue
			}
			if strings.Contains(w, kw) || strings.Contains(kw, w) {
				hits++
				break
			}
		}
	}
	return hits
}
