// Package schema turns scraped course records into the JSON schema files the
// browser extension consumes, and manages those files on disk.
package schema

import (
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"QASchemaScraper/internal/domain"
)

const unknownCourse = "Unknown Course"

// questionPrefixes are checked in order; only the first match is stripped.
var questionPrefixes = []string{"Question:", "Q:", "Question", "Q."}

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the is at which on a an and or but in with
		to for of as by that this it from be are was were been have has had
		do does did will would could should what when where who why how`) {
		stopWords[w] = struct{}{}
	}
}

// Normalizer builds schemas from course records.
type Normalizer struct {
	version     string
	maxKeywords int
	now         func() time.Time
	logger      *slog.Logger
}

// NewNormalizer stamps schemas with version; now defaults to time.Now.
func NewNormalizer(version string, maxKeywords int, now func() time.Time, log *slog.Logger) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{version: version, maxKeywords: maxKeywords, now: now, logger: log}
}

// Build never mutates course. Entries whose cleaned question or canonical
// answer is empty are logged and left out.
func (n *Normalizer) Build(course domain.CourseRecord) domain.Schema {
	name := course.CourseName
	if name == "" {
		name = unknownCourse
	}

	questions := make([]domain.QuestionSchema, 0, len(course.Questions))
	for _, qa := range course.Questions {
		question := CleanQuestion(qa.Question)
		answer := CanonicalAnswer(qa.Answer)
		if question == "" || answer.IsEmpty() {
			n.warn("skipping incomplete entry", "id", qa.ID, "question", shorten(question, 50))
			continue
		}

		questions = append(questions, domain.QuestionSchema{
			ID:               qa.ID,
			Question:         question,
			Answer:           answer,
			SourceURL:        qa.AnswerSourceURL,
			MatchingKeywords: ExtractKeywords(question, n.maxKeywords),
			AnswerOptions:    copyOptions(qa.Answer.Options),
			Metadata: domain.QuestionMetadata{
				ScrapedFrom:       qa.ScrapedFromListingURL,
				HasMultipleChoice: len(qa.Answer.Options) > 0,
				ExtractionMethod:  qa.Answer.Method,
			},
		})
	}

	return domain.Schema{
		SchemaVersion: n.version,
		CreatedDate:   domain.NewTimestamp(n.now()),
		CourseInfo: domain.CourseInfo{
			Name:           name,
			SourceURL:      course.ListingURL,
			TotalQuestions: len(questions),
			ScrapedDate:    domain.NewTimestamp(course.ScrapedAt),
		},
		Questions: questions,
	}
}

// CleanQuestion collapses whitespace and strips one leading question prefix.
func CleanQuestion(text string) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(cleaned, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(cleaned, prefix))
		}
	}
	return cleaned
}

// CanonicalAnswer prefers the first correct option, then the structured answer, then the raw text.
func CanonicalAnswer(ext domain.AnswerExtraction) domain.AnswerText {
	for _, opt := range ext.Options {
		if opt.IsCorrect {
			if text := strings.TrimSpace(opt.Text); text != "" {
				return domain.SingleAnswer(text)
			}
		}
	}
	if !ext.Structured.IsEmpty() {
		return ext.Structured.Trimmed()
	}
	if raw := strings.TrimSpace(ext.RawText); raw != "" {
		return domain.SingleAnswer(raw)
	}
	return nil
}

// ExtractKeywords returns at most limit distinct lower-case tokens longer than two
// characters that are not stop words. The first limit unique tokens are kept
// and returned sorted.
func ExtractKeywords(text string, limit int) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})

	seen := map[string]struct{}{}
	keywords := []string{}
	for _, tok := range tokens {
		if len(keywords) >= limit {
			break
		}
		if utf8.RuneCountInString(tok) <= 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}

	sort.Strings(keywords)
	return keywords
}

// IsStopWord reports membership in the fixed stop-word set.
func IsStopWord(word string) bool {
	_, ok := stopWords[strings.ToLower(word)]
	return ok
}

func copyOptions(in []domain.Option) []domain.Option {
	out := make([]domain.Option, len(in))
	copy(out, in)
	return out
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func (n *Normalizer) warn(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Warn(msg, args...)
	}
}
