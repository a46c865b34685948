package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"QASchemaScraper/internal/domain"
)

var optionSelectors = []string{
	`input[type="radio"]`,
	`input[type="checkbox"]`,
	`li[class*="option"]`,
	`div[class*="choice"]`,
	".option",
	".choice",
}

// OptionScanner collects multiple-choice options from a page's content region.
type OptionScanner struct {
	maxLength int
}

// NewOptionScanner drops options longer than maxLength runes as noise.
func NewOptionScanner(maxLength int) *OptionScanner {
	return &OptionScanner{maxLength: maxLength}
}

// Scan returns options in selector order, each element at most once.
// Any correctness signal is sufficient: a correct/selected class, a checked
// attribute, or an ancestor class mentioning "correct".
func (o *OptionScanner) Scan(page Page) []domain.Option {
	seen := map[*html.Node]struct{}{}
	var options []domain.Option

	for _, sel := range optionSelectors {
		page.Region.Find(sel).Each(func(_ int, s *goquery.Selection) {
			node := s.Get(0)
			if _, dup := seen[node]; dup {
				return
			}
			seen[node] = struct{}{}

			text := optionText(page, s)
			if text == "" || utf8.RuneCountInString(text) > o.maxLength {
				return
			}
			options = append(options, domain.Option{Text: text, IsCorrect: isCorrect(s)})
		})
	}
	return options
}

// optionText reads an input's label, since inputs carry no text of their own.
func optionText(page Page, s *goquery.Selection) string {
	if goquery.NodeName(s) != "input" {
		return collapse(s.Text())
	}

	if label := s.Closest("label"); label.Length() > 0 {
		if text := collapse(label.Text()); text != "" {
			return text
		}
	}
	if id, ok := s.Attr("id"); ok && id != "" {
		label := page.Doc.Find("label").FilterFunction(func(_ int, l *goquery.Selection) bool {
			forID, _ := l.Attr("for")
			return forID == id
		}).First()
		if text := collapse(label.Text()); text != "" {
			return text
		}
	}
	value, _ := s.Attr("value")
	return strings.TrimSpace(value)
}

func isCorrect(s *goquery.Selection) bool {
	for _, class := range classTokens(s) {
		if mentionsCorrect(class) || mentionsSelected(class) {
			return true
		}
	}

	if _, checked := s.Attr("checked"); checked {
		return true
	}

	found := false
	s.Parents().EachWithBreak(func(_ int, p *goquery.Selection) bool {
		for _, class := range classTokens(p) {
			if mentionsCorrect(class) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

func mentionsCorrect(class string) bool {
	class = strings.ToLower(class)
	return strings.Contains(class, "correct") && !strings.Contains(class, "incorrect")
}

func mentionsSelected(class string) bool {
	class = strings.ToLower(class)
	return strings.Contains(class, "selected") && !strings.Contains(class, "unselected")
}
