// Package extract locates questions on course pages and resolves their answers
// through ordered, stop-at-first-success strategy cascades.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// contentRegionSelectors are tried in order; the whole document is the last resort.
var contentRegionSelectors = []string{"div.entry-content", "main", "article", "div#content"}

// Page is a parsed document plus the URL it came from. It is never mutated.
type Page struct {
	Doc    *goquery.Document
	Region *goquery.Selection
	URL    *url.URL
	RawURL string
}

// NewPage resolves the main content region of doc.
func NewPage(doc *goquery.Document, rawURL string) (Page, error) {
	if doc == nil {
		return Page{}, fmt.Errorf("page %s: nil document", rawURL)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Page{}, fmt.Errorf("page %s: %w", rawURL, err)
	}
	return Page{
		Doc:    doc,
		Region: ContentRegion(doc),
		URL:    parsed,
		RawURL: rawURL,
	}, nil
}

// ContentRegion returns the best guess at the main content of doc.
func ContentRegion(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentRegionSelectors {
		if region := doc.Find(sel).First(); region.Length() > 0 {
			return region
		}
	}
	return doc.Selection
}

// collapse flattens whitespace runs to single spaces and trims.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// sameSiteTarget resolves href against base and accepts it only if it stays
// on the same host and does not point back at base itself.
func sameSiteTarget(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	abs := base.ResolveReference(ref)
	abs.Fragment = ""
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if !strings.EqualFold(abs.Hostname(), base.Hostname()) {
		return "", false
	}
	if samePage(abs, base) {
		return "", false
	}
	return abs.String(), true
}

func samePage(a, b *url.URL) bool {
	norm := func(u *url.URL) string {
		c := *u
		c.Fragment = ""
		c.Host = strings.ToLower(c.Host)
		return strings.TrimSuffix(c.String(), "/")
	}
	return norm(a) == norm(b)
}

// classTokens splits the class attribute of s.
func classTokens(s *goquery.Selection) []string {
	class, _ := s.Attr("class")
	return strings.Fields(class)
}

// ownMatches returns the matches of selector inside li that do not belong to a nested list item.
func ownMatches(li *goquery.Selection, selector string) *goquery.Selection {
	return li.Find(selector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Closest("li").IsSelection(li)
	})
}
