package domain

import "time"

// QAEntry pairs a located question with its resolved answer.
// IDs are dense and 1-based within one course.
type QAEntry struct {
	ID                    int
	Question              string
	AnswerSourceURL       string
	Answer                AnswerExtraction
	ScrapedFromListingURL string
}

// CourseRecord is the in-memory result of one course scrape.
// Questions keep extraction order.
type CourseRecord struct {
	CourseName string
	ListingURL string
	ScrapedAt  time.Time
	Questions  []QAEntry
}

// DegradedCount returns how many entries carry a degraded answer.
func (c CourseRecord) DegradedCount() int {
	n := 0
	for _, q := range c.Questions {
		if q.Answer.Method.Degraded() {
			n++
		}
	}
	return n
}
