package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is an ISO-8601 instant that also accepts the naive layouts
// written by older schema files.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NewTimestamp truncates to whole seconds so files stay readable.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(t.Format(time.RFC3339))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}

// CourseInfo describes the course a schema was built from.
type CourseInfo struct {
	Name           string    `json:"name"`
	SourceURL      string    `json:"source_url"`
	TotalQuestions int       `json:"total_questions"`
	ScrapedDate    Timestamp `json:"scraped_date"`
}

// QuestionMetadata carries provenance of a schema question.
type QuestionMetadata struct {
	ScrapedFrom       string `json:"scraped_from"`
	HasMultipleChoice bool   `json:"has_multiple_choice"`
	ExtractionMethod  Method `json:"extraction_method,omitempty"`
}

// QuestionSchema is one normalized, matchable question.
// Question and Answer are never empty in an emitted schema.
type QuestionSchema struct {
	ID               int              `json:"id"`
	Question         string           `json:"question"`
	Answer           AnswerText       `json:"answer"`
	SourceURL        string           `json:"source_url"`
	MatchingKeywords []string         `json:"matching_keywords"`
	AnswerOptions    []Option         `json:"answer_options"`
	Metadata         QuestionMetadata `json:"metadata"`
}

// Schema is the persisted artifact consumed by the browser extension.
type Schema struct {
	SchemaVersion string           `json:"schema_version"`
	CreatedDate   Timestamp        `json:"created_date"`
	CourseInfo    CourseInfo       `json:"course_info"`
	Questions     []QuestionSchema `json:"questions"`
}

// MergedCourse is a course_info object with its questions embedded.
type MergedCourse struct {
	CourseInfo
	Questions []QuestionSchema `json:"questions"`
}

// MergedSchema aggregates several schemas into one artifact.
type MergedSchema struct {
	SchemaVersion  string         `json:"schema_version"`
	CreatedDate    Timestamp      `json:"created_date"`
	MergedFrom     []string       `json:"merged_from"`
	Courses        []MergedCourse `json:"courses"`
	TotalQuestions int            `json:"total_questions"`
}

// SchemaFileInfo summarizes a schema file on disk.
type SchemaFileInfo struct {
	Filename      string
	Path          string
	CourseName    string
	QuestionCount int
	CreatedDate   Timestamp
	Size          int64
}
