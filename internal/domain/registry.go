package domain

import "time"

// RegistryEntry maps an exam URL to the schema file the extension loads for it.
type RegistryEntry struct {
	Name           string `json:"name"`
	ExamURLPattern string `json:"exam_url_pattern"`
	SchemaFile     string `json:"schema_file"`
	ExamID         string `json:"exam_id"`
	CourseName     string `json:"course_name"`
	ExamURL        string `json:"exam_url"`
}

// Registry is the on-disk registry document.
type Registry struct {
	Version string          `json:"version"`
	Updated string          `json:"updated"`
	Schemas []RegistryEntry `json:"schemas"`
}

// ScrapeRun is one recorded course scrape.
type ScrapeRun struct {
	ID              string
	CourseName      string
	ListingURL      string
	SchemaFile      string
	QuestionCount   int
	DegradedAnswers int
	ScrapedAt       time.Time
}
