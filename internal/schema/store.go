package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"QASchemaScraper/internal/domain"
)

// DefaultMergedFilename is used when merge gets no output name.
const DefaultMergedFilename = "merged_schema.json"

// Store reads and writes schema files inside one directory.
// Stores derived through WithDir share one write lock, so concurrent
// batch courses never interleave file writes.
type Store struct {
	dir     string
	version string
	now     func() time.Time
	logger  *slog.Logger

	mu *sync.Mutex
}

// NewStore does not touch the filesystem; the directory is created on first write.
func NewStore(dir, version string, now func() time.Time, log *slog.Logger) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{dir: dir, version: version, now: now, logger: log, mu: &sync.Mutex{}}
}

// Dir returns the schema directory.
func (s *Store) Dir() string {
	return s.dir
}

// FilenameFor derives "<clean_name>_schema.json" from a course name: only
// letters, digits, space, underscore and hyphen survive, spaces become underscores.
func FilenameFor(courseName string) string {
	var b strings.Builder
	for _, r := range courseName {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	clean := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_"))
	if clean == "" {
		clean = "course"
	}
	return clean + "_schema.json"
}

// FilenameForURL derives a schema filename from a listing URL's host and
// path, so different courses on one site get different files.
func FilenameForURL(listingURL string) string {
	parsed, err := url.Parse(listingURL)
	if err != nil || parsed.Host == "" {
		return FilenameFor(listingURL)
	}
	name := strings.Map(func(r rune) rune {
		if r == '.' || r == '/' {
			return ' '
		}
		return r
	}, parsed.Hostname()+parsed.Path)
	return FilenameFor(strings.Join(strings.Fields(name), " "))
}

// Save writes schema as indented JSON and returns its path. An existing file is overwritten.
func (s *Store) Save(schema domain.Schema, filename string) (string, error) {
	if filename == "" {
		filename = FilenameFor(schema.CourseInfo.Name)
	}
	path := s.resolve(filename)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeJSON(path, schema); err != nil {
		return "", err
	}
	s.info("schema saved", "path", path, "questions", len(schema.Questions))
	return path, nil
}

// Load reads one schema file.
func (s *Store) Load(path string) (domain.Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Schema{}, fmt.Errorf("read schema %s: %w", path, err)
	}
	var schema domain.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return domain.Schema{}, fmt.Errorf("decode schema %s: %w", path, err)
	}
	return schema, nil
}

// Merge folds every loadable schema into one file. Files that fail to load
// are logged and skipped; merged_from lists only the files that were merged.
func (s *Store) Merge(paths []string, output string) (string, error) {
	if output == "" {
		output = DefaultMergedFilename
	}

	merged := domain.MergedSchema{
		SchemaVersion: s.version,
		CreatedDate:   domain.NewTimestamp(s.now()),
		MergedFrom:    []string{},
		Courses:       []domain.MergedCourse{},
	}

	for _, path := range paths {
		schema, err := s.Load(path)
		if err != nil {
			s.error("skipping schema in merge", "path", path, "error", err)
			continue
		}
		merged.MergedFrom = append(merged.MergedFrom, path)
		merged.Courses = append(merged.Courses, domain.MergedCourse{
			CourseInfo: schema.CourseInfo,
			Questions:  schema.Questions,
		})
		merged.TotalQuestions += len(schema.Questions)
	}

	path := s.resolve(output)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeJSON(path, merged); err != nil {
		return "", err
	}
	s.info("merged schema saved", "path", path, "courses", len(merged.Courses), "questions", merged.TotalQuestions)
	return path, nil
}

// List summarizes every *.json schema in the directory, sorted by filename.
// Unreadable files are logged and skipped. A missing directory lists nothing.
func (s *Store) List() ([]domain.SchemaFileInfo, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	sort.Strings(matches)

	out := make([]domain.SchemaFileInfo, 0, len(matches))
	for _, path := range matches {
		stat, err := os.Stat(path)
		if err != nil {
			s.warn("cannot stat schema", "path", path, "error", err)
			continue
		}
		schema, err := s.Load(path)
		if err != nil {
			s.warn("cannot read schema", "path", path, "error", err)
			continue
		}
		out = append(out, domain.SchemaFileInfo{
			Filename:      filepath.Base(path),
			Path:          path,
			CourseName:    schema.CourseInfo.Name,
			QuestionCount: len(schema.Questions),
			CreatedDate:   schema.CreatedDate,
			Size:          stat.Size(),
		})
	}
	return out, nil
}

// CopyInto copies a schema file into dir under the same base name.
func (s *Store) CopyInto(src, dir string) (string, error) {
	dst := filepath.Join(dir, filepath.Base(src))

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(src)
	if err != nil {
		return "", &domain.PersistenceError{Op: "open", Path: src, Err: err}
	}
	if err := writeFile(dst, raw); err != nil {
		return "", err
	}
	return dst, nil
}

// resolve places bare filenames inside the store directory.
func (s *Store) resolve(filename string) string {
	if filepath.IsAbs(filename) || filepath.Dir(filename) != "." {
		return filename
	}
	return filepath.Join(s.dir, filename)
}

// writeJSON encodes v with two-space indentation, keeping non-ASCII and HTML characters literal.
func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return &domain.PersistenceError{Op: "encode", Path: path, Err: err}
	}
	return writeFile(path, buf.Bytes())
}

// writeFile replaces path through a temporary file in the same directory,
// so readers never see a partly written schema.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.PersistenceError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".schema-*.tmp")
	if err != nil {
		return &domain.PersistenceError{Op: "create", Path: path, Err: err}
	}
	_ = tmp.Chmod(0o644)
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

func (s *Store) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Store) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Store) error(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}

// WithDir returns a store writing into dir with the same settings.
func (s *Store) WithDir(dir string) *Store {
	return &Store{dir: dir, version: s.version, now: s.now, logger: s.logger, mu: s.mu}
}
