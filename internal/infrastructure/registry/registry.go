package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"QASchemaScraper/internal/domain"
	"QASchemaScraper/internal/ports"
)

const registryVersion = "1.0"

var examIDPattern = regexp.MustCompile(`/tracks/(\d+)/exam`)

// FileStore keeps the extension registry in a single JSON file.
// Writes are serialized; concurrent upserts for one exam id are last-writer-wins.
type FileStore struct {
	path   string
	now    func() time.Time
	logger *slog.Logger

	mu sync.Mutex
}

var _ ports.RegistryStore = (*FileStore)(nil)

// NewFileStore does not touch the filesystem until the first write.
func NewFileStore(path string, now func() time.Time, log *slog.Logger) *FileStore {
	if now == nil {
		now = time.Now
	}
	return &FileStore{path: path, now: now, logger: log}
}

// ExtractExamID returns the digits of a "/tracks/<id>/exam" segment, or "".
func ExtractExamID(examURL string) string {
	m := examIDPattern.FindStringSubmatch(examURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// URLPattern is "tracks/<id>/exam" when the exam id is known, else the URL host.
func URLPattern(examURL string) string {
	if id := ExtractExamID(examURL); id != "" {
		return fmt.Sprintf("tracks/%s/exam", id)
	}
	parsed, err := url.Parse(examURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

// Upsert updates the entry with the same exam id or URL pattern in place,
// or appends a new one. It reports false without writing when examURL is empty.
func (s *FileStore) Upsert(courseName, examURL, schemaFile string) (bool, error) {
	if strings.TrimSpace(examURL) == "" {
		s.warn("no exam url, schema will not be loaded automatically", "course", courseName)
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.load()
	if err != nil {
		return false, err
	}

	entry := domain.RegistryEntry{
		Name:           courseName,
		ExamURLPattern: URLPattern(examURL),
		SchemaFile:     schemaFile,
		ExamID:         ExtractExamID(examURL),
		CourseName:     courseName,
		ExamURL:        examURL,
	}

	updated := false
	for i, existing := range reg.Schemas {
		sameID := entry.ExamID != "" && existing.ExamID == entry.ExamID
		samePattern := entry.ExamURLPattern != "" && existing.ExamURLPattern == entry.ExamURLPattern
		if sameID || samePattern {
			reg.Schemas[i] = entry
			updated = true
			break
		}
	}
	if !updated {
		reg.Schemas = append(reg.Schemas, entry)
	}

	if err := s.save(reg); err != nil {
		return false, err
	}

	if updated {
		s.info("registry entry updated", "exam_id", entry.ExamID, "schema", schemaFile)
	} else {
		s.info("registry entry added", "course", courseName, "exam_id", entry.ExamID)
	}
	return true, nil
}

// Remove deletes every entry with the given exam id.
func (s *FileStore) Remove(examID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.load()
	if err != nil {
		return false, err
	}

	kept := reg.Schemas[:0]
	for _, e := range reg.Schemas {
		if e.ExamID != examID {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(reg.Schemas) {
		s.info("no registry entry for exam id", "exam_id", examID)
		return false, nil
	}
	reg.Schemas = kept

	if err := s.save(reg); err != nil {
		return false, err
	}
	s.info("registry entry removed", "exam_id", examID)
	return true, nil
}

// List returns the entries in file order.
func (s *FileStore) List() ([]domain.RegistryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.load()
	if err != nil {
		return nil, err
	}
	return reg.Schemas, nil
}

// Match finds the first entry whose URL pattern occurs in pageURL.
func (s *FileStore) Match(pageURL string) (domain.RegistryEntry, bool, error) {
	entries, err := s.List()
	if err != nil {
		return domain.RegistryEntry{}, false, err
	}
	for _, e := range entries {
		if e.ExamURLPattern != "" && strings.Contains(pageURL, e.ExamURLPattern) {
			return e, true, nil
		}
	}
	return domain.RegistryEntry{}, false, nil
}

// Dir returns the directory schema_file entries are relative to.
func (s *FileStore) Dir() string {
	return filepath.Dir(s.path)
}

func (s *FileStore) load() (domain.Registry, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Registry{Version: registryVersion, Schemas: []domain.RegistryEntry{}}, nil
	}
	if err != nil {
		return domain.Registry{}, fmt.Errorf("read registry %s: %w", s.path, err)
	}

	var reg domain.Registry
	if err := json.Unmarshal(raw, &reg); err != nil {
		return domain.Registry{}, fmt.Errorf("decode registry %s: %w", s.path, err)
	}
	if reg.Schemas == nil {
		reg.Schemas = []domain.RegistryEntry{}
	}
	return reg, nil
}

// save replaces the registry file through a temporary file in the same directory.
func (s *FileStore) save(reg domain.Registry) error {
	if reg.Version == "" {
		reg.Version = registryVersion
	}
	reg.Updated = s.now().Format(time.DateOnly)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reg); err != nil {
		return &domain.PersistenceError{Op: "encode", Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.PersistenceError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".registry-*.json")
	if err != nil {
		return &domain.PersistenceError{Op: "create", Path: s.path, Err: err}
	}
	_ = tmp.Chmod(0o644)
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "rename", Path: s.path, Err: err}
	}
	return nil
}

func (s *FileStore) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *FileStore) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
