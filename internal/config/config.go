package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "QA_SCRAPER_CONFIG"
	outputDirEnv      = "QA_SCRAPER_OUTPUT_DIR"
	delayEnv          = "QA_SCRAPER_DELAY"
	logLevelEnv       = "QA_SCRAPER_LOG_LEVEL"
	historyDSNEnv     = "HISTORY_DSN"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"

	// DefaultUserAgent is a desktop Chrome string; some course sites block unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Config holds high-level settings required across the application.
type Config struct {
	Fetch         FetchConfig        `yaml:"fetch"`
	Extraction    ExtractionConfig   `yaml:"extraction"`
	Schema        SchemaConfig       `yaml:"schema"`
	Registry      RegistryConfig     `yaml:"registry"`
	History       HistoryConfig      `yaml:"history"`
	Batch         BatchConfig        `yaml:"batch"`
	Matcher       MatcherConfig      `yaml:"matcher"`
	Logging       LoggingConfig      `yaml:"logging"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// FetchConfig controls how pages are retrieved.
type FetchConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	Delay             time.Duration `yaml:"delay"`
	UserAgent         string        `yaml:"userAgent"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	RespectRobots     bool          `yaml:"respectRobots"`
}

// ExtractionConfig sets the locator and resolver cascades by strategy name.
type ExtractionConfig struct {
	CandidateStrategies []string `yaml:"candidateStrategies"`
	AnswerStrategies    []string `yaml:"answerStrategies"`
	EmphasisSelector    string   `yaml:"emphasisSelector"`
	MinQuestionLength   int      `yaml:"minQuestionLength"`
	MaxOptionLength     int      `yaml:"maxOptionLength"`
}

// SchemaConfig describes schema output.
type SchemaConfig struct {
	Version     string `yaml:"version"`
	OutputDir   string `yaml:"outputDir"`
	MaxKeywords int    `yaml:"maxKeywords"`
}

// RegistryConfig locates the extension registry and its schema folder.
type RegistryConfig struct {
	Path         string `yaml:"path"`
	ExtensionDir string `yaml:"extensionDir"`
}

// HistoryConfig selects the scrape history database. Driver "none" disables history.
type HistoryConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// BatchConfig bounds concurrent course scrapes in batch mode.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// MatcherConfig tunes question lookup.
type MatcherConfig struct {
	PartialThreshold float64 `yaml:"partialThreshold"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An empty path falls back to the QA_SCRAPER_CONFIG environment variable.
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = fileCfg
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Parse decodes YAML and fills every unset field from Default.
func Parse(raw []byte) (Config, error) {
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}
	if err := mergo.Merge(&fileCfg, Default()); err != nil {
		return Config{}, fmt.Errorf("apply defaults: %w", err)
	}
	return fileCfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1, got %d", c.Batch.Concurrency)
	}
	if c.Matcher.PartialThreshold <= 0 || c.Matcher.PartialThreshold > 1 {
		return fmt.Errorf("matcher.partialThreshold must be in (0, 1], got %v", c.Matcher.PartialThreshold)
	}
	if c.Fetch.Delay < 0 {
		return fmt.Errorf("fetch.delay must not be negative")
	}
	if len(c.Extraction.CandidateStrategies) == 0 || len(c.Extraction.AnswerStrategies) == 0 {
		return fmt.Errorf("extraction strategies must not be empty")
	}
	if c.Schema.MaxKeywords < 1 {
		return fmt.Errorf("schema.maxKeywords must be positive")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(outputDirEnv); v != "" {
		c.Schema.OutputDir = v
	}

	if v := os.Getenv(delayEnv); v != "" {
		if d, err := parseDelay(v); err != nil {
			log.Printf("config: ignoring %s=%q: %v", delayEnv, v, err)
		} else {
			c.Fetch.Delay = d
		}
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(historyDSNEnv); v != "" {
		c.History.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

// parseDelay accepts a Go duration ("1.5s") or plain seconds ("1.5").
func parseDelay(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("not a duration: %w", err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Default returns the settings used when no file overrides them.
func Default() Config {
	return Config{
		Fetch: FetchConfig{
			Timeout:   30 * time.Second,
			Delay:     time.Second,
			UserAgent: DefaultUserAgent,
		},
		Extraction: ExtractionConfig{
			CandidateStrategies: []string{"links", "text_lines", "selectors"},
			AnswerStrategies:    []string{"list_item", "answer_selector", "emphasis_in_article", "emphasis_in_document"},
			EmphasisSelector:    "strong",
			MinQuestionLength:   10,
			MaxOptionLength:     200,
		},
		Schema: SchemaConfig{
			Version:     "1.0",
			OutputDir:   "schemas",
			MaxKeywords: 10,
		},
		Registry: RegistryConfig{
			Path:         "extension/schema_registry.json",
			ExtensionDir: "extension",
		},
		History: HistoryConfig{
			Driver: "sqlite",
			DSN:    "scrape_history.db",
		},
		Batch:   BatchConfig{Concurrency: 1},
		Matcher: MatcherConfig{PartialThreshold: 0.94},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "scraper.log",
		},
	}
}
