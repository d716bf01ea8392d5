package contract

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/huangsam/recap/schema"
)

// Default values for configuration.
const (
	DefaultGitLabURL      = "https://gitlab.com"
	DefaultLookbackDays   = 30
	DefaultResultLimit    = 0 // 0 = keep every record
	MaxResultLimit        = 10000
	DefaultPrecision      = 2
	DefaultWorkers        = 4
	DefaultEnrichTimeout  = "10s"
	DefaultCacheTTL       = "1 hour"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	DefaultTemperature    = 0.7
	DefaultMaxTokens      = 1024
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// CacheGranularity defines the time granularity for caching fetched events.
// This ensures consistent cache key generation across the application and tests.
const CacheGranularity = time.Hour

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a run.
// This struct remains the "final, validated" config.
type Config struct {
	Username string

	GitLabURL   string
	GitLabToken string // Please use env var as this is plaintext
	GroupID     string

	StartTime time.Time
	EndTime   time.Time
	OpenEnd   bool // no end date was given; the feed is not bounded above

	ResultLimit      int
	Workers          int
	EnrichTimeout    time.Duration
	ClampWeights     bool
	StrictTimestamps bool

	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	LogLevel   slog.Level
	LogFormat  string

	LLMProvider schema.LLMProvider
	LLMModel    string
	LLMAPIKey   string // Please use env var as this is plaintext
	LLMBaseURL  string
	Temperature float64
	MaxTokens   int

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	MetricsFile string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	Username string

	// --- Fields from rootCmd.PersistentFlags() ---
	GitLabURL        string `mapstructure:"gitlab-url"`
	GitLabToken      string `mapstructure:"gitlab-token"`
	GroupID          string `mapstructure:"group-id"`
	Start            string `mapstructure:"start"`
	End              string `mapstructure:"end"`
	Limit            int    `mapstructure:"limit"`
	Workers          int    `mapstructure:"workers"`
	EnrichTimeout    string `mapstructure:"enrich-timeout"`
	ClampWeights     bool   `mapstructure:"clamp-weights"`
	StrictTimestamps bool   `mapstructure:"strict-timestamps"`
	Precision        int    `mapstructure:"precision"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	LogLevel         string `mapstructure:"log-level"`
	LogFormat        string `mapstructure:"log-format"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	CacheTTL         string `mapstructure:"cache-ttl"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	MetricsFile      string `mapstructure:"metrics-file"`

	// --- Fields for text generation ---
	LLMProvider     string  `mapstructure:"llm-provider"`
	LLMModel        string  `mapstructure:"llm-model"`
	LLMAPIKey       string  `mapstructure:"llm-api-key"`
	LLMBaseURL      string  `mapstructure:"llm-base-url"`
	Temperature     float64 `mapstructure:"temperature"`
	MaxTokens       int     `mapstructure:"max-tokens"`
	OpenAIAPIKey    string  `mapstructure:"openai-api-key"`
	AnthropicAPIKey string  `mapstructure:"anthropic-api-key"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// GetWindowStartTime returns the configured start time, truncated to the caching granularity.
func (c *Config) GetWindowStartTime() time.Time {
	return c.StartTime.Truncate(CacheGranularity)
}

// GetWindowEndTime returns the configured end time, truncated to the caching granularity.
func (c *Config) GetWindowEndTime() time.Time {
	return c.EndTime.Truncate(CacheGranularity)
}

// RequireGitLab checks the settings needed to talk to GitLab.
func (c *Config) RequireGitLab() error {
	if c.Username == "" {
		return errors.New("username is required")
	}
	if c.GitLabToken == "" {
		return errors.New("gitlab token is required. Set GITLAB_TOKEN or RECAP_GITLAB_TOKEN")
	}
	return nil
}

// RequireLLM checks the settings needed to generate text.
func (c *Config) RequireLLM() error {
	if c.LLMAPIKey == "" {
		return fmt.Errorf("an API key is required for the %s provider", c.LLMProvider)
	}
	return nil
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processTimeRange(cfg, input, time.Now()); err != nil {
		return err
	}
	if err := processEnrichment(cfg, input); err != nil {
		return err
	}
	if err := processTextGeneration(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseLogLevel maps a level name to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", s)
	}
	return level, nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	ttl, err := ParseLookbackDuration(input.CacheTTL)
	if err != nil {
		return fmt.Errorf("invalid --cache-ttl: %w", err)
	}
	cfg.CacheTTL = ttl

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// For SQLite, resolve to actual file paths to catch default path conflicts
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		historyDBPath := cfg.HistoryDBConnect
		if historyDBPath == "" {
			historyDBPath = GetHistoryDBFilePath()
		}
		if cacheDBPath == historyDBPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates all scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.Username = strings.TrimSpace(input.Username)
	cfg.GitLabToken = input.GitLabToken
	cfg.GroupID = strings.TrimSpace(input.GroupID)
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.ClampWeights = input.ClampWeights
	cfg.StrictTimestamps = input.StrictTimestamps
	cfg.MetricsFile = input.MetricsFile

	cfg.GitLabURL = strings.TrimRight(strings.TrimSpace(input.GitLabURL), "/")
	if cfg.GitLabURL == "" {
		cfg.GitLabURL = DefaultGitLabURL
	}
	if !strings.HasPrefix(cfg.GitLabURL, "http://") && !strings.HasPrefix(cfg.GitLabURL, "https://") {
		return fmt.Errorf("gitlab url must start with http:// or https:// (received %q)", input.GitLabURL)
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	cfg.LogFormat = strings.ToLower(strings.TrimSpace(input.LogFormat))
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log format '%s'. must be text, json", input.LogFormat)
	}

	// --- 1. ResultLimit Validation ---
	if input.Limit < 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be between 0 and %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 1 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return errors.New("--output-file is required for parquet output")
	}

	return nil
}

// processTimeRange handles the date parsing and time range validation.
func processTimeRange(cfg *Config, input *ConfigRawInput, now time.Time) error {
	cfg.EndTime = now
	cfg.OpenEnd = input.End == ""
	cfg.StartTime = cfg.EndTime.Add(-DefaultLookbackDays * 24 * time.Hour)

	if input.Start != "" {
		t, err := ParseDateInput(input.Start, now)
		if err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
		cfg.StartTime = t
	}

	if input.End != "" {
		t, err := ParseDateInput(input.End, now)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
		cfg.EndTime = t
	}

	if cfg.StartTime.After(cfg.EndTime) {
		return fmt.Errorf("start time (%s) cannot be after end time (%s)", cfg.StartTime.Format(DateTimeFormat), cfg.EndTime.Format(DateTimeFormat))
	}

	return nil
}

// processEnrichment handles the enrichment timeout.
func processEnrichment(cfg *Config, input *ConfigRawInput) error {
	timeout, err := ParseLookbackDuration(input.EnrichTimeout)
	if err != nil {
		return fmt.Errorf("invalid --enrich-timeout: %w", err)
	}
	cfg.EnrichTimeout = timeout
	return nil
}

// processTextGeneration resolves the provider, model and API key.
func processTextGeneration(cfg *Config, input *ConfigRawInput) error {
	cfg.LLMProvider = schema.LLMProvider(strings.ToLower(strings.TrimSpace(input.LLMProvider)))
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = schema.OpenAIProvider
	}
	if _, ok := schema.ValidLLMProviders[cfg.LLMProvider]; !ok {
		return fmt.Errorf("invalid llm provider '%s'. must be openai, anthropic", input.LLMProvider)
	}

	cfg.LLMModel = strings.TrimSpace(input.LLMModel)
	cfg.LLMAPIKey = input.LLMAPIKey
	switch cfg.LLMProvider {
	case schema.AnthropicProvider:
		if cfg.LLMModel == "" {
			cfg.LLMModel = DefaultAnthropicModel
		}
		if cfg.LLMAPIKey == "" {
			cfg.LLMAPIKey = input.AnthropicAPIKey
		}
	default:
		if cfg.LLMModel == "" {
			cfg.LLMModel = DefaultOpenAIModel
		}
		if cfg.LLMAPIKey == "" {
			cfg.LLMAPIKey = input.OpenAIAPIKey
		}
	}
	cfg.LLMBaseURL = strings.TrimSpace(input.LLMBaseURL)

	if input.Temperature < 0 || input.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2 (received %.2f)", input.Temperature)
	}
	cfg.Temperature = input.Temperature

	if input.MaxTokens <= 0 {
		return fmt.Errorf("max-tokens must be greater than 0 (received %d)", input.MaxTokens)
	}
	cfg.MaxTokens = input.MaxTokens

	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// RevalidateRequest applies per-request overrides on top of an already validated config
// and re-checks them. Empty strings and a negative limit keep the base values.
func RevalidateRequest(cfg *Config, username, start, end string, limit int) error {
	if u := strings.TrimSpace(username); u != "" {
		cfg.Username = u
	}
	if limit >= 0 {
		if limit > MaxResultLimit {
			return fmt.Errorf("limit must be between 0 and %d (received %d)", MaxResultLimit, limit)
		}
		cfg.ResultLimit = limit
	}

	now := time.Now()
	if start != "" {
		t, err := ParseDateInput(start, now)
		if err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
		cfg.StartTime = t
	}
	if end != "" {
		t, err := ParseDateInput(end, now)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
		cfg.EndTime = t
		cfg.OpenEnd = false
	}
	if cfg.StartTime.After(cfg.EndTime) {
		return fmt.Errorf("start time (%s) cannot be after end time (%s)", cfg.StartTime.Format(DateTimeFormat), cfg.EndTime.Format(DateTimeFormat))
	}

	return cfg.RequireGitLab()
}
