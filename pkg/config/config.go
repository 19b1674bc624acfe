package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	errs "steamreviews/pkg/errors"
	"steamreviews/pkg/models"
)

// Config holds all configuration options for the review scraper
type Config struct {
	// Upstream review API
	Steam SteamConfig `yaml:"steam" json:"steam"`

	// Date window reviews are restricted to
	Window WindowConfig `yaml:"window" json:"window"`

	// Page walking limits and the per-day admission cap
	Pagination PaginationConfig `yaml:"pagination" json:"pagination"`

	// Retry policy for page fetches
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Politeness throttle between pages
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Report output
	Output OutputConfig `yaml:"output" json:"output"`

	// Resume state
	Checkpoint CheckpointConfig `yaml:"checkpoint" json:"checkpoint"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SteamConfig holds the review API parameters
type SteamConfig struct {
	AppID          string        `yaml:"app_id" json:"app_id"`
	APIKey         string        `yaml:"api_key" json:"api_key"`
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	Language       string        `yaml:"language" json:"language"`
	Filter         string        `yaml:"filter" json:"filter"`
	ReviewType     string        `yaml:"review_type" json:"review_type"`
	PurchaseType   string        `yaml:"purchase_type" json:"purchase_type"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// WindowConfig holds the YYYY-MM-DD bounds of the date window
type WindowConfig struct {
	StartDate string `yaml:"start_date" json:"start_date"`
	EndDate   string `yaml:"end_date" json:"end_date"`
}

// PaginationConfig holds page walking limits
type PaginationConfig struct {
	PageSize int `yaml:"page_size" json:"page_size"`
	MaxPages int `yaml:"max_pages" json:"max_pages"`
	DailyCap int `yaml:"daily_cap" json:"daily_cap"`
}

// RetryConfig holds retry configuration for transient upstream failures
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier"`
}

// RateLimitConfig holds the inter-page throttle
type RateLimitConfig struct {
	PageDelay         time.Duration `yaml:"page_delay" json:"page_delay"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig holds report output configuration
type OutputConfig struct {
	ReportPath string `yaml:"report_path" json:"report_path"`
	Summary    bool   `yaml:"summary" json:"summary"`
	UTF8BOM    bool   `yaml:"utf8_bom" json:"utf8_bom"`
}

// CheckpointConfig holds checkpoint file configuration
type CheckpointConfig struct {
	Path string `yaml:"path" json:"path"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Steam: SteamConfig{
			AppID:          "730",
			BaseURL:        "https://store.steampowered.com",
			Language:       "all",
			Filter:         "all",
			ReviewType:     "all",
			PurchaseType:   "all",
			RequestTimeout: 10 * time.Second,
		},
		Window: WindowConfig{
			StartDate: "2024-11-01",
			EndDate:   "2024-12-11",
		},
		Pagination: PaginationConfig{
			PageSize: 1000,
			MaxPages: 100,
			DailyCap: 100,
		},
		Retry: RetryConfig{
			MaxAttempts: 6,
			BaseDelay:   1 * time.Second,
			MaxDelay:    30 * time.Second,
			Multiplier:  2.0,
		},
		RateLimit: RateLimitConfig{
			PageDelay:         100 * time.Millisecond,
			RequestsPerMinute: 0, // 0 disables the token bucket
		},
		Output: OutputConfig{
			ReportPath: "cs2_reviews.csv",
			Summary:    true,
			UTF8BOM:    true,
		},
		Checkpoint: CheckpointConfig{
			Path: "state.json",
		},
		Notifications: NotificationConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if appID := os.Getenv("STEAMREVIEWS_APP_ID"); appID != "" {
		c.Steam.AppID = appID
	}
	if apiKey := os.Getenv("STEAMREVIEWS_API_KEY"); apiKey != "" {
		c.Steam.APIKey = apiKey
	}
	if baseURL := os.Getenv("STEAMREVIEWS_BASE_URL"); baseURL != "" {
		c.Steam.BaseURL = baseURL
	}

	if start := os.Getenv("STEAMREVIEWS_START_DATE"); start != "" {
		c.Window.StartDate = start
	}
	if end := os.Getenv("STEAMREVIEWS_END_DATE"); end != "" {
		c.Window.EndDate = end
	}

	if err := envInt("STEAMREVIEWS_PAGE_SIZE", &c.Pagination.PageSize); err != nil {
		return err
	}
	if err := envInt("STEAMREVIEWS_MAX_PAGES", &c.Pagination.MaxPages); err != nil {
		return err
	}
	if err := envInt("STEAMREVIEWS_DAILY_CAP", &c.Pagination.DailyCap); err != nil {
		return err
	}

	if output := os.Getenv("STEAMREVIEWS_OUTPUT"); output != "" {
		c.Output.ReportPath = output
	}
	if cp := os.Getenv("STEAMREVIEWS_CHECKPOINT"); cp != "" {
		c.Checkpoint.Path = cp
	}

	if notifEnabled := os.Getenv("STEAMREVIEWS_NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = strings.ToLower(notifEnabled) == "true"
	}

	if logLevel := os.Getenv("STEAMREVIEWS_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

func envInt(key string, target *int) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = val
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".steamreviews.yaml",
		".steamreviews.yml",
		filepath.Join(home, ".config", "steamreviews", "config.yaml"),
		filepath.Join(home, ".config", "steamreviews", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// StartDay returns the parsed window start
func (c *Config) StartDay() (models.DayKey, error) {
	return models.ParseDay(c.Window.StartDate)
}

// EndDay returns the parsed window end
func (c *Config) EndDay() (models.DayKey, error) {
	return models.ParseDay(c.Window.EndDate)
}

// Validate checks if the configuration is valid. Any failure is a config error.
func (c *Config) Validate() error {
	var errList []error

	if c.Steam.AppID == "" {
		errList = append(errList, errors.New("app id is required"))
	}
	if c.Steam.BaseURL == "" {
		errList = append(errList, errors.New("base url is required"))
	}
	if c.Steam.RequestTimeout <= 0 {
		errList = append(errList, errors.New("request timeout must be positive"))
	}

	start, startErr := c.StartDay()
	if startErr != nil {
		errList = append(errList, fmt.Errorf("invalid start date %q: expected YYYY-MM-DD", c.Window.StartDate))
	}
	end, endErr := c.EndDay()
	if endErr != nil {
		errList = append(errList, fmt.Errorf("invalid end date %q: expected YYYY-MM-DD", c.Window.EndDate))
	}
	if startErr == nil && endErr == nil && end < start {
		errList = append(errList, errors.New("end date must not be before start date"))
	}

	if c.Pagination.PageSize <= 0 {
		errList = append(errList, errors.New("page size must be positive"))
	}
	if c.Pagination.MaxPages <= 0 {
		errList = append(errList, errors.New("max pages must be positive"))
	}
	if c.Pagination.DailyCap <= 0 {
		errList = append(errList, errors.New("daily cap must be positive"))
	}

	if c.Retry.MaxAttempts <= 0 {
		errList = append(errList, errors.New("retry max attempts must be positive"))
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < 0 {
		errList = append(errList, errors.New("retry delays cannot be negative"))
	}
	if c.RateLimit.PageDelay < 0 {
		errList = append(errList, errors.New("page delay cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		errList = append(errList, errors.New("requests per minute cannot be negative"))
	}

	if c.Output.ReportPath == "" {
		errList = append(errList, errors.New("output path is required"))
	} else if info, err := os.Stat(c.Output.ReportPath); err == nil && info.IsDir() {
		errList = append(errList, fmt.Errorf("output path %s is a directory", c.Output.ReportPath))
	}
	if c.Checkpoint.Path == "" {
		errList = append(errList, errors.New("checkpoint path is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errList = append(errList, errors.New("invalid log level"))
	}

	if len(errList) > 0 {
		return errs.NewConfigError(errors.Join(errList...))
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if appID, ok := flags["app-id"].(string); ok && appID != "" {
		c.Steam.AppID = appID
	}
	if apiKey, ok := flags["api-key"].(string); ok && apiKey != "" {
		c.Steam.APIKey = apiKey
	}
	if start, ok := flags["start"].(string); ok && start != "" {
		c.Window.StartDate = start
	}
	if end, ok := flags["end"].(string); ok && end != "" {
		c.Window.EndDate = end
	}
	if pageSize, ok := flags["page-size"].(int); ok && pageSize > 0 {
		c.Pagination.PageSize = pageSize
	}
	if maxPages, ok := flags["max-pages"].(int); ok && maxPages > 0 {
		c.Pagination.MaxPages = maxPages
	}
	if dailyCap, ok := flags["daily-cap"].(int); ok && dailyCap > 0 {
		c.Pagination.DailyCap = dailyCap
	}
	if output, ok := flags["output"].(string); ok && output != "" {
		c.Output.ReportPath = output
	}
	if checkpoint, ok := flags["checkpoint"].(string); ok && checkpoint != "" {
		c.Checkpoint.Path = checkpoint
	}
	if enabled, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = enabled
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".steamreviews.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, errs.NewConfigError(fmt.Errorf("failed to load config file: %w", err))
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, errs.NewConfigError(fmt.Errorf("failed to load environment variables: %w", err))
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
