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
)

// EnvPrefix prefixes every environment variable read by LoadFromEnv
const EnvPrefix = "SOCIALSCRAPER_"

// Config holds all configuration options for socialscraper
type Config struct {
	Database  DatabaseConfig  `yaml:"database" json:"database"`
	Scraper   ScraperConfig   `yaml:"scraper" json:"scraper"`
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`
	Twitter   TwitterConfig   `yaml:"twitter" json:"twitter"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Retry     RetryConfig     `yaml:"retry" json:"retry"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`

	// Requests holds named presets, keyed by preset name then network
	Requests map[string]RequestPreset `yaml:"requests,omitempty" json:"requests,omitempty"`
}

// DatabaseConfig holds the sqlite location
type DatabaseConfig struct {
	Path  string `yaml:"path" json:"path"`
	Debug bool   `yaml:"debug" json:"debug"`
}

// ScraperConfig holds options shared by every network scraper
type ScraperConfig struct {
	// Record persists a scrape record after every fetch
	Record bool `yaml:"record" json:"record"`
	// RecordExpires is the freshness window; zero disables the check
	RecordExpires time.Duration `yaml:"record_expires" json:"record_expires"`
	// SuppressFailures lets failed records block retries inside the window
	SuppressFailures bool   `yaml:"suppress_failures" json:"suppress_failures"`
	MaxPages         int    `yaml:"max_pages" json:"max_pages"`
	Origin           string `yaml:"origin" json:"origin"`
}

// InstagramConfig holds Instagram API settings
type InstagramConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	AccessToken string        `yaml:"access_token" json:"access_token"`
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	UserID      string        `yaml:"user_id" json:"user_id"`
	Count       int           `yaml:"count" json:"count"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// TwitterConfig holds Twitter API settings
type TwitterConfig struct {
	Enabled        bool          `yaml:"enabled" json:"enabled"`
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	TokenURL       string        `yaml:"token_url" json:"token_url"`
	ConsumerKey    string        `yaml:"consumer_key" json:"consumer_key"`
	ConsumerSecret string        `yaml:"consumer_secret" json:"consumer_secret"`
	BearerToken    string        `yaml:"bearer_token" json:"bearer_token"`
	UserID         string        `yaml:"user_id" json:"user_id"`
	ScreenName     string        `yaml:"screen_name" json:"screen_name"`
	Count          int           `yaml:"count" json:"count"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds request pacing configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds transport retry configuration
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// ServerConfig holds the import endpoint settings
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// RequestPreset maps a network name to the request it should issue
type RequestPreset map[string]RequestSpec

// RequestSpec is a repository/method/filters bundle
type RequestSpec struct {
	Repository string                 `yaml:"repository" json:"repository"`
	Method     string                 `yaml:"method" json:"method"`
	Filters    map[string]interface{} `yaml:"filters" json:"filters"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "socialscraper.db",
		},
		Scraper: ScraperConfig{
			Record:           true,
			RecordExpires:    time.Hour,
			SuppressFailures: true,
			Origin:           "socialscraper",
		},
		Instagram: InstagramConfig{
			Enabled: true,
			BaseURL: "https://api.instagram.com/v1",
			UserID:  "self",
			Timeout: 30 * time.Second,
		},
		Twitter: TwitterConfig{
			Enabled:  true,
			BaseURL:  "https://api.twitter.com/1.1",
			TokenURL: "https://api.twitter.com/oauth2/token",
			Count:    200,
			Timeout:  30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         1,
		},
		Retry: RetryConfig{
			MaxAttempts: 1,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	setString("DB_PATH", &c.Database.Path)
	setDuration("RECORD_EXPIRES", &c.Scraper.RecordExpires)
	setInt("MAX_PAGES", &c.Scraper.MaxPages)

	setString("INSTAGRAM_ACCESS_TOKEN", &c.Instagram.AccessToken)
	setString("INSTAGRAM_USER_ID", &c.Instagram.UserID)

	setString("TWITTER_CONSUMER_KEY", &c.Twitter.ConsumerKey)
	setString("TWITTER_CONSUMER_SECRET", &c.Twitter.ConsumerSecret)
	setString("TWITTER_BEARER_TOKEN", &c.Twitter.BearerToken)
	setString("TWITTER_USER_ID", &c.Twitter.UserID)
	setString("TWITTER_SCREEN_NAME", &c.Twitter.ScreenName)

	setInt("REQUESTS_PER_MINUTE", &c.RateLimit.RequestsPerMinute)
	setInt("RETRY_MAX_ATTEMPTS", &c.Retry.MaxAttempts)

	setString("SERVER_ADDR", &c.Server.Addr)
	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FORMAT", &c.Logging.Format)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
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

// DefaultPath is where `config init` writes when no path is given
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "socialscraper", "config.yaml")
}

func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".socialscraper.yaml",
		".socialscraper.yml",
		filepath.Join(home, ".config", "socialscraper", "config.yaml"),
		filepath.Join(home, ".config", "socialscraper", "config.yml"),
		"/etc/socialscraper/config.yaml",
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Database.Path == "" {
		errs = append(errs, errors.New("database path is required"))
	}

	if c.Scraper.RecordExpires < 0 {
		errs = append(errs, errors.New("record expiry cannot be negative"))
	}
	if c.Scraper.MaxPages < 0 {
		errs = append(errs, errors.New("max pages cannot be negative"))
	}

	if c.Instagram.Enabled && c.Instagram.BaseURL == "" {
		errs = append(errs, errors.New("instagram base URL is required"))
	}
	if c.Twitter.Enabled && c.Twitter.BaseURL == "" {
		errs = append(errs, errors.New("twitter base URL is required"))
	}
	if c.Instagram.Count < 0 || c.Twitter.Count < 0 {
		errs = append(errs, errors.New("page count cannot be negative"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}
	if f := strings.ToLower(c.Logging.Format); f != "" && f != "console" && f != "json" {
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Logging.Format))
	}

	for name, preset := range c.Requests {
		for network, spec := range preset {
			if spec.Repository == "" || spec.Method == "" {
				errs = append(errs, fmt.Errorf("request %q for %s needs a repository and a method", name, network))
			}
		}
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if path, ok := flags["db"].(string); ok && path != "" {
		c.Database.Path = path
	}
	if level, ok := flags["log-level"].(string); ok && level != "" {
		c.Logging.Level = level
	}
	if format, ok := flags["log-format"].(string); ok && format != "" {
		c.Logging.Format = format
	}
	if expires, ok := flags["record-expires"].(time.Duration); ok && expires >= 0 {
		c.Scraper.RecordExpires = expires
	}
	if pages, ok := flags["max-pages"].(int); ok && pages > 0 {
		c.Scraper.MaxPages = pages
	}
	if addr, ok := flags["addr"].(string); ok && addr != "" {
		c.Server.Addr = addr
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".socialscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
