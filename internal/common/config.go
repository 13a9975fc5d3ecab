// Package common provides shared utilities for finq
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for finq
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Clients     ClientsConfig   `toml:"clients"`
	Resolver    ResolverConfig  `toml:"resolver"`
	Filings     FilingsConfig   `toml:"filings"`
	Documents   DocumentsConfig `toml:"documents"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	SEC        SECConfig        `toml:"sec"`
	EODHD      EODHDConfig      `toml:"eodhd"`
	Gemini     GeminiConfig     `toml:"gemini"`
	SharePoint SharePointConfig `toml:"sharepoint"`
}

// SECConfig holds SEC EDGAR configuration.
// EDGAR rejects requests without a descriptive User-Agent.
type SECConfig struct {
	BaseURL   string `toml:"base_url"`
	DataURL   string `toml:"data_url"`
	UserAgent string `toml:"user_agent"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *SECConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// SharePointConfig holds Microsoft Graph app-only credentials and the search scope.
type SharePointConfig struct {
	TenantID     string `toml:"tenant_id"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	BaseURL      string `toml:"base_url"`
	Region       string `toml:"region"` // Graph search region for app-only queries, e.g. "NAM"
	RateLimit    int    `toml:"rate_limit"`
	Timeout      string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *SharePointConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 60*time.Second)
}

// Enabled reports whether enough credentials are present to call Graph.
func (c *SharePointConfig) Enabled() bool {
	return c.TenantID != "" && c.ClientID != "" && c.ClientSecret != ""
}

// ResolverConfig controls the reference table cache
type ResolverConfig struct {
	TableTTL string `toml:"table_ttl"` // "0" re-fetches the table on every cache miss
}

// GetTableTTL parses the table TTL; zero disables table memoization.
func (c *ResolverConfig) GetTableTTL() time.Duration {
	return parseDuration(c.TableTTL, 0)
}

// FilingsConfig controls batched filing retrieval
type FilingsConfig struct {
	BatchSize    int    `toml:"batch_size"`
	BatchDelay   string `toml:"batch_delay"`
	MaxRetries   int    `toml:"max_retries"`
	DefaultLimit int    `toml:"default_limit"`
	MaxLimit     int    `toml:"max_limit"`
	ScanTimeout  string `toml:"scan_timeout"`
}

// GetBatchDelay parses and returns the inter-window delay
func (c *FilingsConfig) GetBatchDelay() time.Duration {
	return parseDuration(c.BatchDelay, time.Second)
}

// GetScanTimeout parses and returns the upper bound for a detached scan
func (c *FilingsConfig) GetScanTimeout() time.Duration {
	return parseDuration(c.ScanTimeout, 10*time.Minute)
}

// DocumentsConfig controls candidate ranking for document search
type DocumentsConfig struct {
	MaxCandidates        int `toml:"max_candidates"`
	TopN                 int `toml:"top_n"`
	PreviewChars         int `toml:"preview_chars"`
	FallbackPreviewChars int `toml:"fallback_preview_chars"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Clients: ClientsConfig{
			SEC: SECConfig{
				BaseURL:   "https://www.sec.gov",
				DataURL:   "https://data.sec.gov",
				UserAgent: "finq admin@example.com",
				RateLimit: 10,
				Timeout:   "30s",
			},
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
			SharePoint: SharePointConfig{
				BaseURL:   "https://graph.microsoft.com/v1.0",
				Region:    "NAM",
				RateLimit: 5,
				Timeout:   "60s",
			},
		},
		Resolver: ResolverConfig{
			TableTTL: "0",
		},
		Filings: FilingsConfig{
			BatchSize:    8,
			BatchDelay:   "1s",
			MaxRetries:   0,
			DefaultLimit: 20,
			MaxLimit:     200,
			ScanTimeout:  "10m",
		},
		Documents: DocumentsConfig{
			MaxCandidates:        25,
			TopN:                 3,
			PreviewChars:         2000,
			FallbackPreviewChars: 8000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FINQ_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FINQ_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FINQ_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FINQ_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if format := os.Getenv("FINQ_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if ua := firstEnv("SEC_USER_AGENT", "FINQ_SEC_USER_AGENT"); ua != "" {
		config.Clients.SEC.UserAgent = ua
	}

	if key := firstEnv("EODHD_API_KEY", "FINQ_EODHD_API_KEY"); key != "" {
		config.Clients.EODHD.APIKey = key
	}

	if key := firstEnv("GEMINI_API_KEY", "FINQ_GEMINI_API_KEY", "GOOGLE_API_KEY"); key != "" {
		config.Clients.Gemini.APIKey = key
	}

	if v := os.Getenv("SHAREPOINT_TENANT_ID"); v != "" {
		config.Clients.SharePoint.TenantID = v
	}
	if v := os.Getenv("SHAREPOINT_CLIENT_ID"); v != "" {
		config.Clients.SharePoint.ClientID = v
	}
	if v := os.Getenv("SHAREPOINT_CLIENT_SECRET"); v != "" {
		config.Clients.SharePoint.ClientSecret = v
	}

	if v := os.Getenv("FINQ_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Filings.BatchSize = n
		}
	}
	if v := os.Getenv("FINQ_BATCH_DELAY"); v != "" {
		config.Filings.BatchDelay = v
	}
	if v := os.Getenv("FINQ_TABLE_TTL"); v != "" {
		config.Resolver.TableTTL = v
	}
}

// firstEnv returns the first non-empty value among the named variables.
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses s, returning fallback when s is empty or invalid.
func parseDuration(s string, fallback time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if s == "0" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
