package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_DefaultPort(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8080)
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("FINQ_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_InvalidPortEnvIgnored(t *testing.T) {
	t.Setenv("FINQ_PORT", "not-a-port")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestConfig_APIKeyEnvOverrides(t *testing.T) {
	t.Setenv("EODHD_API_KEY", "eodhd-from-env")
	t.Setenv("GOOGLE_API_KEY", "gemini-from-env")
	t.Setenv("SEC_USER_AGENT", "Acme Research ops@acme.test")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Clients.EODHD.APIKey != "eodhd-from-env" {
		t.Errorf("EODHD.APIKey = %q, want %q", cfg.Clients.EODHD.APIKey, "eodhd-from-env")
	}
	if cfg.Clients.Gemini.APIKey != "gemini-from-env" {
		t.Errorf("Gemini.APIKey = %q, want %q", cfg.Clients.Gemini.APIKey, "gemini-from-env")
	}
	if cfg.Clients.SEC.UserAgent != "Acme Research ops@acme.test" {
		t.Errorf("SEC.UserAgent = %q", cfg.Clients.SEC.UserAgent)
	}
}

func TestConfig_GeminiKeyPrecedence(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "primary")
	t.Setenv("GOOGLE_API_KEY", "secondary")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Clients.Gemini.APIKey != "primary" {
		t.Errorf("Gemini.APIKey = %q, want primary", cfg.Clients.Gemini.APIKey)
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "finq.toml")
	content := `
environment = "production"

[server]
port = 7070

[filings]
batch_size = 3
batch_delay = "250ms"

[documents]
top_n = 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FINQ_BATCH_SIZE", "4")

	cfg, err := LoadConfig(filepath.Join(dir, "missing.toml"), path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if !cfg.IsProduction() {
		t.Error("expected production environment")
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Filings.BatchSize != 4 {
		t.Errorf("Filings.BatchSize = %d, want env override 4", cfg.Filings.BatchSize)
	}
	if cfg.Filings.GetBatchDelay() != 250*time.Millisecond {
		t.Errorf("BatchDelay = %v, want 250ms", cfg.Filings.GetBatchDelay())
	}
	if cfg.Documents.TopN != 5 {
		t.Errorf("Documents.TopN = %d, want 5", cfg.Documents.TopN)
	}
	// Untouched sections keep defaults
	if cfg.Documents.FallbackPreviewChars != 8000 {
		t.Errorf("FallbackPreviewChars = %d, want default 8000", cfg.Documents.FallbackPreviewChars)
	}
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("[server\nport ="), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("expected parse error for invalid TOML")
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Resolver.GetTableTTL() != 0 {
		t.Errorf("default TableTTL = %v, want 0", cfg.Resolver.GetTableTTL())
	}
	cfg.Resolver.TableTTL = "15m"
	if cfg.Resolver.GetTableTTL() != 15*time.Minute {
		t.Errorf("TableTTL = %v, want 15m", cfg.Resolver.GetTableTTL())
	}

	cfg.Clients.SEC.Timeout = "garbage"
	if cfg.Clients.SEC.GetTimeout() != 30*time.Second {
		t.Errorf("SEC timeout fallback = %v, want 30s", cfg.Clients.SEC.GetTimeout())
	}
	if cfg.Filings.GetScanTimeout() != 10*time.Minute {
		t.Errorf("ScanTimeout = %v, want 10m", cfg.Filings.GetScanTimeout())
	}
}

func TestSharePointConfig_Enabled(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Clients.SharePoint.Enabled() {
		t.Error("SharePoint should be disabled without credentials")
	}
	cfg.Clients.SharePoint.TenantID = "tenant"
	cfg.Clients.SharePoint.ClientID = "client"
	cfg.Clients.SharePoint.ClientSecret = "secret"
	if !cfg.Clients.SharePoint.Enabled() {
		t.Error("SharePoint should be enabled with full credentials")
	}
}
