// Package app wires configuration, clients and services into one shared core
// used by cmd/finq-server and cmd/finq.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/bobmcallan/finq/internal/clients/eodhd"
	"github.com/bobmcallan/finq/internal/clients/gemini"
	"github.com/bobmcallan/finq/internal/clients/sec"
	"github.com/bobmcallan/finq/internal/clients/sharepoint"
	"github.com/bobmcallan/finq/internal/common"
	"github.com/bobmcallan/finq/internal/extract"
	"github.com/bobmcallan/finq/internal/interfaces"
	"github.com/bobmcallan/finq/internal/metrics"
	"github.com/bobmcallan/finq/internal/services/documents"
	"github.com/bobmcallan/finq/internal/services/filings"
	"github.com/bobmcallan/finq/internal/services/query"
	"github.com/bobmcallan/finq/internal/services/reference"
	"github.com/bobmcallan/finq/internal/services/resolver"
)

// App holds all initialized clients and services.
// Optional capabilities (EODHD, Gemini, SharePoint) are nil when unconfigured.
type App struct {
	Config  *common.Config
	Logger  *common.Logger
	Metrics *metrics.Metrics

	SECClient     interfaces.SECClient
	EODHDClient   interfaces.EODHDClient
	Summarizer    interfaces.Summarizer
	DocumentIndex interfaces.DocumentIndex

	References      *reference.Cache
	ResolutionCache *resolver.Cache
	Resolver        interfaces.IdentifierResolver
	FilingService   interfaces.FilingService
	DocumentService interfaces.DocumentService
	QueryService    interfaces.QueryService

	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the explicit path, FINQ_CONFIG,
// finq.toml beside the binary, then config/finq.toml for development.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("FINQ_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "finq.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/finq.toml"
		}
	}
	return configPath
}

// NewApp loads .env and configuration, then initializes the app.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	return New(context.Background(), config, logger)
}

// New builds clients and services from an already-loaded config.
func New(ctx context.Context, config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	m := metrics.New()

	secCfg := config.Clients.SEC
	secClient := sec.NewClient(secCfg.UserAgent,
		sec.WithBaseURL(secCfg.BaseURL),
		sec.WithDataURL(secCfg.DataURL),
		sec.WithLogger(logger),
		sec.WithRateLimit(secCfg.RateLimit),
		sec.WithTimeout(secCfg.GetTimeout()),
	)

	a := &App{
		Config:      config,
		Logger:      logger,
		Metrics:     m,
		SECClient:   secClient,
		StartupTime: startupStart,
	}

	if key := config.Clients.EODHD.APIKey; key != "" {
		eodhdCfg := config.Clients.EODHD
		a.EODHDClient = eodhd.NewClient(key,
			eodhd.WithBaseURL(eodhdCfg.BaseURL),
			eodhd.WithLogger(logger),
			eodhd.WithRateLimit(eodhdCfg.RateLimit),
			eodhd.WithTimeout(eodhdCfg.GetTimeout()),
		)
	} else {
		logger.Warn().Msg("EODHD API key not configured - fundamentals and news will be unavailable")
	}

	if key := config.Clients.Gemini.APIKey; key != "" {
		geminiClient, err := gemini.NewClient(ctx, key,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client")
		} else {
			a.Summarizer = geminiClient
		}
	} else {
		logger.Warn().Msg("Gemini API key not configured - summaries will be empty")
	}

	if spCfg := config.Clients.SharePoint; spCfg.Enabled() {
		a.DocumentIndex = sharepoint.NewClient(spCfg.TenantID, spCfg.ClientID, spCfg.ClientSecret,
			sharepoint.WithBaseURL(spCfg.BaseURL),
			sharepoint.WithRegion(spCfg.Region),
			sharepoint.WithLogger(logger),
			sharepoint.WithRateLimit(spCfg.RateLimit),
			sharepoint.WithTimeout(spCfg.GetTimeout()),
		)
	} else {
		logger.Info().Msg("SharePoint credentials not configured - document search disabled")
	}

	a.References = reference.NewCache(secClient, config.Resolver.GetTableTTL(), logger, m)
	a.ResolutionCache = resolver.NewCache()
	a.Resolver = resolver.NewResolver(a.References, a.ResolutionCache, logger, m)
	a.FilingService = filings.NewService(secClient, a.References, config.Filings, logger, m)

	if a.DocumentIndex != nil {
		a.DocumentService = documents.NewService(
			a.DocumentIndex,
			extract.New(extract.WithLogger(logger)),
			a.Summarizer,
			config.Documents,
			logger,
			m,
		)
	}

	a.QueryService = query.NewService(a.Resolver, a.FilingService, a.EODHDClient, a.Summarizer, logger)

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}
