package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/finq/internal/app"
	"github.com/bobmcallan/finq/internal/interfaces"
)

var (
	configPath string
	outputJSON bool

	// set by PersistentPreRunE, or directly by tests
	resolverService interfaces.IdentifierResolver
	filingService   interfaces.FilingService
)

var rootCmd = &cobra.Command{
	Use:           "finq",
	Short:         "Resolve companies and retrieve SEC filings",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to finq.toml (default: FINQ_CONFIG, then finq.toml beside the binary)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output results as JSON")
}

// initServices builds the app once; services already set are kept.
func initServices() error {
	if resolverService != nil && filingService != nil {
		return nil
	}
	a, err := app.NewApp(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	if resolverService == nil {
		resolverService = a.Resolver
	}
	if filingService == nil {
		filingService = a.FilingService
	}
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
