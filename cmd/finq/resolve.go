package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/finq/internal/models"
)

var (
	resolveName   string
	resolveTicker string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a company name or ticker to its SEC CIK",
	Long: `Looks the company up in the SEC reference table. An exact ticker
match wins over a name match; the first name containing the search text
is used otherwise.`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveName, "name", "", "company name or part of it")
	resolveCmd.Flags().StringVar(&resolveTicker, "ticker", "", "ticker symbol")
	rootCmd.AddCommand(resolveCmd)
}

type resolveResult struct {
	CIK    string `json:"cik,omitempty"`
	Ticker string `json:"ticker,omitempty"`
	Found  bool   `json:"found"`
}

func runResolve(cmd *cobra.Command, _ []string) error {
	if strings.TrimSpace(resolveName) == "" && strings.TrimSpace(resolveTicker) == "" {
		return errors.New("one of --name or --ticker is required")
	}

	ctx := context.Background()
	result := resolveResult{Ticker: strings.ToUpper(strings.TrimSpace(resolveTicker))}

	cik, err := resolverService.Resolve(ctx, resolveName, resolveTicker)
	switch {
	case err == nil:
		result.CIK = cik
		result.Found = true
		if result.Ticker == "" {
			if t, err := resolverService.TickerForCIK(ctx, cik); err == nil {
				result.Ticker = t
			}
		}
	case errors.Is(err, models.ErrNotFound):
	default:
		return fmt.Errorf("resolve failed: %w", err)
	}

	if outputJSON {
		return printJSON(cmd, result)
	}
	if !result.Found {
		cmd.Println("No matching company found.")
		return nil
	}
	cmd.Printf("CIK:    %s\n", result.CIK)
	if result.Ticker != "" {
		cmd.Printf("Ticker: %s\n", result.Ticker)
	}
	return nil
}
