package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/finq/internal/interfaces"
	"github.com/bobmcallan/finq/internal/models"
)

var (
	filingsForms []string
	filingsSince string
	filingsLimit int

	scanForms       []string
	scanSince       string
	scanLimit       int
	scanExchange    string
	scanMaxEntities int
)

var filingsCmd = &cobra.Command{
	Use:   "filings <cik>",
	Short: "List the most recent filings for one company",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilings,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan every registrant for recent filings",
	Long: `Walks the SEC reference table in rate-limited batches and collects
matching filings until the limit is reached. Results are de-duplicated
and sorted newest first.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	filingsCmd.Flags().StringSliceVar(&filingsForms, "forms", nil, "form codes to keep, e.g. 10-K,10-Q")
	filingsCmd.Flags().StringVar(&filingsSince, "since", "", "keep filings on or after YYYY-MM-DD")
	filingsCmd.Flags().IntVarP(&filingsLimit, "limit", "n", 0, "maximum number of filings (0 uses the configured default)")
	rootCmd.AddCommand(filingsCmd)

	scanCmd.Flags().StringSliceVar(&scanForms, "forms", nil, "form codes to keep, e.g. 8-K")
	scanCmd.Flags().StringVar(&scanSince, "since", "", "keep filings on or after YYYY-MM-DD")
	scanCmd.Flags().IntVarP(&scanLimit, "limit", "n", 0, "maximum number of filings (0 uses the configured default)")
	scanCmd.Flags().StringVar(&scanExchange, "exchange", "", "restrict the scan to one exchange, e.g. NYSE")
	scanCmd.Flags().IntVar(&scanMaxEntities, "max-entities", 0, "cap on registrants scanned (0 scans all)")
	rootCmd.AddCommand(scanCmd)
}

func parseSince(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

func runFilings(cmd *cobra.Command, args []string) error {
	since, err := parseSince(filingsSince)
	if err != nil {
		return err
	}

	filings, err := filingService.CompanyFilings(context.Background(), args[0], interfaces.FilingQuery{
		Forms: filingsForms,
		Since: since,
		Limit: filingsLimit,
	})
	if err != nil {
		return fmt.Errorf("filings failed: %w", err)
	}
	return outputFilings(cmd, filings)
}

func runScan(cmd *cobra.Command, _ []string) error {
	since, err := parseSince(scanSince)
	if err != nil {
		return err
	}

	filings, err := filingService.ScanUniverse(context.Background(), interfaces.ScanQuery{
		Forms:       scanForms,
		Since:       since,
		Exchange:    scanExchange,
		Limit:       scanLimit,
		MaxEntities: scanMaxEntities,
	})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	return outputFilings(cmd, filings)
}

func outputFilings(cmd *cobra.Command, filings []models.Filing) error {
	if outputJSON {
		return printJSON(cmd, filings)
	}
	if len(filings) == 0 {
		cmd.Println("No filings found.")
		return nil
	}
	for _, f := range filings {
		who := f.CompanyName
		if f.Ticker != "" {
			who = fmt.Sprintf("%s (%s)", who, f.Ticker)
		}
		cmd.Printf("%s  %-8s %s  %s\n", f.FilingDate.Format("2006-01-02"), f.Form, f.AccessionNumber, who)
		if u := f.URL(); u != "" {
			cmd.Printf("            %s\n", u)
		}
	}
	return nil
}
