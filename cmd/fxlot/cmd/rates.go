package cmd

import (
	"fmt"

	"github.com/rustyeddy/fxlot/calc"
	"github.com/rustyeddy/fxlot/journal"
	"github.com/rustyeddy/fxlot/market"
	"github.com/spf13/cobra"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Show, fetch or list JPY cross rates",
	Long: `Manage the rate table used by the calculator.

Subcommands:
  show     - Print the current rate table
  fetch    - Fetch all rates from the quote provider
  history  - List journaled rate snapshots

Examples:
  fxlot rates show
  FXLOT_API_KEY=... fxlot rates fetch
  fxlot rates history --limit 5 --org`,
}

var ratesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current rate table",
	Args:  cobra.NoArgs,
	RunE:  runRatesShow,
}

var ratesFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch all rates from the quote provider",
	Long: `Request every quoted currency against JPY, one at a time, spaced by
provider.request_delay. The table is replaced only when every request
succeeds; successful fetches are written to the journal.`,
	Args: cobra.NoArgs,
	RunE: runRatesFetch,
}

var ratesHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List journaled rate snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRatesHistory,
}

var (
	ratesHistoryLimit int
	ratesHistoryOrg   bool
)

func init() {
	rootCmd.AddCommand(ratesCmd)
	ratesCmd.AddCommand(ratesShowCmd)
	ratesCmd.AddCommand(ratesFetchCmd)
	ratesCmd.AddCommand(ratesHistoryCmd)

	ratesHistoryCmd.Flags().IntVarP(&ratesHistoryLimit, "limit", "n", 10, "number of snapshots to list")
	ratesHistoryCmd.Flags().BoolVar(&ratesHistoryOrg, "org", false, "print snapshots as Org-mode entries")
}

func runRatesShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	printTable(a.store.Load().Rates)
	fmt.Printf("\nLast updated: %s\n", calc.FormatUpdated(a.store.Load().UpdatedAt))
	return nil
}

func runRatesFetch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := a.fetcher()
	if err != nil {
		return err
	}

	fmt.Printf("Fetching %d rates (request delay %s)...\n", len(market.Quoted), a.cfg.Provider.RequestDelay)
	tbl, err := f.Fetch(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println("✓ Rates updated")
	printTable(tbl)
	return nil
}

func runRatesHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if a.journal == nil {
		return fmt.Errorf("journal is disabled in the configuration")
	}

	recs, err := a.journal.List(cmd.Context(), ratesHistoryLimit)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	if len(recs) == 0 {
		fmt.Println("No rate snapshots recorded")
		return nil
	}

	if ratesHistoryOrg {
		fmt.Print(journal.FormatSnapshotsOrg(recs))
		return nil
	}

	fmt.Printf("%-26s  %-20s", "ID", "FETCHED")
	for _, c := range market.Quoted {
		fmt.Printf("  %8s", c)
	}
	fmt.Println()
	for _, rec := range recs {
		fmt.Printf("%-26s  %-20s", rec.ID, calc.FormatUpdated(rec.FetchedAt.Local()))
		for _, c := range market.Quoted {
			r, _ := rec.Rates.Get(c)
			fmt.Printf("  %8s", r.StringFixed(2))
		}
		fmt.Println()
	}
	return nil
}

func printTable(tbl market.RateTable) {
	for _, c := range market.Currencies {
		r, err := tbl.Get(c)
		if err != nil {
			continue
		}
		fmt.Println(calc.FormatRate(c, r))
	}
}
