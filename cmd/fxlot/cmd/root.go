package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fxlot",
	Short: "FX position-sizing calculator with a JPY rate pipeline",
	Long: `fxlot sizes FX positions from an account balance, a risk percentage and
a stop-loss distance.

It provides tools for:
  - Lot size and risk amount for JPY or USD accounts
  - Maximum lot size and projected margin ratio under leverage
  - Fetching JPY cross rates from the quote provider
  - Keeping a SQLite history of fetched rates
  - Serving the calculator over HTTP

Complete documentation is available at https://github.com/rustyeddy/fxlot`,
	SilenceUsage: true,
}

var (
	cfgFile string
	envFile string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON, defaults built in)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with FXLOT_* overrides")
}
