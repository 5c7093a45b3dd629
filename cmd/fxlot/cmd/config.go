package cmd

import (
	"fmt"

	"github.com/rustyeddy/fxlot/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage fxlot configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  fxlot config init -o fxlot.yaml
  fxlot config validate -f fxlot.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "fxlot.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  fxlot serve --config %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("✓ Configuration valid: %s\n", configValidatePath)
	fmt.Printf("  Provider: %s (delay %s)\n", cfg.Provider.BaseURL, cfg.Provider.RequestDelay)
	if cfg.Refresh.Enabled {
		fmt.Printf("  Refresh: %s\n", cfg.Refresh.Schedule)
	} else {
		fmt.Println("  Refresh: disabled")
	}
	if cfg.Journal.Enabled {
		fmt.Printf("  Journal: %s\n", cfg.Journal.DBPath)
	} else {
		fmt.Println("  Journal: disabled")
	}
	fmt.Printf("  Server: %s\n", cfg.Server.Addr)
	fmt.Printf("  Defaults: %s %s, %.1f%% risk, %d pips, %s, %dx\n",
		cfg.Defaults.Balance, cfg.Defaults.BalanceCurrency, cfg.Defaults.RiskPercent,
		cfg.Defaults.StopLossPips, cfg.Defaults.Traded, cfg.Defaults.Leverage)
	return nil
}
