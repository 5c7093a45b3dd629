package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rustyeddy/fxlot/calc"
	"github.com/rustyeddy/fxlot/input"
	"github.com/spf13/cobra"
)

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Calculate lot size, risk amount and margin ratio",
	Long: `Size a position against the current rate table.

Unset flags take their value from the defaults section of the config.

Examples:
  fxlot calc --balance 1,000,000 --risk 2.5 --stop 25 --traded USD
  fxlot calc --balance 10000 --unit USD --risk 2 --stop 20 --traded JPY --leverage 100
  fxlot calc --balance 1000000 --switch USD`,
	Args: cobra.NoArgs,
	RunE: runCalc,
}

var (
	calcBalance  string
	calcUnit     string
	calcRisk     string
	calcStop     string
	calcTraded   string
	calcLeverage string
	calcSwitch   string
	calcJSON     bool
)

func init() {
	rootCmd.AddCommand(calcCmd)

	calcCmd.Flags().StringVarP(&calcBalance, "balance", "b", "", "account balance, separators allowed")
	calcCmd.Flags().StringVarP(&calcUnit, "unit", "u", "", "balance currency (JPY or USD)")
	calcCmd.Flags().StringVarP(&calcRisk, "risk", "r", "", "risk percent, 0.5 to 30 in steps of 0.5")
	calcCmd.Flags().StringVarP(&calcStop, "stop", "s", "", "stop-loss distance in pips")
	calcCmd.Flags().StringVarP(&calcTraded, "traded", "t", "", "traded currency against JPY")
	calcCmd.Flags().StringVarP(&calcLeverage, "leverage", "l", "", "leverage, e.g. 500 or 1:500")
	calcCmd.Flags().StringVar(&calcSwitch, "switch", "", "convert the balance to this unit before calculating")
	calcCmd.Flags().BoolVar(&calcJSON, "json", false, "print the result as JSON")
}

func runCalc(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	d := a.cfg.Defaults
	req := calc.Request{
		Balance:         pick(calcBalance, d.Balance),
		BalanceCurrency: pick(calcUnit, d.BalanceCurrency),
		StopLossPips:    pick(calcStop, fmt.Sprint(d.StopLossPips)),
		Traded:          pick(calcTraded, d.Traded),
	}

	req.RiskPercent, err = input.ParseRiskPercent(pick(calcRisk, fmt.Sprint(d.RiskPercent)))
	if err != nil {
		return err
	}
	req.Leverage, err = input.ParseLeverage(pick(calcLeverage, fmt.Sprint(d.Leverage)))
	if err != nil {
		return err
	}

	engine := calc.NewEngine(a.store, nil)

	if calcSwitch != "" {
		req.Balance, err = engine.SwitchBalanceCurrency(req.Balance, req.BalanceCurrency, calcSwitch)
		if err != nil {
			return err
		}
		req.BalanceCurrency = calcSwitch
	}

	v, err := engine.Evaluate(req)
	if err != nil {
		return err
	}

	if calcJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	fmt.Printf("Balance:        %s %s\n", v.Balance, v.BalanceCurrency)
	fmt.Printf("Risk:           %s over %d pips\n", v.RiskPercent, v.StopLossPips)
	fmt.Printf("Rate:           %s (updated %s)\n", v.Rate, v.LastUpdated)
	fmt.Println()
	fmt.Printf("Lot size:       %s lots\n", v.LotSize)
	fmt.Printf("Risk amount:    %s %s (%s %s)\n", v.RiskAmount, v.BalanceCurrency, v.RiskAmountEquivalent, v.EquivalentCurrency)
	fmt.Printf("Pip value/lot:  %s %s\n", v.PipValue, v.BalanceCurrency)
	fmt.Printf("Max lot size:   %s lots at %dx\n", v.MaxLotSize, v.Leverage)
	if v.MarginRatio == "N/A" {
		fmt.Printf("Margin ratio:   %s\n", v.MarginRatio)
	} else {
		fmt.Printf("Margin ratio:   %s (%s)\n", v.MarginRatio, v.MarginBand)
	}
	return nil
}

func pick(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
