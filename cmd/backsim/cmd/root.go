package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backsim",
	Short: "A trade-simulation engine for backtesting signal-driven strategies",
	Long: `Backsim replays historical OHLCV bars through a strategy, a position
sizer and a risk manager, and reduces the run to an equity curve, a
trade log and summary performance metrics.

It provides tools for:
  - Backtesting built-in or configured strategies over CSV bar data
  - Percent, fixed, ATR and volatility based stop rules with optional
    trailing stops
  - Fixed-fraction, volatility-scaled and Kelly position sizing
  - Journaling trades and equity curves to CSV or SQLite`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
