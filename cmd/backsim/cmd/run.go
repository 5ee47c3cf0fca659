package cmd

import (
	"fmt"
	"math"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantlab/backsim/backtest"
	"github.com/quantlab/backsim/config"
	"github.com/quantlab/backsim/journal"
	"github.com/quantlab/backsim/market"
	"github.com/quantlab/backsim/risk"
	"github.com/quantlab/backsim/sizing"
	"github.com/quantlab/backsim/strategies"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest over a CSV bar series",
	Long: `Run replays a CSV (optionally xz-compressed) bar series through the
configured strategy, sizer and risk rules and prints a performance
summary.

Example:
  backsim run --data data/spy_daily.csv --strategy ema_cross --fast 12 --slow 26`,
	RunE: runRun,
}

var (
	runConfigPath string
	runDataPath   string
	runInstrument string
	runStrategy   string
	runSizer      string
	runCapital    float64
	runCommission float64
	runSlippage   float64
	runFast       int
	runSlow       int
	runNoRisk     bool
	runProgress   bool
	runVerbose    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML/JSON config file")
	runCmd.Flags().StringVarP(&runDataPath, "data", "d", "", "path to bar CSV (may be .xz)")
	runCmd.Flags().StringVarP(&runInstrument, "instrument", "i", "", "instrument label for journals")
	runCmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", "strategy name (buyhold, random, ema_cross, rsi_reversion, vwap_bounce)")
	runCmd.Flags().StringVar(&runSizer, "sizer", "", "sizer name (fixed, volatility, kelly)")
	runCmd.Flags().Float64VarP(&runCapital, "capital", "b", 0, "starting capital")
	runCmd.Flags().Float64Var(&runCommission, "commission", -1, "commission as fraction of gross notional")
	runCmd.Flags().Float64Var(&runSlippage, "slippage", -1, "slippage as fraction of fill price")
	runCmd.Flags().IntVar(&runFast, "fast", 0, "ema_cross: fast EMA period")
	runCmd.Flags().IntVar(&runSlow, "slow", 0, "ema_cross: slow EMA period")
	runCmd.Flags().BoolVar(&runNoRisk, "no-risk", false, "disable stop/take/trailing exits")
	runCmd.Flags().BoolVar(&runProgress, "progress", false, "show a progress bar")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "log per-trade detail")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	series, err := market.LoadCSV(cfg.Data.Path, cfg.Data.Instrument)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}

	strat, err := strategies.ByName(cfg.Strategy.Name, strategies.Params{
		FastPeriod: cfg.Strategy.FastPeriod,
		SlowPeriod: cfg.Strategy.SlowPeriod,
		RSIPeriod:  cfg.Strategy.RSIPeriod,
		Oversold:   cfg.Strategy.Oversold,
		Overbought: cfg.Strategy.Overbought,
		VWAPPeriod: cfg.Strategy.VWAPPeriod,
		Threshold:  cfg.Strategy.Threshold,
		SignalFreq: cfg.Strategy.SignalFreq,
		Seed:       cfg.Strategy.Seed,
	})
	if err != nil {
		return err
	}

	sizer, err := sizing.New(cfg.Sizer.Name, sizing.Params{
		Fraction:      cfg.Sizer.Fraction,
		RiskPerTrade:  cfg.Sizer.RiskPerTrade,
		Lookback:      cfg.Sizer.Lookback,
		WinRate:       cfg.Sizer.WinRate,
		WinLossRatio:  cfg.Sizer.WinLossRatio,
		KellyFraction: cfg.Sizer.KellyFraction,
		MaxAllocation: cfg.Sizer.MaxAllocation,
	})
	if err != nil {
		return err
	}

	var rm *risk.Manager
	if cfg.Risk.Enabled {
		rm, err = risk.NewManager(risk.Config{
			StopRule:      risk.StopRule(cfg.Risk.StopRule),
			StopLossPct:   cfg.Risk.StopLossPct,
			StopOffset:    cfg.Risk.StopOffset,
			ATRMultiplier: cfg.Risk.ATRMultiplier,
			VolMultiplier: cfg.Risk.VolMultiplier,
			TakeProfitPct: cfg.Risk.TakeProfitPct,
			UseTrailing:   cfg.Risk.UseTrailing,
			TrailingPct:   cfg.Risk.TrailingPct,
			ActivationPct: cfg.Risk.ActivationPct,
		})
		if err != nil {
			return err
		}
	}

	logger := zap.NewNop()
	if runVerbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer logger.Sync()
	}

	eng, err := backtest.New(series, strat, sizer, backtest.Options{
		InitialCapital: cfg.Account.InitialCapital,
		Commission:     cfg.Account.Commission,
		Slippage:       cfg.Account.Slippage,
		Risk:           rm,
		ATRPeriod:      cfg.Risk.ATRPeriod,
		VolLookback:    cfg.Risk.VolLookback,
		RiskFreeRate:   cfg.Account.RiskFreeRate,
		PeriodsPerYear: cfg.Account.PeriodsPerYear,
		Logger:         logger,
		ShowProgress:   runProgress,
	})
	if err != nil {
		return err
	}

	res, err := eng.Run()
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	printResult(res, series)

	if cfg.Journal.Type != "" && cfg.Journal.Type != "none" {
		if err := writeJournal(cfg.Journal, res, series); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}
	return nil
}

// loadConfig builds the effective config: file (or defaults) with flag
// overrides applied on top.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if runConfigPath != "" {
		if cfg, err = config.LoadFromFile(runConfigPath); err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if runDataPath != "" {
		cfg.Data.Path = runDataPath
	}
	if runInstrument != "" {
		cfg.Data.Instrument = runInstrument
	}
	if runStrategy != "" {
		cfg.Strategy.Name = runStrategy
	}
	if runSizer != "" {
		cfg.Sizer.Name = runSizer
	}
	if runCapital > 0 {
		cfg.Account.InitialCapital = runCapital
	}
	if runCommission >= 0 {
		cfg.Account.Commission = runCommission
	}
	if runSlippage >= 0 {
		cfg.Account.Slippage = runSlippage
	}
	if runFast > 0 {
		cfg.Strategy.FastPeriod = runFast
	}
	if runSlow > 0 {
		cfg.Strategy.SlowPeriod = runSlow
	}
	if runNoRisk {
		cfg.Risk.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printResult(res *backtest.Result, series *market.Series) {
	m := res.Metrics

	fmt.Printf("Backtest Complete!\n")
	fmt.Printf("  Instrument:    %s (%d bars, %s to %s)\n", res.Instrument, series.Len(),
		series.Start().Format("2006-01-02"), series.End().Format("2006-01-02"))
	fmt.Printf("  Strategy:      %s\n", res.Strategy)
	fmt.Printf("  Sizer:         %s\n\n", res.Sizer)

	fmt.Printf("  Initial:       $%.2f\n", res.InitialCapital)
	fmt.Printf("  Final:         $%.2f\n", res.FinalCapital)
	fmt.Printf("  Total Return:  %.2f%%\n", m.TotalReturn*100)
	fmt.Printf("  Annualized:    %.2f%%\n", m.AnnualizedReturn*100)
	fmt.Printf("  Volatility:    %.2f%%\n", m.AnnualizedVolatility*100)
	fmt.Printf("  Sharpe:        %.2f\n", m.Sharpe)
	fmt.Printf("  Max Drawdown:  %.2f%%\n\n", m.MaxDrawdown*100)

	fmt.Printf("  Fills:         %d (%d round trips)\n", m.Trades, m.RoundTrips)
	fmt.Printf("  Win Rate:      %.2f%%\n", m.WinRate*100)
	fmt.Printf("  Avg Win:       $%.2f\n", m.AvgWin)
	fmt.Printf("  Avg Loss:      $%.2f\n", m.AvgLoss)
	if math.IsInf(m.ProfitFactor, 1) {
		fmt.Printf("  Profit Factor: inf\n")
	} else {
		fmt.Printf("  Profit Factor: %.2f\n", m.ProfitFactor)
	}

	if d := res.Diagnostics; d.MalformedSignals > 0 || d.MalformedSizes > 0 {
		fmt.Printf("\n  Warning: %d malformed signals, %d malformed sizes treated as hold\n",
			d.MalformedSignals, d.MalformedSizes)
	}
}

func writeJournal(jc config.JournalConfig, res *backtest.Result, series *market.Series) error {
	var j journal.Journal
	var err error
	switch jc.Type {
	case "csv":
		j, err = journal.NewCSV(jc.TradesFile, jc.EquityFile)
	case "sqlite":
		j, err = journal.NewSQLite(jc.DBPath)
	default:
		return fmt.Errorf("unknown journal type %q", jc.Type)
	}
	if err != nil {
		return err
	}
	defer j.Close()

	runID := ulid.Make().String()

	for _, t := range res.Trades {
		rec := journal.TradeRecord{
			RunID:      runID,
			TradeID:    t.ID,
			Instrument: res.Instrument,
			Time:       t.Time,
			Kind:       t.Kind.String(),
			Units:      t.Units,
			Price:      t.Price,
			RealizedPL: t.RealizedPL,
			Capital:    t.Capital,
			Reason:     t.Reason,
		}
		if err := j.RecordTrade(rec); err != nil {
			return err
		}
	}
	for _, p := range res.EquityCurve {
		if err := j.RecordEquity(journal.EquitySnapshot{RunID: runID, Time: p.Time, Equity: p.Equity}); err != nil {
			return err
		}
	}

	if rr, ok := j.(journal.RunRecorder); ok {
		err = rr.RecordRun(journal.RunSummary{
			RunID:        runID,
			Created:      time.Now().UTC(),
			Instrument:   res.Instrument,
			Strategy:     res.Strategy,
			Sizer:        res.Sizer,
			Start:        series.Start(),
			End:          series.End(),
			Bars:         series.Len(),
			Trades:       len(res.Trades),
			StartCapital: res.InitialCapital,
			FinalCapital: res.FinalCapital,
			TotalReturn:  res.Metrics.TotalReturn,
			Sharpe:       res.Metrics.Sharpe,
			MaxDrawdown:  res.Metrics.MaxDrawdown,
			WinRate:      res.Metrics.WinRate,
			ProfitFactor: res.Metrics.ProfitFactor,
		})
		if err != nil {
			return err
		}
	}

	fmt.Printf("\n  Journal:       %s (run %s)\n", jc.Type, runID)
	return nil
}
