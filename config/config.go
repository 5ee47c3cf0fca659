// Package config defines the run configuration: account terms, data
// source, strategy, position sizing, risk rules and journaling. A
// config is plain data; the cmd layer maps it onto engine components.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents a complete backtest run configuration.
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Sizer    SizerConfig    `json:"sizer" yaml:"sizer"`
	Risk     RiskConfig     `json:"risk" yaml:"risk"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// AccountConfig holds starting capital and per-trade cost terms.
type AccountConfig struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	Commission     float64 `json:"commission" yaml:"commission"`
	Slippage       float64 `json:"slippage" yaml:"slippage"`
	RiskFreeRate   float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	PeriodsPerYear float64 `json:"periods_per_year" yaml:"periods_per_year"`
}

// DataConfig names the bar source. CSV files may be xz-compressed.
type DataConfig struct {
	Path       string `json:"path" yaml:"path"`
	Instrument string `json:"instrument" yaml:"instrument"`
}

// StrategyConfig selects and tunes the signal generator.
type StrategyConfig struct {
	Name string `json:"name" yaml:"name"`

	FastPeriod int `json:"fast_period,omitempty" yaml:"fast_period,omitempty"`
	SlowPeriod int `json:"slow_period,omitempty" yaml:"slow_period,omitempty"`

	RSIPeriod  int     `json:"rsi_period,omitempty" yaml:"rsi_period,omitempty"`
	Oversold   float64 `json:"oversold,omitempty" yaml:"oversold,omitempty"`
	Overbought float64 `json:"overbought,omitempty" yaml:"overbought,omitempty"`

	VWAPPeriod int     `json:"vwap_period,omitempty" yaml:"vwap_period,omitempty"`
	Threshold  float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`

	SignalFreq float64 `json:"signal_freq,omitempty" yaml:"signal_freq,omitempty"`
	Seed       int64   `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// SizerConfig selects and tunes the position sizer.
type SizerConfig struct {
	Name string `json:"name" yaml:"name"` // "fixed", "volatility" or "kelly"

	Fraction     float64 `json:"fraction,omitempty" yaml:"fraction,omitempty"`
	RiskPerTrade float64 `json:"risk_per_trade,omitempty" yaml:"risk_per_trade,omitempty"`
	Lookback     int     `json:"lookback,omitempty" yaml:"lookback,omitempty"`

	WinRate       float64 `json:"win_rate,omitempty" yaml:"win_rate,omitempty"`
	WinLossRatio  float64 `json:"win_loss_ratio,omitempty" yaml:"win_loss_ratio,omitempty"`
	KellyFraction float64 `json:"kelly_fraction,omitempty" yaml:"kelly_fraction,omitempty"`
	MaxAllocation float64 `json:"max_allocation,omitempty" yaml:"max_allocation,omitempty"`
}

// RiskConfig tunes the per-position exit rules. Disabled runs exit on
// signal reversals and end of data only.
type RiskConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	StopRule      string  `json:"stop_rule,omitempty" yaml:"stop_rule,omitempty"` // percent, fixed, atr, volatility
	StopLossPct   float64 `json:"stop_loss_pct,omitempty" yaml:"stop_loss_pct,omitempty"`
	StopOffset    float64 `json:"stop_offset,omitempty" yaml:"stop_offset,omitempty"`
	ATRPeriod     int     `json:"atr_period,omitempty" yaml:"atr_period,omitempty"`
	ATRMultiplier float64 `json:"atr_multiplier,omitempty" yaml:"atr_multiplier,omitempty"`
	VolLookback   int     `json:"vol_lookback,omitempty" yaml:"vol_lookback,omitempty"`
	VolMultiplier float64 `json:"vol_multiplier,omitempty" yaml:"vol_multiplier,omitempty"`

	TakeProfitPct float64 `json:"take_profit_pct,omitempty" yaml:"take_profit_pct,omitempty"`

	UseTrailing   bool    `json:"use_trailing,omitempty" yaml:"use_trailing,omitempty"`
	TrailingPct   float64 `json:"trailing_pct,omitempty" yaml:"trailing_pct,omitempty"`
	ActivationPct float64 `json:"activation_pct,omitempty" yaml:"activation_pct,omitempty"`
}

// JournalConfig selects the trade-log sink.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration out, YAML for .yaml/.yml paths
// and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the parts of the configuration the cmd layer relies
// on. Component constructors re-validate their own parameters.
func (c *Config) Validate() error {
	if c.Account.InitialCapital <= 0 {
		return fmt.Errorf("account.initial_capital must be positive")
	}
	if c.Account.Commission < 0 || c.Account.Commission >= 1 {
		return fmt.Errorf("account.commission must be in [0, 1)")
	}
	if c.Account.Slippage < 0 || c.Account.Slippage >= 1 {
		return fmt.Errorf("account.slippage must be in [0, 1)")
	}
	if c.Account.PeriodsPerYear < 0 {
		return fmt.Errorf("account.periods_per_year must not be negative")
	}
	if c.Data.Path == "" {
		return fmt.Errorf("data.path is required")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if c.Sizer.Name == "" {
		return fmt.Errorf("sizer.name is required")
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// Default returns a configuration with sensible defaults: a fixed
// fraction EMA-cross run with percent stops, no journal.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			InitialCapital: 100000,
			Commission:     0.001,
			Slippage:       0.0005,
			RiskFreeRate:   0.0,
			PeriodsPerYear: 252,
		},
		Data: DataConfig{
			Instrument: "SIM",
		},
		Strategy: StrategyConfig{
			Name:       "ema_cross",
			FastPeriod: 12,
			SlowPeriod: 26,
			RSIPeriod:  14,
			Oversold:   30,
			Overbought: 70,
			VWAPPeriod: 20,
			Threshold:  0.01,
			SignalFreq: 0.1,
			Seed:       42,
		},
		Sizer: SizerConfig{
			Name:          "fixed",
			Fraction:      0.1,
			RiskPerTrade:  0.02,
			Lookback:      20,
			WinRate:       0.5,
			WinLossRatio:  1.5,
			KellyFraction: 0.5,
			MaxAllocation: 0.5,
		},
		Risk: RiskConfig{
			Enabled:       true,
			StopRule:      "percent",
			StopLossPct:   0.02,
			ATRPeriod:     14,
			ATRMultiplier: 2.0,
			VolLookback:   20,
			VolMultiplier: 2.0,
			TakeProfitPct: 0.05,
			UseTrailing:   false,
			TrailingPct:   0.015,
			ActivationPct: 0.01,
		},
		Journal: JournalConfig{
			Type: "none",
		},
	}
}
