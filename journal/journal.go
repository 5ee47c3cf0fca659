// Package journal persists backtest output: one record per fill, one
// equity sample per bar, and a per-run summary. Sinks are append-only;
// analysis happens downstream.
package journal

import "time"

// TradeRecord is one fill, entry or exit. RealizedPL is zero on
// entries. Capital is the cash balance after the fill.
type TradeRecord struct {
	RunID      string
	TradeID    string
	Instrument string
	Time       time.Time
	Kind       string
	Units      float64
	Price      float64
	RealizedPL float64
	Capital    float64
	Reason     string
}

// EquitySnapshot is one equity-curve sample.
type EquitySnapshot struct {
	RunID  string
	Time   time.Time
	Equity float64
}

// RunSummary is the headline result of one backtest run.
type RunSummary struct {
	RunID      string
	Created    time.Time
	Instrument string
	Strategy   string
	Sizer      string
	Start      time.Time
	End        time.Time
	Bars       int
	Trades     int

	StartCapital float64
	FinalCapital float64
	TotalReturn  float64
	Sharpe       float64
	MaxDrawdown  float64
	WinRate      float64
	ProfitFactor float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// RunRecorder is implemented by sinks that can persist run summaries;
// the CSV sink records fills and equity only.
type RunRecorder interface {
	RecordRun(RunSummary) error
}
