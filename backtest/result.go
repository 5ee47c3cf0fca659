package backtest

import (
	"github.com/quantlab/backsim/metrics"
	"github.com/quantlab/backsim/portfolio"
)

// Diagnostics counts malformed inputs the run degraded around instead
// of aborting. Non-zero counters mean the input deserves a look.
type Diagnostics struct {
	// MalformedSignals counts signal values outside {-1, 0, +1},
	// treated as hold.
	MalformedSignals int
	// MalformedSizes counts NaN or infinite sizer outputs, treated as
	// zero quantity.
	MalformedSizes int
}

// Result is the complete output of one run.
type Result struct {
	Instrument string
	Strategy   string
	Sizer      string

	EquityCurve []portfolio.EquityPoint
	Trades      []portfolio.Trade
	Metrics     metrics.Report

	InitialCapital float64
	// FinalCapital is the cash balance after the end-of-data close;
	// the run always ends flat, so it equals final equity.
	FinalCapital float64

	Diagnostics Diagnostics
}
