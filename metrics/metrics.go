// Package metrics reduces an equity curve and trade log to summary
// performance statistics. Compute is pure: it never mutates its inputs
// and identical inputs produce identical output.
package metrics

import (
	"math"

	"github.com/quantlab/backsim/portfolio"
)

// DefaultPeriodsPerYear annualizes daily bars. The value is explicit
// configuration, never inferred from timestamps; intraday series need
// their own periods-per-year (e.g. 252*390 for US-equity minute bars).
const DefaultPeriodsPerYear = 252

// Options tune the reduction.
type Options struct {
	// RiskFreeRate is the annual risk-free rate used in the Sharpe
	// excess return, e.g. 0.02 for 2%.
	RiskFreeRate float64
	// PeriodsPerYear scales per-bar statistics to annual ones. Zero
	// selects DefaultPeriodsPerYear.
	PeriodsPerYear float64
}

// Report is the derived value object. Always recomputable from the
// equity curve and trade log.
type Report struct {
	TotalReturn          float64
	AnnualizedReturn     float64
	Volatility           float64
	AnnualizedVolatility float64
	Sharpe               float64
	MaxDrawdown          float64

	Trades       int
	RoundTrips   int
	WinRate      float64
	AvgWin       float64
	AvgLoss      float64
	ProfitFactor float64
}

// Compute reduces the equity curve and trade log. An empty or
// single-point curve yields a zero report.
func Compute(curve []portfolio.EquityPoint, trades []portfolio.Trade, opts Options) Report {
	var r Report
	r.Trades = len(trades)

	periodsPerYear := opts.PeriodsPerYear
	if periodsPerYear <= 0 {
		periodsPerYear = DefaultPeriodsPerYear
	}

	if len(curve) >= 2 && curve[0].Equity != 0 {
		r.TotalReturn = curve[len(curve)-1].Equity/curve[0].Equity - 1

		returns := periodReturns(curve)
		n := float64(len(returns))
		if n > 0 {
			// A curve ending below zero has a growth factor < 0; clamp it
			// so the annualized figure stays -1 instead of NaN.
			base := 1 + r.TotalReturn
			if base < 0 {
				base = 0
			}
			r.AnnualizedReturn = math.Pow(base, periodsPerYear/n) - 1
		}

		r.Volatility = stdDev(returns)
		r.AnnualizedVolatility = r.Volatility * math.Sqrt(periodsPerYear)

		// Sharpe is defined as 0 when volatility is 0.
		if r.AnnualizedVolatility > 0 {
			r.Sharpe = (r.AnnualizedReturn - opts.RiskFreeRate) / r.AnnualizedVolatility
		}

		r.MaxDrawdown = maxDrawdown(returns)
	}

	fillTradeStats(&r, trades)
	return r
}

// periodReturns is the simple percent-change series of the curve.
// Samples following a zero equity value are skipped to keep the series
// defined.
func periodReturns(curve []portfolio.EquityPoint) []float64 {
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			continue
		}
		out = append(out, curve[i].Equity/prev-1)
	}
	return out
}

// maxDrawdown is the largest peak-to-trough decline of the cumulative
// return curve, in [0, 1].
func maxDrawdown(returns []float64) float64 {
	cum := 1.0
	peak := 1.0
	maxDD := 0.0
	for _, ret := range returns {
		cum *= 1 + ret
		if cum > peak {
			peak = cum
		}
		if peak > 0 {
			if dd := 1 - cum/peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	if maxDD < 0 {
		return 0
	}
	if maxDD > 1 {
		return 1
	}
	return maxDD
}

// fillTradeStats computes win/loss statistics over exit records only;
// entries carry no realized P&L.
func fillTradeStats(r *Report, trades []portfolio.Trade) {
	var winSum, lossSum float64
	var wins, losses, exits int

	for _, t := range trades {
		if !t.Kind.IsExit() {
			continue
		}
		exits++
		switch {
		case t.RealizedPL > 0:
			wins++
			winSum += t.RealizedPL
		case t.RealizedPL < 0:
			losses++
			lossSum += -t.RealizedPL
		}
	}

	r.RoundTrips = exits
	if exits == 0 {
		return
	}

	r.WinRate = float64(wins) / float64(exits)
	if wins > 0 {
		r.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		// AvgLoss is reported as a negative number, matching the sign
		// of the P&Ls it averages.
		r.AvgLoss = -lossSum / float64(losses)
	}

	switch {
	case lossSum > 0:
		r.ProfitFactor = winSum / lossSum
	case wins > 0:
		r.ProfitFactor = math.Inf(1)
	default:
		r.ProfitFactor = 0
	}
}

// stdDev is the sample (n-1) standard deviation.
func stdDev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(n)

	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
