// Package sizing maps available capital and a directional signal to a
// trade quantity. Sizers are pure: the same inputs always produce the
// same quantity, and every sizer returns 0 for a flat signal or a
// non-positive price.
package sizing

import (
	"fmt"

	"github.com/quantlab/backsim/market"
)

// Context carries optional history a sizer may consult. Either slice
// may be nil or short; sizers fall back to configured defaults.
type Context struct {
	// Closes holds closing prices up to and including the decision bar.
	Closes []float64
	// TradePnL holds realized P&L of closed trades in chronological
	// order.
	TradePnL []float64
}

// Sizer converts capital, price and a signal into a signed quantity.
// The sign of the returned quantity matches the signal direction.
type Sizer interface {
	Name() string
	Size(capital, price float64, signal market.Signal, ctx Context) float64
}

// New builds a sizer by name. Supported: fixed, volatility, kelly.
func New(name string, p Params) (Sizer, error) {
	switch name {
	case "fixed", "":
		return NewFixedFraction(p.Fraction)
	case "volatility", "vol":
		return NewVolatility(p.RiskPerTrade, p.Lookback)
	case "kelly":
		return NewKelly(KellyParams{
			WinRate:       p.WinRate,
			WinLossRatio:  p.WinLossRatio,
			Fraction:      p.KellyFraction,
			Lookback:      p.Lookback,
			MaxAllocation: p.MaxAllocation,
		})
	default:
		return nil, fmt.Errorf("sizing: unknown sizer %q (supported: fixed, volatility, kelly)", name)
	}
}

// Params is the union of sizer tuning knobs, filled from configuration.
type Params struct {
	Fraction      float64
	RiskPerTrade  float64
	Lookback      int
	WinRate       float64
	WinLossRatio  float64
	KellyFraction float64
	MaxAllocation float64
}

// tradeable is the shared degenerate-input guard.
func tradeable(capital, price float64, signal market.Signal) bool {
	return signal != market.Flat && price > 0 && capital > 0
}
