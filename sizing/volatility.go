package sizing

import (
	"fmt"

	"github.com/quantlab/backsim/indicators"
	"github.com/quantlab/backsim/market"
)

const (
	// minVolatility floors the volatility estimate so the division
	// cannot blow the position size up on a quiet window.
	minVolatility = 0.01

	// defaultVolatility is assumed when the price history is missing or
	// shorter than the lookback window.
	defaultVolatility = 0.02
)

// Volatility scales the allocation inversely with recent return
// volatility: quieter instruments get larger positions for the same
// risk budget.
type Volatility struct {
	riskPerTrade float64
	lookback     int
}

// NewVolatility creates a volatility-scaled sizer. riskPerTrade is the
// capital fraction risked per trade, lookback the return window.
func NewVolatility(riskPerTrade float64, lookback int) (*Volatility, error) {
	if riskPerTrade <= 0 || riskPerTrade > 1 {
		return nil, fmt.Errorf("sizing: risk per trade %v outside (0, 1]", riskPerTrade)
	}
	if lookback < 2 {
		return nil, fmt.Errorf("sizing: volatility lookback %d below minimum 2", lookback)
	}
	return &Volatility{riskPerTrade: riskPerTrade, lookback: lookback}, nil
}

func (v *Volatility) Name() string {
	return fmt.Sprintf("Vol-%.1f%%", v.riskPerTrade*100)
}

func (v *Volatility) Size(capital, price float64, signal market.Signal, ctx Context) float64 {
	if !tradeable(capital, price, signal) {
		return 0
	}

	sigma := defaultVolatility
	if len(ctx.Closes) > v.lookback {
		window := ctx.Closes[len(ctx.Closes)-v.lookback-1:]
		if computed := indicators.ReturnVolatility(window); computed > 0 {
			sigma = computed
		}
	}
	if sigma < minVolatility {
		sigma = minVolatility
	}

	value := capital * v.riskPerTrade / sigma
	return value / price * float64(signal)
}
