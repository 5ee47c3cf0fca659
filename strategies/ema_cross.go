package strategies

import (
	"fmt"

	"github.com/quantlab/backsim/indicators"
	"github.com/quantlab/backsim/market"
)

// EMACross signals on fast/slow EMA crossovers: long when the fast
// average crosses above the slow, short when it crosses below. A cross
// detected on bar i is emitted on bar i+1, so the signal never uses the
// bar it fills on.
type EMACross struct {
	fast int
	slow int
}

func NewEMACross(fast, slow int) (*EMACross, error) {
	if fast < 1 || slow < 2 || fast >= slow {
		return nil, fmt.Errorf("strategies: ema cross needs 0 < fast < slow, got %d/%d", fast, slow)
	}
	return &EMACross{fast: fast, slow: slow}, nil
}

func (s *EMACross) Name() string { return fmt.Sprintf("ema_cross_%d_%d", s.fast, s.slow) }

func (s *EMACross) GenerateSignals(bars []market.Bar) []market.Signal {
	out := make([]market.Signal, len(bars))
	fast := indicators.NewEMA(s.fast)
	slow := indicators.NewEMA(s.slow)

	prevDiff := 0.0
	prevReady := false
	for i, b := range bars {
		fast.Update(b)
		slow.Update(b)
		if !fast.Ready() || !slow.Ready() {
			continue
		}
		diff := fast.Value() - slow.Value()
		if prevReady && i+1 < len(bars) {
			switch {
			case prevDiff <= 0 && diff > 0:
				out[i+1] = market.Long
			case prevDiff >= 0 && diff < 0:
				out[i+1] = market.Short
			}
		}
		prevDiff = diff
		prevReady = true
	}
	return out
}
