package sizing

import (
	"fmt"

	"github.com/quantlab/backsim/market"
)

// FixedFraction allocates a constant fraction of capital per trade.
type FixedFraction struct {
	fraction float64
}

// NewFixedFraction creates a fixed-fraction sizer. The fraction must be
// in (0, 1].
func NewFixedFraction(fraction float64) (*FixedFraction, error) {
	if fraction <= 0 || fraction > 1 {
		return nil, fmt.Errorf("sizing: fixed fraction %v outside (0, 1]", fraction)
	}
	return &FixedFraction{fraction: fraction}, nil
}

func (f *FixedFraction) Name() string {
	return fmt.Sprintf("Fixed-%.0f%%", f.fraction*100)
}

func (f *FixedFraction) Size(capital, price float64, signal market.Signal, _ Context) float64 {
	if !tradeable(capital, price, signal) {
		return 0
	}
	qty := capital * f.fraction / price
	return qty * float64(signal)
}
