package portfolio

import "time"

// Position tracks the currently held directional exposure. Units are
// signed: positive long, negative short, zero flat. The sign of Units
// is the sole source of truth for direction; entry terms are retained
// after an exit for post-mortem inspection but never consulted while
// flat.
type Position struct {
	Units      float64
	EntryPrice float64
	EntryTime  time.Time
}

func (p Position) IsLong() bool  { return p.Units > 0 }
func (p Position) IsShort() bool { return p.Units < 0 }
func (p Position) IsFlat() bool  { return p.Units == 0 }

// Direction returns +1, -1 or 0 by the sign of Units.
func (p Position) Direction() int {
	switch {
	case p.Units > 0:
		return 1
	case p.Units < 0:
		return -1
	default:
		return 0
	}
}

// UnrealizedPL values the open exposure against the given price. Signed
// units make the long and short cases the same formula; a flat position
// always reads zero.
func (p Position) UnrealizedPL(price float64) float64 {
	if p.IsFlat() {
		return 0
	}
	return p.Units * (price - p.EntryPrice)
}

// MarketValue is the signed notional of the position at the given
// price.
func (p Position) MarketValue(price float64) float64 {
	return p.Units * price
}
