package portfolio

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// TradeKind is the closed set of trade-log entry kinds.
type TradeKind int

const (
	EnterLong TradeKind = iota
	EnterShort
	ExitLong
	ExitShort
)

func (k TradeKind) String() string {
	switch k {
	case EnterLong:
		return "ENTER_LONG"
	case EnterShort:
		return "ENTER_SHORT"
	case ExitLong:
		return "EXIT_LONG"
	case ExitShort:
		return "EXIT_SHORT"
	default:
		return "UNKNOWN"
	}
}

// IsExit reports whether the entry closes exposure (and therefore
// carries a realized P&L).
func (k TradeKind) IsExit() bool {
	return k == ExitLong || k == ExitShort
}

// Trade is one immutable, append-only trade-log entry. RealizedPL is
// meaningful only on exit kinds. Capital is the cash balance after the
// fill. Price is the actual fill price including slippage.
type Trade struct {
	ID         string
	Time       time.Time
	Kind       TradeKind
	Price      float64
	Units      float64
	RealizedPL float64
	Capital    float64
	Reason     string
}

// EquityPoint is one equity-curve sample: cash plus the market value of
// the open position at the bar's close.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// tradeIDs issues ULIDs stamped with the trade's bar time rather than
// the wall clock, from entropy seeded at a fixed value. Identical runs
// therefore produce identical trade logs, while IDs stay unique and
// time-sortable within a run.
type tradeIDs struct {
	entropy *ulid.MonotonicEntropy
}

func newTradeIDs() *tradeIDs {
	return &tradeIDs{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(1)), 0),
	}
}

func (g *tradeIDs) next(t time.Time) string {
	id, err := ulid.New(ulid.Timestamp(t.UTC()), g.entropy)
	if err != nil {
		// Only possible if bar time overflows the ULID epoch.
		panic(err)
	}
	return id.String()
}
