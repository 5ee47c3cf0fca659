// Package risk implements the per-position exit state machine: fixed
// stop-loss, take-profit, and an optional trailing stop that only
// tightens as price moves in the position's favor.
package risk

// ExitReason is the closed set of reasons a position leaves the book.
type ExitReason int

const (
	ExitNone ExitReason = iota
	ExitStopLoss
	ExitTakeProfit
	ExitTrailingStop
	ExitSignal
	ExitEndOfData
)

func (r ExitReason) String() string {
	switch r {
	case ExitNone:
		return "None"
	case ExitStopLoss:
		return "StopLoss"
	case ExitTakeProfit:
		return "TakeProfit"
	case ExitTrailingStop:
		return "TrailingStop"
	case ExitSignal:
		return "Signal"
	case ExitEndOfData:
		return "EndOfData"
	default:
		return "Unknown"
	}
}
