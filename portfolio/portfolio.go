// Package portfolio owns the execution ledger of a backtest run: cash,
// the single open position, the equity curve, and the append-only trade
// log. Slippage and commission are applied here so that every caller
// sees the same fill arithmetic.
package portfolio

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/quantlab/backsim/market"
)

var (
	// ErrPositionOpen is returned when opening while exposure exists.
	ErrPositionOpen = errors.New("portfolio: position already open")

	// ErrNoPosition is returned when closing while flat.
	ErrNoPosition = errors.New("portfolio: no open position")
)

// Portfolio is the execution ledger. One Portfolio per run; it is not
// shared across runs and needs no locking.
type Portfolio struct {
	cash       float64
	commission float64
	slippage   float64

	pos    Position
	curve  []EquityPoint
	trades []Trade
	ids    *tradeIDs
}

// New creates a ledger with the given starting cash. Commission and
// slippage are fractions in [0, 1); malformed values are rejected here,
// never mid-run.
func New(initialCapital, commission, slippage float64) (*Portfolio, error) {
	if initialCapital <= 0 || math.IsNaN(initialCapital) || math.IsInf(initialCapital, 0) {
		return nil, fmt.Errorf("portfolio: initial capital %v must be positive", initialCapital)
	}
	if commission < 0 || commission >= 1 {
		return nil, fmt.Errorf("portfolio: commission %v outside [0, 1)", commission)
	}
	if slippage < 0 || slippage >= 1 {
		return nil, fmt.Errorf("portfolio: slippage %v outside [0, 1)", slippage)
	}
	return &Portfolio{
		cash:       initialCapital,
		commission: commission,
		slippage:   slippage,
		ids:        newTradeIDs(),
	}, nil
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 { return p.cash }

// Position returns a copy of the current position.
func (p *Portfolio) Position() Position { return p.pos }

// Equity values the ledger at the given price: cash plus the market
// value of the open position.
func (p *Portfolio) Equity(price float64) float64 {
	return p.cash + p.pos.MarketValue(price)
}

// EquityCurve returns the recorded equity samples, one per marked bar.
func (p *Portfolio) EquityCurve() []EquityPoint { return p.curve }

// Trades returns the trade log in execution order.
func (p *Portfolio) Trades() []Trade { return p.trades }

// RealizedPnL returns the realized P&L of every closed trade, in
// chronological order. Sizers use it as trade history.
func (p *Portfolio) RealizedPnL() []float64 {
	var out []float64
	for _, t := range p.trades {
		if t.Kind.IsExit() {
			out = append(out, t.RealizedPL)
		}
	}
	return out
}

// Mark records an equity sample at the bar close. It never mutates the
// position.
func (p *Portfolio) Mark(price float64, t time.Time) {
	p.curve = append(p.curve, EquityPoint{Time: t, Equity: p.Equity(price)})
}

// Open enters a position of |qty| units in the given direction at the
// quoted price. Slippage moves the fill against the trade (a long entry
// fills higher, a short entry lower); commission is charged on the
// gross notional at the fill price. Only a flat ledger may open.
func (p *Portfolio) Open(dir market.Signal, qty, price float64, t time.Time) (Trade, error) {
	if !p.pos.IsFlat() {
		return Trade{}, ErrPositionOpen
	}
	if dir == market.Flat {
		return Trade{}, fmt.Errorf("portfolio: cannot open flat exposure")
	}
	if qty == 0 || price <= 0 {
		return Trade{}, fmt.Errorf("portfolio: bad open qty=%v price=%v", qty, price)
	}

	units := math.Abs(qty) * float64(dir)
	fill := p.fillPrice(price, units > 0)
	fee := p.commission * math.Abs(units) * fill

	p.cash -= units*fill + fee
	p.pos = Position{Units: units, EntryPrice: fill, EntryTime: t}

	kind := EnterLong
	if dir == market.Short {
		kind = EnterShort
	}
	trade := Trade{
		ID:      p.ids.next(t),
		Time:    t,
		Kind:    kind,
		Price:   fill,
		Units:   math.Abs(units),
		Capital: p.cash,
	}
	p.trades = append(p.trades, trade)
	return trade, nil
}

// Close exits the open position at the quoted price. Slippage moves the
// fill against the closing trade (a long exit fills lower, a short exit
// higher); commission is charged on the gross notional. The realized
// P&L uses the same signed-units formula as the unrealized mark.
func (p *Portfolio) Close(price float64, t time.Time, reason string) (Trade, error) {
	if p.pos.IsFlat() {
		return Trade{}, ErrNoPosition
	}
	if price <= 0 {
		return Trade{}, fmt.Errorf("portfolio: bad close price %v", price)
	}

	units := p.pos.Units
	// Closing a long is a sell, closing a short a buy.
	fill := p.fillPrice(price, units < 0)
	fee := p.commission * math.Abs(units) * fill
	pnl := units * (fill - p.pos.EntryPrice)

	p.cash += units*fill - fee

	kind := ExitLong
	if units < 0 {
		kind = ExitShort
	}
	trade := Trade{
		ID:         p.ids.next(t),
		Time:       t,
		Kind:       kind,
		Price:      fill,
		Units:      math.Abs(units),
		RealizedPL: pnl,
		Capital:    p.cash,
		Reason:     reason,
	}
	p.trades = append(p.trades, trade)

	p.pos.Units = 0
	return trade, nil
}

// Execute applies one bar's sizing decision: an opposite open position
// is closed first (a run can never be long and short at once), then a
// new position opens if the ledger is flat and qty is non-zero.
func (p *Portfolio) Execute(sig market.Signal, qty, price float64, t time.Time) error {
	if sig == market.Flat {
		return nil
	}

	if (sig == market.Long && p.pos.IsShort()) || (sig == market.Short && p.pos.IsLong()) {
		if _, err := p.Close(price, t, "Signal"); err != nil {
			return err
		}
	}

	if p.pos.IsFlat() && qty != 0 {
		if _, err := p.Open(sig, qty, price, t); err != nil {
			return err
		}
	}
	return nil
}

// fillPrice applies slippage in the unfavorable direction: buys fill
// above the quote, sells below it.
func (p *Portfolio) fillPrice(price float64, buying bool) float64 {
	if buying {
		return price * (1 + p.slippage)
	}
	return price * (1 - p.slippage)
}
