package risk

import (
	"fmt"

	"github.com/quantlab/backsim/market"
)

// StopRule selects how the stop distance is derived from the entry.
type StopRule string

const (
	StopPercent    StopRule = "percent"
	StopFixed      StopRule = "fixed"
	StopATR        StopRule = "atr"
	StopVolatility StopRule = "volatility"
)

// Config holds the risk-level parameters for one position at a time.
type Config struct {
	StopRule StopRule

	// StopLossPct is the percent-rule stop distance, and the fallback
	// for the ATR and volatility rules when their inputs are missing.
	StopLossPct float64
	// StopOffset is the fixed-rule absolute price offset.
	StopOffset float64
	// ATRMultiplier scales the ATR into a stop distance.
	ATRMultiplier float64
	// VolMultiplier scales the price-unit volatility into a stop
	// distance.
	VolMultiplier float64

	TakeProfitPct float64

	UseTrailing bool
	// TrailingPct is the distance kept below (long) or above (short)
	// the trailing reference.
	TrailingPct float64
	// ActivationPct is the favorable move from entry required before
	// the trailing stop starts tracking.
	ActivationPct float64
}

// Inputs carries optional per-bar market context. Zero values mean
// "unavailable" and trigger the silent percent fallback.
type Inputs struct {
	ATR        float64
	Volatility float64
}

// Levels are the derived price levels for the open position.
type Levels struct {
	Entry        float64
	Stop         float64
	TakeProfit   float64
	TrailingStop float64
}

// Manager is the per-position exit state machine. It is created
// disengaged, armed by Enter, and cleared by Exit. One Manager belongs
// to one backtest run; it is not safe for concurrent use and does not
// need to be.
type Manager struct {
	cfg Config

	dir            market.Signal
	entry          float64
	stop           float64
	take           float64
	trailingRef    float64
	trailingStop   float64
	trailingActive bool
}

// NewManager validates the config and returns a disengaged manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.StopRule == "" {
		cfg.StopRule = StopPercent
	}
	switch cfg.StopRule {
	case StopPercent, StopFixed, StopATR, StopVolatility:
	default:
		return nil, fmt.Errorf("risk: unknown stop rule %q", cfg.StopRule)
	}
	if cfg.StopLossPct <= 0 || cfg.StopLossPct >= 1 {
		return nil, fmt.Errorf("risk: stop loss pct %v outside (0, 1)", cfg.StopLossPct)
	}
	if cfg.TakeProfitPct <= 0 || cfg.TakeProfitPct >= 1 {
		return nil, fmt.Errorf("risk: take profit pct %v outside (0, 1)", cfg.TakeProfitPct)
	}
	if cfg.StopRule == StopFixed && cfg.StopOffset <= 0 {
		return nil, fmt.Errorf("risk: fixed stop offset %v must be positive", cfg.StopOffset)
	}
	if cfg.StopRule == StopATR && cfg.ATRMultiplier <= 0 {
		return nil, fmt.Errorf("risk: atr multiplier %v must be positive", cfg.ATRMultiplier)
	}
	if cfg.StopRule == StopVolatility && cfg.VolMultiplier <= 0 {
		return nil, fmt.Errorf("risk: volatility multiplier %v must be positive", cfg.VolMultiplier)
	}
	if cfg.UseTrailing {
		if cfg.TrailingPct <= 0 || cfg.TrailingPct >= 1 {
			return nil, fmt.Errorf("risk: trailing pct %v outside (0, 1)", cfg.TrailingPct)
		}
		if cfg.ActivationPct < 0 || cfg.ActivationPct >= 1 {
			return nil, fmt.Errorf("risk: activation pct %v outside [0, 1)", cfg.ActivationPct)
		}
	}
	return &Manager{cfg: cfg}, nil
}

// Engaged reports whether the manager is tracking an open position.
func (m *Manager) Engaged() bool { return m.dir != market.Flat }

// Levels returns the current price levels. Zero values while
// disengaged.
func (m *Manager) Levels() Levels {
	return Levels{
		Entry:        m.entry,
		Stop:         m.stop,
		TakeProfit:   m.take,
		TrailingStop: m.trailingStop,
	}
}

// Enter arms the manager for a new position. The stop sits below a long
// entry and above a short one, the target mirrored; the trailing
// tracker resets to the entry price.
func (m *Manager) Enter(price float64, dir market.Signal, in Inputs) Levels {
	if dir == market.Flat || price <= 0 {
		return Levels{}
	}

	m.dir = dir
	m.entry = price

	dist := m.stopDistance(price, in)
	if dir == market.Long {
		m.stop = price - dist
		m.take = price * (1 + m.cfg.TakeProfitPct)
	} else {
		m.stop = price + dist
		m.take = price * (1 - m.cfg.TakeProfitPct)
	}

	m.trailingRef = price
	m.trailingStop = 0
	m.trailingActive = false

	return m.Levels()
}

// OnPrice evaluates the exit conditions at the given price, in fixed
// priority order: stop-loss, take-profit, trailing stop. The first
// condition satisfied wins; at most one reason per call. Disengaged
// managers always report ExitNone.
func (m *Manager) OnPrice(price float64, in Inputs) ExitReason {
	if !m.Engaged() || price <= 0 {
		return ExitNone
	}

	if m.cfg.UseTrailing {
		m.updateTrailing(price)
	}

	switch {
	case m.stopHit(price):
		return ExitStopLoss
	case m.takeHit(price):
		return ExitTakeProfit
	case m.cfg.UseTrailing && m.trailingActive && m.trailingHit(price):
		return ExitTrailingStop
	default:
		return ExitNone
	}
}

// Exit clears all per-position state back to disengaged.
func (m *Manager) Exit() {
	m.dir = market.Flat
	m.entry = 0
	m.stop = 0
	m.take = 0
	m.trailingRef = 0
	m.trailingStop = 0
	m.trailingActive = false
}

func (m *Manager) stopHit(price float64) bool {
	if m.dir == market.Long {
		return price <= m.stop
	}
	return price >= m.stop
}

func (m *Manager) takeHit(price float64) bool {
	if m.dir == market.Long {
		return price >= m.take
	}
	return price <= m.take
}

func (m *Manager) trailingHit(price float64) bool {
	if m.dir == market.Long {
		return price <= m.trailingStop
	}
	return price >= m.trailingStop
}

// updateTrailing moves the reference only in the position's favorable
// direction and ratchets the trailing stop monotonically toward
// profitable territory; it never loosens.
func (m *Manager) updateTrailing(price float64) {
	if !m.trailingActive {
		activation := m.entry * (1 + m.cfg.ActivationPct*float64(m.dir))
		reached := (m.dir == market.Long && price >= activation) ||
			(m.dir == market.Short && price <= activation)
		if !reached {
			return
		}
		m.trailingActive = true
		m.trailingRef = price
		m.trailingStop = m.trailingLevel(price)
		return
	}

	if m.dir == market.Long {
		if price > m.trailingRef {
			m.trailingRef = price
			if lvl := m.trailingLevel(price); lvl > m.trailingStop {
				m.trailingStop = lvl
			}
		}
	} else {
		if price < m.trailingRef {
			m.trailingRef = price
			if lvl := m.trailingLevel(price); lvl < m.trailingStop {
				m.trailingStop = lvl
			}
		}
	}
}

func (m *Manager) trailingLevel(ref float64) float64 {
	if m.dir == market.Long {
		return ref * (1 - m.cfg.TrailingPct)
	}
	return ref * (1 + m.cfg.TrailingPct)
}

// stopDistance derives the absolute stop distance for the configured
// rule. Missing ATR/volatility inputs fall back to the percent rule
// silently; the degenerate case must never error mid-run.
func (m *Manager) stopDistance(price float64, in Inputs) float64 {
	switch m.cfg.StopRule {
	case StopFixed:
		return m.cfg.StopOffset
	case StopATR:
		if in.ATR > 0 {
			return in.ATR * m.cfg.ATRMultiplier
		}
	case StopVolatility:
		if in.Volatility > 0 {
			return in.Volatility * m.cfg.VolMultiplier
		}
	}
	return price * m.cfg.StopLossPct
}
