// Package strategies turns a bar series into a per-bar signal stream.
// A strategy sees only bars strictly before the bar its signal applies
// to, so the simulation can never act on information from the bar it is
// filling on.
package strategies

import (
	"fmt"
	"math/rand"

	"github.com/quantlab/backsim/market"
)

// Strategy produces one signal per input bar. Implementations must be
// pure with respect to the bar slice: no mutation, and identical input
// yields identical output (Random takes its entropy explicitly for this
// reason).
type Strategy interface {
	Name() string
	GenerateSignals(bars []market.Bar) []market.Signal
}

// Params collects the tunables of every built-in strategy; each
// strategy reads only its own fields.
type Params struct {
	// EMA cross.
	FastPeriod int
	SlowPeriod int

	// RSI reversion.
	RSIPeriod  int
	Oversold   float64
	Overbought float64

	// VWAP bounce.
	VWAPPeriod int
	Threshold  float64

	// Random.
	SignalFreq float64
	Seed       int64
}

// ByName builds a registered strategy from its config name.
func ByName(name string, p Params) (Strategy, error) {
	switch name {
	case "buyhold", "buy_hold":
		return NewBuyHold(), nil
	case "random":
		return NewRandom(p.SignalFreq, rand.New(rand.NewSource(p.Seed)))
	case "ema_cross", "emacross":
		return NewEMACross(p.FastPeriod, p.SlowPeriod)
	case "rsi", "rsi_reversion":
		return NewRSIReversion(p.RSIPeriod, p.Oversold, p.Overbought)
	case "vwap", "vwap_bounce":
		return NewVWAPBounce(p.VWAPPeriod, p.Threshold)
	default:
		return nil, fmt.Errorf("strategies: unknown strategy %q", name)
	}
}

// Names lists the registered strategy names for CLI help output.
func Names() []string {
	return []string{"buyhold", "random", "ema_cross", "rsi_reversion", "vwap_bounce"}
}
