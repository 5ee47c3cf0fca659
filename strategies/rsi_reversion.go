package strategies

import (
	"fmt"

	"github.com/quantlab/backsim/indicators"
	"github.com/quantlab/backsim/market"
)

// RSIReversion fades momentum extremes: long when RSI drops below the
// oversold level, short when it rises above the overbought level.
// Signals are shifted one bar forward of the RSI reading they derive
// from.
type RSIReversion struct {
	period     int
	oversold   float64
	overbought float64
}

func NewRSIReversion(period int, oversold, overbought float64) (*RSIReversion, error) {
	if period < 2 {
		return nil, fmt.Errorf("strategies: rsi period %d too short", period)
	}
	if oversold <= 0 || overbought >= 100 || oversold >= overbought {
		return nil, fmt.Errorf("strategies: rsi bands %v/%v must satisfy 0 < oversold < overbought < 100",
			oversold, overbought)
	}
	return &RSIReversion{period: period, oversold: oversold, overbought: overbought}, nil
}

func (s *RSIReversion) Name() string { return fmt.Sprintf("rsi_reversion_%d", s.period) }

func (s *RSIReversion) GenerateSignals(bars []market.Bar) []market.Signal {
	out := make([]market.Signal, len(bars))
	rsi := indicators.NewRSI(s.period)

	for i, b := range bars {
		rsi.Update(b)
		if !rsi.Ready() || i+1 >= len(bars) {
			continue
		}
		switch v := rsi.Value(); {
		case v < s.oversold:
			out[i+1] = market.Long
		case v > s.overbought:
			out[i+1] = market.Short
		}
	}
	return out
}
