package indicators

import (
	"fmt"

	"github.com/quantlab/backsim/market"
)

// VWAP is a rolling volume-weighted average price over the typical
// price (H+L+C)/3 of the last period bars.
type VWAP struct {
	period int
	bars   []market.Bar
}

// NewVWAP creates a rolling VWAP indicator with the given period.
func NewVWAP(period int) *VWAP {
	return &VWAP{
		period: period,
		bars:   make([]market.Bar, 0, period),
	}
}

func (v *VWAP) Name() string {
	return fmt.Sprintf("VWAP(%d)", v.period)
}

func (v *VWAP) Warmup() int { return v.period }

func (v *VWAP) Reset() { v.bars = v.bars[:0] }

func (v *VWAP) Update(b market.Bar) {
	v.bars = append(v.bars, b)
	if len(v.bars) > v.period {
		v.bars = v.bars[1:]
	}
}

func (v *VWAP) Ready() bool { return len(v.bars) >= v.period }

// Value returns the rolling VWAP, or 0 while warming up or when the
// window has no volume.
func (v *VWAP) Value() float64 {
	if !v.Ready() {
		return 0
	}
	var pv, vol float64
	for _, b := range v.bars {
		typical := (b.High + b.Low + b.Close) / 3
		pv += typical * b.Volume
		vol += b.Volume
	}
	if vol == 0 {
		return 0
	}
	return pv / vol
}
