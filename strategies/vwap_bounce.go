package strategies

import (
	"fmt"

	"github.com/quantlab/backsim/indicators"
	"github.com/quantlab/backsim/market"
)

// VWAPBounce trades reversions to the rolling VWAP: when price has
// stretched beyond the threshold band for two consecutive bars and then
// turns back toward the average, it enters against the stretch. Signals
// are shifted one bar forward of the bars they derive from.
type VWAPBounce struct {
	period    int
	threshold float64
}

func NewVWAPBounce(period int, threshold float64) (*VWAPBounce, error) {
	if period < 2 {
		return nil, fmt.Errorf("strategies: vwap period %d too short", period)
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("strategies: vwap threshold %v outside (0, 1)", threshold)
	}
	return &VWAPBounce{period: period, threshold: threshold}, nil
}

func (s *VWAPBounce) Name() string { return fmt.Sprintf("vwap_bounce_%d", s.period) }

func (s *VWAPBounce) GenerateSignals(bars []market.Bar) []market.Signal {
	out := make([]market.Signal, len(bars))
	vwap := indicators.NewVWAP(s.period)

	var prevDist float64
	var prevClose float64
	prevReady := false
	for i, b := range bars {
		vwap.Update(b)
		if !vwap.Ready() {
			continue
		}
		v := vwap.Value()
		if v == 0 {
			prevReady = false
			continue
		}
		dist := (b.Close - v) / v

		if prevReady && i+1 < len(bars) {
			switch {
			case dist < -s.threshold && prevDist < -s.threshold && b.Close > prevClose:
				out[i+1] = market.Long
			case dist > s.threshold && prevDist > s.threshold && b.Close < prevClose:
				out[i+1] = market.Short
			}
		}
		prevDist = dist
		prevClose = b.Close
		prevReady = true
	}
	return out
}
