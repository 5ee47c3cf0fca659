// Package indicators provides streaming technical indicators over
// market bars. Each indicator follows the same contract: feed bars with
// Update, check Ready once the warmup window is filled, then read
// Value. Reset returns the indicator to its initial state.
package indicators

import (
	"math"

	"github.com/quantlab/backsim/market"
)

// Indicator is the shared streaming contract.
type Indicator interface {
	Name() string
	Warmup() int
	Update(b market.Bar)
	Ready() bool
	Value() float64
	Reset()
}

// ReturnVolatility computes the sample standard deviation of simple
// returns over the given closes. It returns 0 when fewer than three
// prices are available (two returns are the minimum for a sample
// deviation).
func ReturnVolatility(closes []float64) float64 {
	if len(closes) < 3 {
		return 0
	}
	rets := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		rets = append(rets, closes[i]/closes[i-1]-1)
	}
	return stdDev(rets)
}

// stdDev is the sample (n-1) standard deviation.
func stdDev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(n)

	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
