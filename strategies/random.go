package strategies

import (
	"fmt"
	"math/rand"

	"github.com/quantlab/backsim/market"
)

// Random emits long/short/flat signals at a configured frequency. The
// entropy source is injected so a seeded run reproduces its signal
// stream exactly; useful as a null strategy when validating cost and
// risk behavior.
type Random struct {
	freq float64
	rng  *rand.Rand
}

// NewRandom builds a random strategy emitting a non-flat signal with
// probability freq per bar, split evenly between long and short.
func NewRandom(freq float64, rng *rand.Rand) (*Random, error) {
	if freq < 0 || freq > 1 {
		return nil, fmt.Errorf("strategies: signal frequency %v outside [0, 1]", freq)
	}
	if rng == nil {
		return nil, fmt.Errorf("strategies: random strategy needs an entropy source")
	}
	return &Random{freq: freq, rng: rng}, nil
}

func (*Random) Name() string { return "random" }

func (r *Random) GenerateSignals(bars []market.Bar) []market.Signal {
	out := make([]market.Signal, len(bars))
	for i := range out {
		roll := r.rng.Float64()
		switch {
		case roll < r.freq/2:
			out[i] = market.Long
		case roll < r.freq:
			out[i] = market.Short
		}
	}
	return out
}
