package strategies

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/backsim/market"
)

func closeBars(closes ...float64) []market.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{Time: base.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return bars
}

func TestByName(t *testing.T) {
	t.Parallel()

	p := Params{
		FastPeriod: 2,
		SlowPeriod: 3,
		RSIPeriod:  14,
		Oversold:   30,
		Overbought: 70,
		VWAPPeriod: 5,
		Threshold:  0.01,
		SignalFreq: 0.5,
		Seed:       1,
	}

	for _, name := range Names() {
		s, err := ByName(name, p)
		require.NoError(t, err, name)
		assert.NotEmpty(t, s.Name())
	}

	_, err := ByName("astrology", p)
	assert.Error(t, err)
}

func TestBuyHold(t *testing.T) {
	t.Parallel()

	s := NewBuyHold()
	sigs := s.GenerateSignals(closeBars(10, 11, 12))
	require.Len(t, sigs, 3)
	for _, sig := range sigs {
		assert.Equal(t, market.Long, sig)
	}
}

func TestRandom(t *testing.T) {
	t.Parallel()

	bars := closeBars(make([]float64, 200)...)
	for i := range bars {
		bars[i].Close = 100
	}

	t.Run("seeded_runs_repeat", func(t *testing.T) {
		t.Parallel()
		a, err := NewRandom(0.5, rand.New(rand.NewSource(7)))
		require.NoError(t, err)
		b, err := NewRandom(0.5, rand.New(rand.NewSource(7)))
		require.NoError(t, err)
		assert.Equal(t, a.GenerateSignals(bars), b.GenerateSignals(bars))
	})

	t.Run("zero_frequency_is_silent", func(t *testing.T) {
		t.Parallel()
		s, err := NewRandom(0, rand.New(rand.NewSource(1)))
		require.NoError(t, err)
		for _, sig := range s.GenerateSignals(bars) {
			assert.Equal(t, market.Flat, sig)
		}
	})

	t.Run("emits_both_directions", func(t *testing.T) {
		t.Parallel()
		s, err := NewRandom(1, rand.New(rand.NewSource(1)))
		require.NoError(t, err)
		var longs, shorts int
		for _, sig := range s.GenerateSignals(bars) {
			switch sig {
			case market.Long:
				longs++
			case market.Short:
				shorts++
			}
		}
		assert.Positive(t, longs)
		assert.Positive(t, shorts)
	})

	t.Run("bad_params", func(t *testing.T) {
		t.Parallel()
		_, err := NewRandom(1.5, rand.New(rand.NewSource(1)))
		assert.Error(t, err)
		_, err = NewRandom(0.5, nil)
		assert.Error(t, err)
	})
}

func TestEMACross(t *testing.T) {
	t.Parallel()

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		_, err := NewEMACross(5, 5)
		assert.Error(t, err)
		_, err = NewEMACross(0, 5)
		assert.Error(t, err)
	})

	t.Run("cross_emits_next_bar", func(t *testing.T) {
		t.Parallel()
		s, err := NewEMACross(2, 3)
		require.NoError(t, err)

		// Flat then a jump: the fast EMA crosses above the slow on the
		// jump bar, so the long signal lands one bar later.
		sigs := s.GenerateSignals(closeBars(10, 10, 10, 20, 20, 20))
		require.Len(t, sigs, 6)
		assert.Equal(t, market.Flat, sigs[3])
		assert.Equal(t, market.Long, sigs[4])
		for _, i := range []int{0, 1, 2, 5} {
			assert.Equal(t, market.Flat, sigs[i], "bar %d", i)
		}
	})

	t.Run("downward_cross_goes_short", func(t *testing.T) {
		t.Parallel()
		s, err := NewEMACross(2, 3)
		require.NoError(t, err)

		sigs := s.GenerateSignals(closeBars(20, 20, 20, 10, 10, 10))
		assert.Equal(t, market.Short, sigs[4])
	})

	t.Run("flat_series_is_silent", func(t *testing.T) {
		t.Parallel()
		s, err := NewEMACross(2, 3)
		require.NoError(t, err)
		for _, sig := range s.GenerateSignals(closeBars(10, 10, 10, 10, 10, 10)) {
			assert.Equal(t, market.Flat, sig)
		}
	})
}

func TestRSIReversion(t *testing.T) {
	t.Parallel()

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		_, err := NewRSIReversion(1, 30, 70)
		assert.Error(t, err)
		_, err = NewRSIReversion(2, 70, 30)
		assert.Error(t, err)
	})

	t.Run("oversold_goes_long", func(t *testing.T) {
		t.Parallel()
		s, err := NewRSIReversion(2, 30, 70)
		require.NoError(t, err)

		// Two straight losses push RSI to 0 at bar 2; the long arrives
		// at bar 3.
		sigs := s.GenerateSignals(closeBars(10, 9, 8, 8, 8))
		assert.Equal(t, market.Flat, sigs[2])
		assert.Equal(t, market.Long, sigs[3])
	})

	t.Run("overbought_goes_short", func(t *testing.T) {
		t.Parallel()
		s, err := NewRSIReversion(2, 30, 70)
		require.NoError(t, err)

		sigs := s.GenerateSignals(closeBars(10, 11, 12, 12, 12))
		assert.Equal(t, market.Short, sigs[3])
	})
}

func TestVWAPBounce(t *testing.T) {
	t.Parallel()

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		_, err := NewVWAPBounce(1, 0.01)
		assert.Error(t, err)
		_, err = NewVWAPBounce(5, 0)
		assert.Error(t, err)
		_, err = NewVWAPBounce(5, 1)
		assert.Error(t, err)
	})

	t.Run("flat_series_is_silent", func(t *testing.T) {
		t.Parallel()
		s, err := NewVWAPBounce(3, 0.01)
		require.NoError(t, err)
		for _, sig := range s.GenerateSignals(closeBars(10, 10, 10, 10, 10, 10)) {
			assert.Equal(t, market.Flat, sig)
		}
	})

	t.Run("stretch_and_turn_goes_long", func(t *testing.T) {
		t.Parallel()
		s, err := NewVWAPBounce(3, 0.02)
		require.NoError(t, err)

		// Price drops far below the rolling VWAP for two bars and then
		// ticks up: a reversion long on the following bar.
		sigs := s.GenerateSignals(closeBars(100, 100, 100, 100, 70, 71, 75, 75))
		require.Len(t, sigs, 8)
		assert.Equal(t, market.Long, sigs[6])
	})
}
