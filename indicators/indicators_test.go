package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
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

func feed(ind Indicator, bars []market.Bar) {
	for _, b := range bars {
		ind.Update(b)
	}
}

func TestEMA(t *testing.T) {
	t.Parallel()

	ema := NewEMA(3)
	assert.Equal(t, 3, ema.Warmup())

	feed(ema, closeBars(1, 2))
	assert.False(t, ema.Ready())
	assert.Equal(t, 0.0, ema.Value())

	// SMA seed of the first three closes.
	ema.Update(closeBars(3)[0])
	assert.True(t, ema.Ready())
	assert.InDelta(t, 2.0, ema.Value(), 1e-12)

	// Multiplier 2/(3+1) = 0.5.
	ema.Update(closeBars(4)[0])
	assert.InDelta(t, 3.0, ema.Value(), 1e-12)

	ema.Reset()
	assert.False(t, ema.Ready())
}

func TestATR(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bar := func(n int, h, l, c float64) market.Bar {
		return market.Bar{Time: base.AddDate(0, 0, n), Open: l, High: h, Low: l, Close: c}
	}

	atr := NewATR(2)
	assert.Equal(t, 3, atr.Warmup())

	atr.Update(bar(0, 10, 10, 10))
	assert.False(t, atr.Ready())

	// True ranges 2 and 2, SMA seed 2.
	atr.Update(bar(1, 12, 10, 11))
	atr.Update(bar(2, 13, 11, 12))
	assert.True(t, atr.Ready())
	assert.InDelta(t, 2.0, atr.Value(), 1e-12)

	// Wilder smoothing: (2*1 + 0) / 2.
	atr.Update(bar(3, 12, 12, 12))
	assert.InDelta(t, 1.0, atr.Value(), 1e-12)
}

func TestRSI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{name: "all_gains", closes: []float64{10, 11, 12}, want: 100},
		{name: "all_losses", closes: []float64{10, 9, 8}, want: 0},
		{name: "flat_window", closes: []float64{10, 10, 10}, want: 50},
		{name: "balanced", closes: []float64{10, 11, 10}, want: 50},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rsi := NewRSI(2)
			feed(rsi, closeBars(tt.closes...))
			assert.True(t, rsi.Ready())
			assert.InDelta(t, tt.want, rsi.Value(), 1e-9)
		})
	}

	t.Run("not_ready", func(t *testing.T) {
		t.Parallel()
		rsi := NewRSI(14)
		feed(rsi, closeBars(10, 11, 12))
		assert.False(t, rsi.Ready())
		assert.Equal(t, 0.0, rsi.Value())
	})
}

func TestVWAP(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	v := NewVWAP(2)

	v.Update(market.Bar{Time: base, High: 10, Low: 10, Close: 10, Volume: 1})
	assert.False(t, v.Ready())

	v.Update(market.Bar{Time: base.AddDate(0, 0, 1), High: 20, Low: 20, Close: 20, Volume: 3})
	assert.True(t, v.Ready())
	assert.InDelta(t, 17.5, v.Value(), 1e-12)

	// Rolling window drops the first bar.
	v.Update(market.Bar{Time: base.AddDate(0, 0, 2), High: 30, Low: 30, Close: 30, Volume: 1})
	assert.InDelta(t, (20*3+30*1)/4.0, v.Value(), 1e-12)

	t.Run("no_volume", func(t *testing.T) {
		t.Parallel()
		z := NewVWAP(2)
		feed(z, []market.Bar{
			{Time: base, High: 10, Low: 10, Close: 10},
			{Time: base.AddDate(0, 0, 1), High: 20, Low: 20, Close: 20},
		})
		assert.Equal(t, 0.0, z.Value())
	})
}

func TestReturnVolatility(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{name: "too_short", closes: []float64{100, 110}, want: 0},
		{name: "constant_growth", closes: []float64{100, 110, 121}, want: 0},
		{name: "symmetric", closes: []float64{100, 110, 99}, want: 0.14142135},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, ReturnVolatility(tt.closes), 1e-6)
		})
	}
}
