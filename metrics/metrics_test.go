package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quantlab/backsim/portfolio"
)

func curve(equities ...float64) []portfolio.EquityPoint {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]portfolio.EquityPoint, len(equities))
	for i, e := range equities {
		out[i] = portfolio.EquityPoint{Time: base.AddDate(0, 0, i), Equity: e}
	}
	return out
}

func exit(pnl float64) portfolio.Trade {
	return portfolio.Trade{Kind: portfolio.ExitLong, RealizedPL: pnl}
}

func TestComputeEmptyInputs(t *testing.T) {
	t.Parallel()

	r := Compute(nil, nil, Options{})
	assert.Zero(t, r.TotalReturn)
	assert.Zero(t, r.Sharpe)
	assert.Zero(t, r.MaxDrawdown)
	assert.Zero(t, r.ProfitFactor)

	r = Compute(curve(10000), nil, Options{})
	assert.Zero(t, r.TotalReturn)
}

func TestTotalReturnAndDrawdown(t *testing.T) {
	t.Parallel()

	r := Compute(curve(100, 110, 105, 115), nil, Options{})

	assert.InDelta(t, 0.15, r.TotalReturn, 1e-9)
	// The only decline is 110 -> 105.
	assert.InDelta(t, 1-105.0/110.0, r.MaxDrawdown, 1e-9)
	assert.GreaterOrEqual(t, r.MaxDrawdown, 0.0)
	assert.LessOrEqual(t, r.MaxDrawdown, 1.0)
}

func TestNegativeFinalEquityStaysFinite(t *testing.T) {
	t.Parallel()

	// A leveraged wipeout can push equity below zero; the annualized
	// figure clamps to a total loss rather than going NaN.
	r := Compute(curve(10000, 12000, -500), nil, Options{})

	assert.Less(t, r.TotalReturn, -1.0)
	assert.InDelta(t, -1.0, r.AnnualizedReturn, 1e-9)
	assert.False(t, math.IsNaN(r.AnnualizedReturn))
	assert.False(t, math.IsNaN(r.Sharpe))
}

func TestDrawdownBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		equities []float64
	}{
		{name: "monotonic_up", equities: []float64{100, 110, 120, 130}},
		{name: "monotonic_down", equities: []float64{100, 80, 60, 40}},
		{name: "near_wipeout", equities: []float64{100, 150, 1, 2}},
		{name: "choppy", equities: []float64{100, 90, 130, 70, 140, 60}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := Compute(curve(tt.equities...), nil, Options{})
			assert.GreaterOrEqual(t, r.MaxDrawdown, 0.0)
			assert.LessOrEqual(t, r.MaxDrawdown, 1.0)
		})
	}

	t.Run("flat_curve_has_zero_drawdown", func(t *testing.T) {
		t.Parallel()
		r := Compute(curve(100, 100, 100), nil, Options{})
		assert.Zero(t, r.MaxDrawdown)
	})
}

func TestSharpeZeroVolatility(t *testing.T) {
	t.Parallel()

	r := Compute(curve(100, 100, 100), nil, Options{RiskFreeRate: 0.02})
	assert.Zero(t, r.Volatility)
	assert.Zero(t, r.Sharpe)
}

func TestAnnualization(t *testing.T) {
	t.Parallel()

	c := curve(100, 101, 102, 103)

	daily := Compute(c, nil, Options{})
	hourly := Compute(c, nil, Options{PeriodsPerYear: 252 * 24})

	// More periods per year compound the same per-bar return harder.
	assert.Greater(t, hourly.AnnualizedReturn, daily.AnnualizedReturn)
	assert.Greater(t, hourly.AnnualizedVolatility, daily.AnnualizedVolatility)

	// Explicit default.
	total := 103.0/100.0 - 1
	want := math.Pow(1+total, DefaultPeriodsPerYear/3.0) - 1
	assert.InDelta(t, want, daily.AnnualizedReturn, 1e-9)
}

func TestTradeStats(t *testing.T) {
	t.Parallel()

	trades := []portfolio.Trade{
		{Kind: portfolio.EnterLong}, // entries never count
		exit(10),
		{Kind: portfolio.EnterLong},
		exit(-5),
		{Kind: portfolio.EnterShort},
		exit(20),
	}

	r := Compute(curve(100, 110), trades, Options{})

	assert.Equal(t, 6, r.Trades)
	assert.Equal(t, 3, r.RoundTrips)
	assert.InDelta(t, 2.0/3.0, r.WinRate, 1e-9)
	assert.InDelta(t, 15, r.AvgWin, 1e-9)
	assert.InDelta(t, -5, r.AvgLoss, 1e-9)
	assert.InDelta(t, 6, r.ProfitFactor, 1e-9)
}

func TestProfitFactorSentinels(t *testing.T) {
	t.Parallel()

	t.Run("wins_without_losses", func(t *testing.T) {
		t.Parallel()
		r := Compute(curve(100, 110), []portfolio.Trade{exit(10), exit(5)}, Options{})
		assert.True(t, math.IsInf(r.ProfitFactor, 1))
		assert.Equal(t, 1.0, r.WinRate)
	})

	t.Run("no_round_trips", func(t *testing.T) {
		t.Parallel()
		r := Compute(curve(100, 110), []portfolio.Trade{{Kind: portfolio.EnterLong}}, Options{})
		assert.Zero(t, r.ProfitFactor)
		assert.Zero(t, r.WinRate)
	})

	t.Run("breakeven_only", func(t *testing.T) {
		t.Parallel()
		r := Compute(curve(100, 100), []portfolio.Trade{exit(0)}, Options{})
		assert.Equal(t, 1, r.RoundTrips)
		assert.Zero(t, r.WinRate)
		assert.Zero(t, r.ProfitFactor)
	})
}

func TestComputeIsPure(t *testing.T) {
	t.Parallel()

	c := curve(100, 90, 120)
	trades := []portfolio.Trade{exit(10), exit(-3)}

	cCopy := append([]portfolio.EquityPoint(nil), c...)
	tCopy := append([]portfolio.Trade(nil), trades...)

	first := Compute(c, trades, Options{RiskFreeRate: 0.01})
	second := Compute(c, trades, Options{RiskFreeRate: 0.01})

	assert.Equal(t, first, second)
	assert.Equal(t, cCopy, c)
	assert.Equal(t, tCopy, trades)
}
