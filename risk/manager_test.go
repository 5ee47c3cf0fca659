package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/backsim/market"
)

func percentConfig() Config {
	return Config{
		StopRule:      StopPercent,
		StopLossPct:   0.02,
		TakeProfitPct: 0.05,
	}
}

func TestNewManagerValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown_rule", mutate: func(c *Config) { c.StopRule = "fibonacci" }},
		{name: "stop_pct_zero", mutate: func(c *Config) { c.StopLossPct = 0 }},
		{name: "stop_pct_one", mutate: func(c *Config) { c.StopLossPct = 1 }},
		{name: "take_pct_zero", mutate: func(c *Config) { c.TakeProfitPct = 0 }},
		{name: "fixed_without_offset", mutate: func(c *Config) { c.StopRule = StopFixed }},
		{name: "atr_without_multiplier", mutate: func(c *Config) { c.StopRule = StopATR }},
		{name: "vol_without_multiplier", mutate: func(c *Config) { c.StopRule = StopVolatility }},
		{name: "trailing_pct_zero", mutate: func(c *Config) { c.UseTrailing = true }},
		{name: "activation_pct_negative", mutate: func(c *Config) {
			c.UseTrailing = true
			c.TrailingPct = 0.05
			c.ActivationPct = -0.1
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := percentConfig()
			tt.mutate(&cfg)
			_, err := NewManager(cfg)
			assert.Error(t, err)
		})
	}

	t.Run("empty_rule_defaults_to_percent", func(t *testing.T) {
		t.Parallel()
		cfg := percentConfig()
		cfg.StopRule = ""
		m, err := NewManager(cfg)
		require.NoError(t, err)
		m.Enter(100, market.Long, Inputs{})
		assert.InDelta(t, 98, m.Levels().Stop, 1e-12)
	})
}

func TestStopLossExactness(t *testing.T) {
	t.Parallel()

	t.Run("long", func(t *testing.T) {
		t.Parallel()
		m, err := NewManager(percentConfig())
		require.NoError(t, err)

		m.Enter(100, market.Long, Inputs{})
		assert.True(t, m.Engaged())
		assert.InDelta(t, 98, m.Levels().Stop, 1e-12)
		assert.InDelta(t, 105, m.Levels().TakeProfit, 1e-12)

		assert.Equal(t, ExitNone, m.OnPrice(98.01, Inputs{}))
		assert.Equal(t, ExitStopLoss, m.OnPrice(98, Inputs{}))
		assert.Equal(t, ExitStopLoss, m.OnPrice(97.99, Inputs{}))
	})

	t.Run("short", func(t *testing.T) {
		t.Parallel()
		m, err := NewManager(percentConfig())
		require.NoError(t, err)

		m.Enter(100, market.Short, Inputs{})
		assert.InDelta(t, 102, m.Levels().Stop, 1e-12)
		assert.InDelta(t, 95, m.Levels().TakeProfit, 1e-12)

		assert.Equal(t, ExitNone, m.OnPrice(101.99, Inputs{}))
		assert.Equal(t, ExitStopLoss, m.OnPrice(102.01, Inputs{}))
	})
}

func TestTakeProfit(t *testing.T) {
	t.Parallel()

	m, err := NewManager(percentConfig())
	require.NoError(t, err)

	m.Enter(100, market.Long, Inputs{})
	assert.Equal(t, ExitNone, m.OnPrice(104.99, Inputs{}))
	assert.Equal(t, ExitTakeProfit, m.OnPrice(105, Inputs{}))

	m.Exit()
	m.Enter(100, market.Short, Inputs{})
	assert.Equal(t, ExitTakeProfit, m.OnPrice(95, Inputs{}))
}

func TestStopDistanceRules(t *testing.T) {
	t.Parallel()

	t.Run("fixed_offset", func(t *testing.T) {
		t.Parallel()
		cfg := percentConfig()
		cfg.StopRule = StopFixed
		cfg.StopOffset = 5
		m, err := NewManager(cfg)
		require.NoError(t, err)

		m.Enter(100, market.Long, Inputs{})
		assert.InDelta(t, 95, m.Levels().Stop, 1e-12)
	})

	t.Run("atr", func(t *testing.T) {
		t.Parallel()
		cfg := percentConfig()
		cfg.StopRule = StopATR
		cfg.ATRMultiplier = 2
		m, err := NewManager(cfg)
		require.NoError(t, err)

		m.Enter(100, market.Long, Inputs{ATR: 1.5})
		assert.InDelta(t, 97, m.Levels().Stop, 1e-12)
	})

	t.Run("atr_missing_falls_back_to_percent", func(t *testing.T) {
		t.Parallel()
		cfg := percentConfig()
		cfg.StopRule = StopATR
		cfg.ATRMultiplier = 2
		m, err := NewManager(cfg)
		require.NoError(t, err)

		m.Enter(100, market.Long, Inputs{})
		assert.InDelta(t, 98, m.Levels().Stop, 1e-12)
	})

	t.Run("volatility", func(t *testing.T) {
		t.Parallel()
		cfg := percentConfig()
		cfg.StopRule = StopVolatility
		cfg.VolMultiplier = 3
		m, err := NewManager(cfg)
		require.NoError(t, err)

		m.Enter(100, market.Long, Inputs{Volatility: 2})
		assert.InDelta(t, 94, m.Levels().Stop, 1e-12)

		m.Exit()
		m.Enter(100, market.Long, Inputs{})
		assert.InDelta(t, 98, m.Levels().Stop, 1e-12)
	})
}

func trailingConfig() Config {
	return Config{
		StopRule:      StopPercent,
		StopLossPct:   0.10,
		TakeProfitPct: 0.50,
		UseTrailing:   true,
		TrailingPct:   0.05,
		ActivationPct: 0.02,
	}
}

func TestTrailingStop(t *testing.T) {
	t.Parallel()

	t.Run("activates_then_ratchets", func(t *testing.T) {
		t.Parallel()
		m, err := NewManager(trailingConfig())
		require.NoError(t, err)

		m.Enter(100, market.Long, Inputs{})

		// Below the activation threshold of 102: no trailing level yet.
		assert.Equal(t, ExitNone, m.OnPrice(101, Inputs{}))
		assert.Zero(t, m.Levels().TrailingStop)

		// Activation sets the level 5% under the reference.
		assert.Equal(t, ExitNone, m.OnPrice(103, Inputs{}))
		assert.InDelta(t, 103*0.95, m.Levels().TrailingStop, 1e-12)

		// New high tightens the level.
		assert.Equal(t, ExitNone, m.OnPrice(110, Inputs{}))
		assert.InDelta(t, 104.5, m.Levels().TrailingStop, 1e-12)

		// Pullback above the level never loosens it.
		assert.Equal(t, ExitNone, m.OnPrice(105, Inputs{}))
		assert.InDelta(t, 104.5, m.Levels().TrailingStop, 1e-12)

		// Crossing the level triggers the trailing exit.
		assert.Equal(t, ExitTrailingStop, m.OnPrice(104, Inputs{}))
	})

	t.Run("short_mirror", func(t *testing.T) {
		t.Parallel()
		m, err := NewManager(trailingConfig())
		require.NoError(t, err)

		m.Enter(100, market.Short, Inputs{})

		assert.Equal(t, ExitNone, m.OnPrice(97, Inputs{}))
		assert.InDelta(t, 97*1.05, m.Levels().TrailingStop, 1e-12)

		assert.Equal(t, ExitNone, m.OnPrice(90, Inputs{}))
		assert.InDelta(t, 94.5, m.Levels().TrailingStop, 1e-12)

		assert.Equal(t, ExitTrailingStop, m.OnPrice(95, Inputs{}))
	})

	t.Run("fixed_stop_takes_priority", func(t *testing.T) {
		t.Parallel()
		m, err := NewManager(trailingConfig())
		require.NoError(t, err)

		m.Enter(100, market.Long, Inputs{})
		assert.Equal(t, ExitNone, m.OnPrice(110, Inputs{}))

		// 85 breaches both the fixed stop (90) and the trailing level
		// (104.5); the fixed stop reason wins.
		assert.Equal(t, ExitStopLoss, m.OnPrice(85, Inputs{}))
	})
}

func TestExitClearsState(t *testing.T) {
	t.Parallel()

	m, err := NewManager(percentConfig())
	require.NoError(t, err)

	m.Enter(100, market.Long, Inputs{})
	require.True(t, m.Engaged())

	m.Exit()
	assert.False(t, m.Engaged())
	assert.Zero(t, m.Levels().Stop)
	assert.Equal(t, ExitNone, m.OnPrice(1, Inputs{}))
}

func TestDisengagedReportsNone(t *testing.T) {
	t.Parallel()

	m, err := NewManager(percentConfig())
	require.NoError(t, err)
	assert.False(t, m.Engaged())
	assert.Equal(t, ExitNone, m.OnPrice(50, Inputs{}))

	// Bad entries leave the manager disengaged.
	m.Enter(0, market.Long, Inputs{})
	assert.False(t, m.Engaged())
	m.Enter(100, market.Flat, Inputs{})
	assert.False(t, m.Engaged())
}
