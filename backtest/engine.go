// Package backtest drives a strategy over a bar series: per-bar signal
// lookup, risk check, sizing and execution against the portfolio
// ledger, then a metrics pass over the finished equity curve.
package backtest

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/quantlab/backsim/indicators"
	"github.com/quantlab/backsim/market"
	"github.com/quantlab/backsim/metrics"
	"github.com/quantlab/backsim/portfolio"
	"github.com/quantlab/backsim/risk"
	"github.com/quantlab/backsim/sizing"
	"github.com/quantlab/backsim/strategies"
)

// Options tunes one engine run. Zero values select the defaults noted
// per field.
type Options struct {
	InitialCapital float64 // required, positive
	Commission     float64 // fraction of gross notional, [0, 1)
	Slippage       float64 // fraction of fill price, [0, 1)

	// Risk is the exit state machine; nil runs without stop/take/trail
	// exits (signal reversals and end of data still close positions).
	Risk *risk.Manager
	// ATRPeriod feeds the risk manager's ATR stop rule. Zero selects 14.
	ATRPeriod int
	// VolLookback feeds the volatility stop rule. Zero selects 20.
	VolLookback int

	RiskFreeRate   float64
	PeriodsPerYear float64 // zero selects metrics.DefaultPeriodsPerYear

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// ShowProgress renders a terminal progress bar over the bar loop.
	ShowProgress bool
}

// Engine binds a series, a strategy and a sizer to one run. Engines are
// single-use: Run consumes the portfolio state.
type Engine struct {
	series *market.Series
	strat  strategies.Strategy
	sizer  sizing.Sizer
	opts   Options
	log    *zap.Logger
}

// New validates the wiring and returns a ready engine.
func New(series *market.Series, strat strategies.Strategy, sizer sizing.Sizer, opts Options) (*Engine, error) {
	if series == nil || series.Len() == 0 {
		return nil, market.ErrNoData
	}
	if strat == nil {
		return nil, fmt.Errorf("backtest: nil strategy")
	}
	if sizer == nil {
		return nil, fmt.Errorf("backtest: nil sizer")
	}
	if opts.ATRPeriod <= 0 {
		opts.ATRPeriod = 14
	}
	if opts.VolLookback <= 0 {
		opts.VolLookback = 20
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{series: series, strat: strat, sizer: sizer, opts: opts, log: log}, nil
}

// Run executes the simulation loop and reduces the output to a Result.
// Identical inputs always produce an identical equity curve and trade
// log; nothing in the loop consults the wall clock or unseeded
// randomness.
func (e *Engine) Run() (*Result, error) {
	bars := e.series.Bars

	// Short signal slices read as Flat on the trailing bars; long ones
	// are truncated to the series.
	sigs := e.strat.GenerateSignals(bars)
	if len(sigs) < len(bars) {
		padded := make([]market.Signal, len(bars))
		copy(padded, sigs)
		sigs = padded
	}

	pf, err := portfolio.New(e.opts.InitialCapital, e.opts.Commission, e.opts.Slippage)
	if err != nil {
		return nil, err
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	atr := indicators.NewATR(e.opts.ATRPeriod)
	bar := e.progressBar(len(bars))

	var diag Diagnostics
	for i, b := range bars {
		price := b.Close
		pf.Mark(price, b.Time)
		atr.Update(b)
		if bar != nil {
			bar.Add(1)
		}

		// No history to act on yet; an entry here would be trading on
		// information from before the run.
		if i == 0 {
			continue
		}

		in := e.riskInputs(atr, closes[:i+1], price)

		if e.opts.Risk != nil && e.opts.Risk.Engaged() {
			if reason := e.opts.Risk.OnPrice(price, in); reason != risk.ExitNone {
				trade, err := pf.Close(price, b.Time, reason.String())
				if err != nil {
					return nil, err
				}
				e.opts.Risk.Exit()
				e.log.Debug("risk exit",
					zap.String("reason", reason.String()),
					zap.Float64("price", trade.Price),
					zap.Float64("pnl", trade.RealizedPL))
				// A risk exit consumes the bar; re-entry waits for the
				// next signal.
				continue
			}
		}

		sig := sigs[i]
		if !sig.Valid() {
			diag.MalformedSignals++
			e.log.Warn("malformed signal treated as hold",
				zap.Int("bar", i), zap.Int8("signal", int8(sig)))
			sig = market.Flat
		}
		if sig == market.Flat || int(sig) == pf.Position().Direction() {
			continue
		}

		// A reversal closes the open leg first so the new side is sized
		// from the capital the close restores, not the depleted (or
		// short-sale inflated) mid-position cash.
		if !pf.Position().IsFlat() {
			if _, err := pf.Close(price, b.Time, risk.ExitSignal.String()); err != nil {
				return nil, err
			}
			if e.opts.Risk != nil {
				e.opts.Risk.Exit()
			}
		}

		qty := e.sizer.Size(pf.Cash(), price, sig, sizing.Context{
			Closes:   closes[:i],
			TradePnL: pf.RealizedPnL(),
		})
		if math.IsNaN(qty) || math.IsInf(qty, 0) || qty*float64(sig) < 0 {
			diag.MalformedSizes++
			e.log.Warn("malformed size treated as zero",
				zap.Int("bar", i), zap.Float64("qty", qty))
			qty = 0
		}

		if err := pf.Execute(sig, math.Abs(qty), price, b.Time); err != nil {
			return nil, err
		}

		if e.opts.Risk != nil {
			if pos := pf.Position(); !pos.IsFlat() {
				// Arm at the actual fill so stop distances include
				// slippage.
				lv := e.opts.Risk.Enter(pos.EntryPrice, sig, in)
				e.log.Debug("entered",
					zap.String("signal", sig.String()),
					zap.Float64("units", pos.Units),
					zap.Float64("fill", pos.EntryPrice),
					zap.Float64("stop", lv.Stop),
					zap.Float64("take", lv.TakeProfit))
			}
		}
	}

	// The run always ends flat.
	if !pf.Position().IsFlat() {
		last := bars[len(bars)-1]
		if _, err := pf.Close(last.Close, last.Time, risk.ExitEndOfData.String()); err != nil {
			return nil, err
		}
		if e.opts.Risk != nil {
			e.opts.Risk.Exit()
		}
	}

	report := metrics.Compute(pf.EquityCurve(), pf.Trades(), metrics.Options{
		RiskFreeRate:   e.opts.RiskFreeRate,
		PeriodsPerYear: e.opts.PeriodsPerYear,
	})

	res := &Result{
		Instrument:     e.series.Instrument,
		Strategy:       e.strat.Name(),
		Sizer:          e.sizer.Name(),
		EquityCurve:    pf.EquityCurve(),
		Trades:         pf.Trades(),
		Metrics:        report,
		InitialCapital: e.opts.InitialCapital,
		FinalCapital:   pf.Cash(),
		Diagnostics:    diag,
	}

	e.log.Info("run complete",
		zap.String("instrument", res.Instrument),
		zap.String("strategy", res.Strategy),
		zap.Int("bars", len(bars)),
		zap.Int("trades", len(res.Trades)),
		zap.Float64("final_capital", res.FinalCapital),
		zap.Float64("total_return", report.TotalReturn),
		zap.Int("malformed_signals", diag.MalformedSignals),
		zap.Int("malformed_sizes", diag.MalformedSizes))

	return res, nil
}

// riskInputs assembles the optional per-bar context for the risk rules.
// Values left at zero mean "unavailable" and select the percent
// fallback.
func (e *Engine) riskInputs(atr *indicators.ATR, closes []float64, price float64) risk.Inputs {
	var in risk.Inputs
	if atr.Ready() {
		in.ATR = atr.Value()
	}
	window := closes
	if n := e.opts.VolLookback + 1; len(window) > n {
		window = window[len(window)-n:]
	}
	if sigma := indicators.ReturnVolatility(window); sigma > 0 {
		// Return volatility scaled to price units.
		in.Volatility = sigma * price
	}
	return in
}
