package sizing

import (
	"fmt"

	"github.com/quantlab/backsim/market"
)

// KellyParams configures a Kelly-fraction sizer.
type KellyParams struct {
	// WinRate and WinLossRatio are the priors used until enough trade
	// history accumulates.
	WinRate      float64
	WinLossRatio float64
	// Fraction scales the raw Kelly percentage down (full Kelly is
	// considered too aggressive).
	Fraction float64
	// Lookback is the number of realized trades required before the
	// empirical estimate replaces the priors.
	Lookback int
	// MaxAllocation caps the applied allocation to bound tail risk.
	MaxAllocation float64
}

// Kelly sizes positions with the Kelly criterion f = W - (1-W)/R,
// scaled by a configured fraction and capped at a maximum allocation.
type Kelly struct {
	p KellyParams
}

// NewKelly creates a Kelly-fraction sizer.
func NewKelly(p KellyParams) (*Kelly, error) {
	if p.WinRate <= 0 || p.WinRate >= 1 {
		return nil, fmt.Errorf("sizing: kelly win rate %v outside (0, 1)", p.WinRate)
	}
	if p.WinLossRatio <= 0 {
		return nil, fmt.Errorf("sizing: kelly win/loss ratio %v must be positive", p.WinLossRatio)
	}
	if p.Fraction <= 0 || p.Fraction > 1 {
		return nil, fmt.Errorf("sizing: kelly fraction %v outside (0, 1]", p.Fraction)
	}
	if p.Lookback < 1 {
		return nil, fmt.Errorf("sizing: kelly lookback %d must be positive", p.Lookback)
	}
	if p.MaxAllocation <= 0 || p.MaxAllocation > 1 {
		return nil, fmt.Errorf("sizing: kelly max allocation %v outside (0, 1]", p.MaxAllocation)
	}
	return &Kelly{p: p}, nil
}

func (k *Kelly) Name() string {
	return fmt.Sprintf("Kelly-%.0f%%", k.p.Fraction*100)
}

func (k *Kelly) Size(capital, price float64, signal market.Signal, ctx Context) float64 {
	if !tradeable(capital, price, signal) {
		return 0
	}

	winRate, winLoss := k.p.WinRate, k.p.WinLossRatio
	if len(ctx.TradePnL) >= k.p.Lookback {
		winRate, winLoss = estimateFromHistory(ctx.TradePnL, k.p.Lookback, winRate, winLoss)
	}

	allocation := Allocation(winRate, winLoss, k.p.Fraction, k.p.MaxAllocation)
	return capital * allocation / price * float64(signal)
}

// Allocation computes the applied capital fraction: the Kelly
// percentage clamped to [0, 1], scaled by fraction, capped at
// maxAllocation. The result is always in [0, maxAllocation].
func Allocation(winRate, winLossRatio, fraction, maxAllocation float64) float64 {
	kelly := winRate - (1-winRate)/winLossRatio
	if kelly < 0 {
		kelly = 0
	}
	if kelly > 1 {
		kelly = 1
	}
	allocation := kelly * fraction
	if allocation > maxAllocation {
		allocation = maxAllocation
	}
	return allocation
}

// estimateFromHistory derives the empirical win rate and win/loss ratio
// from the most recent lookback realized P&Ls. Degenerate windows (all
// wins or all losses) keep the configured ratio prior.
func estimateFromHistory(pnls []float64, lookback int, defWinRate, defWinLoss float64) (float64, float64) {
	recent := pnls[len(pnls)-lookback:]

	var winSum, lossSum float64
	var wins, losses int
	for _, pnl := range recent {
		if pnl > 0 {
			wins++
			winSum += pnl
		} else if pnl < 0 {
			losses++
			lossSum += -pnl
		}
	}

	winRate := defWinRate
	if len(recent) > 0 {
		winRate = float64(wins) / float64(len(recent))
	}

	winLoss := defWinLoss
	if wins > 0 && losses > 0 {
		avgWin := winSum / float64(wins)
		avgLoss := lossSum / float64(losses)
		if avgLoss > 0 {
			winLoss = avgWin / avgLoss
		}
	}
	return winRate, winLoss
}
