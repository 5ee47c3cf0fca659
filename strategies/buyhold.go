package strategies

import "github.com/quantlab/backsim/market"

// BuyHold goes long on every bar and never exits. The baseline every
// other strategy is measured against.
type BuyHold struct{}

func NewBuyHold() *BuyHold { return &BuyHold{} }

func (*BuyHold) Name() string { return "buyhold" }

func (*BuyHold) GenerateSignals(bars []market.Bar) []market.Signal {
	out := make([]market.Signal, len(bars))
	for i := range out {
		out[i] = market.Long
	}
	return out
}
