// Package market defines the price-series data model shared by the
// backtest engine: OHLCV bars, validated bar series, and directional
// signals.
package market

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoData is returned when a series is constructed from an empty
	// bar slice.
	ErrNoData = errors.New("market: insufficient data, empty bar series")

	// ErrOutOfOrder is returned when bar timestamps are not strictly
	// increasing (duplicates included).
	ErrOutOfOrder = errors.New("market: bar timestamps not strictly increasing")
)

// Bar is one timestamped OHLCV price observation. VWAP is optional and
// zero when the data source does not provide it.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	VWAP   float64
}

// Validate checks the OHLC range invariant for a single bar.
func (b Bar) Validate() error {
	if b.High < b.Open || b.High < b.Close {
		return fmt.Errorf("market: bar %s: high %.6f below open/close", b.Time.Format(time.RFC3339), b.High)
	}
	if b.Low > b.Open || b.Low > b.Close {
		return fmt.Errorf("market: bar %s: low %.6f above open/close", b.Time.Format(time.RFC3339), b.Low)
	}
	return nil
}

// Series is an ordered, validated sequence of bars for one instrument.
type Series struct {
	Instrument string
	Bars       []Bar
}

// NewSeries validates the bar slice and wraps it in a Series. The engine
// assumes strictly ordered input; sorting and deduplication are the
// caller's responsibility, so violations fail fast here.
func NewSeries(instrument string, bars []Bar) (*Series, error) {
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return nil, err
		}
		if i > 0 && !bars[i-1].Time.Before(b.Time) {
			return nil, fmt.Errorf("%w: bar %d (%s) does not follow bar %d (%s)",
				ErrOutOfOrder, i, b.Time.Format(time.RFC3339), i-1, bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return &Series{Instrument: instrument, Bars: bars}, nil
}

// Len returns the number of bars in the series.
func (s *Series) Len() int { return len(s.Bars) }

// Closes returns the closing prices of the first n bars. It is the
// price-history view handed to sizers and indicators.
func (s *Series) Closes(n int) []float64 {
	if n > len(s.Bars) {
		n = len(s.Bars)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = s.Bars[i].Close
	}
	return out
}

// Start returns the timestamp of the first bar.
func (s *Series) Start() time.Time { return s.Bars[0].Time }

// End returns the timestamp of the last bar.
func (s *Series) End() time.Time { return s.Bars[len(s.Bars)-1].Time }
