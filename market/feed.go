package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
)

// LoadCSV reads an OHLCV bar file into a validated Series.
//
// The expected columns are timestamp,open,high,low,close,volume with an
// optional trailing vwap column. Header names are matched
// case-insensitively and common aliases (time, date, datetime, vol) map
// to the canonical names. Files ending in .xz are decompressed
// transparently, matching the compressed datasets produced by the data
// download tooling.
func LoadCSV(path, instrument string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("market: open bar file: %w", err)
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("market: xz reader for %s: %w", path, err)
		}
		src = xr
	}

	bars, err := ReadBars(src)
	if err != nil {
		return nil, fmt.Errorf("market: %s: %w", path, err)
	}
	return NewSeries(instrument, bars)
}

// ReadBars parses CSV bar rows from r. The first row must be a header.
func ReadBars(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var bars []Bar
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(row) == 0 {
			continue
		}
		b, err := cols.parse(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// columnMap holds the index of each canonical column in the input
// header, -1 for absent optional columns.
type columnMap struct {
	ts, open, high, low, close, volume, vwap int
}

func mapColumns(header []string) (columnMap, error) {
	cols := columnMap{ts: -1, open: -1, high: -1, low: -1, close: -1, volume: -1, vwap: -1}
	for i, name := range header {
		switch canonicalColumn(name) {
		case "timestamp":
			cols.ts = i
		case "open":
			cols.open = i
		case "high":
			cols.high = i
		case "low":
			cols.low = i
		case "close":
			cols.close = i
		case "volume":
			cols.volume = i
		case "vwap":
			cols.vwap = i
		}
	}
	missing := []string{}
	for name, idx := range map[string]int{
		"timestamp": cols.ts, "open": cols.open, "high": cols.high,
		"low": cols.low, "close": cols.close, "volume": cols.volume,
	} {
		if idx < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("header missing required columns %v (got %v)", missing, header)
	}
	return cols, nil
}

func canonicalColumn(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "timestamp", "time", "date", "datetime":
		return "timestamp"
	case "open", "o":
		return "open"
	case "high", "h":
		return "high"
	case "low", "l":
		return "low"
	case "close", "c":
		return "close"
	case "volume", "vol", "v":
		return "volume"
	case "vwap":
		return "vwap"
	default:
		return ""
	}
}

func (c columnMap) parse(row []string) (Bar, error) {
	need := c.volume
	if c.vwap > need {
		need = c.vwap
	}
	if len(row) <= need {
		return Bar{}, fmt.Errorf("short row: %v", row)
	}

	ts, err := parseTime(row[c.ts])
	if err != nil {
		return Bar{}, err
	}

	b := Bar{Time: ts}
	for _, fld := range []struct {
		idx int
		dst *float64
	}{
		{c.open, &b.Open},
		{c.high, &b.High},
		{c.low, &b.Low},
		{c.close, &b.Close},
		{c.volume, &b.Volume},
	} {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[fld.idx]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad number %q: %w", row[fld.idx], err)
		}
		*fld.dst = v
	}
	if c.vwap >= 0 {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[c.vwap]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad vwap %q: %w", row[c.vwap], err)
		}
		b.VWAP = v
	}
	return b, nil
}

// parseTime accepts RFC3339 (with or without sub-second precision),
// a plain date, or unix seconds.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad timestamp %q", s)
}
