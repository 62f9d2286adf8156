package feed

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	cserrors "chartscan/internal/errors"
	"chartscan/internal/models"
)

// csvTime parses the timestamp column, accepting RFC3339 and plain
// date/datetime layouts.
type csvTime struct {
	time.Time
}

var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (t *csvTime) UnmarshalCSV(raw string) error {
	for _, layout := range csvTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}

func (t csvTime) MarshalCSV() (string, error) {
	return t.Format(time.RFC3339), nil
}

// csvCandle is the on-disk row layout.
type csvCandle struct {
	Timestamp csvTime `csv:"timestamp"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    int64   `csv:"volume"`
}

// CSVProvider reads candles from per-instrument CSV files in a directory.
// Files are named <SYMBOL>_<timeframe>.csv.
type CSVProvider struct {
	dir string
}

func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

// Path returns the file an instrument's candles are read from.
func (p *CSVProvider) Path(symbol string, timeframe models.Timeframe) string {
	return filepath.Join(p.dir, fmt.Sprintf("%s_%s.csv", symbol, timeframe))
}

// Candles loads, normalizes and range-filters an instrument's series.
func (p *CSVProvider) Candles(ctx context.Context, symbol string, timeframe models.Timeframe, from, to time.Time) ([]models.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := p.Path(symbol, timeframe)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cserrors.NewDataError("candles", symbol, fmt.Sprintf("no candle file at %s", path), cserrors.ErrDataNotFound)
		}
		return nil, cserrors.NewDataError("candles", symbol, "failed to open candle file", err)
	}
	defer f.Close()

	return ReadCandles(f, from, to)
}

// ReadCandles decodes CSV rows from r, normalizes them and keeps those inside
// [from, to]. Zero bounds mean unbounded.
func ReadCandles(r io.Reader, from, to time.Time) ([]models.Candle, error) {
	var rows []csvCandle
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse candle CSV: %w", err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		ts := row.Timestamp.Time
		if !from.IsZero() && ts.Before(from) {
			continue
		}
		if !to.IsZero() && ts.After(to) {
			continue
		}
		candles = append(candles, models.Candle{
			Timestamp: ts,
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
		})
	}
	return Normalize(candles), nil
}
