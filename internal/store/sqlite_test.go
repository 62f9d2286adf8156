package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"chartscan/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testCandles(n int) []models.Candle {
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, n)
	for i := range candles {
		base := 100 + float64(i)
		candles[i] = models.Candle{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      base,
			High:      base + 1,
			Low:       base - 1,
			Close:     base + 0.5,
			Volume:    int64(1000 * (i + 1)),
		}
	}
	return candles
}

func TestCandleRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	candles := testCandles(5)

	if err := s.SaveCandles(ctx, "INFY", "1day", candles); err != nil {
		t.Fatalf("SaveCandles: %v", err)
	}

	got, err := s.GetCandles(ctx, "INFY", "1day", candles[0].Timestamp, candles[4].Timestamp)
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 candles, got %d", len(got))
	}
	for i, c := range got {
		want := candles[i]
		if !c.Timestamp.Equal(want.Timestamp) || c.Close != want.Close || c.Volume != want.Volume {
			t.Errorf("candle %d: got %+v, want %+v", i, c, want)
		}
	}

	// Narrow range excludes the edges.
	got, err = s.GetCandles(ctx, "INFY", "1day", candles[1].Timestamp, candles[3].Timestamp)
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 candles in range, got %d", len(got))
	}

	// Zero bounds mean the whole series.
	got, err = s.GetCandles(ctx, "INFY", "1day", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("expected all candles for zero bounds, got %d", len(got))
	}

	// Other instruments stay invisible.
	got, err = s.GetCandles(ctx, "TCS", "1day", candles[0].Timestamp, candles[4].Timestamp)
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no candles for other symbol, got %d", len(got))
	}
}

func TestSaveCandlesUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	candles := testCandles(3)

	if err := s.SaveCandles(ctx, "INFY", "1day", candles); err != nil {
		t.Fatalf("SaveCandles: %v", err)
	}

	candles[1].Close = 999
	if err := s.SaveCandles(ctx, "INFY", "1day", candles); err != nil {
		t.Fatalf("SaveCandles: %v", err)
	}

	got, err := s.GetCandles(ctx, "INFY", "1day", candles[0].Timestamp, candles[2].Timestamp)
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("re-saving must not duplicate rows, got %d", len(got))
	}
	if got[1].Close != 999 {
		t.Errorf("expected the re-saved close, got %v", got[1].Close)
	}
}

func TestGetCandlesFreshness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ts, err := s.GetCandlesFreshness(ctx, "INFY", "1day")
	if err != nil {
		t.Fatalf("GetCandlesFreshness: %v", err)
	}
	if !ts.IsZero() {
		t.Errorf("expected zero time for empty store, got %v", ts)
	}

	candles := testCandles(3)
	if err := s.SaveCandles(ctx, "INFY", "1day", candles); err != nil {
		t.Fatalf("SaveCandles: %v", err)
	}
	ts, err = s.GetCandlesFreshness(ctx, "INFY", "1day")
	if err != nil {
		t.Fatalf("GetCandlesFreshness: %v", err)
	}
	if !ts.Equal(candles[2].Timestamp) {
		t.Errorf("freshness = %v, want %v", ts, candles[2].Timestamp)
	}
}

func TestScanRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	scanTime := time.Date(2024, time.June, 10, 9, 30, 0, 0, time.UTC)

	records := []ScanRecord{
		{
			Symbol:      "INFY",
			Timeframe:   "1day",
			ScanTime:    scanTime,
			PatternType: "double_top",
			Status:      "completed",
			Confidence:  0.82,
			StartTime:   scanTime.AddDate(0, 0, -40),
			EndTime:     scanTime.AddDate(0, 0, -10),
			BreakoutAt:  scanTime.AddDate(0, 0, -5),
			Outcome:     "target_reached",
		},
		{
			Symbol:      "INFY",
			Timeframe:   "1day",
			ScanTime:    scanTime,
			PatternType: "falling_wedge",
			Status:      "forming",
			Confidence:  0.64,
			StartTime:   scanTime.AddDate(0, 0, -30),
			EndTime:     scanTime,
		},
	}
	if err := s.SaveScan(ctx, records); err != nil {
		t.Fatalf("SaveScan: %v", err)
	}

	got, err := s.GetScans(ctx, ScanFilter{Symbol: "INFY"})
	if err != nil {
		t.Fatalf("GetScans: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	for _, r := range got {
		switch r.PatternType {
		case "double_top":
			if r.BreakoutAt.IsZero() || r.Outcome != "target_reached" {
				t.Errorf("confirmed record lost fields: %+v", r)
			}
		case "falling_wedge":
			if !r.BreakoutAt.IsZero() {
				t.Errorf("unconfirmed record grew a breakout: %+v", r)
			}
			if r.Outcome != "" {
				t.Errorf("unconfirmed record grew an outcome: %+v", r)
			}
		default:
			t.Errorf("unexpected record %+v", r)
		}
	}

	byType, err := s.GetScans(ctx, ScanFilter{PatternType: "double_top"})
	if err != nil {
		t.Fatalf("GetScans: %v", err)
	}
	if len(byType) != 1 || byType[0].Status != "completed" {
		t.Errorf("type filter returned %+v", byType)
	}

	limited, err := s.GetScans(ctx, ScanFilter{Limit: 1})
	if err != nil {
		t.Fatalf("GetScans: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit ignored, got %d records", len(limited))
	}
}

func TestGetPatternStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	scanTime := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	records := []ScanRecord{
		{Symbol: "A", Timeframe: "1day", ScanTime: scanTime, PatternType: "double_top", Status: "completed", Confidence: 0.8, StartTime: scanTime, EndTime: scanTime, Outcome: "target_reached"},
		{Symbol: "B", Timeframe: "1day", ScanTime: scanTime, PatternType: "double_top", Status: "completed", Confidence: 0.6, StartTime: scanTime, EndTime: scanTime, Outcome: "failure"},
		{Symbol: "C", Timeframe: "1day", ScanTime: scanTime, PatternType: "flag", Status: "forming", Confidence: 0.5, StartTime: scanTime, EndTime: scanTime},
	}
	if err := s.SaveScan(ctx, records); err != nil {
		t.Fatalf("SaveScan: %v", err)
	}

	stats, err := s.GetPatternStats(ctx, DateRange{})
	if err != nil {
		t.Fatalf("GetPatternStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected stats for 2 pattern types, got %+v", stats)
	}

	top := stats[0]
	if top.PatternType != "double_top" || top.Total != 2 || top.Completed != 2 {
		t.Errorf("unexpected top row: %+v", top)
	}
	if top.TargetReached != 1 || top.Failed != 1 {
		t.Errorf("outcome counts wrong: %+v", top)
	}
	if top.AvgConfidence < 0.69 || top.AvgConfidence > 0.71 {
		t.Errorf("avg confidence = %v, want 0.7", top.AvgConfidence)
	}

	// Out-of-range query aggregates nothing.
	empty, err := s.GetPatternStats(ctx, DateRange{Start: scanTime.AddDate(1, 0, 0)})
	if err != nil {
		t.Fatalf("GetPatternStats: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no stats, got %+v", empty)
	}
}

func TestSymbols(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddSymbol(ctx, "INFY", "NSE"); err != nil {
		t.Fatalf("AddSymbol: %v", err)
	}
	if err := s.AddSymbol(ctx, "INFY", "NSE"); err != nil {
		t.Fatalf("AddSymbol twice: %v", err)
	}
	if err := s.AddSymbol(ctx, "AAPL", "NASDAQ"); err != nil {
		t.Fatalf("AddSymbol: %v", err)
	}

	symbols, err := s.ListSymbols(ctx)
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("expected 2 symbols, got %+v", symbols)
	}
	if symbols[0].Symbol != "AAPL" || symbols[1].Symbol != "INFY" {
		t.Errorf("unexpected order: %+v", symbols)
	}
}
