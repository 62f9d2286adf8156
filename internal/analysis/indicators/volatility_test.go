package indicators

import (
	"errors"
	"math"
	"testing"

	"chartscan/internal/models"
)

func flatCandles(n int) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{Open: 100, High: 101, Low: 99, Close: 100}
	}
	return candles
}

func TestATRCalculate(t *testing.T) {
	atr := NewATR(3)
	result, err := atr.Calculate(flatCandles(6))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(result) != 6 {
		t.Fatalf("expected 6 values, got %d", len(result))
	}
	// Warmup slots are zero, then a constant 2-point range everywhere.
	if result[0] != 0 || result[1] != 0 {
		t.Errorf("expected zero warmup, got %v", result[:2])
	}
	for i := 2; i < 6; i++ {
		if math.Abs(result[i]-2) > 1e-9 {
			t.Errorf("result[%d] = %v, want 2", i, result[i])
		}
	}
}

func TestATRGapExpandsTrueRange(t *testing.T) {
	candles := flatCandles(5)
	// Gap up: true range measures from the prior close.
	candles[4] = models.Candle{Open: 106, High: 107, Low: 105, Close: 106}

	result, err := NewATR(3).Calculate(candles)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	// Wilder smoothing: (2*2 + 7) / 3.
	want := (2.0*2 + 7) / 3
	if math.Abs(result[4]-want) > 1e-9 {
		t.Errorf("result[4] = %v, want %v", result[4], want)
	}
}

func TestATRErrors(t *testing.T) {
	if _, err := NewATR(0).Calculate(flatCandles(10)); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := NewATR(3).Calculate(flatCandles(3)); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestATRName(t *testing.T) {
	if got := NewATR(14).Name(); got != "ATR_14" {
		t.Errorf("Name = %q", got)
	}
	if got := NewATR(14).Period(); got != 14 {
		t.Errorf("Period = %d", got)
	}
}
