package patterns

import (
	"math"
	"testing"
)

func TestFitWithR2Line(t *testing.T) {
	points := []SwingPoint{
		{Index: 0, Price: 1},
		{Index: 5, Price: 11},
		{Index: 10, Price: 21},
		{Index: 15, Price: 31},
	}

	line, ok := FitWithR2(points)
	if !ok {
		t.Fatal("collinear points should not degenerate")
	}
	if math.Abs(line.Slope-2) > 1e-6 {
		t.Errorf("slope = %v, want 2", line.Slope)
	}
	if math.Abs(line.Intercept-1) > 1e-6 {
		t.Errorf("intercept = %v, want 1", line.Intercept)
	}
	if line.R2 < 0.999 {
		t.Errorf("R2 = %v, want ~1", line.R2)
	}
	if got := line.ValueAt(7); math.Abs(got-15) > 1e-6 {
		t.Errorf("ValueAt(7) = %v, want 15", got)
	}
}

func TestFitWithR2Degenerate(t *testing.T) {
	tests := []struct {
		name   string
		points []SwingPoint
		mean   float64
	}{
		{"no points", nil, 0},
		{"single point", []SwingPoint{{Index: 3, Price: 42}}, 42},
		{"same index", []SwingPoint{{Index: 3, Price: 40}, {Index: 3, Price: 44}}, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, ok := FitWithR2(tt.points)
			if ok {
				t.Error("expected the flat fallback")
			}
			if line.Slope != 0 {
				t.Errorf("fallback slope = %v, want 0", line.Slope)
			}
			if line.Intercept != tt.mean {
				t.Errorf("fallback intercept = %v, want %v", line.Intercept, tt.mean)
			}
			if line.R2 != 0 {
				t.Errorf("fallback R2 = %v, want 0", line.R2)
			}
		})
	}
}

func TestTrendlineFit(t *testing.T) {
	collinear := []SwingPoint{
		{Index: 0, Price: 100},
		{Index: 10, Price: 95},
		{Index: 20, Price: 90},
	}
	if _, quality := TrendlineFit(collinear); quality < 0.999 {
		t.Errorf("collinear quality = %v, want ~1", quality)
	}

	noisy := []SwingPoint{
		{Index: 0, Price: 100},
		{Index: 10, Price: 60},
		{Index: 20, Price: 110},
		{Index: 30, Price: 55},
	}
	if _, quality := TrendlineFit(noisy); quality >= 0.9 {
		t.Errorf("noisy quality = %v, want < 0.9", quality)
	}

	if _, quality := TrendlineFit(nil); quality != 0 {
		t.Errorf("empty input quality = %v, want 0", quality)
	}
}
