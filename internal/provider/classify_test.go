package provider

import (
	"math"
	"testing"

	"PriceBoard/internal/model"
)

func TestAdjustPrice(t *testing.T) {
	// Raw market price 500 currency/MWh is 0.5 currency/kWh; in öre:
	// 1.25×50 + 84.225 = 146.725 öre = 1.46725 kr/kWh.
	got := AdjustPrice(500.0 / 1000.0)
	if math.Abs(got-1.46725) > 1e-9 {
		t.Errorf("AdjustPrice(0.5) = %v, want 1.46725", got)
	}

	// Zero energy price still carries the fixed grid offset.
	if got := AdjustPrice(0); math.Abs(got-0.84225) > 1e-9 {
		t.Errorf("AdjustPrice(0) = %v, want 0.84225", got)
	}
}

func TestClassifyFromAverage_Bands(t *testing.T) {
	tests := []struct {
		price float64
		want  model.Level
	}{
		{0.30, model.LevelVeryCheap},
		{0.60, model.LevelVeryCheap},
		{0.61, model.LevelCheap},
		{0.90, model.LevelCheap},
		{0.91, model.LevelNormal},
		{1.00, model.LevelNormal},
		{1.14, model.LevelNormal},
		{1.15, model.LevelExpensive},
		{1.39, model.LevelExpensive},
		{1.40, model.LevelVeryExpensive},
		{3.00, model.LevelVeryExpensive},
	}
	for _, tt := range tests {
		if got := ClassifyFromAverage(tt.price, 1.0); got != tt.want {
			t.Errorf("ClassifyFromAverage(%.2f, 1.0) = %s, want %s", tt.price, got, tt.want)
		}
	}
}

func TestClassifyFromAverage_DegenerateBaseline(t *testing.T) {
	if got := ClassifyFromAverage(1.0, 0); got != model.LevelUnknown {
		t.Errorf("zero baseline = %s, want UNKNOWN", got)
	}
	if got := ClassifyFromAverage(1.0, 0.00005); got != model.LevelUnknown {
		t.Errorf("epsilon baseline = %s, want UNKNOWN", got)
	}
}

func TestClassify_MonotonicSeverity(t *testing.T) {
	rank := map[model.Level]int{
		model.LevelVeryCheap:     0,
		model.LevelCheap:         1,
		model.LevelNormal:        2,
		model.LevelExpensive:     3,
		model.LevelVeryExpensive: 4,
	}
	prev := -1
	for price := 0.0; price <= 5.0; price += 0.01 {
		level := ClassifyFromAverage(price, 1.0)
		r, ok := rank[level]
		if !ok {
			t.Fatalf("unexpected level %s at price %.2f", level, price)
		}
		if r < prev {
			t.Fatalf("severity decreased at price %.2f: %s", price, level)
		}
		prev = r
	}

	prev = -1
	for price := 0.0; price <= 5.0; price += 0.01 {
		r := rank[ClassifyAbsolute(price)]
		if r < prev {
			t.Fatalf("absolute severity decreased at price %.2f", price)
		}
		prev = r
	}
}

func TestClassifyAbsolute_Bands(t *testing.T) {
	tests := []struct {
		price float64
		want  model.Level
	}{
		{0.20, model.LevelVeryCheap},
		{0.64, model.LevelVeryCheap},
		{0.65, model.LevelCheap},
		{0.99, model.LevelCheap},
		{1.00, model.LevelNormal},
		{1.49, model.LevelNormal},
		{1.50, model.LevelExpensive},
		{1.99, model.LevelExpensive},
		{2.00, model.LevelVeryExpensive},
	}
	for _, tt := range tests {
		if got := ClassifyAbsolute(tt.price); got != tt.want {
			t.Errorf("ClassifyAbsolute(%.2f) = %s, want %s", tt.price, got, tt.want)
		}
	}
}
