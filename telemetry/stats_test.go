package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/biosim/animals"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"clamped above", []float64{1, 2, 3, 4, 5}, 1.5, 5.0},
		{"p50", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.5, 5.0},
		{"interpolated", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.35, 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	p := animals.DefaultParams(animals.Herbivore)
	var as []*animals.Animal
	for i := 1; i <= 10; i++ {
		as = append(as, animals.New(animals.Herbivore, &p, i, float64(i)))
	}
	s := Summarize(as)

	if s.Count != 10 {
		t.Errorf("count = %d, want 10", s.Count)
	}
	if math.Abs(s.WeightMean-5.5) > 0.001 {
		t.Errorf("weight mean = %v, want 5.5", s.WeightMean)
	}
	if math.Abs(s.AgeMean-5.5) > 0.001 {
		t.Errorf("age mean = %v, want 5.5", s.AgeMean)
	}
	if s.WeightP10 > s.WeightP50 || s.WeightP50 > s.WeightP90 {
		t.Errorf("percentiles out of order: %v %v %v", s.WeightP10, s.WeightP50, s.WeightP90)
	}
	if s.FitnessMean <= 0 || s.FitnessMean >= 1 {
		t.Errorf("fitness mean = %v, want in (0, 1)", s.FitnessMean)
	}
	// Input order must not change.
	if as[0].Weight != 1 {
		t.Error("Summarize reordered its input")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if s := Summarize(nil); s != (Summary{}) {
		t.Errorf("empty input should return zero summary, got %+v", s)
	}
}
