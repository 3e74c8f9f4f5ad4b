package rng

import (
	"math"
	"testing"
)

func TestSameSeedSameStream(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d differs: %f vs %f", i, x, y)
		}
		if x, y := a.Normal(8, 1.5), b.Normal(8, 1.5); x != y {
			t.Fatalf("normal draw %d differs: %f vs %f", i, x, y)
		}
	}
}

func TestBernoulliBounds(t *testing.T) {
	r := New(1)
	for i := 0; i < 1000; i++ {
		if r.Bernoulli(0) {
			t.Fatal("Bernoulli(0) returned true")
		}
		if !r.Bernoulli(1) {
			t.Fatal("Bernoulli(1) returned false")
		}
	}
}

func TestNormalMoments(t *testing.T) {
	r := New(7)
	const n = 20000
	var sum, sumSq float64
	for i := 0; i < n; i++ {
		x := r.Normal(8, 1.5)
		sum += x
		sumSq += x * x
	}
	mean := sum / n
	std := math.Sqrt(sumSq/n - mean*mean)
	if math.Abs(mean-8) > 0.1 {
		t.Errorf("expected mean near 8, got %f", mean)
	}
	if math.Abs(std-1.5) > 0.1 {
		t.Errorf("expected std near 1.5, got %f", std)
	}
}

func TestNormalZeroSigma(t *testing.T) {
	r := New(3)
	if got := r.Normal(6, 0); got != 6 {
		t.Errorf("expected exactly 6 with zero sigma, got %f", got)
	}
}
