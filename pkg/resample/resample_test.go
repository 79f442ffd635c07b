package resample

import (
	"math"
	"slices"
	"testing"

	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/rng"
)

func sample() *ballot.WeightMap {
	w := ballot.NewWeightMap()
	for _, c := range ballot.Candidates("A", "B", "C") {
		w.Add(ballot.New(c), 1)
	}
	w.Add(ballot.New("A", "B", "C"), 12)
	w.Add(ballot.New("B", "C"), 7)
	w.Add(ballot.New("C", "A"), 3)
	w.Add(ballot.New("C", "B", "A"), 0)
	return w
}

func TestReweightConservation(t *testing.T) {
	w := sample()
	for _, n := range []int{10, 1000, 123457} {
		for seed := range uint64(25) {
			r := Reweight(w, n, rng.New(seed))
			total := r.Total()
			if total > float64(n) || total < float64(n-w.Len()) {
				t.Errorf("n=%d seed=%d: Total() = %v, want within [%d, %d]", n, seed, total, n-w.Len(), n)
			}
			for i := range r.Len() {
				x := r.Weight(i)
				if x < 0 || x != math.Floor(x) {
					t.Errorf("n=%d seed=%d: weight %d = %v, want non-negative integer", n, seed, i, x)
				}
			}
		}
	}
}

func TestReweightLeavesInputUnchanged(t *testing.T) {
	w := sample()
	before := w.Weights()
	_ = Reweight(w, 500, rng.New(1))
	if !slices.Equal(before, w.Weights()) {
		t.Errorf("Reweight() modified its input: %v -> %v", before, w.Weights())
	}
}

func TestReweightDeterministicPerSeed(t *testing.T) {
	w := sample()
	a := Reweight(w, 1000, rng.New(42)).Weights()
	b := Reweight(w, 1000, rng.New(42)).Weights()
	if !slices.Equal(a, b) {
		t.Errorf("same seed gave %v and %v", a, b)
	}
}

func TestReweightTracksObservedShares(t *testing.T) {
	w := ballot.NewWeightMap()
	w.Add(ballot.New("A"), 900)
	w.Add(ballot.New("B"), 100)

	r := rng.New(7)
	var share float64
	const trials = 200
	for range trials {
		s := Reweight(w, 10000, r)
		share += s.Weight(0) / s.Total()
	}
	share /= trials
	if math.Abs(share-0.9) > 0.01 {
		t.Errorf("mean share of A = %.4f, want about 0.9", share)
	}
}

func TestVariatesZeroWeight(t *testing.T) {
	v := Variates([]float64{0, 0, 5}, rng.New(1))
	for i, x := range v {
		if x < 0 || math.IsNaN(x) {
			t.Errorf("variate %d = %v, want a defined non-negative value", i, x)
		}
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		variates []float64
		n        int
		want     []float64
	}{
		{[]float64{1, 1, 2}, 8, []float64{2, 2, 4}},
		{[]float64{1, 1, 1}, 10, []float64{3, 3, 3}},
		{[]float64{0, 0}, 10, []float64{0, 0}},
		{[]float64{1, 3}, 0, []float64{0, 0}},
	}
	for _, tt := range tests {
		if got := Scale(tt.variates, tt.n); !slices.Equal(got, tt.want) {
			t.Errorf("Scale(%v, %d) = %v, want %v", tt.variates, tt.n, got, tt.want)
		}
	}
}
