// Package resample draws synthetic full populations from an observed ballot
// sample.
//
// Each observed ballot receives an independent Gamma(weight, 1) variate.
// Normalizing the variates gives a draw from the Dirichlet distribution
// whose concentrations are the observed weights; scaling that draw to the
// population size and flooring gives one posterior predictive population.
// Flooring underfills the population by less than one ballot per distinct
// ballot and is intentionally not compensated.
package resample

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/matzehuels/bayesaudit/pkg/ballot"
)

// ZeroShape is the Gamma shape used for ballots whose observed weight is
// zero, keeping the draw defined.
const ZeroShape = 1e-3

// Variates returns one Gamma(max(w, ZeroShape), 1) variate per weight.
func Variates(weights []float64, src rand.Source) []float64 {
	out := make([]float64, len(weights))
	g := distuv.Gamma{Beta: 1, Src: src}
	for i, w := range weights {
		g.Alpha = max(w, ZeroShape)
		out[i] = g.Rand()
	}
	return out
}

// Scale maps variates to integral weights summing to at most n:
// floor(n * v / sum(v)). If every variate is zero the result is all zeros.
func Scale(variates []float64, n int) []float64 {
	var total float64
	for _, v := range variates {
		total += v
	}
	out := make([]float64, len(variates))
	if total <= 0 || n <= 0 {
		return out
	}
	for i, v := range variates {
		out[i] = math.Floor(float64(n) * v / total)
	}
	return out
}

// Reweight returns a synthetic population of about n ballots over the
// distinct ballots of w. The receiver is not modified and the result shares
// its ballots, so concurrent trials may call Reweight on the same map with
// separate generators.
func Reweight(w *ballot.WeightMap, n int, src rand.Source) *ballot.WeightMap {
	return w.WithWeights(Scale(Variates(w.Weights(), src), n))
}
