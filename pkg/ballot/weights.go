package ballot

import (
	"maps"
	"slices"
)

// WeightMap maps distinct ballots to non-negative weights, in insertion order.
//
// The zero value is not usable - use [NewWeightMap].
type WeightMap struct {
	ballots []Ballot
	weights []float64
	index   map[string]int
	total   float64

	// shared marks an index borrowed from another map by WithWeights.
	shared bool
}

// NewWeightMap creates an empty weight map.
func NewWeightMap() *WeightMap {
	return &WeightMap{index: make(map[string]int)}
}

// Add adds weight to the ballot's entry, creating it if the ballot has not
// been seen before. Negative weights are clamped to zero.
func (w *WeightMap) Add(b Ballot, weight float64) {
	weight = max(weight, 0)
	key := b.Key()
	if w.shared {
		w.index = maps.Clone(w.index)
		w.shared = false
	}
	if i, ok := w.index[key]; ok && i < len(w.weights) {
		w.weights[i] += weight
	} else {
		w.index[key] = len(w.ballots)
		w.ballots = append(w.ballots, slices.Clone(b))
		w.weights = append(w.weights, weight)
	}
	w.total += weight
}

// Len returns the number of distinct ballots.
func (w *WeightMap) Len() int { return len(w.ballots) }

// Total returns the sum of all weights.
func (w *WeightMap) Total() float64 { return w.total }

// Ballot returns the i-th distinct ballot in insertion order.
// The returned ballot must not be modified.
func (w *WeightMap) Ballot(i int) Ballot { return w.ballots[i] }

// Weight returns the weight of the i-th distinct ballot.
func (w *WeightMap) Weight(i int) float64 { return w.weights[i] }

// WeightOf returns the weight of b, or 0 if b has not been added.
func (w *WeightMap) WeightOf(b Ballot) float64 {
	if i, ok := w.index[b.Key()]; ok && i < len(w.weights) {
		return w.weights[i]
	}
	return 0
}

// Weights returns a copy of the weights in insertion order.
func (w *WeightMap) Weights() []float64 { return slices.Clone(w.weights) }

// Each calls fn for every ballot in insertion order.
func (w *WeightMap) Each(fn func(b Ballot, weight float64)) {
	for i, b := range w.ballots {
		fn(b, w.weights[i])
	}
}

// Clone returns an independent copy of the weight map.
func (w *WeightMap) Clone() *WeightMap {
	c := &WeightMap{
		ballots: slices.Clone(w.ballots),
		weights: slices.Clone(w.weights),
		index:   maps.Clone(w.index),
		total:   w.total,
	}
	return c
}

// WithWeights returns a new weight map over the same ballots with the given
// weights, which must have length [WeightMap.Len]. The receiver is unchanged.
// Ballots are shared because they are immutable. The lookup index is shared
// as well: the new map copies it on its first Add, while entries the receiver
// adds later fall outside the new map's range and are ignored by lookups.
// WithWeights only reads the receiver, so trials may call it concurrently.
//
// WithWeights panics if len(weights) != w.Len().
func (w *WeightMap) WithWeights(weights []float64) *WeightMap {
	if len(weights) != len(w.ballots) {
		panic("ballot: WithWeights length mismatch")
	}
	var total float64
	for _, x := range weights {
		total += x
	}
	return &WeightMap{
		ballots: w.ballots[:len(w.ballots):len(w.ballots)],
		weights: slices.Clone(weights),
		index:   w.index,
		total:   total,
		shared:  true,
	}
}
