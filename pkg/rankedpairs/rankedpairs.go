// Package rankedpairs implements the Ranked Pairs (Tideman) social choice
// function over a pairwise preference matrix.
//
// Pairs are sorted by strength, committed greedily as edges of a
// [dag.Graph] unless they would close a cycle, and candidates are finally
// ordered by how many committed pairs they win. Equal-strength pairs are
// ordered by per-pair values from the caller's generator, so a fixed seed
// reproduces the result and concurrent calls with separate generators do not
// interfere.
package rankedpairs

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/dag"
	"github.com/matzehuels/bayesaudit/pkg/errors"
	"github.com/matzehuels/bayesaudit/pkg/rng"
)

// Ordering is an external total order over candidates, typically backed by
// the tie-breaking graph. Less reports whether a is preferred over b.
type Ordering interface {
	Less(a, b ballot.Candidate) bool
}

// Options configures a Ranked Pairs computation.
type Options struct {
	// Rand supplies the per-pair random values that order equal-strength
	// pairs. A nil Rand is replaced by a generator seeded with
	// [FallbackSeed], so results stay reproducible but never follow the
	// enumeration order.
	Rand *rand.Rand

	// TieBreaker, if set, orders candidates with equal committed wins. It is
	// never consulted for equal-strength pairs.
	TieBreaker Ordering
}

// FallbackSeed seeds the pair tie values when [Options.Rand] is nil.
const FallbackSeed = 1

// Pair is an ordered candidate pair: Winner is preferred over Loser by
// Strength units of ballot weight. Winner and Loser index the matrix's
// candidate list.
type Pair struct {
	Winner   int
	Loser    int
	Strength float64

	tie float64
}

// Result holds the intermediate products of a Ranked Pairs run.
type Result struct {
	// Order lists candidates most-favored first.
	Order []ballot.Candidate
	// Pairs is the processing order of all ordered pairs.
	Pairs []Pair
	// Graph holds the committed edges, winner -> loser, keyed by candidate ID.
	Graph *dag.Graph
}

// Rank returns the candidates of m ordered most-favored first.
//
// The matrix's shape is checked; whether it could arise from a real ballot
// profile is not.
func Rank(m *ballot.Matrix, opts Options) ([]ballot.Candidate, error) {
	res, err := Run(m, opts)
	if err != nil {
		return nil, err
	}
	return res.Order, nil
}

// Run is like [Rank] but also returns the sorted pairs and committed graph.
func Run(m *ballot.Matrix, opts Options) (*Result, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	pairs := SortedPairs(m, opts)
	g, err := Commit(m, pairs)
	if err != nil {
		return nil, err
	}
	return &Result{
		Order: order(m, g, opts.TieBreaker),
		Pairs: pairs,
		Graph: g,
	}, nil
}

// SortedPairs enumerates all ordered pairs (i, j), i != j, and sorts them by
// strength, strongest first. Each pair gets an independent random value from
// opts.Rand, and equal strengths are ordered by it.
func SortedPairs(m *ballot.Matrix, opts Options) []Pair {
	r := opts.Rand
	if r == nil {
		r = rng.New(FallbackSeed)
	}
	n := m.Size()
	pairs := make([]Pair, 0, n*(n-1))
	for i := range n {
		for j := range n {
			if i == j {
				continue
			}
			pairs = append(pairs, Pair{Winner: i, Loser: j, Strength: m.At(i, j), tie: r.Float64()})
		}
	}

	slices.SortStableFunc(pairs, func(a, b Pair) int {
		return cmp.Or(cmp.Compare(b.Strength, a.Strength), cmp.Compare(a.tie, b.tie))
	})
	return pairs
}

// Commit walks pairs in order and adds the edge winner -> loser unless the
// loser already reaches the winner. The returned graph is acyclic. The
// matrix's candidate list must be valid (see [ballot.Matrix.Validate]).
func Commit(m *ballot.Matrix, pairs []Pair) (*dag.Graph, error) {
	g := dag.New()
	for _, c := range m.Candidates {
		if err := g.AddVertex(string(c)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedMatrix, err, "candidate %q", c)
		}
	}
	for _, p := range pairs {
		w, l := string(m.Candidates[p.Winner]), string(m.Candidates[p.Loser])
		if g.HasEdge(w, l) || g.Reachable(l, w) {
			continue
		}
		if err := g.AddEdge(w, l); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedMatrix, err, "pair %s > %s", w, l)
		}
	}
	return g, nil
}

// order sorts candidates by committed wins, descending. Equal counts fall
// back to tb, then to identifier order. Commit decides every pair one way,
// so on its graphs the counts are distinct and the fallbacks only apply to
// partial graphs.
func order(m *ballot.Matrix, g *dag.Graph, tb Ordering) []ballot.Candidate {
	out := slices.Clone(m.Candidates)
	slices.SortStableFunc(out, func(a, b ballot.Candidate) int {
		if c := cmp.Compare(g.OutDegree(string(b)), g.OutDegree(string(a))); c != 0 {
			return c
		}
		if tb != nil {
			if c := compareBy(tb, a, b); c != 0 {
				return c
			}
		}
		return ballot.Compare(a, b)
	})
	return out
}

func compareBy(o Ordering, a, b ballot.Candidate) int {
	switch {
	case o.Less(a, b):
		return -1
	case o.Less(b, a):
		return 1
	}
	return 0
}
