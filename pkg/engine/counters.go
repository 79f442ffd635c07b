package engine

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/bayesaudit/pkg/audit"
	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/rankedpairs"
)

// RankedPairs elects the first Seats candidates of the Ranked Pairs order.
// Equal-strength pairs are ordered by values drawn from r. If tb also
// implements [rankedpairs.Ordering] it orders candidates with equal wins.
type RankedPairs struct{}

func (RankedPairs) Name() string { return "rankedpairs" }

func (RankedPairs) Count(w *ballot.WeightMap, c audit.Contest, tb TieBreaker, r *rand.Rand) ([]ballot.Candidate, error) {
	opts := rankedpairs.Options{Rand: r}
	if o, ok := tb.(rankedpairs.Ordering); ok {
		opts.TieBreaker = o
	}
	order, err := rankedpairs.Rank(ballot.Prefs(w, c.Candidates), opts)
	if err != nil {
		return nil, err
	}
	return order[:c.Seats], nil
}

// Borda elects the Seats candidates with the highest Borda score. On a
// ballot of m candidates the i-th listed candidate scores m-1-i times the
// ballot's weight; unlisted candidates score nothing. Equal scores spanning
// the last seat are ordered by the tie-breaker, or by identifier without one.
type Borda struct{}

func (Borda) Name() string { return "borda" }

func (Borda) Count(w *ballot.WeightMap, c audit.Contest, tb TieBreaker, _ *rand.Rand) ([]ballot.Candidate, error) {
	scores := BordaScores(w, c.Candidates)

	ranked := slices.Clone(c.Candidates)
	slices.SortStableFunc(ranked, func(a, b ballot.Candidate) int {
		return cmp.Or(cmp.Compare(scores[b], scores[a]), ballot.Compare(a, b))
	})

	// Find the run of equal scores containing the last seat.
	last := c.Seats - 1
	lo, hi := last, last+1
	for lo > 0 && scores[ranked[lo-1]] == scores[ranked[last]] {
		lo--
	}
	for hi < len(ranked) && scores[ranked[hi]] == scores[ranked[last]] {
		hi++
	}
	if tb != nil && hi-lo > 1 && hi > c.Seats {
		resolved, err := tb.ResolveOrdering(ranked[lo:hi])
		if err != nil {
			return nil, err
		}
		copy(ranked[lo:hi], resolved)
	}
	return ranked[:c.Seats], nil
}

// BordaScores returns the Borda score of every candidate. Identifiers not in
// candidates are skipped and do not consume a position.
func BordaScores(w *ballot.WeightMap, candidates []ballot.Candidate) map[ballot.Candidate]float64 {
	m := len(candidates)
	scores := make(map[ballot.Candidate]float64, m)
	for _, c := range candidates {
		scores[c] = 0
	}
	w.Each(func(b ballot.Ballot, weight float64) {
		i := 0
		seen := make(map[ballot.Candidate]bool, len(b))
		for _, c := range b {
			if _, ok := scores[c]; !ok || seen[c] {
				continue
			}
			seen[c] = true
			scores[c] += float64(m-1-i) * weight
			i++
		}
	})
	return scores
}
