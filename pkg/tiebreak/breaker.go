package tiebreak

import (
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/dag"
	"github.com/matzehuels/bayesaudit/pkg/errors"
)

// TraceFunc receives one message per edge added and per event replayed
// during [Build]. Key/value pairs follow the structured logging convention.
type TraceFunc func(msg string, keyvals ...any)

// Options configures [Build].
type Options struct {
	// Rand drives the topological shuffle. A nil Rand yields the
	// deterministic order obtained without shuffling.
	Rand *rand.Rand

	// Trace, if set, is called while the graph is built and verified.
	Trace TraceFunc
}

// Breaker resolves ties by comparing ranks in a fixed linear order.
// It is immutable and safe for concurrent use.
type Breaker struct {
	order []ballot.Candidate
	rank  map[ballot.Candidate]int
	graph *dag.Graph
}

// Build constructs the tie-breaking graph for candidates from the recorded
// events, linearizes it with a random topological sort and verifies that
// the resulting order reproduces every recorded decision.
//
// Malformed events fail with INVALID_TIE_EVENT or UNKNOWN_CANDIDATE,
// contradictory events with CYCLIC_TIE_BREAK.
func Build(candidates []ballot.Candidate, events Events, opts Options) (*Breaker, error) {
	trace := opts.Trace
	if trace == nil {
		trace = func(string, ...any) {}
	}

	g := dag.New()
	known := make(map[ballot.Candidate]bool, len(candidates))
	for _, c := range candidates {
		if err := g.AddVertex(string(c)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "candidate %q", c)
		}
		known[c] = true
	}
	if err := events.validate(known); err != nil {
		return nil, err
	}

	addEdge := func(from, to ballot.Candidate, reason string) {
		if g.HasEdge(string(from), string(to)) {
			return
		}
		_ = g.AddEdge(string(from), string(to))
		trace("added tie-break edge", "from", from, "to", to, "reason", reason)
	}

	for _, ev := range events.Ordering {
		for i, a := range ev.Resolution {
			for _, b := range ev.Resolution[i+1:] {
				addEdge(a, b, "earlier in election order")
			}
		}
	}
	for _, ev := range events.Election {
		for _, c := range ev.Candidates {
			if c != ev.Elected {
				addEdge(ev.Elected, c, "elected over")
			}
		}
	}
	for _, ev := range events.Exclusion {
		for _, c := range ev.Candidates {
			if c != ev.Excluded {
				addEdge(c, ev.Excluded, "excluded candidate")
			}
		}
	}

	// RandomTopoSort only fails on a cycle.
	ids, err := g.RandomTopoSort(opts.Rand)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCyclicTieBreak, err, "recorded tie-break decisions contradict each other")
	}

	b := &Breaker{
		order: make([]ballot.Candidate, len(ids)),
		rank:  make(map[ballot.Candidate]int, len(ids)),
		graph: g,
	}
	for i, id := range ids {
		b.order[i] = ballot.Candidate(id)
		b.rank[ballot.Candidate(id)] = i
	}
	trace("linear order determined", "order", b.String())

	if err := b.replay(events, trace); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Breaker) replay(events Events, trace TraceFunc) error {
	for i, ev := range events.Ordering {
		got, err := b.ResolveOrdering(ev.tied())
		if err != nil {
			return err
		}
		if !slices.Equal(got, ev.Resolution) {
			return errors.New(errors.ErrCodeInconsistentTieBreak, "ordering event %d: order gives %v, recorded %v", i, got, ev.Resolution)
		}
		trace("replayed tie-break event", "case", CaseOrdering, "tied", ev.tied(), "resolution", got)
	}
	for i, ev := range events.Election {
		got, err := b.ResolveElection(ev.Candidates)
		if err != nil {
			return err
		}
		if got != ev.Elected {
			return errors.New(errors.ErrCodeInconsistentTieBreak, "election event %d: order elects %q, recorded %q", i, got, ev.Elected)
		}
		trace("replayed tie-break event", "case", CaseElection, "tied", ev.Candidates, "resolution", got)
	}
	for i, ev := range events.Exclusion {
		got, err := b.ResolveExclusion(ev.Candidates)
		if err != nil {
			return err
		}
		if got != ev.Excluded {
			return errors.New(errors.ErrCodeInconsistentTieBreak, "exclusion event %d: order excludes %q, recorded %q", i, got, ev.Excluded)
		}
		trace("replayed tie-break event", "case", CaseExclusion, "tied", ev.Candidates, "resolution", got)
	}
	return nil
}

// LinearOrder returns all candidates, most preferred first.
func (b *Breaker) LinearOrder() []ballot.Candidate { return slices.Clone(b.order) }

// Rank returns c's position in the linear order.
func (b *Breaker) Rank(c ballot.Candidate) (int, bool) {
	r, ok := b.rank[c]
	return r, ok
}

// Less reports whether a precedes b in the linear order. Candidates outside
// the order sort after every known candidate, by identifier.
func (b *Breaker) Less(x, y ballot.Candidate) bool {
	rx, okx := b.rank[x]
	ry, oky := b.rank[y]
	switch {
	case okx && oky:
		return rx < ry
	case okx != oky:
		return okx
	}
	return x < y
}

// Graph returns the precedence graph. It must not be modified.
func (b *Breaker) Graph() *dag.Graph { return b.graph }

// String renders the linear order as "A, B, C".
func (b *Breaker) String() string {
	parts := make([]string, len(b.order))
	for i, c := range b.order {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

// Resolve breaks a tie among subset. For [CaseOrdering] it returns the whole
// subset in linear order; for [CaseElection] the single most preferred
// candidate; for [CaseExclusion] the single least preferred one.
func (b *Breaker) Resolve(subset []ballot.Candidate, c Case) ([]ballot.Candidate, error) {
	sorted, err := b.sorted(subset)
	if err != nil {
		return nil, err
	}
	switch c {
	case CaseOrdering:
		return sorted, nil
	case CaseElection:
		return sorted[:1], nil
	case CaseExclusion:
		return sorted[len(sorted)-1:], nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown tie case %v", c)
}

// ResolveOrdering returns subset sorted by the linear order.
func (b *Breaker) ResolveOrdering(subset []ballot.Candidate) ([]ballot.Candidate, error) {
	return b.Resolve(subset, CaseOrdering)
}

// ResolveElection returns the member of subset to elect.
func (b *Breaker) ResolveElection(subset []ballot.Candidate) (ballot.Candidate, error) {
	r, err := b.Resolve(subset, CaseElection)
	if err != nil {
		return "", err
	}
	return r[0], nil
}

// ResolveExclusion returns the member of subset to exclude.
func (b *Breaker) ResolveExclusion(subset []ballot.Candidate) (ballot.Candidate, error) {
	r, err := b.Resolve(subset, CaseExclusion)
	if err != nil {
		return "", err
	}
	return r[0], nil
}

func (b *Breaker) sorted(subset []ballot.Candidate) ([]ballot.Candidate, error) {
	if len(subset) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot break a tie among no candidates")
	}
	for _, c := range subset {
		if _, ok := b.rank[c]; !ok {
			return nil, errors.New(errors.ErrCodeUnknownCandidate, "tie among %v references unknown candidate %q", subset, c)
		}
	}
	out := slices.Clone(subset)
	slices.SortFunc(out, func(x, y ballot.Candidate) int { return b.rank[x] - b.rank[y] })
	return out, nil
}
