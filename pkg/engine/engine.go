package engine

import (
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/bayesaudit/pkg/audit"
	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/errors"
)

// TieBreaker resolves the three kinds of tie a counting engine can hit.
// tiebreak.Breaker implements it.
type TieBreaker interface {
	// ResolveOrdering returns subset ordered most-favored first.
	ResolveOrdering(subset []ballot.Candidate) ([]ballot.Candidate, error)
	// ResolveElection returns the member of subset to elect.
	ResolveElection(subset []ballot.Candidate) (ballot.Candidate, error)
	// ResolveExclusion returns the member of subset to exclude.
	ResolveExclusion(subset []ballot.Candidate) (ballot.Candidate, error)
}

// Counter computes the elected candidates of a weighted profile.
//
// Count must be safe for concurrent use: audit trials call it in parallel,
// each with its own generator. tb may be nil.
type Counter interface {
	Name() string
	Count(w *ballot.WeightMap, c audit.Contest, tb TieBreaker, r *rand.Rand) ([]ballot.Candidate, error)
}

// CountFunc adapts an external counting engine to [Counter].
type CountFunc func(w *ballot.WeightMap, c audit.Contest, tb TieBreaker, r *rand.Rand) ([]ballot.Candidate, error)

type funcCounter struct {
	name string
	fn   CountFunc
}

// External wraps fn as a counter named name.
func External(name string, fn CountFunc) Counter {
	return &funcCounter{name: name, fn: fn}
}

func (f *funcCounter) Name() string { return f.name }

func (f *funcCounter) Count(w *ballot.WeightMap, c audit.Contest, tb TieBreaker, r *rand.Rand) ([]ballot.Candidate, error) {
	return f.fn(w, c, tb, r)
}

// Outcome turns a counter into an audit outcome function. The result is
// canonicalized; a counter electing the wrong number of candidates is an
// internal error.
func Outcome(counter Counter, c audit.Contest, tb TieBreaker) audit.OutcomeFunc {
	return func(w *ballot.WeightMap, r *rand.Rand) (audit.Outcome, error) {
		elected, err := counter.Count(w, c, tb, r)
		if err != nil {
			return nil, err
		}
		if len(elected) != c.Seats {
			return nil, errors.New(errors.ErrCodeInternal, "%s counter elected %d candidates for %d seats", counter.Name(), len(elected), c.Seats)
		}
		return audit.Canonical(elected), nil
	}
}

// New builds an election that counts with counter and draws from src.
func New(c audit.Contest, src audit.Source, counter Counter, tb TieBreaker) audit.Election {
	return audit.NewElection(c, src, Outcome(counter, c, tb))
}

var counters = map[string]func() Counter{
	"rankedpairs": func() Counter { return RankedPairs{} },
	"borda":       func() Counter { return Borda{} },
}

// Lookup returns the built-in counter with the given name.
func Lookup(name string) (Counter, error) {
	if mk, ok := counters[name]; ok {
		return mk(), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown counter %q (available: %v)", name, Names())
}

// Names lists the built-in counters in sorted order.
func Names() []string {
	names := make([]string, 0, len(counters))
	for n := range counters {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
