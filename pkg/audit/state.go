package audit

import (
	"github.com/google/uuid"

	"github.com/matzehuels/bayesaudit/pkg/ballot"
)

// State is the resumable state of an audit between stages. It is owned by
// the runner: only the draw step mutates it, never while trials run.
type State struct {
	AuditID    string
	ContestID  string
	Seed       uint64
	Stage      int
	Drawn      int
	Population int
	Exhausted  bool
	Weights    *ballot.WeightMap
}

// NewState creates the state of a fresh audit: an empty sample plus one
// prior ballot per candidate unless opts.NoPrior is set. Prior ballots do
// not count as drawn. opts must already be validated.
func NewState(c Contest, opts Options) *State {
	w := ballot.NewWeightMap()
	if !opts.NoPrior {
		for _, b := range ballot.Prior(c.Candidates) {
			w.Add(b, opts.PriorWeight)
		}
	}
	return &State{
		AuditID:    uuid.NewString(),
		ContestID:  c.ID,
		Seed:       opts.Seed,
		Population: c.Population,
		Weights:    w,
	}
}

// Remaining returns how many ballots may still be drawn, or -1 if the
// population is unknown.
func (s *State) Remaining() int {
	if s.Population == 0 {
		return -1
	}
	return max(s.Population-s.Drawn, 0)
}

// Complete reports whether every ballot has been drawn.
func (s *State) Complete() bool {
	return s.Exhausted || (s.Population > 0 && s.Drawn >= s.Population)
}

// syntheticSize is the population size n used for resampling. An unknown
// population is sized by the sample.
func (s *State) syntheticSize() int {
	if s.Population > 0 {
		return s.Population
	}
	return int(s.Weights.Total() + 0.5)
}
