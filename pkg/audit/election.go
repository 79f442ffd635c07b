package audit

import (
	"context"
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/errors"
)

// Contest describes the election being audited.
type Contest struct {
	ID         string             `json:"id"`
	Candidates []ballot.Candidate `json:"candidates"`
	Seats      int                `json:"seats"`

	// Population is the number of cast ballots. Zero means unknown: the
	// audit then draws until the source is exhausted and sizes synthetic
	// populations by the sample.
	Population int `json:"population,omitempty"`
}

// Validate checks the contest's shape.
func (c Contest) Validate() error {
	if len(c.Candidates) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "contest %q has no candidates", c.ID)
	}
	seen := make(map[ballot.Candidate]bool, len(c.Candidates))
	for _, id := range c.Candidates {
		if id == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "contest %q has an empty candidate ID", c.ID)
		}
		if seen[id] {
			return errors.New(errors.ErrCodeInvalidConfig, "contest %q lists candidate %q twice", c.ID, id)
		}
		seen[id] = true
	}
	if err := errors.ValidateSeats(c.Seats, len(c.Candidates)); err != nil {
		return err
	}
	return errors.ValidateNonNegative("population", c.Population)
}

// Source supplies ballots in draw order.
type Source interface {
	// Draw returns up to k ballots. An empty batch with a nil error means
	// the source is exhausted. Draw may block; it is never called while
	// trials are running.
	Draw(ctx context.Context, k int) ([]ballot.Ballot, error)
}

// Seeker is implemented by sources that can skip ballots already drawn in
// an earlier run. [Runner.Resume] calls Seek before the first stage.
type Seeker interface {
	Seek(ctx context.Context, drawn int) error
}

// OutcomeFunc computes the canonical outcome of a weighted ballot profile.
// It must be deterministic given the weights and r, and must not retain w or
// r after returning.
type OutcomeFunc func(w *ballot.WeightMap, r *rand.Rand) (Outcome, error)

// Election is the capability an audit needs: a contest description, a
// ballot source and an outcome function.
type Election interface {
	Contest() Contest
	Source
	ComputeOutcome(w *ballot.WeightMap, r *rand.Rand) (Outcome, error)
}

type election struct {
	Source
	contest Contest
	outcome OutcomeFunc
}

// NewElection combines a contest, a ballot source and an outcome function.
func NewElection(c Contest, src Source, fn OutcomeFunc) Election {
	return &election{Source: src, contest: c, outcome: fn}
}

func (e *election) Contest() Contest { return e.contest }

func (e *election) ComputeOutcome(w *ballot.WeightMap, r *rand.Rand) (Outcome, error) {
	return e.outcome(w, r)
}

// Seek forwards to the underlying source when it supports seeking.
func (e *election) Seek(ctx context.Context, drawn int) error {
	if s, ok := e.Source.(Seeker); ok {
		return s.Seek(ctx, drawn)
	}
	return nil
}

// Outcome is a canonical election result: the elected candidates in
// identifier order, so equal results compare equal.
type Outcome []ballot.Candidate

// Canonical returns the elected candidates as an Outcome.
func Canonical(elected []ballot.Candidate) Outcome {
	o := Outcome(slices.Clone(elected))
	ballot.SortCandidates(o)
	return o
}

// Key returns a string that is equal for equal outcomes.
func (o Outcome) Key() string { return ballot.Ballot(o).Key() }

// String renders the outcome as "(A, B)".
func (o Outcome) String() string { return ballot.Ballot(o).String() }

// Contains reports whether c is part of the outcome.
func (o Outcome) Contains(c ballot.Candidate) bool { return slices.Contains(o, c) }
