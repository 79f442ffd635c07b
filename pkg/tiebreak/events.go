package tiebreak

import (
	"fmt"
	"slices"

	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/errors"
)

// Case identifies the kind of tie being broken.
type Case int

const (
	// CaseOrdering asks for the full order of the tied candidates.
	CaseOrdering Case = iota + 1
	// CaseElection asks which tied candidate is elected.
	CaseElection
	// CaseExclusion asks which tied candidate is excluded.
	CaseExclusion
)

// String returns the case name used in logs and API payloads.
func (c Case) String() string {
	switch c {
	case CaseOrdering:
		return "ordering"
	case CaseElection:
		return "election"
	case CaseExclusion:
		return "exclusion"
	}
	return fmt.Sprintf("Case(%d)", int(c))
}

// ParseCase parses the output of [Case.String].
func ParseCase(s string) (Case, error) {
	switch s {
	case "ordering":
		return CaseOrdering, nil
	case "election":
		return CaseElection, nil
	case "exclusion":
		return CaseExclusion, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown tie case %q (want ordering, election or exclusion)", s)
}

// OrderingEvent records a tie whose election order was fixed by hand.
// Candidates may be omitted, in which case the resolution's members are the
// tied set.
type OrderingEvent struct {
	Candidates []ballot.Candidate `json:"candidates,omitempty" toml:"candidates" yaml:"candidates,omitempty"`
	Resolution []ballot.Candidate `json:"resolution" toml:"resolution" yaml:"resolution"`
}

// ElectionEvent records a tie broken by electing one candidate.
type ElectionEvent struct {
	Candidates []ballot.Candidate `json:"candidates" toml:"candidates" yaml:"candidates"`
	Elected    ballot.Candidate   `json:"elected" toml:"elected" yaml:"elected"`
}

// ExclusionEvent records a tie broken by excluding one candidate.
type ExclusionEvent struct {
	Candidates []ballot.Candidate `json:"candidates" toml:"candidates" yaml:"candidates"`
	Excluded   ballot.Candidate   `json:"excluded" toml:"excluded" yaml:"excluded"`
}

// Events groups the historical decisions of one contest.
type Events struct {
	Ordering  []OrderingEvent  `json:"ordering,omitempty" toml:"ordering" yaml:"ordering,omitempty"`
	Election  []ElectionEvent  `json:"election,omitempty" toml:"election" yaml:"election,omitempty"`
	Exclusion []ExclusionEvent `json:"exclusion,omitempty" toml:"exclusion" yaml:"exclusion,omitempty"`
}

// Len returns the total number of recorded events.
func (e Events) Len() int {
	return len(e.Ordering) + len(e.Election) + len(e.Exclusion)
}

func (e OrderingEvent) tied() []ballot.Candidate {
	if len(e.Candidates) == 0 {
		return e.Resolution
	}
	return e.Candidates
}

// checkTied verifies that a tied set has at least two distinct known members.
func checkTied(kind string, i int, tied []ballot.Candidate, known map[ballot.Candidate]bool) error {
	if len(tied) < 2 {
		return errors.New(errors.ErrCodeInvalidTieEvent, "%s event %d: a tie needs at least two candidates, got %v", kind, i, tied)
	}
	seen := make(map[ballot.Candidate]bool, len(tied))
	for _, c := range tied {
		if !known[c] {
			return errors.New(errors.ErrCodeUnknownCandidate, "%s event %d: unknown candidate %q", kind, i, c)
		}
		if seen[c] {
			return errors.New(errors.ErrCodeInvalidTieEvent, "%s event %d: candidate %q listed twice", kind, i, c)
		}
		seen[c] = true
	}
	return nil
}

func (e Events) validate(known map[ballot.Candidate]bool) error {
	for i, ev := range e.Ordering {
		tied := ev.tied()
		if err := checkTied("ordering", i, tied, known); err != nil {
			return err
		}
		if err := checkTied("ordering", i, ev.Resolution, known); err != nil {
			return err
		}
		if len(ev.Resolution) != len(tied) {
			return errors.New(errors.ErrCodeInvalidTieEvent, "ordering event %d: resolution %v is not a permutation of %v", i, ev.Resolution, tied)
		}
		for _, c := range ev.Resolution {
			if !slices.Contains(tied, c) {
				return errors.New(errors.ErrCodeInvalidTieEvent, "ordering event %d: resolution %v is not a permutation of %v", i, ev.Resolution, tied)
			}
		}
	}
	for i, ev := range e.Election {
		if err := checkTied("election", i, ev.Candidates, known); err != nil {
			return err
		}
		if !slices.Contains(ev.Candidates, ev.Elected) {
			return errors.New(errors.ErrCodeInvalidTieEvent, "election event %d: elected candidate %q is not among %v", i, ev.Elected, ev.Candidates)
		}
	}
	for i, ev := range e.Exclusion {
		if err := checkTied("exclusion", i, ev.Candidates, known); err != nil {
			return err
		}
		if !slices.Contains(ev.Candidates, ev.Excluded) {
			return errors.New(errors.ErrCodeInvalidTieEvent, "exclusion event %d: excluded candidate %q is not among %v", i, ev.Excluded, ev.Candidates)
		}
	}
	return nil
}
