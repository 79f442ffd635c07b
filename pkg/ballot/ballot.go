package ballot

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/bayesaudit/pkg/errors"
)

// Candidate is an opaque candidate identifier. Identifiers are ordered
// lexicographically wherever a deterministic order is needed.
type Candidate string

// Compare orders candidates by identifier.
func Compare(a, b Candidate) int { return cmp.Compare(a, b) }

// SortCandidates sorts a slice of candidates in place by identifier.
func SortCandidates(cs []Candidate) { slices.SortFunc(cs, Compare) }

// Candidates converts string identifiers into candidates.
func Candidates(ids ...string) []Candidate {
	out := make([]Candidate, len(ids))
	for i, id := range ids {
		out[i] = Candidate(id)
	}
	return out
}

// Ballot is a preference order over candidates, most preferred first.
type Ballot []Candidate

// New returns a ballot holding a copy of the given preference order.
func New(prefs ...Candidate) Ballot {
	return slices.Clone(Ballot(prefs))
}

// Key returns a string that is equal exactly for equal ballots. Each ID is
// written as "<len>:<id>", so any identifier, including the empty one, is
// unambiguous.
func (b Ballot) Key() string {
	var sb strings.Builder
	for _, c := range b {
		sb.WriteString(strconv.Itoa(len(c)))
		sb.WriteByte(':')
		sb.WriteString(string(c))
	}
	return sb.String()
}

// String renders the ballot as "(A, B, C)".
func (b Ballot) String() string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = string(c)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// FromKey reverses [Ballot.Key]. Parsing stops at the first malformed entry.
func FromKey(key string) Ballot {
	b := Ballot{}
	for key != "" {
		head, rest, ok := strings.Cut(key, ":")
		n, err := strconv.Atoi(head)
		if !ok || err != nil || n < 0 || n > len(rest) {
			break
		}
		b = append(b, Candidate(rest[:n]))
		key = rest[n:]
	}
	return b
}

// Prior returns the length-one ballots used to establish the Bayesian prior:
// one first-choice-only ballot per candidate.
func Prior(candidates []Candidate) []Ballot {
	out := make([]Ballot, len(candidates))
	for i, c := range candidates {
		out[i] = Ballot{c}
	}
	return out
}

// ValidateBallot checks a ballot for formality against the contest's
// candidates: every entry must be a known candidate and appear at most once,
// and the ballot may not be longer than the candidate list.
//
// The audit core never calls ValidateBallot; ballots are used as given.
// It exists for sources and tools that want to reject informal papers upstream.
func ValidateBallot(b Ballot, candidates []Candidate) error {
	if len(b) > len(candidates) {
		return errors.New(errors.ErrCodeInvalidBallot, "ballot %v ranks %d candidates, contest has %d", b, len(b), len(candidates))
	}
	known := make(map[Candidate]bool, len(candidates))
	for _, c := range candidates {
		known[c] = true
	}
	seen := make(map[Candidate]bool, len(b))
	for _, c := range b {
		if !known[c] {
			return errors.New(errors.ErrCodeUnknownCandidate, "ballot %v references unknown candidate %q", b, c)
		}
		if seen[c] {
			return errors.New(errors.ErrCodeInvalidBallot, "ballot %v ranks %q twice", b, c)
		}
		seen[c] = true
	}
	return nil
}
