package audit

import (
	"cmp"
	"slices"
	"time"

	"github.com/matzehuels/bayesaudit/pkg/ballot"
)

// Status is the terminal state of an audit.
type Status string

const (
	// StatusConfirmed means the most frequent outcome met the stability
	// threshold.
	StatusConfirmed Status = "confirmed"

	// StatusFullCount means every ballot was drawn before the threshold was
	// met. The reported outcome is the most frequent one in the last stage.
	StatusFullCount Status = "full_count"
)

// CandidateShare is the fraction of a stage's trials whose outcome
// contains a candidate.
type CandidateShare struct {
	Candidate ballot.Candidate `json:"candidate"`
	Share     float64          `json:"share"`
}

// StageReport summarizes one audit stage.
type StageReport struct {
	AuditID      string           `json:"audit_id"`
	Stage        int              `json:"stage"`
	Drawn        int              `json:"drawn"`
	SampleWeight float64          `json:"sample_weight"`
	Population   int              `json:"population"`
	LastBallot   ballot.Ballot    `json:"last_ballot,omitempty"`
	Best         Outcome          `json:"best"`
	Frequency    int              `json:"frequency"`
	Trials       int              `json:"trials"`
	Shares       []CandidateShare `json:"shares"`
	Stable       bool             `json:"stable"`
	Duration     time.Duration    `json:"duration"`
}

// Witness is a synthetic population in which a rarely elected candidate
// was elected.
type Witness struct {
	Candidate ballot.Candidate  `json:"candidate"`
	Share     float64           `json:"share"`
	Trial     int               `json:"trial"`
	Weights   *ballot.WeightMap `json:"-"`
}

// Result is the outcome of a completed audit.
type Result struct {
	AuditID   string        `json:"audit_id"`
	ContestID string        `json:"contest_id"`
	Seed      uint64        `json:"seed"`
	Status    Status        `json:"status"`
	Outcome   Outcome       `json:"outcome"`
	Frequency int           `json:"frequency"`
	Trials    int           `json:"trials"`
	Stages    int           `json:"stages"`
	Drawn     int           `json:"drawn"`
	Reports   []StageReport `json:"reports"`
	Witnesses []Witness     `json:"witnesses,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Tally returns the most frequent outcome and its count. Among equally
// frequent outcomes the one seen first wins.
func Tally(outcomes []Outcome) (Outcome, int) {
	counts := make(map[string]int, len(outcomes))
	for _, o := range outcomes {
		counts[o.Key()]++
	}
	var best Outcome
	var freq int
	for _, o := range outcomes {
		if n := counts[o.Key()]; n > freq {
			best, freq = o, n
		}
	}
	return best, freq
}

// Shares returns, for every candidate appearing in any outcome, the fraction
// of outcomes containing it. Results are ordered by share, then identifier.
func Shares(outcomes []Outcome) []CandidateShare {
	counts := make(map[ballot.Candidate]int)
	for _, o := range outcomes {
		for _, c := range o {
			counts[c]++
		}
	}
	out := make([]CandidateShare, 0, len(counts))
	for c, n := range counts {
		out = append(out, CandidateShare{Candidate: c, Share: float64(n) / float64(len(outcomes))})
	}
	slices.SortFunc(out, func(a, b CandidateShare) int {
		return cmp.Or(cmp.Compare(a.Share, b.Share), ballot.Compare(a.Candidate, b.Candidate))
	})
	return out
}
