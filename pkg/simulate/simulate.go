// Package simulate generates synthetic elections for exercising audits.
//
// Simulated ballots are biased so that lower-numbered candidates are
// preferred: on every ballot candidate i receives the value i + v*U with U
// uniform on [0, 1), and the ballot ranks candidates by increasing value.
// The noise level v controls how often neighbors swap places.
package simulate

import (
	"cmp"
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"

	"github.com/matzehuels/bayesaudit/pkg/audit"
	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/errors"
	"github.com/matzehuels/bayesaudit/pkg/rng"
)

// Options configures a simulated election.
type Options struct {
	// Candidates is the number of candidates m.
	Candidates int `json:"candidates" toml:"candidates" yaml:"candidates"`
	// Ballots is the number of cast ballots n.
	Ballots int `json:"ballots" toml:"ballots" yaml:"ballots"`
	// Noise is the level v. Zero means m/2.
	Noise float64 `json:"noise,omitempty" toml:"noise" yaml:"noise,omitempty"`
	// Seats defaults to m/2, at least 1.
	Seats int `json:"seats,omitempty" toml:"seats" yaml:"seats,omitempty"`
	// Seed drives ballot generation. Zero means audit.DefaultSeed.
	Seed uint64 `json:"seed,omitempty" toml:"seed" yaml:"seed,omitempty"`
}

// ValidateAndSetDefaults checks ranges and applies defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if err := errors.ValidatePositive("candidates", o.Candidates); err != nil {
		return err
	}
	if err := errors.ValidatePositive("ballots", o.Ballots); err != nil {
		return err
	}
	if o.Noise == 0 {
		o.Noise = float64(o.Candidates) / 2
	}
	if o.Noise < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "noise must not be negative, got %v", o.Noise)
	}
	if o.Seats == 0 {
		o.Seats = max(o.Candidates/2, 1)
	}
	if o.Seed == 0 {
		o.Seed = audit.DefaultSeed
	}
	return errors.ValidateSeats(o.Seats, o.Candidates)
}

// CandidateIDs returns "1".."m", zero-padded so that identifier order is
// numeric order.
func CandidateIDs(m int) []ballot.Candidate {
	width := len(strconv.Itoa(m))
	out := make([]ballot.Candidate, m)
	for i := range out {
		out[i] = ballot.Candidate(fmt.Sprintf("%0*d", width, i+1))
	}
	return out
}

// Contest describes the simulated contest. opts must be validated.
func Contest(id string, opts Options) audit.Contest {
	return audit.Contest{
		ID:         id,
		Candidates: CandidateIDs(opts.Candidates),
		Seats:      opts.Seats,
		Population: opts.Ballots,
	}
}

// Source draws simulated ballots. It never returns more than the configured
// number of ballots in total. A Source is not safe for concurrent use.
type Source struct {
	opts       Options
	candidates []ballot.Candidate
	r          *rand.Rand
	drawn      int
}

// NewSource creates a ballot source for the simulated election.
func NewSource(opts Options) (*Source, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Source{
		opts:       opts,
		candidates: CandidateIDs(opts.Candidates),
		r:          rng.New(opts.Seed),
	}, nil
}

// Options returns the validated options.
func (s *Source) Options() Options { return s.opts }

// Draw returns the next k ballots, fewer once the population runs out.
func (s *Source) Draw(ctx context.Context, k int) ([]ballot.Ballot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k = min(k, s.opts.Ballots-s.drawn)
	out := make([]ballot.Ballot, 0, max(k, 0))
	for range k {
		out = append(out, s.next())
	}
	s.drawn += len(out)
	return out, nil
}

// Seek restarts generation and skips the first drawn ballots, so the next
// Draw continues exactly where an earlier source with the same options
// stopped.
func (s *Source) Seek(ctx context.Context, drawn int) error {
	if drawn < 0 || drawn > s.opts.Ballots {
		return errors.New(errors.ErrCodeInvalidInput, "cannot seek to ballot %d of %d", drawn, s.opts.Ballots)
	}
	s.r = rng.New(s.opts.Seed)
	s.drawn = 0
	for s.drawn < drawn {
		if s.drawn%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		s.next()
		s.drawn++
	}
	return nil
}

type valued struct {
	value float64
	id    ballot.Candidate
}

func (s *Source) next() ballot.Ballot {
	vals := make([]valued, len(s.candidates))
	for i, c := range s.candidates {
		vals[i] = valued{value: float64(i) + s.opts.Noise*s.r.Float64(), id: c}
	}
	slices.SortFunc(vals, func(a, b valued) int {
		return cmp.Or(cmp.Compare(a.value, b.value), ballot.Compare(a.id, b.id))
	})
	b := make(ballot.Ballot, len(vals))
	for i, v := range vals {
		b[i] = v.id
	}
	return b
}
