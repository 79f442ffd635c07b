package source

import (
	"context"
	"math"
	"slices"

	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/errors"
	"github.com/matzehuels/bayesaudit/pkg/io"
	"github.com/matzehuels/bayesaudit/pkg/rng"
)

// Pool draws ballots from an in-memory population in a seeded random order.
// A Pool is not safe for concurrent use.
type Pool struct {
	ballots []ballot.Ballot
	pos     int
}

// NewPool shuffles a copy of ballots with seed.
func NewPool(ballots []ballot.Ballot, seed uint64) *Pool {
	b := slices.Clone(ballots)
	r := rng.New(seed)
	r.Shuffle(len(b), func(i, j int) { b[i], b[j] = b[j], b[i] })
	return &Pool{ballots: b}
}

// OpenFile reads a JSON lines ballot file into a shuffled pool.
func OpenFile(path string, seed uint64) (*Pool, error) {
	ballots, err := io.ImportBallots(path)
	if err != nil {
		return nil, err
	}
	return NewPool(ballots, seed), nil
}

// Len returns the population size.
func (p *Pool) Len() int { return len(p.ballots) }

// Remaining returns how many ballots have not been drawn.
func (p *Pool) Remaining() int { return len(p.ballots) - p.pos }

// Draw returns the next k ballots, fewer once the pool runs out.
func (p *Pool) Draw(ctx context.Context, k int) ([]ballot.Ballot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	end := min(p.pos+max(k, 0), len(p.ballots))
	out := p.ballots[p.pos:end:end]
	p.pos = end
	return out, nil
}

// Seek positions the pool after the first drawn ballots.
func (p *Pool) Seek(_ context.Context, drawn int) error {
	if drawn < 0 || drawn > len(p.ballots) {
		return errors.New(errors.ErrCodeInvalidInput, "cannot seek to ballot %d of %d", drawn, len(p.ballots))
	}
	p.pos = drawn
	return nil
}

// Expand turns a weight map with whole-number weights into individual
// ballots, in insertion order.
func Expand(w *ballot.WeightMap) ([]ballot.Ballot, error) {
	var out []ballot.Ballot
	for i := range w.Len() {
		weight := w.Weight(i)
		if weight != math.Trunc(weight) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "ballot %v has fractional weight %v", w.Ballot(i), weight)
		}
		for range int(weight) {
			out = append(out, w.Ballot(i))
		}
	}
	return out, nil
}
