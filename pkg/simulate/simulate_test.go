package simulate

import (
	"context"
	"slices"
	"testing"

	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/errors"
)

func TestCandidateIDs(t *testing.T) {
	tests := []struct {
		m    int
		want []ballot.Candidate
	}{
		{1, ballot.Candidates("1")},
		{3, ballot.Candidates("1", "2", "3")},
	}
	for _, tt := range tests {
		if got := CandidateIDs(tt.m); !slices.Equal(got, tt.want) {
			t.Errorf("CandidateIDs(%d) = %v, want %v", tt.m, got, tt.want)
		}
	}
	ids := CandidateIDs(12)
	if ids[0] != "01" || ids[11] != "12" {
		t.Errorf("CandidateIDs(12) = %v, want zero-padded", ids)
	}
	if !slices.IsSortedFunc(ids, ballot.Compare) {
		t.Errorf("CandidateIDs(12) not in identifier order: %v", ids)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Candidates: 6, Ballots: 100}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if opts.Noise != 3 || opts.Seats != 3 || opts.Seed == 0 {
		t.Errorf("defaults = %+v, want noise 3, seats 3 and a seed", opts)
	}

	one := Options{Candidates: 1, Ballots: 1}
	if err := one.ValidateAndSetDefaults(); err != nil || one.Seats != 1 {
		t.Errorf("single candidate: seats = %d, err = %v", one.Seats, err)
	}
}

func TestOptionsInvalid(t *testing.T) {
	tests := []Options{
		{Candidates: 0, Ballots: 10},
		{Candidates: 3, Ballots: 0},
		{Candidates: 3, Ballots: 10, Noise: -1},
		{Candidates: 3, Ballots: 10, Seats: 4},
	}
	for _, opts := range tests {
		if err := opts.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("ValidateAndSetDefaults(%+v) error = %v, want %s", opts, err, errors.ErrCodeInvalidConfig)
		}
	}
}

func TestDrawCapsAtPopulation(t *testing.T) {
	src, err := NewSource(Options{Candidates: 4, Ballots: 250})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	var total int
	for _, want := range []int{100, 100, 50, 0} {
		batch, err := src.Draw(ctx, 100)
		if err != nil {
			t.Fatalf("Draw() error = %v", err)
		}
		if len(batch) != want {
			t.Errorf("Draw() returned %d ballots, want %d", len(batch), want)
		}
		total += len(batch)
	}
	if total != 250 {
		t.Errorf("drew %d ballots, want 250", total)
	}
}

func TestBallotsAreFullRankings(t *testing.T) {
	src, _ := NewSource(Options{Candidates: 5, Ballots: 200, Seed: 9})
	batch, _ := src.Draw(context.Background(), 200)
	cands := CandidateIDs(5)
	for _, b := range batch {
		if len(b) != 5 {
			t.Fatalf("ballot %v has %d entries, want 5", b, len(b))
		}
		if err := ballot.ValidateBallot(b, cands); err != nil {
			t.Fatalf("ValidateBallot(%v) error = %v", b, err)
		}
	}
}

func TestBallotsFavorLowNumbers(t *testing.T) {
	src, _ := NewSource(Options{Candidates: 4, Ballots: 2000, Seed: 5})
	batch, _ := src.Draw(context.Background(), 2000)
	first := map[ballot.Candidate]int{}
	for _, b := range batch {
		first[b[0]]++
	}
	if first["1"] <= first["2"] || first["2"] <= first["3"] || first["3"] < first["4"] {
		t.Errorf("first preferences = %v, want decreasing with candidate number", first)
	}
}

func TestZeroNoiseIsDeterministic(t *testing.T) {
	// A negligible noise never reorders the candidates.
	src, _ := NewSource(Options{Candidates: 3, Ballots: 10, Noise: 1e-9})
	batch, _ := src.Draw(context.Background(), 10)
	for _, b := range batch {
		if !slices.Equal(b, CandidateIDs(3)) {
			t.Fatalf("ballot = %v, want %v", b, CandidateIDs(3))
		}
	}
}

func TestSeekContinuesStream(t *testing.T) {
	ctx := context.Background()
	opts := Options{Candidates: 5, Ballots: 300, Seed: 11}

	a, _ := NewSource(opts)
	first, _ := a.Draw(ctx, 120)
	rest, _ := a.Draw(ctx, 100)

	b, _ := NewSource(opts)
	if err := b.Seek(ctx, len(first)); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	resumed, _ := b.Draw(ctx, 100)
	for i := range rest {
		if !slices.Equal(rest[i], resumed[i]) {
			t.Fatalf("ballot %d after Seek = %v, want %v", i, resumed[i], rest[i])
		}
	}

	if err := b.Seek(ctx, 301); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Seek(301) error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestContest(t *testing.T) {
	opts := Options{Candidates: 4, Ballots: 50}
	_ = opts.ValidateAndSetDefaults()
	c := Contest("sim", opts)
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if c.Seats != 2 || c.Population != 50 || len(c.Candidates) != 4 {
		t.Errorf("Contest() = %+v", c)
	}
}
