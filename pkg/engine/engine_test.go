package engine_test

import (
	"context"
	"io"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bayesaudit/pkg/audit"
	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/engine"
	"github.com/matzehuels/bayesaudit/pkg/errors"
	"github.com/matzehuels/bayesaudit/pkg/tiebreak"
)

var abc = ballot.Candidates("A", "B", "C")

func contest(seats int) audit.Contest {
	return audit.Contest{ID: "test", Candidates: abc, Seats: seats}
}

// cBeforeB breaks every tie between B and C in favor of C.
func cBeforeB(t *testing.T) *tiebreak.Breaker {
	t.Helper()
	tb, err := tiebreak.Build(abc, tiebreak.Events{
		Ordering: []tiebreak.OrderingEvent{{Resolution: ballot.Candidates("C", "B")}},
	}, tiebreak.Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return tb
}

func TestBordaScores(t *testing.T) {
	w := ballot.NewWeightMap()
	w.Add(ballot.New("A", "B", "C"), 2)
	w.Add(ballot.New("C"), 1)
	w.Add(ballot.New("B", "Z", "A"), 1) // Z is skipped without using a position

	got := engine.BordaScores(w, abc)
	want := map[ballot.Candidate]float64{"A": 4 + 1, "B": 2 + 2, "C": 2}
	for c, s := range want {
		if got[c] != s {
			t.Errorf("BordaScores()[%s] = %v, want %v", c, got[c], s)
		}
	}
}

func TestBorda(t *testing.T) {
	w := ballot.NewWeightMap()
	w.Add(ballot.New("A", "B", "C"), 2)
	w.Add(ballot.New("A", "C", "B"), 2)

	tests := []struct {
		name  string
		seats int
		tb    engine.TieBreaker
		want  []ballot.Candidate
	}{
		{"single seat", 1, nil, ballot.Candidates("A")},
		{"boundary tie by identifier", 2, nil, ballot.Candidates("A", "B")},
		{"boundary tie by breaker", 2, cBeforeB(t), ballot.Candidates("A", "C")},
		{"tie inside the seats", 3, cBeforeB(t), ballot.Candidates("A", "B", "C")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Borda{}.Count(w, contest(tt.seats), tt.tb, nil)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Count() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRankedPairs(t *testing.T) {
	w := ballot.NewWeightMap()
	w.Add(ballot.New("A", "B", "C"), 10)
	w.Add(ballot.New("B", "C", "A"), 3)

	for seed := range uint64(10) {
		got, err := engine.RankedPairs{}.Count(w, contest(2), nil, rand.New(rand.NewPCG(seed, seed)))
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if !slices.Equal(got, ballot.Candidates("A", "B")) {
			t.Errorf("Count() seed %d = %v, want [A B]", seed, got)
		}
	}
}

func TestRankedPairsRandomPairTies(t *testing.T) {
	// An empty profile ties every pair; the trial generator decides.
	w := ballot.NewWeightMap()
	tb := cBeforeB(t)

	orders := make(map[string]bool)
	for seed := range uint64(30) {
		got, err := engine.RankedPairs{}.Count(w, contest(3), tb, rand.New(rand.NewPCG(seed, 2)))
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		plain, _ := engine.RankedPairs{}.Count(w, contest(3), nil, rand.New(rand.NewPCG(seed, 2)))
		if !slices.Equal(got, plain) {
			t.Errorf("seed %d: Count() with breaker = %v, want %v", seed, got, plain)
		}
		orders[ballot.Ballot(got).Key()] = true
	}
	if len(orders) < 2 {
		t.Errorf("Count() gave %d distinct orders over 30 seeds, want random pair ties", len(orders))
	}
}

func TestOutcome(t *testing.T) {
	w := ballot.NewWeightMap()
	w.Add(ballot.New("C", "B", "A"), 5)

	fn := engine.Outcome(engine.RankedPairs{}, contest(2), nil)
	got, err := fn(w, rand.New(rand.NewPCG(1, 1)))
	if err != nil {
		t.Fatalf("Outcome() error = %v", err)
	}
	if got.Key() != audit.Canonical(ballot.Candidates("B", "C")).Key() {
		t.Errorf("Outcome() = %v, want (B, C)", got)
	}
}

func TestOutcomeRejectsWrongSeatCount(t *testing.T) {
	bad := engine.External("bad", func(*ballot.WeightMap, audit.Contest, engine.TieBreaker, *rand.Rand) ([]ballot.Candidate, error) {
		return abc, nil
	})
	_, err := engine.Outcome(bad, contest(1), nil)(ballot.NewWeightMap(), nil)
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Outcome() error = %v, want %s", err, errors.ErrCodeInternal)
	}
}

func TestExternalReceivesBreaker(t *testing.T) {
	tb := cBeforeB(t)
	stv := engine.External("stv", func(_ *ballot.WeightMap, _ audit.Contest, tb engine.TieBreaker, _ *rand.Rand) ([]ballot.Candidate, error) {
		loser, err := tb.ResolveExclusion(ballot.Candidates("B", "C"))
		if err != nil {
			return nil, err
		}
		return []ballot.Candidate{loser}, nil
	})
	if stv.Name() != "stv" {
		t.Errorf("Name() = %q, want stv", stv.Name())
	}
	got, err := stv.Count(ballot.NewWeightMap(), contest(1), tb, nil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if !slices.Equal(got, ballot.Candidates("B")) {
		t.Errorf("Count() = %v, want [B]", got)
	}
}

func TestLookup(t *testing.T) {
	for _, name := range engine.Names() {
		c, err := engine.Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) error = %v", name, err)
		}
		if c.Name() != name {
			t.Errorf("Lookup(%q).Name() = %q", name, c.Name())
		}
	}
	if _, err := engine.Lookup("plurality"); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Lookup(plurality) error = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
	if got := engine.Names(); !slices.Equal(got, []string{"borda", "rankedpairs"}) {
		t.Errorf("Names() = %v", got)
	}
}

type slice struct{ ballots []ballot.Ballot }

func (s *slice) Draw(_ context.Context, k int) ([]ballot.Ballot, error) {
	k = min(k, len(s.ballots))
	out := s.ballots[:k]
	s.ballots = s.ballots[k:]
	return out, nil
}

func TestNewAudits(t *testing.T) {
	src := &slice{}
	for i := range 400 {
		switch i % 4 {
		case 0:
			src.ballots = append(src.ballots, ballot.New("B", "A", "C"))
		default:
			src.ballots = append(src.ballots, ballot.New("A", "B", "C"))
		}
	}
	c := audit.Contest{ID: "council", Candidates: abc, Seats: 2, Population: 400}
	e := engine.New(c, src, engine.RankedPairs{}, nil)

	res, err := audit.NewRunner(log.New(io.Discard)).Run(context.Background(), e, audit.Options{BatchSize: 40, Trials: 50, Seed: 3})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Status != audit.StatusConfirmed {
		t.Errorf("Status = %v, want %v", res.Status, audit.StatusConfirmed)
	}
	if res.Outcome.Key() != audit.Canonical(ballot.Candidates("A", "B")).Key() {
		t.Errorf("Outcome = %v, want (A, B)", res.Outcome)
	}
}
