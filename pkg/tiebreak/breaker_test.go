package tiebreak

import (
	"slices"
	"testing"

	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/errors"
	"github.com/matzehuels/bayesaudit/pkg/rng"
)

var seven = ballot.Candidates("A", "B", "C", "D", "E", "F", "G")

func sevenEvents() Events {
	return Events{
		Ordering: []OrderingEvent{
			{Candidates: ballot.Candidates("A", "B", "C"), Resolution: ballot.Candidates("B", "A", "C")},
		},
		Election: []ElectionEvent{
			{Candidates: ballot.Candidates("D", "G"), Elected: "G"},
		},
		Exclusion: []ExclusionEvent{
			{Candidates: ballot.Candidates("D", "E", "F"), Excluded: "E"},
		},
	}
}

func TestBuildEdges(t *testing.T) {
	b, err := Build(seven, sevenEvents(), Options{Rand: rng.New(1)})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	g := b.Graph()
	want := [][2]string{{"B", "A"}, {"B", "C"}, {"A", "C"}, {"G", "D"}, {"D", "E"}, {"F", "E"}}
	for _, e := range want {
		if !g.HasEdge(e[0], e[1]) {
			t.Errorf("missing edge %s -> %s", e[0], e[1])
		}
	}
	if g.EdgeCount() != len(want) {
		t.Errorf("EdgeCount() = %d, want %d", g.EdgeCount(), len(want))
	}
}

func TestBuildReplaysEvents(t *testing.T) {
	for seed := range uint64(50) {
		b, err := Build(seven, sevenEvents(), Options{Rand: rng.New(seed)})
		if err != nil {
			t.Fatalf("seed %d: Build() error = %v", seed, err)
		}
		order, _ := b.ResolveOrdering(ballot.Candidates("A", "B", "C"))
		if want := ballot.Candidates("B", "A", "C"); !slices.Equal(order, want) {
			t.Errorf("seed %d: ResolveOrdering() = %v, want %v", seed, order, want)
		}
		if got, _ := b.ResolveElection(ballot.Candidates("D", "G")); got != "G" {
			t.Errorf("seed %d: ResolveElection() = %v, want G", seed, got)
		}
		if got, _ := b.ResolveExclusion(ballot.Candidates("D", "E", "F")); got != "E" {
			t.Errorf("seed %d: ResolveExclusion() = %v, want E", seed, got)
		}

		// Unrelated candidates follow the linear order in both directions.
		elected, _ := b.ResolveElection(ballot.Candidates("B", "F"))
		excluded, _ := b.ResolveExclusion(ballot.Candidates("B", "F"))
		if elected == excluded {
			t.Errorf("seed %d: %v both elected and excluded", seed, elected)
		}
		if !b.Less(elected, excluded) {
			t.Errorf("seed %d: elected %v does not precede excluded %v", seed, elected, excluded)
		}
	}
}

func TestBuildDeterministicPerSeed(t *testing.T) {
	a, err := Build(seven, sevenEvents(), Options{Rand: rng.New(7)})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Build(seven, sevenEvents(), Options{Rand: rng.New(7)})
	if !slices.Equal(a.LinearOrder(), b.LinearOrder()) {
		t.Errorf("same seed gave %v and %v", a.LinearOrder(), b.LinearOrder())
	}
}

func TestBuildCyclic(t *testing.T) {
	events := Events{
		Election: []ElectionEvent{
			{Candidates: ballot.Candidates("A", "B"), Elected: "A"},
			{Candidates: ballot.Candidates("B", "C"), Elected: "B"},
			{Candidates: ballot.Candidates("C", "A"), Elected: "C"},
		},
	}
	_, err := Build(ballot.Candidates("A", "B", "C"), events, Options{Rand: rng.New(1)})
	if !errors.Is(err, errors.ErrCodeCyclicTieBreak) {
		t.Errorf("Build() error = %v, want %v", err, errors.ErrCodeCyclicTieBreak)
	}
}

func TestBuildCyclicAcrossCases(t *testing.T) {
	events := Events{
		Ordering:  []OrderingEvent{{Resolution: ballot.Candidates("A", "B")}},
		Exclusion: []ExclusionEvent{{Candidates: ballot.Candidates("A", "B"), Excluded: "A"}},
	}
	_, err := Build(ballot.Candidates("A", "B"), events, Options{})
	if !errors.Is(err, errors.ErrCodeCyclicTieBreak) {
		t.Errorf("Build() error = %v, want %v", err, errors.ErrCodeCyclicTieBreak)
	}
}

func TestBuildInvalidEvents(t *testing.T) {
	cands := ballot.Candidates("A", "B", "C")
	tests := []struct {
		name   string
		events Events
		code   errors.Code
	}{
		{
			"unknown in ordering",
			Events{Ordering: []OrderingEvent{{Resolution: ballot.Candidates("A", "Z")}}},
			errors.ErrCodeUnknownCandidate,
		},
		{
			"resolution not a permutation",
			Events{Ordering: []OrderingEvent{{Candidates: ballot.Candidates("A", "B"), Resolution: ballot.Candidates("A", "C")}}},
			errors.ErrCodeInvalidTieEvent,
		},
		{
			"short resolution",
			Events{Ordering: []OrderingEvent{{Candidates: ballot.Candidates("A", "B", "C"), Resolution: ballot.Candidates("A", "B")}}},
			errors.ErrCodeInvalidTieEvent,
		},
		{
			"elected outside tie",
			Events{Election: []ElectionEvent{{Candidates: ballot.Candidates("A", "B"), Elected: "C"}}},
			errors.ErrCodeInvalidTieEvent,
		},
		{
			"excluded unknown",
			Events{Exclusion: []ExclusionEvent{{Candidates: ballot.Candidates("A", "Q"), Excluded: "A"}}},
			errors.ErrCodeUnknownCandidate,
		},
		{
			"single candidate tie",
			Events{Election: []ElectionEvent{{Candidates: ballot.Candidates("A"), Elected: "A"}}},
			errors.ErrCodeInvalidTieEvent,
		},
		{
			"duplicate in tie",
			Events{Exclusion: []ExclusionEvent{{Candidates: ballot.Candidates("A", "A", "B"), Excluded: "B"}}},
			errors.ErrCodeInvalidTieEvent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(cands, tt.events, Options{})
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("Build() code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestBuildNoEvents(t *testing.T) {
	b, err := Build(ballot.Candidates("C", "A", "B"), Events{}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	// Without shuffling the order is the reverse postorder over sorted IDs.
	if want := ballot.Candidates("C", "B", "A"); !slices.Equal(b.LinearOrder(), want) {
		t.Errorf("LinearOrder() = %v, want %v", b.LinearOrder(), want)
	}
}

func TestBuildTrace(t *testing.T) {
	var edges, replays int
	trace := func(msg string, _ ...any) {
		switch msg {
		case "added tie-break edge":
			edges++
		case "replayed tie-break event":
			replays++
		}
	}
	if _, err := Build(seven, sevenEvents(), Options{Rand: rng.New(1), Trace: trace}); err != nil {
		t.Fatal(err)
	}
	if edges != 6 || replays != 3 {
		t.Errorf("traced %d edges and %d replays, want 6 and 3", edges, replays)
	}
}

func TestResolve(t *testing.T) {
	b, err := Build(ballot.Candidates("A", "B", "C"), Events{
		Ordering: []OrderingEvent{{Resolution: ballot.Candidates("C", "A", "B")}},
	}, Options{Rand: rng.New(3)})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		subset []ballot.Candidate
		c      Case
		want   []ballot.Candidate
	}{
		{ballot.Candidates("A", "B", "C"), CaseOrdering, ballot.Candidates("C", "A", "B")},
		{ballot.Candidates("B", "A"), CaseOrdering, ballot.Candidates("A", "B")},
		{ballot.Candidates("B", "A", "C"), CaseElection, ballot.Candidates("C")},
		{ballot.Candidates("B", "A", "C"), CaseExclusion, ballot.Candidates("B")},
		{ballot.Candidates("A"), CaseElection, ballot.Candidates("A")},
	}
	for _, tt := range tests {
		got, err := b.Resolve(tt.subset, tt.c)
		if err != nil {
			t.Errorf("Resolve(%v, %v) error = %v", tt.subset, tt.c, err)
			continue
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("Resolve(%v, %v) = %v, want %v", tt.subset, tt.c, got, tt.want)
		}
	}

	if _, err := b.Resolve(nil, CaseElection); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Resolve(nil) error = %v, want %v", err, errors.ErrCodeInvalidInput)
	}
	if _, err := b.Resolve(ballot.Candidates("A", "Z"), CaseOrdering); !errors.Is(err, errors.ErrCodeUnknownCandidate) {
		t.Errorf("Resolve(unknown) error = %v, want %v", err, errors.ErrCodeUnknownCandidate)
	}
	if _, err := b.Resolve(ballot.Candidates("A"), Case(9)); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Resolve(bad case) error = %v, want %v", err, errors.ErrCodeInvalidInput)
	}
}

func TestLessUnknownCandidates(t *testing.T) {
	b, _ := Build(ballot.Candidates("A", "B"), Events{}, Options{})
	if !b.Less("A", "Z") || b.Less("Z", "A") {
		t.Error("known candidates must precede unknown ones")
	}
	if !b.Less("Y", "Z") {
		t.Error("unknown candidates must fall back to identifier order")
	}
}

func TestParseCase(t *testing.T) {
	for _, c := range []Case{CaseOrdering, CaseElection, CaseExclusion} {
		got, err := ParseCase(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCase(%q) = %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseCase("draw"); err == nil {
		t.Error("ParseCase(draw) succeeded")
	}
}
