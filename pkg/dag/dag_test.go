package dag

import (
	"errors"
	"slices"
	"strconv"
	"testing"

	"github.com/matzehuels/bayesaudit/pkg/rng"
)

func build(t *testing.T, vertices []string, edges [][2]string) *Graph {
	t.Helper()
	g := New()
	for _, v := range vertices {
		if err := g.AddVertex(v); err != nil {
			t.Fatalf("AddVertex(%q) = %v", v, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge(%q, %q) = %v", e[0], e[1], err)
		}
	}
	return g
}

func TestAddVertexErrors(t *testing.T) {
	g := New()
	if err := g.AddVertex(""); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddVertex(\"\") = %v, want %v", err, ErrInvalidNodeID)
	}
	_ = g.AddVertex("a")
	if err := g.AddVertex("a"); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddVertex(dup) = %v, want %v", err, ErrDuplicateNodeID)
	}
}

func TestAddEdgeErrors(t *testing.T) {
	g := build(t, []string{"a"}, nil)
	if err := g.AddEdge("x", "a"); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(x, a) = %v, want %v", err, ErrUnknownSourceNode)
	}
	if err := g.AddEdge("a", "x"); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(a, x) = %v, want %v", err, ErrUnknownTargetNode)
	}
}

func TestAddEdgeIdempotent(t *testing.T) {
	g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"a", "b"}})
	if g.EdgeCount() != 1 || g.OutDegree("a") != 1 || g.InDegree("b") != 1 {
		t.Errorf("duplicate edge counted: edges=%d out=%d in=%d", g.EdgeCount(), g.OutDegree("a"), g.InDegree("b"))
	}
}

func TestReachable(t *testing.T) {
	g := build(t, []string{"1", "2", "3", "4", "5"}, [][2]string{{"1", "2"}, {"2", "3"}, {"3", "4"}})
	tests := []struct {
		from, to string
		want     bool
	}{
		{"1", "4", true},
		{"1", "2", true},
		{"2", "4", true},
		{"4", "1", false},
		{"1", "1", false},
		{"1", "5", false},
		{"5", "1", false},
		{"x", "1", false},
	}
	for _, tt := range tests {
		if got := g.Reachable(tt.from, tt.to); got != tt.want {
			t.Errorf("Reachable(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestReachableSelfThroughCycle(t *testing.T) {
	g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})
	if !g.Reachable("a", "a") {
		t.Error("Reachable(a, a) = false on a 2-cycle, want true")
	}
}

func TestValidate(t *testing.T) {
	acyclic := build(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}})
	if err := acyclic.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	cyclic := build(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}})
	if err := cyclic.Validate(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("Validate() = %v, want %v", err, ErrGraphHasCycle)
	}
}

func TestRandomTopoSortRespectsEdges(t *testing.T) {
	edges := [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}, {"e", "d"}, {"f", "a"}}
	g := build(t, []string{"a", "b", "c", "d", "e", "f", "g"}, edges)

	for seed := range uint64(50) {
		order, err := g.RandomTopoSort(rng.New(seed))
		if err != nil {
			t.Fatalf("seed %d: RandomTopoSort() = %v", seed, err)
		}
		if len(order) != g.VertexCount() {
			t.Fatalf("seed %d: got %d vertices, want %d", seed, len(order), g.VertexCount())
		}
		pos := PosMap(order)
		for _, e := range edges {
			if pos[e[0]] >= pos[e[1]] {
				t.Errorf("seed %d: %s placed after %s in %v", seed, e[0], e[1], order)
			}
		}
	}
}

func TestRandomTopoSortDeterministicPerSeed(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d", "e"}, nil)
	first, _ := g.RandomTopoSort(rng.New(9))
	again, _ := g.RandomTopoSort(rng.New(9))
	if !slices.Equal(first, again) {
		t.Errorf("same seed gave %v and %v", first, again)
	}
}

func TestRandomTopoSortCoversAllOrders(t *testing.T) {
	// Three unconstrained vertices admit 3! orders; all should appear.
	g := build(t, []string{"a", "b", "c"}, nil)
	seen := map[string]bool{}
	for seed := range uint64(200) {
		order, _ := g.RandomTopoSort(rng.New(seed))
		seen[order[0]+order[1]+order[2]] = true
	}
	if len(seen) != 6 {
		t.Errorf("saw %d distinct orders, want 6: %v", len(seen), seen)
	}
}

func TestRandomTopoSortNilRand(t *testing.T) {
	g := build(t, []string{"c", "b", "a"}, [][2]string{{"c", "a"}})
	order, err := g.RandomTopoSort(nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"c", "b", "a"}; !slices.Equal(order, want) {
		t.Errorf("RandomTopoSort(nil) = %v, want %v", order, want)
	}
}

func TestRandomTopoSortCycle(t *testing.T) {
	g := build(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}})
	if _, err := g.RandomTopoSort(rng.New(1)); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("RandomTopoSort() = %v, want %v", err, ErrGraphHasCycle)
	}
}

func TestRandomTopoSortDeepChain(t *testing.T) {
	g := New()
	const n = 20000
	ids := make([]string, n)
	for i := range ids {
		ids[i] = "v" + strconv.Itoa(i)
		_ = g.AddVertex(ids[i])
		if i > 0 {
			_ = g.AddEdge(ids[i-1], ids[i])
		}
	}
	order, err := g.RandomTopoSort(rng.New(1))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(order, ids) {
		t.Error("deep chain not returned in chain order")
	}
}
