package dag

import (
	"cmp"
	"errors"
	"math/rand/v2"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddVertex] when the vertex ID is
	// empty. All vertices must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddVertex] when a vertex with
	// the same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From vertex
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To vertex
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrGraphHasCycle is returned by [Graph.Validate] and [Graph.RandomTopoSort]
	// when a cycle is detected. Cycles are detected using depth-first search
	// with white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Edge represents a directed edge between two vertices.
type Edge struct {
	From string
	To   string
}

// Graph is a directed graph over string-identified vertices. It is used both
// for committed majorities in Ranked Pairs and for tie-breaking precedence.
// Acyclicity is not enforced on insertion; callers check it with
// [Graph.Validate] or [Graph.Reachable] as their algorithm requires.
//
// The zero value is not usable - use [New].
type Graph struct {
	vertices []string
	known    map[string]bool
	outgoing map[string][]string
	incoming map[string][]string
	edges    map[Edge]bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		known:    make(map[string]bool),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		edges:    make(map[Edge]bool),
	}
}

// AddVertex adds a vertex. It returns [ErrInvalidNodeID] for an empty ID and
// [ErrDuplicateNodeID] if the vertex already exists.
func (g *Graph) AddVertex(id string) error {
	if id == "" {
		return ErrInvalidNodeID
	}
	if g.known[id] {
		return ErrDuplicateNodeID
	}
	g.known[id] = true
	g.vertices = append(g.vertices, id)
	return nil
}

// AddEdge adds the edge from -> to. Both endpoints must exist. Adding an
// edge that is already present is a no-op.
func (g *Graph) AddEdge(from, to string) error {
	if !g.known[from] {
		return ErrUnknownSourceNode
	}
	if !g.known[to] {
		return ErrUnknownTargetNode
	}
	e := Edge{From: from, To: to}
	if g.edges[e] {
		return nil
	}
	g.edges[e] = true
	g.outgoing[from] = append(g.outgoing[from], to)
	g.incoming[to] = append(g.incoming[to], from)
	return nil
}

// HasVertex reports whether id is a vertex of the graph.
func (g *Graph) HasVertex(id string) bool { return g.known[id] }

// HasEdge reports whether the edge from -> to exists.
func (g *Graph) HasEdge(from, to string) bool { return g.edges[Edge{From: from, To: to}] }

// Vertices returns all vertices in insertion order.
func (g *Graph) Vertices() []string { return slices.Clone(g.vertices) }

// Edges returns all edges ordered by source then target.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for e := range g.edges {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Edge) int {
		return cmp.Or(cmp.Compare(a.From, b.From), cmp.Compare(a.To, b.To))
	})
	return out
}

// VertexCount returns the number of vertices.
func (g *Graph) VertexCount() int { return len(g.vertices) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the direct successors of id in insertion order.
// The returned slice must not be modified.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the direct predecessors of id in insertion order.
// The returned slice must not be modified.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// OutDegree returns the number of edges leaving id.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// InDegree returns the number of edges entering id.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// Reachable reports whether a directed path of at least one edge leads from
// one vertex to another. A vertex reaches itself only through a cycle.
// Unknown vertices reach nothing.
func (g *Graph) Reachable(from, to string) bool {
	visited := make(map[string]bool, len(g.vertices))
	stack := slices.Clone(g.outgoing[from])
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if v == to {
			return true
		}
		if visited[v] {
			continue
		}
		visited[v] = true
		stack = append(stack, g.outgoing[v]...)
	}
	return false
}

// Validate reports [ErrGraphHasCycle] if the graph is not acyclic.
func (g *Graph) Validate() error {
	return g.detectCycles()
}

func (g *Graph) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.vertices))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range g.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for _, id := range g.vertices {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

// RandomTopoSort returns a topological order of all vertices: for every edge
// u -> v, u precedes v. Start vertices are visited in sorted order shuffled
// by rng, and each vertex's successors are shuffled before being explored,
// so different generator states yield different valid orders. A nil rng
// gives the deterministic order obtained without shuffling.
//
// The traversal uses an explicit stack, so deep chains do not grow the call
// stack. It returns [ErrGraphHasCycle] if a cycle is found.
func (g *Graph) RandomTopoSort(rng *rand.Rand) ([]string, error) {
	const (
		white = iota
		gray
		black
	)

	shuffled := func(ids []string) []string {
		out := slices.Clone(ids)
		if rng != nil {
			rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		}
		return out
	}

	type frame struct {
		id       string
		children []string
		next     int
	}

	roots := slices.Clone(g.vertices)
	slices.Sort(roots)
	roots = shuffled(roots)

	color := make(map[string]int, len(g.vertices))
	order := make([]string, 0, len(g.vertices))

	for _, root := range roots {
		if color[root] != white {
			continue
		}
		color[root] = gray
		stack := []frame{{id: root, children: shuffled(g.outgoing[root])}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(top.children) {
				child := top.children[top.next]
				top.next++
				switch color[child] {
				case white:
					color[child] = gray
					stack = append(stack, frame{id: child, children: shuffled(g.outgoing[child])})
				case gray:
					return nil, ErrGraphHasCycle
				}
				continue
			}
			color[top.id] = black
			order = append(order, top.id)
			stack = stack[:len(stack)-1]
		}
	}

	slices.Reverse(order)
	return order, nil
}

// PosMap creates a position lookup map from a slice of vertex IDs.
// The returned map maps each ID to its index in the slice.
// Returns an empty map for a nil or empty slice.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}
