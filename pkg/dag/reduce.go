package dag

// Reduce returns a copy of g without redundant edges.
//
// An edge (u, v) is redundant when u also reaches v through another child w,
// so that A→B, B→C and A→C reduce to A→B, B→C. The reduction keeps every
// ordering constraint of an acyclic graph and is the smallest graph that
// does, which makes precedence graphs readable when drawn.
//
// Reachability is computed once per vertex by DFS, so the cost is
// O(V·(V+E)) time and O(V²) space. On a cyclic graph the result is not
// unique; callers should [Graph.Validate] first.
func (g *Graph) Reduce() *Graph {
	out := New()
	for _, v := range g.vertices {
		_ = out.AddVertex(v)
	}
	if len(g.vertices) == 0 {
		return out
	}

	index := PosMap(g.vertices)
	adjacency := make([][]int, len(g.vertices))
	for i, v := range g.vertices {
		for _, c := range g.outgoing[v] {
			adjacency[i] = append(adjacency[i], index[c])
		}
	}
	reach := reachability(adjacency)

	for _, e := range g.Edges() {
		src, dst := index[e.From], index[e.To]
		redundant := false
		for _, w := range adjacency[src] {
			if w != dst && reach[w][dst] {
				redundant = true
				break
			}
		}
		if !redundant {
			_ = out.AddEdge(e.From, e.To)
		}
	}
	return out
}

// reachability returns r where r[i][j] reports a path, possibly empty,
// from i to j.
func reachability(adjacency [][]int) [][]bool {
	n := len(adjacency)
	reach := make([][]bool, n)
	for i := range reach {
		reach[i] = make([]bool, n)
	}

	var dfs func(source, current int)
	dfs = func(source, current int) {
		if reach[source][current] {
			return
		}
		reach[source][current] = true
		for _, next := range adjacency[current] {
			dfs(source, next)
		}
	}
	for i := range reach {
		dfs(i, i)
	}
	return reach
}
