// Package dag provides a small directed graph over string identifiers with
// the traversals the audit needs: reachability, cycle detection and a
// randomized topological sort.
//
// # Overview
//
// Two algorithms build graphs with this package. Ranked Pairs commits
// majorities as edges winner -> loser and consults [Graph.Reachable] before
// each commit so that no cycle is ever introduced. The tie breaker records
// historical decisions as precedence edges and linearizes them with
// [Graph.RandomTopoSort].
//
// # Basic Usage
//
//	g := dag.New()
//	_ = g.AddVertex("A")
//	_ = g.AddVertex("B")
//	_ = g.AddEdge("A", "B")
//
//	g.Reachable("A", "B") // true
//	g.Reachable("A", "A") // false: no cycle through A
//
// # Randomized Linearization
//
// [Graph.RandomTopoSort] shuffles the start vertices and each successor list
// with the caller's generator, so every topological order of the graph can be
// produced and a fixed seed always produces the same one. Passing a nil
// generator yields a deterministic order.
//
// # Drawing
//
// A precedence graph holds every pairwise constraint, so a total order of n
// candidates has n(n-1)/2 edges. [Graph.Reduce] drops the edges implied by
// longer paths before the graph is rendered.
//
// # Concurrency
//
// Graph instances are not safe for concurrent mutation. Read-only methods
// such as [Graph.Reachable] and [Graph.OutDegree] may be called from several
// goroutines once construction has finished.
package dag
