// Package tiebreak turns historical tie-break decisions into a total order
// over candidates and answers later tie queries from that order.
//
// # Overview
//
// Official counts sometimes need an election official to break a tie by
// hand. An audit that re-counts thousands of simulated populations will meet
// similar ties and must resolve them the way the officials did wherever
// precedent exists. Three kinds of decisions are recorded:
//
//   - [OrderingEvent]: the official fixed the order in which tied candidates
//     are elected. Every earlier candidate is preferred over every later one.
//   - [ElectionEvent]: the official elected one of two or more tied
//     candidates. The elected candidate is preferred over the others.
//   - [ExclusionEvent]: the official excluded one of several tied candidates.
//     Every other candidate is preferred over the excluded one.
//
// [Build] records these preferences as edges of a [dag.Graph] and computes
// one random topological order of all candidates. The [Breaker] it returns
// is immutable: [Breaker.Resolve] and its per-case helpers compare ranks in
// that order and involve no further randomness.
//
// # Consistency
//
// Contradictory decisions form a cycle, and Build fails with
// CYCLIC_TIE_BREAK rather than dropping edges. After linearizing, Build
// replays every recorded event through the new order and fails with
// INCONSISTENT_TIE_BREAK on any mismatch.
//
// [dag.Graph]: github.com/matzehuels/bayesaudit/pkg/dag.Graph
package tiebreak
