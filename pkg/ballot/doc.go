// Package ballot provides the data model shared by every stage of the audit:
// candidates, preferential ballots, ballot weight maps and pairwise
// preference matrices.
//
// # Ballots
//
// A [Ballot] is an ordered sequence of distinct candidate identifiers, most
// preferred first. Candidates omitted from a ballot are implicitly less
// preferred than every listed candidate. Ballots are immutable once created;
// two ballots with equal sequences are the same ballot and share a [Ballot.Key].
//
// The package performs no formality checks on ballots it is given. Callers
// that want them (duplicate or unknown candidates) run [ValidateBallot]
// upstream before adding ballots to a weight map.
//
// # Weight Maps
//
// A [WeightMap] maps each distinct ballot to a non-negative real weight: the
// number of cast papers carrying exactly that preference order. Weight maps
// preserve insertion order so that every pass over them is deterministic,
// which keeps resampling and counting reproducible from a seed.
//
// Counting never mutates a weight map. Resampling produces a new map with
// [WeightMap.WithWeights], sharing the ballot slice with the original.
//
// # Preference Matrices
//
// [Prefs] tallies a weight map into a [Matrix] where Values[i][j] is the
// total weight of ballots ranking candidate i strictly above candidate j.
//
// # Concurrency
//
// A WeightMap is not safe for concurrent mutation. Concurrent reads are safe
// as long as no goroutine calls [WeightMap.Add]; the audit loop relies on
// this to evaluate trials in parallel between draws.
package ballot
