// Package engine adapts vote-counting engines to the audit.
//
// A [Counter] computes the elected candidates of a weighted ballot profile,
// optionally consulting a [TieBreaker] for ties it cannot settle itself.
// [Outcome] turns a counter into an [audit.OutcomeFunc] and [New] bundles it
// with a ballot source into an [audit.Election].
//
// Two counters are built in, [RankedPairs] and [Borda]. [External] wraps any
// other engine, such as an official STV implementation, given as a function.
package engine
