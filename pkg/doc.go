// Package pkg provides the libraries behind bayesaudit, a Bayesian
// risk-limiting audit for ranked-choice contests.
//
// # Overview
//
// An audit draws paper ballots in stages. After each stage the unseen part
// of the population is resampled from a Dirichlet posterior over the ballot
// patterns seen so far, every simulated election is counted, and the audit
// stops once a single outcome wins at least 1-α of the simulations.
//
// # Architecture
//
// The typical data flow through an audit:
//
//	Ballot source (file, SQL, simulation)
//	         ↓
//	    [source] package (shuffled pool, staged draws)
//	         ↓
//	    [audit] package (stages, stopping rule)
//	         ↓
//	    [resample] package (Gamma/Dirichlet posterior draws)
//	         ↓
//	    [engine] package (Ranked Pairs or Borda count)
//	         ↓
//	    [checkpoint] and [report] packages (resumable state, stage records)
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/bayesaudit/pkg/audit"
//	    "github.com/matzehuels/bayesaudit/pkg/engine"
//	    "github.com/matzehuels/bayesaudit/pkg/source"
//	)
//
//	pool := source.NewPool(ballots, opts.Seed)
//	election := engine.New(contest, pool, engine.RankedPairs{}, breaker)
//	res, err := audit.NewRunner(logger).Run(ctx, election, opts)
//
// # Main Packages
//
// [ballot] - Candidates, ballots, weight maps and pairwise preference
// matrices.
//
// [dag] - Directed graph with reachability, cycle detection, transitive
// reduction and a randomized topological sort.
//
// [rankedpairs] - The Ranked Pairs (Tideman) method over a preference matrix.
//
// [tiebreak] - Builds a tie-breaking order from recorded ordering, election
// and exclusion decisions.
//
// [rng], [resample] - Seeded generators and posterior resampling.
//
// [audit] - The staged audit loop, its options and results.
//
// [engine] - Counting methods plugged into the audit.
//
// [source], [simulate], [io] - Ballot pools from files, SQL databases or
// simulation.
//
// [checkpoint], [report] - Saved audit state in files or Redis, and stage
// records in JSON lines or MongoDB.
//
// [config] - TOML and YAML audit configuration.
//
// [observability] - Metric hooks with a Prometheus implementation.
//
// [render/nodelink] - Graphviz drawings of precedence graphs.
//
// [errors] - Coded errors shared by every package.
package pkg
