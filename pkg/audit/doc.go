// Package audit implements the Bayesian resampling audit loop.
//
// # Overview
//
// An audit draws ballots from an election in batches. After each batch it
// simulates many plausible full populations consistent with the sample seen
// so far (see package resample), computes the election outcome for each,
// and stops once one outcome wins a large enough share of the simulations.
// If every ballot has been drawn without reaching that share, the audit
// still stops and reports the most frequent outcome: a full count has been
// performed, which is a normal terminal state and not an error.
//
// # Usage
//
//	e := audit.NewElection(contest, src, outcomeFn)
//	runner := audit.NewRunner(logger)
//	res, err := runner.Run(ctx, e, audit.Options{Alpha: 0.05, BatchSize: 100, Trials: 100})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Status, res.Outcome)
//
// # Concurrency
//
// Stages run sequentially. Within a stage the trials run concurrently on an
// errgroup limited to [Options.Workers] goroutines. Each trial derives its
// own generator from the seed, the stage number and the trial index, and the
// cumulative weight map is only read while trials run, so results do not
// depend on scheduling. Outcome functions must not share mutable state
// between calls.
//
// # Resuming
//
// [State] holds everything needed to continue an audit: the cumulative
// weights, the number of ballots drawn and the stage counter. A
// [Checkpointer] saves it after every stage, and [Runner.Resume] continues
// from a saved state.
package audit
