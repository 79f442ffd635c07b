// Package checkpoint persists audit state between stages so that a long
// audit can be resumed after an interruption.
//
// A [Checkpoint] holds everything [audit.Runner.Resume] needs: the
// cumulative weight map, the number of ballots drawn, the stage counter,
// the seed and the audit options. Checkpoints are encoded as CBOR and kept
// in a [Store]:
//
//   - [FileStore] writes one file per checkpoint below a directory.
//   - [RedisStore] keeps checkpoints in Redis, optionally with a TTL.
//   - [NullStore] discards everything.
//
// [Saver] adapts a store to [audit.Checkpointer]. There is one checkpoint
// per contest; saving overwrites the previous stage's checkpoint.
package checkpoint
