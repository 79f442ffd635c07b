// Package rng constructs the seeded random generators used throughout the
// audit.
//
// Every random decision (pair tie-breaks, tie-breaking linearization, ballot
// selection and Gamma variates) draws from an explicit *rand.Rand so that a
// recorded seed reproduces an audit exactly. Concurrent trials each get their
// own generator, derived from the master seed with [Derive], so results do
// not depend on goroutine scheduling.
package rng

import (
	"encoding/binary"
	"math/rand/v2"
	"time"

	"github.com/zeebo/blake3"
)

// New returns a PCG-backed generator for seed.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// Derive mixes parts into master to produce an independent child seed.
// Equal inputs always give equal outputs, and changing any part changes the
// result unpredictably.
func Derive(master uint64, parts ...uint64) uint64 {
	h := blake3.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], master)
	_, _ = h.Write(buf[:])
	for _, p := range parts {
		binary.LittleEndian.PutUint64(buf[:], p)
		_, _ = h.Write(buf[:])
	}
	return binary.LittleEndian.Uint64(h.Sum(nil)[:8])
}

// Child returns a generator seeded with Derive(master, parts...).
func Child(master uint64, parts ...uint64) *rand.Rand {
	return New(Derive(master, parts...))
}

// Fresh returns a seed for callers that did not supply one. The value should
// be logged so the run can be replayed.
func Fresh() uint64 {
	return Derive(uint64(time.Now().UnixNano()), rand.Uint64())
}
