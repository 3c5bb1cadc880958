package sequencer

import "math/rand"

// DefaultSeed replaces a zero random seed so unseeded runs stay reproducible.
const DefaultSeed int64 = 42

// Rand is the randomness a Sequencer consumes. *rand.Rand satisfies it;
// tests inject fixed streams.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// NewRand returns a deterministic generator. Seed 0 means DefaultSeed.
// The result is not safe for concurrent use; derive one per goroutine.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = DefaultSeed
	}
	return rand.New(rand.NewSource(seed))
}

// DeriveSeed mixes a parent seed with a stream id (SplitMix64 finalizer) so
// parallel producers get independent, reproducible streams.
func DeriveSeed(parent int64, stream uint64) int64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}
