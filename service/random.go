package service

import (
	"math/rand/v2"
	"sync"
	"time"
)

// RandomSource is the randomness the outcome generator draws from
type RandomSource interface {
	// Float64 returns a number in [0.0, 1.0)
	Float64() float64
	// IntN returns a number in [0, n)
	IntN(n int) int
}

type globalRandom struct{}

func (globalRandom) Float64() float64 { return rand.Float64() }
func (globalRandom) IntN(n int) int   { return rand.IntN(n) }

// NewRandomSource returns the process-wide generator. It is safe for
// concurrent use.
func NewRandomSource() RandomSource {
	return globalRandom{}
}

// lockedRandom serializes access to a seeded *rand.Rand
type lockedRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededRandomSource returns a reproducible source for simulations and
// tests. It is safe for concurrent use.
func NewSeededRandomSource(seed uint64) RandomSource {
	return &lockedRandom{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *lockedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *lockedRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// Clock supplies the current time and timers
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now().UTC() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// NewSystemClock returns a Clock backed by the wall clock, in UTC
func NewSystemClock() Clock {
	return systemClock{}
}
