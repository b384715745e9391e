package util

import (
	erand "golang.org/x/exp/rand"
)

// Rng is the seeded generator shared by the environment loop and the agents.
// Two Rng values created from the same seed yield identical streams.
type Rng struct {
	seed uint64
	rand *erand.Rand
}

func NewRng(seed uint64) *Rng {
	return &Rng{
		seed: seed,
		rand: erand.New(erand.NewSource(seed)),
	}
}

// Seed restarts the stream from seed.
func (r *Rng) Seed(seed uint64) {
	r.seed = seed
	r.rand.Seed(seed)
}

func (r *Rng) InitialSeed() uint64 {
	return r.seed
}

func (r *Rng) Float64() float64 {
	return r.rand.Float64()
}

// Intn returns a uniform int in [0,n). n <= 0 yields 0.
func (r *Rng) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return r.rand.Intn(n)
}

// Bool is a fair coin flip.
func (r *Rng) Bool() bool {
	return r.rand.Float64() < 0.5
}

// Pick returns a uniformly chosen element of xs, or the zero value when xs is empty.
func Pick[T any](r *Rng, xs []T) T {
	var zero T
	if len(xs) == 0 {
		return zero
	}
	return xs[r.Intn(len(xs))]
}

// DeriveSeed mixes a base seed with an index so trials and runs get distinct,
// reproducible streams.
func DeriveSeed(base uint64, index int) uint64 {
	z := base + uint64(index+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
