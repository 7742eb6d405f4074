// Package variate produces standard-normal random variates from an injected
// uniform source.
package variate

import (
	"math"
	"math/rand/v2"
)

// Source yields uniform values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a uniform source seeded from process entropy.
// Each call yields an independent, non-reproducible stream.
func NewSource() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewSeededSource returns a deterministic uniform source for tests and
// reproducible experiments.
func NewSeededSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generator draws standard-normal values using the Box-Muller transform.
// It is not safe for concurrent use; each engine owns its own.
type Generator struct {
	src Source
}

// NewGenerator creates a generator over src.
func NewGenerator(src Source) *Generator {
	return &Generator{src: src}
}

// NextStandardNormal returns one N(0,1) variate. Only the cosine branch of
// the transform is used; the paired sine value is discarded.
func (g *Generator) NextStandardNormal() float64 {
	u1 := g.openUnit()
	u2 := g.openUnit()
	r := math.Sqrt(-2.0 * math.Log(u1))
	theta := 2.0 * math.Pi * u2
	return r * math.Cos(theta)
}

// openUnit draws from the source until the value is strictly positive.
// ln(0) is undefined, so an exact zero is never returned.
func (g *Generator) openUnit() float64 {
	u := g.src.Float64()
	for u == 0 {
		u = g.src.Float64()
	}
	return u
}
