package planning

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws uniform values in [0,1). It is injected into PolicyIteration so
// that action sampling can be scripted.
type Sampler interface {
	Float64() float64
}

type uniformSampler struct {
	dist distuv.Uniform
}

// NewSampler returns a seeded uniform [0,1) Sampler.
func NewSampler(seed uint64) Sampler {
	return &uniformSampler{
		dist: distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(seed)},
	}
}

func (us *uniformSampler) Float64() float64 {
	return us.dist.Rand()
}
