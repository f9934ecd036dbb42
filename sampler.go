package statsd

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// Sampler decides whether a sampled metric is sent
type Sampler interface {
	ShouldSend(rate float64) bool
}

var (
	seedBase = time.Now().UnixNano()
	seedSeq  atomic.Int64
)

// nextSeed never hands out the same seed twice within a process
func nextSeed() int64 {
	return seedBase + seedSeq.Add(1)
}

// PoolSampler keeps its generators in a sync.Pool, so concurrent callers
// mostly draw from a generator local to their P and never contend on one
// shared source.
type PoolSampler struct {
	pool sync.Pool
}

// NewSampler creates a PoolSampler
func NewSampler() *PoolSampler {
	return newPoolSampler(func() rand.Source {
		return rand.NewSource(nextSeed())
	})
}

func newPoolSampler(newSource func() rand.Source) *PoolSampler {
	return &PoolSampler{
		pool: sync.Pool{
			New: func() interface{} {
				return rand.New(newSource())
			},
		},
	}
}

// ShouldSend implements Sampler. Rates of 1 or more never draw.
func (s *PoolSampler) ShouldSend(rate float64) bool {
	if rate >= 1 {
		return true
	}
	rng := s.pool.Get().(*rand.Rand)
	drawn := rng.Float64()
	s.pool.Put(rng)
	return drawn <= rate
}
