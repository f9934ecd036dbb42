package statsd

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource records every draw taken from it
type countingSource struct {
	rand.Source
	draws *atomic.Int64
}

func (s countingSource) Int63() int64 {
	s.draws.Add(1)
	return s.Source.Int63()
}

func newCountingSampler() (*PoolSampler, *atomic.Int64) {
	draws := &atomic.Int64{}
	s := newPoolSampler(func() rand.Source {
		return countingSource{Source: rand.NewSource(nextSeed()), draws: draws}
	})
	return s, draws
}

func TestPoolSamplerFullRateNeverDraws(t *testing.T) {
	s, draws := newCountingSampler()
	for _, rate := range []float64{1, 1.5, 100} {
		for i := 0; i < 1000; i++ {
			require.True(t, s.ShouldSend(rate))
		}
	}
	assert.Equal(t, int64(0), draws.Load())
}

func TestPoolSamplerDrawsOncePerDecision(t *testing.T) {
	s, draws := newCountingSampler()
	for i := 0; i < 100; i++ {
		s.ShouldSend(0.5)
	}
	assert.Equal(t, int64(100), draws.Load())
}

func TestPoolSamplerConverges(t *testing.T) {
	s := NewSampler()
	for _, rate := range []float64{0.1, 0.5, 0.9} {
		const trials = 10000
		sent := 0
		for i := 0; i < trials; i++ {
			if s.ShouldSend(rate) {
				sent++
			}
		}
		observed := float64(sent) / trials
		assert.InDelta(t, rate, observed, 0.05, "rate %v", rate)
	}
}

func TestPoolSamplerConcurrent(t *testing.T) {
	s := NewSampler()
	var sent atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 5000; i++ {
				if s.ShouldSend(0.5) {
					sent.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	assert.InDelta(t, 0.5, float64(sent.Load())/40000, 0.05)
}

func TestNextSeedUnique(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		seed := nextSeed()
		require.False(t, seen[seed])
		seen[seed] = true
	}
}
