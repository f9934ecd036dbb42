package statsd

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfigSource(t *testing.T, source func() (Config, error)) {
	prev := DefaultConfigSource
	DefaultConfigSource = source
	t.Cleanup(func() {
		Shutdown()
		DefaultConfigSource = prev
	})
	require.NoError(t, Shutdown())
}

func disabledConfig() Config {
	cfg := DefaultConfig()
	cfg.Enabled = false
	return cfg
}

func TestCurrentConstructsOnce(t *testing.T) {
	var calls atomic.Int64
	withConfigSource(t, func() (Config, error) {
		calls.Add(1)
		return disabledConfig(), nil
	})

	clients := make([]*Client, 50)
	var wg sync.WaitGroup
	for i := range clients {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := Current()
			assert.NoError(t, err)
			clients[i] = c
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for _, c := range clients {
		assert.Same(t, clients[0], c)
	}
}

func TestCurrentDoesNotCacheFailure(t *testing.T) {
	var calls atomic.Int64
	withConfigSource(t, func() (Config, error) {
		if calls.Add(1) == 1 {
			cfg := DefaultConfig()
			cfg.Port = 0
			return cfg, nil
		}
		return disabledConfig(), nil
	})

	_, err := Current()
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))

	c, err := Current()
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, int64(2), calls.Load())
}

func TestCurrentSourceError(t *testing.T) {
	boom := errors.New("no settings")
	withConfigSource(t, func() (Config, error) { return Config{}, boom })

	_, err := Current()
	assert.Equal(t, boom, err)
	assert.Equal(t, boom, Increment("hits"))
}

func TestConfigureAndShutdown(t *testing.T) {
	withConfigSource(t, func() (Config, error) { return disabledConfig(), nil })

	_, port := listenUDP(t)
	require.NoError(t, Configure(testConfig(port)))

	c, err := Current()
	require.NoError(t, err)
	assert.True(t, c.Enabled())

	require.NoError(t, Increment("hits"))
	require.NoError(t, Decrement("hits"))
	require.NoError(t, UpdateStats("hits", 3))
	require.NoError(t, SetGauge("mem", 1))
	require.NoError(t, RecordTiming("req", 2))
	require.NoError(t, RecordDuration("req", 0))
	assert.Equal(t, int64(6), c.Stats().Sent)

	require.NoError(t, Shutdown())
	assert.True(t, errors.Is(c.Increment("hits"), ErrClosed))

	next, err := Current()
	require.NoError(t, err)
	assert.NotSame(t, c, next)
	assert.False(t, next.Enabled())
}

func TestConfigureReplacesPrevious(t *testing.T) {
	withConfigSource(t, func() (Config, error) { return disabledConfig(), nil })

	first, err := Current()
	require.NoError(t, err)

	require.NoError(t, Configure(disabledConfig()))
	assert.True(t, errors.Is(first.Increment("hits"), ErrClosed))

	second, err := Current()
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}
