package statsd

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultConfigSource supplies the configuration of the default client on
// its construction. It may be replaced before the first call to Current.
var DefaultConfigSource = ConfigFromEnv

// Global client instance
var (
	defaultClient atomic.Pointer[Client]
	defaultMu     sync.Mutex
)

// Current returns the process-wide default client, creating it on first
// use. A construction error is returned to the caller and not cached, so
// the next call tries again.
func Current() (*Client, error) {
	if c := defaultClient.Load(); c != nil {
		return c, nil
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()

	if c := defaultClient.Load(); c != nil {
		return c, nil
	}

	cfg, err := DefaultConfigSource()
	if err != nil {
		return nil, err
	}
	c, err := New(cfg)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Error("failed to create default statsd client", zap.Error(err))
		}
		return nil, err
	}
	defaultClient.Store(c)
	return c, nil
}

// Configure replaces the default client with one built from cfg. The
// previous default client, if any, is closed.
func Configure(cfg Config) error {
	c, err := New(cfg)
	if err != nil {
		return err
	}

	defaultMu.Lock()
	prev := defaultClient.Swap(c)
	defaultMu.Unlock()

	if prev != nil {
		return prev.Close()
	}
	return nil
}

// Shutdown closes the default client. The next call to Current creates a
// new one.
func Shutdown() error {
	defaultMu.Lock()
	prev := defaultClient.Swap(nil)
	defaultMu.Unlock()

	if prev != nil {
		return prev.Close()
	}
	return nil
}

// These functions send through the default client.

// Increment increments a counter on the default client
func Increment(stat string, opts ...SendOption) error {
	c, err := Current()
	if err != nil {
		return err
	}
	return c.Increment(stat, opts...)
}

// Decrement decrements a counter on the default client
func Decrement(stat string, opts ...SendOption) error {
	c, err := Current()
	if err != nil {
		return err
	}
	return c.Decrement(stat, opts...)
}

// UpdateStats adjusts a counter by delta on the default client
func UpdateStats(stat string, delta int64, opts ...SendOption) error {
	c, err := Current()
	if err != nil {
		return err
	}
	return c.UpdateStats(stat, delta, opts...)
}

// SetGauge records an absolute value on the default client
func SetGauge(stat string, value int64, opts ...SendOption) error {
	c, err := Current()
	if err != nil {
		return err
	}
	return c.Gauge(stat, value, opts...)
}

// RecordTiming records a duration in milliseconds on the default client
func RecordTiming(stat string, ms int64, opts ...SendOption) error {
	c, err := Current()
	if err != nil {
		return err
	}
	return c.Timing(stat, ms, opts...)
}

// RecordDuration records d on the default client
func RecordDuration(stat string, d time.Duration, opts ...SendOption) error {
	c, err := Current()
	if err != nil {
		return err
	}
	return c.TimingDuration(stat, d, opts...)
}
