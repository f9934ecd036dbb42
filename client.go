package statsd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Client sends metrics to one StatsD collector. It is safe for concurrent use.
type Client struct {
	prefix  string
	target  string
	enabled bool
	strict  bool

	transport Transport
	sampler   Sampler
	logger    *zap.Logger
	counters  sendCounters
	exporter  *exporter

	closed    atomic.Bool
	closeOnce sync.Once
}

// SendOption customizes a single send operation
type SendOption func(*sendOptions)

type sendOptions struct {
	rate       float64
	onComplete func(error)
}

// SampleRate sends the metric with probability rate and tags the line
// with it. The default rate of 1 always sends.
func SampleRate(rate float64) SendOption {
	return func(o *sendOptions) {
		o.rate = rate
	}
}

// OnComplete registers fn to be called with the outcome of the send
// operation. A metric that was sampled out or skipped because the client
// is disabled completes with nil.
func OnComplete(fn func(error)) SendOption {
	return func(o *sendOptions) {
		o.onComplete = fn
	}
}

// New creates a client from cfg. Config and transport errors are returned
// as *ConfigError and *TransportError.
func New(cfg Config) (*Client, error) {
	return NewContext(context.Background(), cfg)
}

// NewContext is New with a context bounding host resolution.
func NewContext(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	// A disabled client never opens a socket.
	var transport Transport
	if cfg.Enabled {
		t, err := DialUDP(ctx, cfg.Host, cfg.Port, cfg.DNS, cfg.Logger)
		if err != nil {
			return nil, err
		}
		transport = t
	}

	c := newClient(cfg, transport, NewSampler())

	cfg.Logger.Info("statsd client initialized",
		zap.String("target", c.target),
		zap.String("prefix", c.prefix),
		zap.Bool("enabled", c.enabled),
		zap.Bool("strict", c.strict))
	return c, nil
}

func newClient(cfg Config, transport Transport, sampler Sampler) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		prefix:    NormalizePrefix(cfg.Prefix),
		target:    cfg.Addr(),
		enabled:   cfg.Enabled,
		strict:    cfg.Strict,
		transport: transport,
		sampler:   sampler,
		logger:    logger,
	}
	if cfg.SelfStats.RemoteWriteURL != "" {
		c.exporter = newExporter(cfg.SelfStats, c.target, logger, &c.counters)
		c.exporter.start()
	}
	return c
}

// String returns the collector address
func (c *Client) String() string {
	return c.target
}

// Prefix returns the normalized prefix
func (c *Client) Prefix() string {
	return c.prefix
}

// Enabled reports whether the client sends anything
func (c *Client) Enabled() bool {
	return c.enabled
}

// Stats returns a snapshot of the send counters
func (c *Client) Stats() Stats {
	return c.counters.snapshot()
}

// Increment increments a counter by one
func (c *Client) Increment(stat string, opts ...SendOption) error {
	return c.UpdateStats(stat, 1, opts...)
}

// Decrement decrements a counter by one
func (c *Client) Decrement(stat string, opts ...SendOption) error {
	return c.UpdateStats(stat, -1, opts...)
}

// UpdateStats adjusts a counter by delta
func (c *Client) UpdateStats(stat string, delta int64, opts ...SendOption) error {
	return c.send([]string{stat}, Counter, delta, opts)
}

// UpdateStatsAll adjusts several counters by delta. One sampling decision
// covers all of them and each is sent as its own datagram.
func (c *Client) UpdateStatsAll(stats []string, delta int64, opts ...SendOption) error {
	return c.send(stats, Counter, delta, opts)
}

// Gauge records an absolute value
func (c *Client) Gauge(stat string, value int64, opts ...SendOption) error {
	return c.send([]string{stat}, Gauge, value, opts)
}

// Timing records a duration in milliseconds
func (c *Client) Timing(stat string, ms int64, opts ...SendOption) error {
	return c.send([]string{stat}, Timing, ms, opts)
}

// TimingDuration records d truncated to whole milliseconds
func (c *Client) TimingDuration(stat string, d time.Duration, opts ...SendOption) error {
	return c.Timing(stat, int64(d/time.Millisecond), opts...)
}

// Timer measures the time elapsed since its creation
type Timer struct {
	start time.Time
	c     *Client
}

// NewTimer starts a Timer
func (c *Client) NewTimer() Timer {
	return Timer{start: time.Now(), c: c}
}

// Send records the time elapsed since the Timer was created
func (t Timer) Send(stat string, opts ...SendOption) error {
	return t.c.TimingDuration(stat, t.Duration(), opts...)
}

// Duration returns the time elapsed since the Timer was created
func (t Timer) Duration() time.Duration {
	return time.Since(t.start)
}

func (c *Client) send(stats []string, kind Kind, value int64, opts []SendOption) error {
	o := sendOptions{rate: 1}
	for _, opt := range opts {
		opt(&o)
	}
	err := c.emit(stats, kind, value, o.rate)
	if o.onComplete != nil {
		o.onComplete(err)
	}
	return err
}

func (c *Client) emit(stats []string, kind Kind, value int64, rate float64) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.enabled {
		c.counters.disabled.Add(int64(len(stats)))
		return nil
	}

	if math.IsNaN(rate) || rate <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, rate)
	}
	if rate > 1 {
		rate = 1
	}
	if kind == Timing && value < 0 {
		return fmt.Errorf("%w: negative timing %d", ErrInvalidValue, value)
	}
	for _, stat := range stats {
		if err := ValidateName(stat); err != nil {
			return err
		}
	}

	if rate < 1 && !c.sampler.ShouldSend(rate) {
		c.counters.sampledOut.Add(int64(len(stats)))
		return nil
	}

	var firstErr error
	for _, stat := range stats {
		line := AppendLine(make([]byte, 0, len(c.prefix)+len(stat)+24), c.prefix, Metric{
			Name:  stat,
			Kind:  kind,
			Value: value,
			Rate:  rate,
		})
		err := c.transport.Send(line)
		if err == nil {
			c.counters.sent.Add(1)
			continue
		}
		if errors.Is(err, ErrTransportClosed) {
			return ErrClosed
		}

		c.counters.failed.Add(1)
		var se *SendError
		if !errors.As(err, &se) {
			err = &SendError{Err: err}
		}
		if c.strict {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		c.logger.Warn("statsd send failed",
			zap.String("stat", stat),
			zap.String("target", c.target),
			zap.Error(err))
	}
	return firstErr
}

// Close releases the socket and stops background work. Only the first
// call has any effect; later calls return nil.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.exporter != nil {
			c.exporter.stop()
		}
		if c.transport != nil {
			err = c.transport.Close()
		}
		c.logger.Info("statsd client closed", zap.String("target", c.target))
	})
	return err
}
