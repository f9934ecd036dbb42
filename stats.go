package statsd

import (
	"sync/atomic"
	"time"
)

// Stats is a snapshot of a client's send outcomes
type Stats struct {
	Sent       int64
	SampledOut int64
	Failed     int64
	Disabled   int64
}

// sample is one self-telemetry data point
type sample struct {
	Name      string
	Value     float64
	Timestamp time.Time
}

// collector provides self-telemetry samples
type collector interface {
	Collect() []sample
	Name() string
}

// sendCounters tracks datagrams per outcome
type sendCounters struct {
	sent       atomic.Int64
	sampledOut atomic.Int64
	failed     atomic.Int64
	disabled   atomic.Int64
}

func (c *sendCounters) snapshot() Stats {
	return Stats{
		Sent:       c.sent.Load(),
		SampledOut: c.sampledOut.Load(),
		Failed:     c.failed.Load(),
		Disabled:   c.disabled.Load(),
	}
}

// Name implements collector
func (c *sendCounters) Name() string {
	return "statsd_client"
}

// Collect implements collector
func (c *sendCounters) Collect() []sample {
	now := time.Now()
	s := c.snapshot()
	return []sample{
		{Name: "sent_total", Value: float64(s.Sent), Timestamp: now},
		{Name: "sampled_out_total", Value: float64(s.SampledOut), Timestamp: now},
		{Name: "failed_total", Value: float64(s.Failed), Timestamp: now},
		{Name: "disabled_total", Value: float64(s.Disabled), Timestamp: now},
	}
}
