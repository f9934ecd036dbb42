// Package statsd is a fire-and-forget client for StatsD collectors.
//
// Every metric is one UDP datagram in the StatsD line protocol:
//
//	<prefix><name>:<value>|<type>[|@<rate>]
//
// Design goals:
//   - No back-pressure on the caller: no queue, no retry, one syscall per metric
//   - Safe for concurrent use without external locking
//   - Sampling without a shared random source on the hot path
//   - Fail fast on bad configuration, degrade to "metric lost" on send errors
//
// Basic usage:
//
//	cfg := statsd.DefaultConfig()
//	cfg.Host = "statsd.internal"
//	cfg.Prefix = "myapp"
//
//	client, err := statsd.New(cfg)
//	if err != nil {
//	  log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.Increment("requests")
//	client.Gauge("connections", 42)
//	client.Timing("response_time", 37, statsd.SampleRate(0.1))
//
// A process-wide default client is available through Current and the
// package-level send functions. It is configured from the YAML file named
// by the STATSD_CONFIG environment variable, or with Configure.
package statsd
