package statsd

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/eryajf/promwrite"
	"go.uber.org/zap"
)

const defaultSelfStatsInterval = 15 * time.Second

// exporter periodically pushes self-telemetry to Prometheus remote write
type exporter struct {
	client     *promwrite.Client
	collectors []collector
	interval   time.Duration
	labels     []promwrite.Label
	logger     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newExporter(cfg SelfStatsConfig, target string, logger *zap.Logger, collectors ...collector) *exporter {
	instance, err := os.Hostname()
	if err != nil {
		instance = "unknown"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &exporter{
		client:     promwrite.NewClient(cfg.RemoteWriteURL),
		collectors: collectors,
		interval:   pickDuration(cfg.Interval, defaultSelfStatsInterval),
		labels: []promwrite.Label{
			{Name: "instance", Value: instance},
			{Name: "target", Value: target},
		},
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// start runs the push loop until stop is called
func (e *exporter) start() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := e.write(); err != nil {
					e.logger.Warn("Failed to push statsd client stats", zap.Error(err))
				}
			case <-e.ctx.Done():
				return
			}
		}
	}()
}

// stop ends the push loop and waits for it to exit
func (e *exporter) stop() {
	e.cancel()
	e.wg.Wait()
}

func (e *exporter) write() error {
	ts := e.timeSeries()
	if len(ts) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(e.ctx, 15*time.Second)
	defer cancel()

	if _, err := e.client.Write(ctx, &promwrite.WriteRequest{TimeSeries: ts}); err != nil {
		return fmt.Errorf("writing time series failed: %w", err)
	}
	return nil
}

// timeSeries converts collected samples to promwrite series
func (e *exporter) timeSeries() []promwrite.TimeSeries {
	var result []promwrite.TimeSeries
	for _, c := range e.collectors {
		for _, s := range c.Collect() {
			labels := make([]promwrite.Label, 0, 1+len(e.labels))
			labels = append(labels, promwrite.Label{Name: "__name__", Value: c.Name() + "_" + s.Name})
			labels = append(labels, e.labels...)

			result = append(result, promwrite.TimeSeries{
				Labels: labels,
				Sample: promwrite.Sample{
					Time:  s.Timestamp,
					Value: s.Value,
				},
			})
		}
	}
	return result
}
