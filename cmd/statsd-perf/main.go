package main

import (
	"os"
	"time"

	"github.com/alecthomas/kingpin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/nikiz24/statsd"
)

func main() {
	app := kingpin.New("statsd-perf", "StatsD client send throughput tool")
	configPath := app.Flag("config", "YAML configuration path").Short('c').String()
	iterations := app.Flag("iterations", "Total number of increments").Short('n').Default("100000").Int()
	workers := app.Flag("workers", "Number of concurrent senders").Short('w').Default("1").Int()
	rate := app.Flag("rate", "Sample rate").Short('r').Default("1").Float64()
	stat := app.Flag("stat", "Counter name").Default("performancetest.increment").String()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	zapConfig := zap.NewProductionConfig()
	zapConfig.Encoding = "console"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.DisableStacktrace = true
	logger, err := zapConfig.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if *workers < 1 {
		logger.Fatal("workers must be positive", zap.Int("workers", *workers))
	}

	cfg := statsd.DefaultConfig()
	if *configPath != "" {
		if cfg, err = statsd.LoadConfig(*configPath); err != nil {
			logger.Fatal("Error loading config", zap.Error(err))
		}
	}
	cfg.Logger = logger

	if err := statsd.Configure(cfg); err != nil {
		logger.Fatal("Error creating statsd client", zap.Error(err))
	}
	defer statsd.Shutdown()

	client, err := statsd.Current()
	if err != nil {
		logger.Fatal("Error getting statsd client", zap.Error(err))
	}

	logger.Info("Sending increments",
		zap.Int("iterations", *iterations),
		zap.Int("workers", *workers),
		zap.Float64("rate", *rate))

	start := time.Now()
	var g errgroup.Group
	per := *iterations / *workers
	for w := 0; w < *workers; w++ {
		n := per
		if w == *workers-1 {
			n += *iterations % *workers
		}
		g.Go(func() error {
			for i := 0; i < n; i++ {
				if err := client.Increment(*stat, statsd.SampleRate(*rate)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("Send failed", zap.Error(err))
	}
	elapsed := time.Since(start)

	stats := client.Stats()
	logger.Info("Done",
		zap.Duration("elapsed", elapsed),
		zap.Int64("sent", stats.Sent),
		zap.Int64("sampled_out", stats.SampledOut),
		zap.Int64("failed", stats.Failed))
}
