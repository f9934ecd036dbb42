package main

import (
	"os"
	"time"

	"github.com/alecthomas/kingpin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nikiz24/statsd"
)

func main() {
	app := kingpin.New("statsd-demo", "Sends one metric of each kind to a StatsD collector")
	configPath := app.Flag("config", "YAML configuration path").Short('c').String()
	host := app.Flag("host", "Collector host, overrides the configuration").String()
	port := app.Flag("port", "Collector port, overrides the configuration").Int()
	prefix := app.Flag("prefix", "Stat prefix, overrides the configuration").String()
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

	cfg := statsd.DefaultConfig()
	if *configPath != "" {
		if cfg, err = statsd.LoadConfig(*configPath); err != nil {
			logger.Fatal("Error loading config", zap.Error(err))
		}
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *prefix != "" {
		cfg.Prefix = *prefix
	}
	cfg.Logger = logger

	timer := time.Now()

	client, err := statsd.New(cfg)
	if err != nil {
		logger.Fatal("Error creating statsd client", zap.Error(err))
	}
	defer client.Close()

	logger.Info("Writing to StatsD", zap.String("target", client.String()))
	for _, send := range []func() error{
		func() error { return client.Increment("test.increment") },
		func() error { return client.Decrement("test.decrement") },
		func() error { return client.TimingDuration("test.increment", time.Since(timer)) },
		func() error { return client.Gauge("test.gauge", 25) },
	} {
		if err := send(); err != nil {
			logger.Error("Send failed", zap.Error(err))
		}
	}
	logger.Info("Done", zap.Any("stats", client.Stats()))
}
