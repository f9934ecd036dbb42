package statsd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// runtimeGauge is one runtime figure reported as a gauge
type runtimeGauge struct {
	name  string
	value int64
}

// readRuntimeGauges collects basic process and Go runtime figures
func readRuntimeGauges() []runtimeGauge {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	gauges := []runtimeGauge{
		{"memory.alloc_bytes", int64(ms.Alloc)},
		{"memory.sys_bytes", int64(ms.Sys)},
		{"memory.heap_alloc_bytes", int64(ms.HeapAlloc)},
		{"memory.heap_inuse_bytes", int64(ms.HeapInuse)},
		{"memory.stack_inuse_bytes", int64(ms.StackInuse)},
		{"goroutines", int64(runtime.NumGoroutine())},
		{"gc.runs", int64(ms.NumGC)},
		{"gc.pause_total_ns", int64(ms.PauseTotalNs)},
	}

	if rss, ok := procStatusBytes("/proc/self/status", "VmRSS"); ok {
		gauges = append(gauges, runtimeGauge{"memory.rss_bytes", rss})
	}
	if fds, ok := countDirEntries("/proc/self/fd"); ok {
		gauges = append(gauges, runtimeGauge{"file_descriptors", fds})
	}
	return gauges
}

// ReportRuntime sends runtime gauges named <stat>.<figure> every interval
// until ctx is done or the client is closed.
func (c *Client) ReportRuntime(ctx context.Context, interval time.Duration, stat string) error {
	if err := ValidateName(stat); err != nil {
		return err
	}
	if interval <= 0 {
		return fmt.Errorf("%w: non-positive interval %v", ErrInvalidValue, interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := c.sendRuntimeGauges(stat); err != nil {
			return err
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) sendRuntimeGauges(stat string) error {
	for _, g := range readRuntimeGauges() {
		if err := c.Gauge(stat+"."+g.name, g.value); err != nil {
			if errors.Is(err, ErrClosed) {
				return err
			}
			c.logger.Warn("failed to report runtime gauge",
				zap.String("gauge", g.name), zap.Error(err))
		}
	}
	return nil
}

// procStatusBytes reads a "<key>: <n> kB" line from a /proc status file.
// It reports false off Linux or when the key is missing.
func procStatusBytes(path, key string) (int64, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		rest, ok := strings.CutPrefix(sc.Text(), key+":")
		if !ok {
			continue
		}
		num, unit, _ := strings.Cut(strings.TrimSpace(rest), " ")
		n, err := strconv.ParseInt(num, 10, 64)
		if err != nil {
			return 0, false
		}
		if unit == "kB" {
			n <<= 10
		}
		return n, true
	}
	return 0, false
}

// countDirEntries counts the entries of dir, e.g. /proc/self/fd
func countDirEntries(dir string) (int64, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, false
	}
	return int64(len(entries)), true
}
