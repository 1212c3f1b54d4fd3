// Package timeouts provides the deadlines applied to outbound calls.
//
// Every call that leaves the process (Sheets API, CSV export fetch, audit
// database) runs under one of these budgets:
//   - Ping: health checks against the audit database
//   - Short: read-only CSV feeds (requests, dashboard)
//   - Medium: one record-store backend call (read or write)
//   - Batch: an entire bulk operation run
//
// Values can be overridden at startup with Configure or ConfigureFromEnv.
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 15 * time.Second
	DefaultBatch  = 5 * time.Minute
)

var (
	mu     sync.RWMutex
	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	batch  = DefaultBatch
)

// Ping returns the timeout for connectivity checks.
func Ping() time.Duration { return get(&ping) }

// Short returns the timeout for read-only feed fetches.
func Short() time.Duration { return get(&short) }

// Medium returns the timeout for a single record-store backend call.
func Medium() time.Duration { return get(&medium) }

// Batch returns the timeout for a whole bulk run.
func Batch() time.Duration { return get(&batch) }

func get(d *time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return *d
}

// Config holds timeout overrides. Zero values keep the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Batch  time.Duration
}

// Configure applies non-zero values from cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set(&ping, cfg.Ping)
	set(&short, cfg.Short)
	set(&medium, cfg.Medium)
	set(&batch, cfg.Batch)
}

func set(dst *time.Duration, v time.Duration) bool {
	if v <= 0 {
		return false
	}
	*dst = v
	return true
}

// Reset restores the defaults. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping, short, medium, batch = DefaultPing, DefaultShort, DefaultMedium, DefaultBatch
}

// ConfigureFromEnv reads ROSTERHUB_TIMEOUT_PING, _SHORT, _MEDIUM and _BATCH
// as Go durations ("500ms", "20s", "2m"). Invalid or non-positive values are
// ignored. Returns how many values were applied.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	targets := []struct {
		env string
		dst *time.Duration
	}{
		{"ROSTERHUB_TIMEOUT_PING", &ping},
		{"ROSTERHUB_TIMEOUT_SHORT", &short},
		{"ROSTERHUB_TIMEOUT_MEDIUM", &medium},
		{"ROSTERHUB_TIMEOUT_BATCH", &batch},
	}
	n := 0
	for _, t := range targets {
		v := os.Getenv(t.env)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			continue
		}
		if set(t.dst, d) {
			n++
		}
	}
	return n
}

// Current returns the active configuration, for startup logging.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Medium: medium, Batch: batch}
}

// WithTimeout derives a context bounded by timeout. The returned cancel
// logs a warning when the deadline was the reason the context ended.
//
//	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), log, "sheets.append")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
