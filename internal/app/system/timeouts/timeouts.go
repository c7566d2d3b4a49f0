// Package timeouts holds the process-wide deadlines applied to storage and
// upstream calls.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks
//   - Short: single-document reads and conditional updates
//   - Medium: list queries and multi-step reads
//   - Long: cascades touching several collections
//   - Upstream: completion, image and search calls
//   - Delivery: outbound mail, including retries
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing     = 2 * time.Second
	DefaultShort    = 5 * time.Second
	DefaultMedium   = 10 * time.Second
	DefaultLong     = 30 * time.Second
	DefaultUpstream = 60 * time.Second
	DefaultDelivery = 45 * time.Second
)

// Config holds timeout values. Zero values are ignored by Configure.
type Config struct {
	Ping     time.Duration
	Short    time.Duration
	Medium   time.Duration
	Long     time.Duration
	Upstream time.Duration
	Delivery time.Duration
}

func defaults() Config {
	return Config{
		Ping:     DefaultPing,
		Short:    DefaultShort,
		Medium:   DefaultMedium,
		Long:     DefaultLong,
		Upstream: DefaultUpstream,
		Delivery: DefaultDelivery,
	}
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func get(f func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return f(cur)
}

func Ping() time.Duration { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration { return get(func(c Config) time.Duration { return c.Long }) }
func Upstream() time.Duration { return get(func(c Config) time.Duration { return c.Upstream }) }
func Delivery() time.Duration { return get(func(c Config) time.Duration { return c.Delivery }) }

// Configure overrides the non-zero values in cfg. Call it during startup.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	merge(&cur, cfg)
}

func merge(dst *Config, src Config) {
	set := func(d *time.Duration, v time.Duration) {
		if v > 0 {
			*d = v
		}
	}
	set(&dst.Ping, src.Ping)
	set(&dst.Short, src.Short)
	set(&dst.Medium, src.Medium)
	set(&dst.Long, src.Long)
	set(&dst.Upstream, src.Upstream)
	set(&dst.Delivery, src.Delivery)
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// ConfigureFromEnv reads SYNAPSE_TIMEOUT_{PING,SHORT,MEDIUM,LONG,UPSTREAM,DELIVERY}
// as Go durations ("2s", "500ms"). Invalid or non-positive values are skipped.
// It returns how many values were applied.
func ConfigureFromEnv() int {
	var cfg Config
	fields := []struct {
		env string
		dst *time.Duration
	}{
		{"SYNAPSE_TIMEOUT_PING", &cfg.Ping},
		{"SYNAPSE_TIMEOUT_SHORT", &cfg.Short},
		{"SYNAPSE_TIMEOUT_MEDIUM", &cfg.Medium},
		{"SYNAPSE_TIMEOUT_LONG", &cfg.Long},
		{"SYNAPSE_TIMEOUT_UPSTREAM", &cfg.Upstream},
		{"SYNAPSE_TIMEOUT_DELIVERY", &cfg.Delivery},
	}
	n := 0
	for _, f := range fields {
		v := os.Getenv(f.env)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*f.dst = d
			n++
		}
	}
	Configure(cfg)
	return n
}

// Current returns a copy of the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// WithTimeout derives a context with timeout whose cancel func logs a warning
// when the deadline was hit.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete group")
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
