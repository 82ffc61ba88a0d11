package debug

// Debug counter logger. Started only when config.Debug is true. Emits the
// engine's per-channel counters next to goroutine, stack and RSS figures so
// hook activity can be correlated with runtime growth.

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"
)

// StartCounterLogger launches a ticker that logs counters() plus runtime
// stats until ctx is done. counters is called from the logger goroutine and
// must be safe for concurrent use.
func StartCounterLogger(ctx context.Context, interval time.Duration, counters func() []slog.Attr, logger *slog.Logger) {
	if logger == nil {
		return
	}
	if interval <= 0 {
		interval = time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
		var rssErrLogged bool
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			if counters != nil {
				logger.LogAttrs(ctx, slog.LevelInfo, "marker-counters", counters()...)
			}
			metrics.Read(samples)
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			rss, err := processRSS()
			if err != nil && !rssErrLogged {
				logger.Warn("rss query failed", slog.String("err", err.Error()))
				rssErrLogged = true
			}
			logger.Info("runtime",
				slog.Uint64("goroutines", samples[0].Value.Uint64()),
				slog.Uint64("stack_inuse", ms.StackInuse),
				slog.Uint64("heap_alloc", ms.HeapAlloc),
				slog.Uint64("num_gc", uint64(ms.NumGC)),
				slog.Uint64("rss", rss),
			)
		}
	}()
}
