// Package maintenance runs periodic background tasks as Go tickers next to
// the API server.
package maintenance

import (
	"context"
	"log/slog"
	"time"
)

// Task is one periodic job. A zero Interval disables it.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Start launches a ticker per enabled task and blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, tasks []Task, logger *slog.Logger) {
	var tickers []*time.Ticker
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	for _, task := range tasks {
		if task.Interval <= 0 || task.Run == nil {
			continue
		}
		t := time.NewTicker(task.Interval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, task, logger)
		logger.Info("Maintenance ticker started", "task", task.Name, "interval", task.Interval)
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, task Task, logger *slog.Logger) {
	for {
		select {
		case <-ch:
			runOnce(ctx, task, logger)
		case <-ctx.Done():
			return
		}
	}
}

func runOnce(ctx context.Context, task Task, logger *slog.Logger) {
	start := time.Now()
	err := task.Run(ctx)
	dur := time.Since(start).Round(time.Millisecond)
	if err != nil {
		logger.Warn("Maintenance task failed", "task", task.Name, "duration", dur, "error", err)
		return
	}
	logger.Debug("Maintenance task done", "task", task.Name, "duration", dur)
}
