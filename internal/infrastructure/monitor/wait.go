package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// WaitReady pings p until it answers, doubling the pause between attempts
// starting at delay. It gives up after attempts tries or when ctx ends.
func WaitReady(ctx context.Context, name string, p Pinger, attempts int, delay time.Duration, logger *zap.Logger) error {
	if attempts <= 0 {
		attempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = p.Ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		logger.Warn("datastore not ready", zap.String("store", name), zap.Int("attempt", attempt), zap.Duration("retry_in", delay), zap.Error(err))
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", name, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s not ready after %d attempts: %w", name, attempts, err)
}
