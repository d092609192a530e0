package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// withRetries runs a generation call under the per-call timeout and retries
// it with exponential backoff up to the configured count. Timeouts and
// contract failures are both worth retrying; a cancelled parent context is
// not.
func (o *Orchestrator) withRetries(ctx context.Context, stage Stage, fn func(ctx context.Context) error) error {
	backoff := o.opts.RetryBackoff
	var last error

	for attempt := 0; attempt <= o.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			o.logger.Warn("retrying stage call",
				zap.String("stage", string(stage)),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(last))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}

		callCtx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		last = err

		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return err
		}
	}

	return last
}
