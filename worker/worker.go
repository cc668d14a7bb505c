package worker

import (
	"context"
	"time"

	"github.com/fox-one/pkg/logger"
)

// Worker runs a background loop until ctx is done.
type Worker interface {
	Run(ctx context.Context) error
}

// TickWorker drives a work func on a fixed interval. A returned error only
// logs and waits for the next tick; the loop ends with ctx.
type TickWorker struct {
	Delay    time.Duration
	ErrDelay time.Duration
}

// StartTick start tick
func (w *TickWorker) StartTick(ctx context.Context, onTick func(ctx context.Context) error) error {
	delay := w.Delay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	errDelay := w.ErrDelay
	if errDelay <= 0 {
		errDelay = time.Second
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			next := delay
			if err := onTick(ctx); err != nil {
				logger.FromContext(ctx).WithError(err).Debugln("tick failed")
				next = errDelay
			}
			timer.Reset(next)
		}
	}
}
