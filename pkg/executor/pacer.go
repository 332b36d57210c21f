package executor

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Pacer blocks between remote operations.
type Pacer interface {
	Wait(ctx context.Context, d time.Duration) error
}

// ClockPacer waits on a clockwork clock.
type ClockPacer struct {
	clock clockwork.Clock
}

// NewClockPacer returns a pacer driven by clock.
func NewClockPacer(clock clockwork.Clock) *ClockPacer {
	return &ClockPacer{clock: clock}
}

// Wait blocks for d or until ctx is done. Non-positive durations return
// immediately.
func (p *ClockPacer) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := p.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
