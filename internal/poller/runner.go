// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run polls once immediately, then on every tick and on Trigger, emitting
// results on out in cycle order. One goroutine per host. Ticks that find a
// cycle in flight are skipped. Returns on ctx cancel or Close.
func (p *Poller) Run(ctx context.Context, out chan<- PollResult) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.poll(ctx, out)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.closed:
			return
		case <-ticker.C:
			p.poll(ctx, out)
		case <-p.kick:
			p.poll(ctx, out)
		}
	}
}

// Trigger asks Run for an out-of-schedule cycle. Requests coalesce.
func (p *Poller) Trigger() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func (p *Poller) poll(ctx context.Context, out chan<- PollResult) {
	res, ran := p.TryPollOnce(ctx)
	if !ran || res.Err == ErrClosed {
		return
	}

	select {
	case out <- res:
	case <-ctx.Done():
	case <-p.closed:
	}
}
