// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/tamzrod/vhostsync/internal/mgmt"
	"github.com/tamzrod/vhostsync/internal/rates"
	"github.com/tamzrod/vhostsync/internal/snapshot"
	"github.com/tamzrod/vhostsync/internal/view"
)

// ErrClosed is reported by cycles that finish after Close.
var ErrClosed = errors.New("poller: closed")

// Fetcher abstracts the management read the poller needs.
type Fetcher interface {
	Fetch(ctx context.Context, ref mgmt.Ref, prev *snapshot.Snapshot) (snapshot.Snapshot, error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Ref      mgmt.Ref
	Interval time.Duration
	Clock    Clock // nil means wall clock
}

// Poller synchronizes one virtual host.
// At most one cycle runs at a time; it alone touches the per-host state.
type Poller struct {
	cfg     Config
	fetcher Fetcher
	clock   Clock

	cycle *semaphore.Weighted
	st    state

	kick      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once

	skipped atomic.Uint64
}

// New creates a poller with immutable config.
func New(cfg Config, fetcher Fetcher) (*Poller, error) {
	if cfg.Ref.Node == "" || cfg.Ref.Host == "" {
		return nil, errors.New("poller: node and host required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if fetcher == nil {
		return nil, errors.New("poller: fetcher required")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}

	return &Poller{
		cfg:     cfg,
		fetcher: fetcher,
		clock:   clock,
		cycle:   semaphore.NewWeighted(1),
		kick:    make(chan struct{}, 1),
		closed:  make(chan struct{}),
	}, nil
}

// Ref returns the host this poller synchronizes.
func (p *Poller) Ref() mgmt.Ref { return p.cfg.Ref }

// Skipped returns how many cycles were skipped because one was in flight.
func (p *Poller) Skipped() uint64 { return p.skipped.Load() }

// Close unregisters the poller. Cycles still in flight complete with ErrClosed
// and leave the state untouched. Close is idempotent.
func (p *Poller) Close() {
	p.closeOnce.Do(func() { close(p.closed) })
}

func (p *Poller) isClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

// PollOnce performs exactly one poll cycle, waiting for an in-flight one first.
func (p *Poller) PollOnce(ctx context.Context) PollResult {
	if err := p.cycle.Acquire(ctx, 1); err != nil {
		return PollResult{Ref: p.cfg.Ref, At: p.clock.Now(), Err: err}
	}
	defer p.cycle.Release(1)

	return p.pollLocked(ctx)
}

// TryPollOnce performs one poll cycle unless one is already in flight.
func (p *Poller) TryPollOnce(ctx context.Context) (PollResult, bool) {
	if !p.cycle.TryAcquire(1) {
		p.skipped.Add(1)
		return PollResult{}, false
	}
	defer p.cycle.Release(1)

	return p.pollLocked(ctx), true
}

// pollLocked runs fetch → rates → render and commits the new state.
// All-or-nothing: a failed fetch commits nothing. Close observed at any
// point before the commit discards the cycle.
func (p *Poller) pollLocked(ctx context.Context) PollResult {
	res := PollResult{Ref: p.cfg.Ref}

	if p.isClosed() {
		res.At = p.clock.Now()
		res.Err = ErrClosed
		return res
	}

	snap, err := p.fetcher.Fetch(ctx, p.cfg.Ref, p.st.prev)

	if p.isClosed() {
		res.At = p.clock.Now()
		res.Err = ErrClosed
		return res
	}
	res.At = p.clock.Now()
	if err != nil {
		res.Err = err
		return res
	}

	rs, fresh := p.sampleRates(snap, res.At)
	render, renderErr := view.Apply(p.st.rendered, snap, rs)

	if p.isClosed() {
		res.Err = ErrClosed
		return res
	}

	// Commit
	if fresh {
		p.st.prev = &snap
		p.st.prevAt = res.At
		p.st.rates = rs
	}
	p.st.rendered = render.Next

	res.Snapshot = snap
	res.Rates = rs
	res.Render = render
	res.RenderErr = renderErr
	return res
}

// sampleRates derives the cycle's rates. A placeholder snapshot is never a
// baseline: it yields no rates itself, and the next real snapshot after
// it starts over as a first sample.
func (p *Poller) sampleRates(snap snapshot.Snapshot, at time.Time) (rates.RateSet, bool) {
	if snap.Missing {
		return rates.Baseline(snap), true
	}

	base := p.st.prev
	if base != nil && base.Missing {
		base = nil
	}

	rs, fresh := rates.Compute(base, snap, at.Sub(p.st.prevAt))
	if !fresh {
		return p.st.rates, false
	}
	return rs, true
}
