// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/vhostsync/internal/mgmt"
	"github.com/tamzrod/vhostsync/internal/rates"
	"github.com/tamzrod/vhostsync/internal/snapshot"
	"github.com/tamzrod/vhostsync/internal/view"
)

// PollResult is what one poll cycle produced.
type PollResult struct {
	Ref mgmt.Ref
	At  time.Time

	Snapshot snapshot.Snapshot
	Rates    rates.RateSet
	Render   view.Instructions

	// RenderErr is a degraded render (e.g. unknown host type); Render is still usable.
	RenderErr error

	// Err non-nil means the cycle failed and no state was changed.
	Err error
}

// state is owned by whoever holds the poller's cycle semaphore.
type state struct {
	prev     *snapshot.Snapshot
	prevAt   time.Time
	rates    rates.RateSet
	rendered view.Rendered
}

// Clock allows deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
