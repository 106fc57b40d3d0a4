// internal/status/tracker.go
package status

import (
	"errors"
	"math"

	"github.com/tamzrod/vhostsync/internal/mgmt"
	"github.com/tamzrod/vhostsync/internal/poller"
	"github.com/tamzrod/vhostsync/internal/rates"
	"github.com/tamzrod/vhostsync/internal/snapshot"
)

// Tracker folds poll results and 1 Hz ticks into a status Snapshot.
// It is runner-owned state: not safe for concurrent use.
type Tracker struct {
	snap Snapshot
}

// NewTracker starts in HealthUnknown.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

// Snapshot returns the current status.
func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Observe applies one poll result and reports whether the status changed.
func (t *Tracker) Observe(res poller.PollResult) bool {
	next := t.snap

	if res.Err != nil {
		next.Health = HealthError
		next.LastErrorCode = ErrorCode(res.Err)
		// seconds_in_error increments on the 1 Hz tick only
	} else {
		s := res.Snapshot
		next.Health = health(s)
		next.LastErrorCode = 0
		next.SecondsInError = 0
		next.State = stateCode(s.State)
		next.MsgInRate = saturate(res.Rates.Host.MessagesIn, 1)
		next.MsgOutRate = saturate(res.Rates.Host.MessagesOut, 1)
		next.BytesInKiB = saturate(res.Rates.Host.BytesIn, 1024)
		next.BytesOutKiB = saturate(res.Rates.Host.BytesOut, 1024)
		next.Connections = saturateInt(len(s.Connections))
	}

	changed := next != t.snap
	t.snap = next
	return changed
}

// Tick advances seconds_in_error while the host is failing.
// It reports whether the status changed.
func (t *Tracker) Tick() bool {
	if t.snap.Health != HealthError && t.snap.Health != HealthUnknown {
		return false
	}
	// HARD INVARIANT: seconds_in_error MUST NOT wrap
	if t.snap.SecondsInError >= MaxRegister {
		return false
	}
	t.snap.SecondsInError++
	return true
}

// ErrorCode extracts a best-effort uint16 code from an error without assuming concrete types.
// HTTP failures report their status code; anything else returns 1 (generic error).
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	var reqErr *mgmt.RequestError
	if errors.As(err, &reqErr) && reqErr.StatusCode > 0 {
		return uint16(reqErr.StatusCode)
	}

	type coder interface{ Code() uint16 }
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}

	return 1
}

func health(s snapshot.Snapshot) uint16 {
	switch {
	case s.Missing:
		return HealthStale
	case s.State == snapshot.StateActive:
		return HealthOK
	default:
		return HealthDisabled
	}
}

func stateCode(st snapshot.LifecycleState) uint16 {
	switch st {
	case snapshot.StateAbsent:
		return StateCodeAbsent
	case snapshot.StateActive:
		return StateCodeActive
	case snapshot.StateStopped:
		return StateCodeStopped
	case snapshot.StateUnavailable:
		return StateCodeUnavailable
	}
	return StateCodeOther
}

func saturate(r rates.Rate, unit float64) uint16 {
	if !r.Defined || r.Value <= 0 {
		return 0
	}
	v := math.Round(r.Value / unit)
	if v >= MaxRegister {
		return MaxRegister
	}
	return uint16(v)
}

func saturateInt(n int) uint16 {
	if n >= MaxRegister {
		return MaxRegister
	}
	return uint16(n)
}
