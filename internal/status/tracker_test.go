// internal/status/tracker_test.go
package status

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tamzrod/vhostsync/internal/config"
	"github.com/tamzrod/vhostsync/internal/mgmt"
	"github.com/tamzrod/vhostsync/internal/poller"
	"github.com/tamzrod/vhostsync/internal/rates"
	"github.com/tamzrod/vhostsync/internal/snapshot"
)

func okResult(state snapshot.LifecycleState, msgIn float64) poller.PollResult {
	return poller.PollResult{
		Snapshot: snapshot.Snapshot{
			Name:        "vh",
			State:       state,
			Connections: []snapshot.Child{{ID: "c1"}, {ID: "c2"}},
		},
		Rates: rates.RateSet{Host: rates.Set{
			MessagesIn: rates.Of(msgIn),
			BytesIn:    rates.Of(4096),
		}},
	}
}

func TestTracker_OKThenErrorThenRecovery(t *testing.T) {
	tr := NewTracker()

	if !tr.Observe(okResult(snapshot.StateActive, 49.6)) {
		t.Fatalf("expected change on first success")
	}
	s := tr.Snapshot()
	if s.Health != HealthOK || s.MsgInRate != 50 || s.BytesInKiB != 4 || s.Connections != 2 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if s.State != StateCodeActive {
		t.Fatalf("state=%d want %d", s.State, StateCodeActive)
	}

	reqErr := &mgmt.RequestError{Method: "GET", URL: "u", StatusCode: 503}
	tr.Observe(poller.PollResult{Err: fmt.Errorf("fetch: %w", reqErr)})
	s = tr.Snapshot()
	if s.Health != HealthError || s.LastErrorCode != 503 {
		t.Fatalf("unexpected error snapshot: %+v", s)
	}

	tr.Tick()
	tr.Tick()
	if got := tr.Snapshot().SecondsInError; got != 2 {
		t.Fatalf("seconds_in_error=%d want 2", got)
	}

	tr.Observe(okResult(snapshot.StateActive, 0))
	s = tr.Snapshot()
	if s.SecondsInError != 0 || s.LastErrorCode != 0 || s.Health != HealthOK {
		t.Fatalf("not reset on recovery: %+v", s)
	}
}

func TestTracker_NoChangeReported(t *testing.T) {
	tr := NewTracker()
	tr.Observe(okResult(snapshot.StateActive, 10))
	if tr.Observe(okResult(snapshot.StateActive, 10)) {
		t.Fatalf("identical result must not report a change")
	}
	if tr.Tick() {
		t.Fatalf("tick while OK must not change status")
	}
}

func TestTracker_SecondsInErrorSaturates(t *testing.T) {
	tr := NewTracker()
	tr.Observe(poller.PollResult{Err: errors.New("boom")})
	tr.snap.SecondsInError = MaxRegister - 1

	if !tr.Tick() {
		t.Fatalf("expected last increment")
	}
	if tr.Tick() {
		t.Fatalf("seconds_in_error must not wrap")
	}
	if tr.Snapshot().SecondsInError != MaxRegister {
		t.Fatalf("seconds_in_error=%d", tr.Snapshot().SecondsInError)
	}
	if tr.Snapshot().LastErrorCode != 1 {
		t.Fatalf("generic error code=%d want 1", tr.Snapshot().LastErrorCode)
	}
}

func TestTracker_HealthFromState(t *testing.T) {
	tr := NewTracker()

	tr.Observe(okResult(snapshot.StateStopped, 0))
	if h := tr.Snapshot().Health; h != HealthDisabled {
		t.Fatalf("stopped health=%d want %d", h, HealthDisabled)
	}

	res := okResult(snapshot.StateActive, 0)
	res.Snapshot.Missing = true
	tr.Observe(res)
	if h := tr.Snapshot().Health; h != HealthStale {
		t.Fatalf("missing health=%d want %d", h, HealthStale)
	}
}

func TestEncode_Layout(t *testing.T) {
	regs := Encode(Snapshot{Health: HealthOK, State: StateCodeActive, MsgInRate: 7, Connections: 3})

	if len(regs) != SlotsPerHost {
		t.Fatalf("len=%d want %d", len(regs), SlotsPerHost)
	}
	if regs[SlotHealthCode] != HealthOK || regs[SlotLifecycleState] != StateCodeActive ||
		regs[SlotMsgInRate] != 7 || regs[SlotConnections] != 3 {
		t.Fatalf("unexpected layout: %v", regs)
	}
	for i := SlotHostNameStart; i <= SlotHostNameEnd; i++ {
		if regs[i] != 0 {
			t.Fatalf("name slot %d must be left to the writer", i)
		}
	}
}

func TestMaxStatusSlotFitsAddressSpace(t *testing.T) {
	last := (config.MaxStatusSlot+1)*SlotsPerHost - 1
	if last > MaxRegister {
		t.Fatalf("last register of max slot=%d exceeds %d", last, MaxRegister)
	}
	if (config.MaxStatusSlot+2)*SlotsPerHost-1 <= MaxRegister {
		t.Fatalf("MaxStatusSlot=%d leaves a whole block unused", config.MaxStatusSlot)
	}
}
