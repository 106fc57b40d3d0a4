// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tamzrod/vhostsync/internal/mgmt"
	"github.com/tamzrod/vhostsync/internal/snapshot"
)

type fakeFetcher struct {
	mu    sync.Mutex
	snaps []snapshot.Snapshot // served in order; the last one repeats
	errAt map[int]error       // call index -> error
	calls int

	inFlight    int
	maxInFlight int

	gate    chan struct{} // when set, each fetch waits for one value
	started chan struct{} // when set, signalled on each fetch entry
}

func (f *fakeFetcher) Fetch(ctx context.Context, ref mgmt.Ref, prev *snapshot.Snapshot) (snapshot.Snapshot, error) {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}

	if err := f.errAt[idx]; err != nil {
		return snapshot.Snapshot{}, err
	}
	i := idx
	if i >= len(f.snaps) {
		i = len(f.snaps) - 1
	}
	return f.snaps[i], nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func active(in, bytesIn int64) snapshot.Snapshot {
	return snapshot.Snapshot{
		Name:     "vh",
		Type:     "Memory",
		State:    snapshot.StateActive,
		Counters: snapshot.Counters{MessagesIn: in, BytesIn: bytesIn},
	}
}

func newPoller(t *testing.T, f Fetcher, clock Clock) *Poller {
	t.Helper()
	p, err := New(Config{
		Ref:      mgmt.Ref{Node: "node", Host: "vh"},
		Interval: time.Hour,
		Clock:    clock,
	}, f)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return p
}

func header(res PollResult, name string) string {
	for _, f := range res.Render.Header {
		if f.Name == name {
			return f.Value
		}
	}
	return "<missing>"
}

func TestNew_Validation(t *testing.T) {
	f := &fakeFetcher{snaps: []snapshot.Snapshot{active(0, 0)}}

	if _, err := New(Config{Ref: mgmt.Ref{Host: "vh"}, Interval: time.Second}, f); err == nil {
		t.Fatalf("expected error for missing node")
	}
	if _, err := New(Config{Ref: mgmt.Ref{Node: "n", Host: "vh"}}, f); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if _, err := New(Config{Ref: mgmt.Ref{Node: "n", Host: "vh"}, Interval: time.Second}, nil); err == nil {
		t.Fatalf("expected error for nil fetcher")
	}
}

func TestPollOnce_EndToEndRates(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	f := &fakeFetcher{snaps: []snapshot.Snapshot{active(100, 1000), active(150, 1000)}}
	p := newPoller(t, f, clock)

	first := p.PollOnce(context.Background())
	if first.Err != nil {
		t.Fatalf("first poll err=%v", first.Err)
	}
	if first.Rates.Host.MessagesIn.Defined {
		t.Fatalf("first sample must not produce a rate")
	}
	if got := header(first, "msgInRate"); got != "" {
		t.Fatalf("first paint msgInRate=%q want blank", got)
	}

	clock.Advance(1000 * time.Millisecond)

	second := p.PollOnce(context.Background())
	if second.Err != nil {
		t.Fatalf("second poll err=%v", second.Err)
	}
	if r := second.Rates.Host.MessagesIn; !r.Defined || r.Value != 50 {
		t.Fatalf("msgInRate=%+v want 50", r)
	}
	if r := second.Rates.Host.BytesIn; !r.Defined || r.Value != 0 {
		t.Fatalf("bytesInRate=%+v want 0", r)
	}
	if got := header(second, "msgInRate"); got != "50" {
		t.Fatalf("rendered msgInRate=%q want 50", got)
	}
}

func TestPollOnce_FetchErrorLeavesState(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	f := &fakeFetcher{
		snaps: []snapshot.Snapshot{active(100, 0), active(100, 0), active(300, 0)},
		errAt: map[int]error{1: errors.New("connection refused")},
	}
	p := newPoller(t, f, clock)

	p.PollOnce(context.Background())

	clock.Advance(time.Second)
	if res := p.PollOnce(context.Background()); res.Err == nil {
		t.Fatalf("expected fetch error")
	}

	clock.Advance(time.Second)
	res := p.PollOnce(context.Background())
	if res.Err != nil {
		t.Fatalf("poll err=%v", res.Err)
	}
	// baseline is still the first snapshot, two seconds ago
	if r := res.Rates.Host.MessagesIn; r.Value != 100 {
		t.Fatalf("msgInRate=%v want 100", r.Value)
	}
}

func TestPollOnce_ClockNotAdvancedKeepsPriorRates(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	f := &fakeFetcher{snaps: []snapshot.Snapshot{active(0, 0), active(100, 0), active(900, 0)}}
	p := newPoller(t, f, clock)

	p.PollOnce(context.Background())
	clock.Advance(time.Second)
	p.PollOnce(context.Background())

	// same instant: not a new sample
	res := p.PollOnce(context.Background())
	if r := res.Rates.Host.MessagesIn; !r.Defined || r.Value != 100 {
		t.Fatalf("msgInRate=%+v want retained 100", r)
	}
}

func TestPollOnce_MissingSnapshotIsNotABaseline(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	prev := active(1000000, 0)
	f := &fakeFetcher{snaps: []snapshot.Snapshot{
		active(1000000, 0),
		active(1000010, 0),
		snapshot.Default("vh", &prev),
		active(1000020, 0),
		active(1000030, 0),
	}}
	p := newPoller(t, f, clock)

	p.PollOnce(context.Background())
	clock.Advance(time.Second)
	if r := p.PollOnce(context.Background()).Rates.Host.MessagesIn; r.Value != 10 {
		t.Fatalf("msgInRate=%+v want 10", r)
	}

	clock.Advance(time.Second)
	missing := p.PollOnce(context.Background())
	if !missing.Snapshot.Missing {
		t.Fatalf("expected placeholder snapshot")
	}
	if missing.Rates.Host.MessagesIn.Defined {
		t.Fatalf("placeholder must not produce a rate: %+v", missing.Rates.Host.MessagesIn)
	}

	// host is back: first observation again, no rate
	clock.Advance(time.Second)
	back := p.PollOnce(context.Background())
	if r := back.Rates.Host.MessagesIn; r.Defined {
		t.Fatalf("msgInRate=%+v after placeholder, want undefined", r)
	}
	if got := header(back, "msgInRate"); got != "" {
		t.Fatalf("header msgInRate=%q want blank", got)
	}

	clock.Advance(time.Second)
	if r := p.PollOnce(context.Background()).Rates.Host.MessagesIn; !r.Defined || r.Value != 10 {
		t.Fatalf("msgInRate=%+v want 10", r)
	}
}

// closingClock closes the poller the first time the cycle reads the time,
// which happens after the fetch and before the commit.
type closingClock struct {
	fakeClock
	p *Poller
}

func (c *closingClock) Now() time.Time {
	c.p.Close()
	return c.fakeClock.Now()
}

func TestClose_DuringRenderDiscardsCycle(t *testing.T) {
	clock := &closingClock{fakeClock: fakeClock{t: time.Unix(0, 0)}}
	p := newPoller(t, &fakeFetcher{snaps: []snapshot.Snapshot{active(0, 0)}}, clock)
	clock.p = p

	res := p.PollOnce(context.Background())
	if !errors.Is(res.Err, ErrClosed) {
		t.Fatalf("err=%v want ErrClosed", res.Err)
	}
	if p.st.prev != nil {
		t.Fatalf("state mutated after close")
	}
}

func TestPollOnce_NoConcurrentFetch(t *testing.T) {
	f := &fakeFetcher{
		snaps:   []snapshot.Snapshot{active(0, 0)},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 4),
	}
	p := newPoller(t, f, &fakeClock{t: time.Unix(0, 0)})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.PollOnce(context.Background())
	}()
	<-f.started

	// overlapping tick is skipped
	if _, ran := p.TryPollOnce(context.Background()); ran {
		t.Fatalf("TryPollOnce ran while a cycle was in flight")
	}
	if p.Skipped() != 1 {
		t.Fatalf("skipped=%d want 1", p.Skipped())
	}

	// explicit poll is deferred until the first resolves
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.PollOnce(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)
	if n := f.callCount(); n != 1 {
		t.Fatalf("fetch calls=%d while first in flight, want 1", n)
	}

	f.gate <- struct{}{}
	<-f.started
	f.gate <- struct{}{}
	wg.Wait()

	if f.maxInFlight != 1 {
		t.Fatalf("max in-flight fetches=%d want 1", f.maxInFlight)
	}
	if n := f.callCount(); n != 2 {
		t.Fatalf("fetch calls=%d want 2", n)
	}
}

func TestClose_FetchCompletingAfterCloseIsDiscarded(t *testing.T) {
	f := &fakeFetcher{
		snaps:   []snapshot.Snapshot{active(0, 0)},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	p := newPoller(t, f, &fakeClock{t: time.Unix(0, 0)})

	done := make(chan PollResult, 1)
	go func() { done <- p.PollOnce(context.Background()) }()

	<-f.started
	p.Close()
	f.gate <- struct{}{}

	res := <-done
	if !errors.Is(res.Err, ErrClosed) {
		t.Fatalf("err=%v want ErrClosed", res.Err)
	}
	if p.st.prev != nil {
		t.Fatalf("state mutated after close")
	}

	if res := p.PollOnce(context.Background()); !errors.Is(res.Err, ErrClosed) {
		t.Fatalf("poll after close err=%v want ErrClosed", res.Err)
	}
	if n := f.callCount(); n != 1 {
		t.Fatalf("fetch calls=%d want 1", n)
	}
}

func TestRun_PollsOnOpenAndTriggerThenStopsOnClose(t *testing.T) {
	f := &fakeFetcher{snaps: []snapshot.Snapshot{active(0, 0)}}
	p := newPoller(t, f, nil)

	out := make(chan PollResult)
	stopped := make(chan struct{})
	go func() {
		p.Run(context.Background(), out)
		close(stopped)
	}()

	select {
	case res := <-out:
		if res.Err != nil {
			t.Fatalf("first result err=%v", res.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no result on open")
	}

	p.Trigger()
	select {
	case <-out:
	case <-time.After(2 * time.Second):
		t.Fatalf("no result after Trigger")
	}

	p.Close()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after Close")
	}
}
