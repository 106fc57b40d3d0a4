// cmd/vhostsync/sync.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/vhostsync/internal/config"
	"github.com/tamzrod/vhostsync/internal/console"
	"github.com/tamzrod/vhostsync/internal/emitter"
	"github.com/tamzrod/vhostsync/internal/mgmt"
	"github.com/tamzrod/vhostsync/internal/poller"
	"github.com/tamzrod/vhostsync/internal/status"
	"github.com/tamzrod/vhostsync/internal/writer"
)

// runSync builds one pipeline per host and blocks until ctx ends
// or the console is closed.
func runSync(ctx context.Context, sc config.SyncConfig) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client, err := newClient(sc.Management)
	if err != nil {
		return fmt.Errorf("management client: %w", err)
	}

	// ---- status memory (optional) ----
	statusCli, closeStatus, err := writer.BuildEndpointClient(sc)
	if err != nil {
		return fmt.Errorf("status memory: %w", err)
	}
	defer closeStatus()

	// ---- mqtt (optional) ----
	var em *emitter.Emitter
	if sc.MQTT.Broker != "" {
		e, closeEmitter, err := emitter.Connect(sc.MQTT)
		if err != nil {
			return err
		}
		defer closeEmitter()
		em = e
	}

	// ---- console (optional) ----
	var con *console.Console
	if sc.Console.Enabled {
		f, err := os.OpenFile(sc.Console.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("console log: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)

		refs := make([]mgmt.Ref, 0, len(sc.Hosts))
		for _, h := range sc.Hosts {
			refs = append(refs, mgmt.Ref{Node: h.Node, Host: h.Host})
		}
		if con, err = console.New(refs); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	// --------------------
	// Build per-host pipelines
	// --------------------

	for _, h := range sc.Hosts {

		// ---- poller ----
		p, closePoller, err := poller.Build(sc, h, client)
		if err != nil {
			return fmt.Errorf("poller build failed (host=%s): %w", h.ID(), err)
		}
		defer closePoller()

		// ---- status writer plan ----
		plan, err := writer.BuildPlan(sc, h)
		if err != nil {
			return fmt.Errorf("writer plan failed (host=%s): %w", h.ID(), err)
		}

		loop := &hostLoop{
			id:      h.ID(),
			tracker: status.NewTracker(),
		}
		if statusCli != nil {
			if sw, enabled := writer.NewStatusWriter(plan, statusCli); enabled {
				loop.status = sw
			}
		}
		if em != nil {
			loop.emit = em.Emit
		}
		if con != nil {
			loop.show = con.Show
		}

		// ---- channel between poller and sinks ----
		out := make(chan poller.PollResult)

		secTicker := time.NewTicker(time.Second)
		g.Go(func() error {
			defer secTicker.Stop()
			loop.run(gctx, out, secTicker.C)
			return nil
		})
		g.Go(func() error {
			p.Run(gctx, out)
			return nil
		})
	}

	if con != nil {
		go func() {
			<-gctx.Done()
			con.Stop()
		}()
		err := con.Run()
		cancel()
		return errors.Join(err, g.Wait())
	}

	return g.Wait()
}

// hostLoop is the runner-owned state of one host: it folds poll results
// and 1 Hz ticks into status, and fans results out to optional sinks.
type hostLoop struct {
	id      string
	tracker *status.Tracker

	status writer.StatusWriter
	emit   func(poller.PollResult) error
	show   func(poller.PollResult)
}

func (l *hostLoop) run(ctx context.Context, out <-chan poller.PollResult, seconds <-chan time.Time) {
	// Full block write on start (identity re-assert) if enabled.
	l.writeStatus("status write failed on start")

	for {
		select {
		case <-ctx.Done():
			return

		case res := <-out:
			l.handle(res)

		case <-seconds:
			if l.tracker.Tick() {
				l.writeStatus("status seconds tick write failed")
			}
		}
	}
}

func (l *hostLoop) handle(res poller.PollResult) {
	if res.Err != nil {
		log.Printf("poll failed (host=%s): %v", l.id, res.Err)
	} else if res.RenderErr != nil {
		log.Printf("render degraded (host=%s): %v", l.id, res.RenderErr)
	}

	if l.tracker.Observe(res) {
		l.writeStatus("status write failed")
	}

	if l.emit != nil {
		if err := l.emit(res); err != nil {
			log.Printf("emit failed (host=%s): %v", l.id, err)
		}
	}

	if l.show != nil {
		l.show(res)
	}
}

func (l *hostLoop) writeStatus(msg string) {
	if l.status == nil {
		return
	}
	if err := l.status.WriteStatus(l.tracker.Snapshot()); err != nil {
		log.Printf("%s (host=%s): %v", msg, l.id, err)
	}
}
