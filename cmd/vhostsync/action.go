// cmd/vhostsync/action.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/tamzrod/vhostsync/internal/mgmt"
	"github.com/tamzrod/vhostsync/internal/snapshot"
	"github.com/tamzrod/vhostsync/internal/view"
)

// ErrActionDisabled is returned when the host's current state does not
// allow the requested action.
var ErrActionDisabled = errors.New("action disabled for current state")

// ErrReservedExchange is returned for exchanges the broker defines itself.
var ErrReservedExchange = errors.New("reserved exchange cannot be deleted")

// childVerbs delete named rows of a child grid; they need an ACTIVE host.
var childVerbs = map[string]view.Collection{
	"delete-queue":    view.Queues,
	"delete-exchange": view.Exchanges,
}

var verbs = map[string]view.Action{
	"start":  view.ActionStart,
	"stop":   view.ActionStop,
	"edit":   view.ActionEdit,
	"export": view.ActionDownload,
	"delete": view.ActionDelete,
}

// runAction performs one operator action against a host after checking
// it is enabled for the state the server reports right now.
func runAction(ctx context.Context, client *mgmt.Client, verb, target string, args []string, outDir string) error {
	if coll, ok := childVerbs[verb]; ok {
		return deleteChildren(ctx, client, coll, target, args)
	}

	act, ok := verbs[verb]
	if !ok {
		return fmt.Errorf("unknown action %q", verb)
	}

	ref, err := parseRef(target)
	if err != nil {
		return err
	}

	if act != view.ActionEdit && len(args) > 0 {
		return fmt.Errorf("%s takes no field arguments", verb)
	}

	s, err := client.Fetch(ctx, ref, nil)
	if err != nil {
		return err
	}
	if !view.ActionsFor(s.State).Enabled(act) {
		return fmt.Errorf("%w: %s while %s", ErrActionDisabled, verb, stateLabel(s))
	}

	switch act {
	case view.ActionStart:
		return client.Start(ctx, ref)

	case view.ActionStop:
		return client.Stop(ctx, ref)

	case view.ActionDelete:
		return client.Delete(ctx, ref)

	case view.ActionDownload:
		path := filepath.Join(outDir, ref.Host+".json")
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		n, err := client.Export(ctx, ref, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		log.Printf("exported %s to %s (%s)", ref, path, humanize.IBytes(uint64(n)))
		return nil

	case view.ActionEdit:
		input, err := parseAssignments(args)
		if err != nil {
			return err
		}
		actual, err := client.FetchActuals(ctx, ref)
		if err != nil {
			return err
		}
		fields, err := mgmt.ChangedFields(actual, input)
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			log.Printf("no changes for %s", ref)
			return nil
		}
		return client.Update(ctx, ref, fields)
	}

	return nil
}

// deleteChildren removes named queues or exchanges of an ACTIVE host.
// Every name is checked against the current snapshot before anything
// is deleted.
func deleteChildren(ctx context.Context, client *mgmt.Client, coll view.Collection, target string, names []string) error {
	ref, err := parseRef(target)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("delete-%s needs at least one name", kindOf(coll))
	}

	s, err := client.Fetch(ctx, ref, nil)
	if err != nil {
		return err
	}
	if s.State != snapshot.StateActive {
		return fmt.Errorf("%w: delete-%s while %s", ErrActionDisabled, kindOf(coll), stateLabel(s))
	}

	known := make(map[string]bool)
	children := s.Queues
	if coll == view.Exchanges {
		children = s.Exchanges
	}
	for _, c := range children {
		known[c.Name] = true
	}

	for _, name := range names {
		if coll == view.Exchanges && view.IsReservedExchange(name) {
			return fmt.Errorf("%w: %q", ErrReservedExchange, name)
		}
		if !known[name] {
			return fmt.Errorf("%s %q not found on %s", kindOf(coll), name, ref)
		}
	}

	for _, name := range names {
		if coll == view.Exchanges {
			err = client.DeleteExchange(ctx, ref, name)
		} else {
			err = client.DeleteQueue(ctx, ref, name)
		}
		if err != nil {
			return err
		}
		log.Printf("deleted %s %q (host=%s)", kindOf(coll), name, ref)
	}
	return nil
}

func kindOf(coll view.Collection) string {
	if coll == view.Exchanges {
		return "exchange"
	}
	return "queue"
}

// parseRef splits "node/host".
func parseRef(s string) (mgmt.Ref, error) {
	node, host, ok := strings.Cut(s, "/")
	if !ok || node == "" || host == "" {
		return mgmt.Ref{}, fmt.Errorf("target %q: want <node>/<host>", s)
	}
	return mgmt.Ref{Node: node, Host: host}, nil
}

// parseAssignments turns field=value arguments into a map.
func parseAssignments(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, errors.New("edit needs at least one field=value")
	}
	out := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("argument %q: want field=value", a)
		}
		out[k] = v
	}
	return out, nil
}

func stateLabel(s snapshot.Snapshot) string {
	if !s.State.Present() {
		return "absent"
	}
	return string(s.State)
}
