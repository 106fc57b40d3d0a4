// internal/view/view.go
package view

import (
	"github.com/tamzrod/vhostsync/internal/rates"
	"github.com/tamzrod/vhostsync/internal/snapshot"
)

// Field is one header or detail value ready for display.
type Field struct {
	Name  string
	Value string
}

// Rendered is the updater's memory of what the grids currently show.
// Apply never mutates it; a new one is returned in Instructions.Next.
type Rendered struct {
	rows map[Collection][]renderedRow
}

// Keys returns the rendered row keys of a collection in display order.
func (r Rendered) Keys(c Collection) []string {
	rows := r.rows[c]
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.Key
	}
	return out
}

// Instructions is everything a view needs to reflect one snapshot.
type Instructions struct {
	Header  []Field
	Details []Field
	Actions Actions

	ChildrenVisible    bool
	ConnectionsVisible bool

	// Grids is empty unless the host is ACTIVE.
	Grids []GridUpdate

	Next Rendered
}

// Changed reports whether any grid has pending row operations.
func (in Instructions) Changed() bool {
	for _, g := range in.Grids {
		if len(g.Ops) > 0 {
			return true
		}
	}
	return false
}

// headerAttributes are copied from flattened attributes as-is.
var headerAttributes = []struct {
	field string
	attr  string
}{
	{"deadLetterQueueEnabled", "queue.deadLetterQueueEnabled"},
	{"housekeepingCheckPeriod", "housekeepingCheckPeriod"},
	{"housekeepingThreadCount", "housekeepingThreadCount"},
	{"storeTransactionIdleTimeoutClose", "storeTransactionIdleTimeoutClose"},
	{"storeTransactionIdleTimeoutWarn", "storeTransactionIdleTimeoutWarn"},
	{"storeTransactionOpenTimeoutClose", "storeTransactionOpenTimeoutClose"},
	{"storeTransactionOpenTimeoutWarn", "storeTransactionOpenTimeoutWarn"},
}

// Apply turns a snapshot and its rates into render instructions.
// No I/O. A non-nil error wrapping ErrUnknownType leaves the
// instructions usable with Details empty.
func Apply(prev Rendered, s snapshot.Snapshot, rs rates.RateSet) (Instructions, error) {
	in := Instructions{
		Header:  header(s, rs),
		Actions: ActionsFor(s.State),
		Next:    prev,
	}

	det, detailErr := details(s)
	in.Details = det

	if s.State != snapshot.StateActive {
		return in, detailErr
	}

	in.ChildrenVisible = true
	in.ConnectionsVisible = s.Connections != nil

	next := Rendered{rows: make(map[Collection][]renderedRow, len(Collections))}
	for _, c := range Collections {
		rows := buildRows(c, children(s, c), rs)
		ops, state := reconcile(prev.rows[c], rows)
		in.Grids = append(in.Grids, GridUpdate{Collection: c, Ops: ops})
		next.rows[c] = state
	}
	in.Next = next

	return in, detailErr
}

func header(s snapshot.Snapshot, rs rates.RateSet) []Field {
	out := []Field{
		{"name", s.Name},
		{"type", s.Type},
		{"state", string(s.State)},
		{"durable", Value(s.Durable)},
		{"lifetimePolicy", s.LifetimePolicy},
	}
	for _, h := range headerAttributes {
		out = append(out, Field{h.field, Value(s.Attr(h.attr))})
	}
	out = append(out,
		Field{"msgInRate", MessageRate(rs.Host.MessagesIn)},
		Field{"bytesInRate", ByteRate(rs.Host.BytesIn)},
		Field{"msgOutRate", MessageRate(rs.Host.MessagesOut)},
		Field{"bytesOutRate", ByteRate(rs.Host.BytesOut)},
	)
	return out
}

func children(s snapshot.Snapshot, c Collection) []snapshot.Child {
	switch c {
	case Queues:
		return s.Queues
	case Exchanges:
		return s.Exchanges
	case Connections:
		return s.Connections
	}
	return nil
}
