// internal/view/grid.go
package view

import (
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/tamzrod/vhostsync/internal/rates"
	"github.com/tamzrod/vhostsync/internal/snapshot"
)

// Collection names one child grid of the host view.
type Collection string

const (
	Queues      Collection = "queues"
	Exchanges   Collection = "exchanges"
	Connections Collection = "connections"
)

// Collections lists the grids in display order.
var Collections = []Collection{Queues, Exchanges, Connections}

// Column is one grid column.
type Column struct {
	Title string
	Field string
}

var columns = map[Collection][]Column{
	Queues: {
		{"Name", "name"},
		{"Type", "type"},
		{"Consumers", "consumerCount"},
		{"Depth (msgs)", "queueDepthMessages"},
		{"Depth (bytes)", "queueDepthBytes"},
	},
	Exchanges: {
		{"Name", "name"},
		{"Type", "type"},
		{"Binding Count", "bindingCount"},
	},
	Connections: {
		{"Name", "name"},
		{"User", "principal"},
		{"Port", "port"},
		{"Transport", "transport"},
		{"Sessions", "sessionCount"},
		{"Msgs In", "msgInRate"},
		{"Bytes In", "bytesInRate"},
		{"Msgs Out", "msgOutRate"},
		{"Bytes Out", "bytesOutRate"},
	},
}

// Columns returns the column layout of a collection.
func Columns(c Collection) []Column { return columns[c] }

// Row is one rendered grid row. Cells follow Columns order.
type Row struct {
	Key        string
	Cells      []string
	Selectable bool
}

// OpKind is the kind of a row reconciliation step.
type OpKind int

const (
	OpAdd OpKind = iota + 1
	OpRemove
	OpUpdate
)

func (k OpKind) String() string {
	switch k {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	case OpUpdate:
		return "update"
	}
	return "unknown"
}

// RowOp is one step of a reconciliation. Remove carries only Row.Key.
type RowOp struct {
	Kind OpKind
	Row  Row
}

// GridUpdate is the reconciliation of one collection.
type GridUpdate struct {
	Collection Collection
	Ops        []RowOp
}

// renderedRow is what the updater remembers about a row between cycles.
type renderedRow struct {
	Key string
	Sum uint64
}

// rowKey is the identity used for rendering. Children without an ID fall
// back to their name; rows with neither cannot be reconciled.
func rowKey(c snapshot.Child) string {
	if c.ID != "" {
		return c.ID
	}
	if c.Name != "" {
		return "name:" + c.Name
	}
	return ""
}

func buildRows(coll Collection, children []snapshot.Child, rs rates.RateSet) []Row {
	cols := columns[coll]
	out := make([]Row, 0, len(children))
	seen := make(map[string]bool, len(children))

	for _, c := range children {
		key := rowKey(c)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = cell(coll, col.Field, c, rs)
		}

		out = append(out, Row{
			Key:        key,
			Cells:      cells,
			Selectable: coll != Exchanges || !IsReservedExchange(c.Name),
		})
	}
	return out
}

func cell(coll Collection, field string, c snapshot.Child, rs rates.RateSet) string {
	if coll == Connections {
		r, ok := rs.Connections[c.ID]
		switch field {
		case "msgInRate":
			return connMessageRate(r.MessagesIn, ok)
		case "bytesInRate":
			return connByteRate(r.BytesIn, ok)
		case "msgOutRate":
			return connMessageRate(r.MessagesOut, ok)
		case "bytesOutRate":
			return connByteRate(r.BytesOut, ok)
		}
	}

	v := c.Attributes[field]
	if field == "queueDepthBytes" {
		if f, ok := v.(float64); ok {
			return Bytes(f)
		}
	}
	return Value(v)
}

func connMessageRate(r rates.Rate, ok bool) string {
	if !ok || !r.Defined {
		return ""
	}
	return MessageRate(r) + "msg/s"
}

func connByteRate(r rates.Rate, ok bool) string {
	if !ok || !r.Defined {
		return ""
	}
	return ByteRate(r)
}

// IsReservedExchange reports whether an exchange is broker-defined.
func IsReservedExchange(name string) bool {
	return name == "" || strings.HasPrefix(name, "amq.") || strings.HasPrefix(name, "qpid.")
}

func fingerprint(r Row) uint64 {
	var b strings.Builder
	for _, c := range r.Cells {
		b.WriteString(c)
		b.WriteByte(0x1f)
	}
	if r.Selectable {
		b.WriteByte('s')
	}
	return xxh3.HashString(b.String())
}

// reconcile diffs rows against what was rendered last time.
// Removals come first in old order, then updates and adds in new order.
func reconcile(old []renderedRow, rows []Row) ([]RowOp, []renderedRow) {
	prev := make(map[string]uint64, len(old))
	for _, r := range old {
		prev[r.Key] = r.Sum
	}
	cur := make(map[string]bool, len(rows))
	for _, r := range rows {
		cur[r.Key] = true
	}

	var ops []RowOp
	for _, r := range old {
		if !cur[r.Key] {
			ops = append(ops, RowOp{Kind: OpRemove, Row: Row{Key: r.Key}})
		}
	}

	next := make([]renderedRow, 0, len(rows))
	for _, r := range rows {
		sum := fingerprint(r)
		next = append(next, renderedRow{Key: r.Key, Sum: sum})

		oldSum, existed := prev[r.Key]
		switch {
		case !existed:
			ops = append(ops, RowOp{Kind: OpAdd, Row: r})
		case oldSum != sum:
			ops = append(ops, RowOp{Kind: OpUpdate, Row: r})
		}
	}

	return ops, next
}
