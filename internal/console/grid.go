// internal/console/grid.go
package console

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/tamzrod/vhostsync/internal/view"
)

// grid keeps a tview.Table in step with reconciled row operations.
// Row 0 is the column header; keys[i] belongs to table row i+1.
type grid struct {
	coll  view.Collection
	table *tview.Table
	keys  []string
}

func newGrid(c view.Collection) *grid {
	t := tview.NewTable().
		SetFixed(1, 0).
		SetSelectable(true, false)
	t.SetBorder(true).SetTitle(" " + string(c) + " ")

	for col, column := range view.Columns(c) {
		t.SetCell(0, col, tview.NewTableCell(column.Title).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}

	return &grid{coll: c, table: t}
}

// apply performs one collection's operations in order.
func (g *grid) apply(u view.GridUpdate) {
	for _, op := range u.Ops {
		switch op.Kind {
		case view.OpRemove:
			if i := g.index(op.Row.Key); i >= 0 {
				g.table.RemoveRow(i + 1)
				g.keys = append(g.keys[:i], g.keys[i+1:]...)
			}
		case view.OpAdd, view.OpUpdate:
			if i := g.index(op.Row.Key); i >= 0 {
				g.setRow(i+1, op.Row)
				continue
			}
			g.add(op.Row)
		}
	}
}

func (g *grid) add(r view.Row) {
	g.keys = append(g.keys, r.Key)
	g.setRow(len(g.keys), r)
}

func (g *grid) setRow(row int, r view.Row) {
	for col, text := range r.Cells {
		cell := tview.NewTableCell(text).SetSelectable(r.Selectable)
		if !r.Selectable {
			cell.SetTextColor(tcell.ColorGray)
		}
		g.table.SetCell(row, col, cell)
	}
}

func (g *grid) index(key string) int {
	for i, k := range g.keys {
		if k == key {
			return i
		}
	}
	return -1
}

// cell returns the text at a data row (0-based) and column.
func (g *grid) cell(row, col int) string {
	return g.table.GetCell(row+1, col).Text
}
