// internal/console/panel.go
package console

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/tamzrod/vhostsync/internal/mgmt"
	"github.com/tamzrod/vhostsync/internal/view"
)

// hostPanel renders one virtual host.
type hostPanel struct {
	ref mgmt.Ref

	root    *tview.Flex
	header  *tview.TextView
	actions *tview.TextView
	details *tview.TextView
	status  *tview.TextView
	grids   map[view.Collection]*grid

	visible map[view.Collection]bool
}

func newHostPanel(ref mgmt.Ref) *hostPanel {
	p := &hostPanel{
		ref:     ref,
		root:    tview.NewFlex().SetDirection(tview.FlexRow),
		header:  tview.NewTextView().SetDynamicColors(true),
		actions: tview.NewTextView().SetDynamicColors(true),
		details: tview.NewTextView().SetDynamicColors(true),
		status:  tview.NewTextView().SetDynamicColors(true),
		grids:   make(map[view.Collection]*grid, len(view.Collections)),
		visible: make(map[view.Collection]bool, len(view.Collections)),
	}
	p.header.SetBorder(true).SetTitle(" " + ref.String() + " ")
	p.details.SetBorder(true).SetTitle(" details ")

	p.root.AddItem(p.header, 6, 0, false)
	p.root.AddItem(p.actions, 1, 0, false)
	p.root.AddItem(p.details, 0, 0, false)
	for _, c := range view.Collections {
		g := newGrid(c)
		p.grids[c] = g
		p.root.AddItem(g.table, 0, 0, false)
	}
	p.root.AddItem(p.status, 1, 0, false)

	return p
}

// update reflects one cycle's instructions. Grids are only touched
// when instructions carry operations for them.
func (p *hostPanel) update(in view.Instructions) {
	p.header.SetText(fieldText(in.Header))
	p.actions.SetText(actionText(in.Actions))

	if len(in.Details) == 0 {
		p.details.SetText("")
		p.root.ResizeItem(p.details, 0, 0)
	} else {
		p.details.SetText(fieldText(in.Details))
		p.root.ResizeItem(p.details, len(in.Details)/3+3, 0)
	}

	for _, c := range view.Collections {
		show := in.ChildrenVisible && (c != view.Connections || in.ConnectionsVisible)
		p.setVisible(c, show)
	}

	for _, u := range in.Grids {
		if g, ok := p.grids[u.Collection]; ok {
			g.apply(u)
		}
	}
}

// setError shows the last cycle failure; an empty message clears it.
func (p *hostPanel) setError(msg string) {
	if msg == "" {
		p.status.SetText("")
		return
	}
	p.status.SetText("[red]" + tview.Escape(msg))
}

func (p *hostPanel) setVisible(c view.Collection, show bool) {
	if p.visible[c] == show {
		return
	}
	p.visible[c] = show
	proportion := 0
	if show {
		proportion = 1
	}
	p.root.ResizeItem(p.grids[c].table, 0, proportion)
}

func fieldText(fields []view.Field) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			if i%3 == 0 {
				b.WriteByte('\n')
			} else {
				b.WriteString("   ")
			}
		}
		fmt.Fprintf(&b, "[yellow]%s:[-] %s", f.Name, tview.Escape(f.Value))
	}
	return b.String()
}

func actionText(a view.Actions) string {
	all := []view.Action{
		view.ActionStart,
		view.ActionStop,
		view.ActionEdit,
		view.ActionDownload,
		view.ActionDelete,
	}

	parts := make([]string, 0, len(all))
	for _, act := range all {
		if a.Enabled(act) {
			parts = append(parts, "[green]"+string(act)+"[-]")
		} else {
			parts = append(parts, "[gray]"+string(act)+"[-]")
		}
	}
	return " " + strings.Join(parts, "  ")
}
