// internal/console/console.go
package console

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/tamzrod/vhostsync/internal/mgmt"
	"github.com/tamzrod/vhostsync/internal/poller"
)

// Console is the optional terminal view over all synchronized hosts.
// Tab cycles hosts; q or Ctrl-C quits.
type Console struct {
	app    *tview.Application
	pages  *tview.Pages
	order  []string
	panels map[string]*hostPanel
	index  int
}

// New builds one page per host.
func New(refs []mgmt.Ref) (*Console, error) {
	if len(refs) == 0 {
		return nil, errors.New("console: no hosts")
	}

	c := &Console{
		app:    tview.NewApplication(),
		pages:  tview.NewPages(),
		panels: make(map[string]*hostPanel, len(refs)),
	}
	for i, ref := range refs {
		p := newHostPanel(ref)
		id := ref.String()
		c.panels[id] = p
		c.order = append(c.order, id)
		c.pages.AddPage(id, p.root, true, i == 0)
	}

	c.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch {
		case ev.Key() == tcell.KeyTab:
			c.cycle(1)
			return nil
		case ev.Key() == tcell.KeyBacktab:
			c.cycle(-1)
			return nil
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			c.app.Stop()
			return nil
		}
		return ev
	})

	return c, nil
}

// Run blocks until the user quits or Stop is called.
func (c *Console) Run() error {
	return c.app.SetRoot(c.pages, true).Run()
}

// Stop ends Run.
func (c *Console) Stop() { c.app.Stop() }

// Show queues one poll result for drawing. Safe from any goroutine.
func (c *Console) Show(res poller.PollResult) {
	p, ok := c.panels[res.Ref.String()]
	if !ok {
		return
	}
	c.app.QueueUpdateDraw(func() {
		show(p, res)
	})
}

func show(p *hostPanel, res poller.PollResult) {
	if res.Err != nil {
		p.setError(fmt.Sprintf("poll failed: %v", res.Err))
		return
	}
	p.update(res.Render)
	if res.RenderErr != nil {
		p.setError(res.RenderErr.Error())
		return
	}
	p.setError("")
}

func (c *Console) cycle(delta int) {
	n := len(c.order)
	c.index = ((c.index+delta)%n + n) % n
	c.pages.SwitchToPage(c.order[c.index])
}
