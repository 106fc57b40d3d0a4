// internal/view/actions.go
package view

import "github.com/tamzrod/vhostsync/internal/snapshot"

// Action is an operator action offered by the host view.
type Action string

const (
	ActionStart    Action = "start"
	ActionStop     Action = "stop"
	ActionEdit     Action = "edit"
	ActionDownload Action = "download"
	ActionDelete   Action = "delete"
)

// Actions holds the enablement of each lifecycle action.
type Actions struct {
	Start    bool
	Stop     bool
	Edit     bool
	Download bool
	Delete   bool
}

// ActionsFor derives action enablement from the lifecycle state alone.
func ActionsFor(st snapshot.LifecycleState) Actions {
	return Actions{
		Start:    st == snapshot.StateStopped,
		Stop:     st == snapshot.StateActive,
		Edit:     st.Present() && st != snapshot.StateUnavailable,
		Download: st == snapshot.StateActive,
		Delete:   st.Present(),
	}
}

// Enabled reports whether a named action is enabled.
func (a Actions) Enabled(act Action) bool {
	switch act {
	case ActionStart:
		return a.Start
	case ActionStop:
		return a.Stop
	case ActionEdit:
		return a.Edit
	case ActionDownload:
		return a.Download
	case ActionDelete:
		return a.Delete
	}
	return false
}
