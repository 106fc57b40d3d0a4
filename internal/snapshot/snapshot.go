// internal/snapshot/snapshot.go
package snapshot

// LifecycleState is the operational status reported for a virtual host.
// Values other than the named constants are kept verbatim.
type LifecycleState string

const (
	StateAbsent      LifecycleState = ""
	StateActive      LifecycleState = "ACTIVE"
	StateStopped     LifecycleState = "STOPPED"
	StateUnavailable LifecycleState = "UNAVAILABLE"
)

// Present reports whether the server reported any state at all.
func (s LifecycleState) Present() bool { return s != StateAbsent }

// Counters is the cumulative counter block of a resource or child.
type Counters struct {
	MessagesIn  int64
	BytesIn     int64
	MessagesOut int64
	BytesOut    int64
}

// Child is one row of a child collection (queue, exchange, connection).
// ID is opaque; an empty ID means the server omitted it.
type Child struct {
	ID         string
	Name       string
	Counters   Counters
	Attributes map[string]any
}

// Snapshot is the state of one virtual host at one point in time.
// It is never mutated after construction; a newer one replaces it.
type Snapshot struct {
	ID             string
	Name           string
	Type           string
	State          LifecycleState
	Durable        bool
	LifetimePolicy string

	// Attributes holds the flattened scalar attributes, statistics included.
	Attributes map[string]any

	Counters Counters

	Queues      []Child
	Exchanges   []Child
	Connections []Child

	// Missing is set when the server returned no element for the host.
	Missing bool
}

// Attr returns a flattened attribute, or nil.
func (s Snapshot) Attr(name string) any {
	if s.Attributes == nil {
		return nil
	}
	return s.Attributes[name]
}

// Default builds the placeholder snapshot used when the server returns nothing.
// Identity and state are carried over from prev when known.
func Default(name string, prev *Snapshot) Snapshot {
	s := Snapshot{
		Name:    name,
		Missing: true,
	}
	if prev != nil {
		s.ID = prev.ID
		s.Name = prev.Name
		s.Type = prev.Type
		s.State = prev.State
		s.Durable = prev.Durable
		s.LifetimePolicy = prev.LifetimePolicy
	}
	return s
}
