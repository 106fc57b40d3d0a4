// internal/rates/rates.go
package rates

import (
	"time"

	"github.com/tamzrod/vhostsync/internal/snapshot"
)

// Rate is a per-second throughput.
// Defined is false when no baseline exists yet; that is not the same as zero.
type Rate struct {
	Value   float64
	Defined bool
}

// Of returns a defined rate.
func Of(v float64) Rate { return Rate{Value: v, Defined: true} }

// Set is the rate block derived from one counter block.
type Set struct {
	MessagesIn  Rate
	BytesIn     Rate
	MessagesOut Rate
	BytesOut    Rate
}

// RateSet is everything derived from a pair of snapshots.
type RateSet struct {
	Host Set

	// Connections is keyed by connection ID and holds only connections
	// present in the current snapshot with a usable ID.
	Connections map[string]Set
}

// Baseline is the RateSet produced before a second sample exists.
func Baseline(cur snapshot.Snapshot) RateSet {
	rs := RateSet{Connections: make(map[string]Set, len(cur.Connections))}
	for _, c := range cur.Connections {
		if c.ID == "" {
			continue
		}
		rs.Connections[c.ID] = Set{}
	}
	return rs
}

// Compute derives rates between prev and cur taken elapsed apart.
//
// prev == nil yields Baseline(cur). ok is false when elapsed is not positive:
// the pair is not a new sample and the caller keeps its prior rates.
func Compute(prev *snapshot.Snapshot, cur snapshot.Snapshot, elapsed time.Duration) (rs RateSet, ok bool) {
	if prev == nil {
		return Baseline(cur), true
	}
	if elapsed <= 0 {
		return RateSet{}, false
	}

	ms := float64(elapsed) / float64(time.Millisecond)

	rs = RateSet{
		Host:        between(prev.Counters, cur.Counters, ms),
		Connections: make(map[string]Set, len(cur.Connections)),
	}

	old := make(map[string]snapshot.Counters, len(prev.Connections))
	for _, c := range prev.Connections {
		if c.ID == "" {
			continue
		}
		old[c.ID] = c.Counters
	}

	for _, c := range cur.Connections {
		if c.ID == "" {
			continue
		}
		if oc, matched := old[c.ID]; matched {
			rs.Connections[c.ID] = between(oc, c.Counters, ms)
		} else {
			rs.Connections[c.ID] = Set{}
		}
	}

	return rs, true
}

func between(a, b snapshot.Counters, ms float64) Set {
	return Set{
		MessagesIn:  perSecond(a.MessagesIn, b.MessagesIn, ms),
		BytesIn:     perSecond(a.BytesIn, b.BytesIn, ms),
		MessagesOut: perSecond(a.MessagesOut, b.MessagesOut, ms),
		BytesOut:    perSecond(a.BytesOut, b.BytesOut, ms),
	}
}

// perSecond clamps a decreasing counter (reset) to zero.
func perSecond(prev, cur int64, ms float64) Rate {
	if cur <= prev {
		return Of(0)
	}
	return Of(1000 * float64(cur-prev) / ms)
}
