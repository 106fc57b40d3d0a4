// internal/poller/builder.go
package poller

import (
	"time"

	cfg "github.com/tamzrod/vhostsync/internal/config"
	"github.com/tamzrod/vhostsync/internal/mgmt"
)

// Build constructs the Poller of one configured host.
// The fetcher is shared between hosts; it keeps no per-host state.
func Build(sc cfg.SyncConfig, h cfg.HostConfig, fetcher Fetcher) (*Poller, func() error, error) {
	interval := sc.Poll.IntervalMs
	if h.IntervalMs > 0 {
		interval = h.IntervalMs
	}

	p, err := New(
		Config{
			Ref:      mgmt.Ref{Node: h.Node, Host: h.Host},
			Interval: time.Duration(interval) * time.Millisecond,
		},
		fetcher,
	)
	if err != nil {
		return nil, nil, err
	}

	return p, func() error { p.Close(); return nil }, nil
}
