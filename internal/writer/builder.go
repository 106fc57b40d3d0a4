// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/vhostsync/internal/config"
	wmodbus "github.com/tamzrod/vhostsync/internal/writer/modbus"
)

// BuildPlan converts one host config into a writer Plan.
// Assumes config has already passed slot collision validation.
func BuildPlan(sc cfg.SyncConfig, h cfg.HostConfig) (Plan, error) {
	if h.Node == "" || h.Host == "" {
		return Plan{}, errors.New("writer: host node and name required")
	}

	plan := Plan{HostID: h.ID()}
	if h.StatusSlot == nil {
		return plan, nil
	}

	plan.Status = &StatusPlan{
		Endpoint: sc.StatusMemory.Endpoint,
		UnitID:   sc.StatusMemory.UnitID,
		BaseSlot: *h.StatusSlot,
		HostName: h.Host,
	}
	return plan, nil
}

// BuildEndpointClient creates the single TCP client for the status memory.
// It returns nil when no host opted in.
func BuildEndpointClient(sc cfg.SyncConfig) (*wmodbus.EndpointClient, func() error, error) {
	needed := false
	for _, h := range sc.Hosts {
		if h.StatusSlot != nil {
			needed = true
			break
		}
	}
	if !needed || sc.StatusMemory.Endpoint == "" {
		return nil, func() error { return nil }, nil
	}

	c, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: sc.StatusMemory.Endpoint,
		Timeout:  time.Duration(sc.StatusMemory.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}
