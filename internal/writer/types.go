// internal/writer/types.go
package writer

import "github.com/tamzrod/vhostsync/internal/status"

// StatusPlan locates one host's status block inside the status memory.
type StatusPlan struct {
	Endpoint string
	UnitID   uint8
	BaseSlot uint16
	HostName string
}

// Plan is the fully-built write plan for one host.
// Status is nil when the host did not opt in.
type Plan struct {
	HostID string
	Status *StatusPlan
}

// StatusWriter is the delivery-only contract for host status.
// It receives a snapshot and writes it verbatim.
// No logic, no interpretation.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// endpointClient is the exact contract the writer uses.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}
