// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/vhostsync/internal/status"
)

// liveSlots are the slots rewritten individually on incremental updates.
var liveSlots = []int{
	status.SlotHealthCode,
	status.SlotLastErrorCode,
	status.SlotSecondsInError,
	status.SlotLifecycleState,
	status.SlotMsgInRate,
	status.SlotMsgOutRate,
	status.SlotBytesInRate,
	status.SlotBytesOutRate,
	status.SlotConnections,
}

// hostStatusWriter is the concrete implementation used by the synchronizer.
type hostStatusWriter struct {
	plan *StatusPlan
	cli  endpointClient

	needFull bool
	last     status.Snapshot
	nameRegs []uint16
}

// NewStatusWriter builds a status writer if status is enabled for the host.
// If plan.Status is nil, status is disabled.
func NewStatusWriter(plan Plan, cli endpointClient) (*hostStatusWriter, bool) {
	if plan.Status == nil {
		return nil, false
	}

	sp := plan.Status
	return &hostStatusWriter{
		plan:     sp,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		last:     status.Snapshot{Health: status.HealthUnknown},
		nameRegs: encodeHostNameRegs(sp.HostName),
	}, true
}

// WriteStatus delivers a host status snapshot into status memory.
// On any write failure, the next successful call will re-assert the full block.
func (sw *hostStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.plan == nil {
		return errors.New("status writer: disabled")
	}
	if sw.cli == nil {
		return fmt.Errorf("status writer: missing client for endpoint %s", sw.plan.Endpoint)
	}

	baseAddr := sw.baseAddr()
	unitID := sw.plan.UnitID

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.cli.WriteRegisters(unitID, baseAddr, sw.fullBlockRegs(s)); err != nil {
			sw.needFull = true
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}

		sw.needFull = false
		sw.last = s
		return nil
	}

	want := status.Encode(s)
	have := status.Encode(sw.last)

	var errs []string
	for _, slot := range liveSlots {
		if want[slot] == have[slot] {
			continue
		}
		if err := sw.cli.WriteRegisters(unitID, baseAddr+uint16(slot), []uint16{want[slot]}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d write failed: %v", slot, err))
		}
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt, re-assert on next success.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	sw.last = s
	return nil
}

func (sw *hostStatusWriter) baseAddr() uint16 {
	// Each host owns a fixed SlotsPerHost block.
	return sw.plan.BaseSlot * status.SlotsPerHost
}

func (sw *hostStatusWriter) fullBlockRegs(s status.Snapshot) []uint16 {
	regs := status.Encode(s)

	// Host name always lives at the end of the block
	for i := 0; i < status.SlotHostNameSlots && i < len(sw.nameRegs); i++ {
		regs[status.SlotHostNameStart+i] = sw.nameRegs[i]
	}

	return regs
}

// encodeHostNameRegs packs up to 16 ASCII characters into 8 uint16 registers.
// Each register stores two ASCII bytes in big-endian order.
func encodeHostNameRegs(name string) []uint16 {
	out := make([]uint16, status.SlotHostNameSlots)

	b := []byte(name)
	if len(b) > status.HostNameMaxChars {
		b = b[:status.HostNameMaxChars]
	}

	// sanitize to printable ASCII
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < status.HostNameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}
