// internal/status/encode.go
package status

// Encode converts a Snapshot into the live slots of a host status block.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerHost)

	regs[SlotHealthCode] = s.Health
	regs[SlotLastErrorCode] = s.LastErrorCode
	regs[SlotSecondsInError] = s.SecondsInError
	regs[SlotLifecycleState] = s.State
	regs[SlotMsgInRate] = s.MsgInRate
	regs[SlotMsgOutRate] = s.MsgOutRate
	regs[SlotBytesInRate] = s.BytesInKiB
	regs[SlotBytesOutRate] = s.BytesOutKiB
	regs[SlotConnections] = s.Connections

	return regs
}
