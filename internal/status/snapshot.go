// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16

	State       uint16
	MsgInRate   uint16
	MsgOutRate  uint16
	BytesInKiB  uint16
	BytesOutKiB uint16
	Connections uint16
}
