// internal/status/constants.go
package status

// Host Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerHost is the fixed number of logical slots per virtual host.
const SlotsPerHost = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the synchronizer health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last error code (HTTP status or generic).
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the host has been in error.
const SlotSecondsInError = 2

// SlotLifecycleState holds the host lifecycle state code.
const SlotLifecycleState = 3

// SlotMsgInRate .. SlotBytesOutRate hold rounded rates, saturating at 65535.
// Byte rates are in KiB/s.
const (
	SlotMsgInRate    = 4
	SlotMsgOutRate   = 5
	SlotBytesInRate  = 6
	SlotBytesOutRate = 7
)

// SlotConnections holds the number of connections reported by the host.
const SlotConnections = 8

// ---- RESERVED RANGE ----

// Slots 9–10 are reserved for future use.
const SlotReservedStart = 9
const SlotReservedEnd = 10

// ---- HOST NAME ----

// SlotHostNameStart is the first slot used for the host name.
// Host name is always placed at the END of the status block.
const SlotHostNameStart = 11

// SlotHostNameSlots is the number of slots reserved for the host name.
const SlotHostNameSlots = 8

// SlotHostNameEnd is the last slot used for the host name (inclusive).
const SlotHostNameEnd = SlotHostNameStart + SlotHostNameSlots - 1

// ---- LIMITS ----

// HostNameMaxChars is the maximum number of ASCII characters stored for the host name.
const HostNameMaxChars = 16

// MaxRegister is the saturation value of every counter slot.
const MaxRegister = 65535

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a host polled successfully.
const HealthOK uint16 = 1

// HealthError represents a failing poll.
const HealthError uint16 = 2

// HealthStale represents a host the server no longer reports.
const HealthStale uint16 = 3

// HealthDisabled represents a host that is not ACTIVE.
const HealthDisabled uint16 = 4

// ---- LIFECYCLE CODES ----

const (
	StateCodeAbsent      uint16 = 0
	StateCodeActive      uint16 = 1
	StateCodeStopped     uint16 = 2
	StateCodeUnavailable uint16 = 3
	StateCodeOther       uint16 = 4
)
