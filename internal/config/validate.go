// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"net/url"
)

// statusBlockSlots mirrors status.SlotsPerHost (protocol-locked).
const statusBlockSlots = 20

// MaxStatusSlot is the highest status_slot whose block still fits the
// 16-bit register address space.
const MaxStatusSlot = 65536/statusBlockSlots - 1

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil")
	}
	s := cfg.Sync

	// ------------------------------------------------------------
	// MANAGEMENT API
	// ------------------------------------------------------------

	if s.Management.BaseURL == "" {
		return errors.New("management.base_url is required")
	}
	u, err := url.Parse(s.Management.BaseURL)
	if err != nil {
		return fmt.Errorf("management.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("management.base_url: unsupported scheme %q", u.Scheme)
	}
	if s.Management.TimeoutMs < 0 {
		return errors.New("management.timeout_ms must be >= 0")
	}
	if s.Poll.IntervalMs < 0 {
		return errors.New("poll.interval_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// HOSTS
	// ------------------------------------------------------------

	if len(s.Hosts) == 0 {
		return errors.New("at least one host is required")
	}

	seen := make(map[string]bool)
	for _, h := range s.Hosts {
		if h.Node == "" || h.Host == "" {
			return fmt.Errorf("host %q: node and host are required", h.ID())
		}
		if h.IntervalMs < 0 {
			return fmt.Errorf("host %q: interval_ms must be >= 0", h.ID())
		}
		if seen[h.ID()] {
			return fmt.Errorf("host %q is listed twice", h.ID())
		}
		seen[h.ID()] = true
	}

	// ------------------------------------------------------------
	// STATUS BLOCK EXPORT (OPT-IN)
	// ------------------------------------------------------------

	// key = status_slot
	slotOwner := make(map[uint16]string)

	for _, h := range s.Hosts {
		if h.StatusSlot == nil {
			continue
		}

		// status requires a memory endpoint
		if s.StatusMemory.Endpoint == "" {
			return fmt.Errorf(
				"host %q: status_slot is set but status_memory.endpoint is empty",
				h.ID(),
			)
		}

		slot := *h.StatusSlot
		if slot > MaxStatusSlot {
			return fmt.Errorf("host %q: status_slot %d out of range (max %d)", h.ID(), slot, MaxStatusSlot)
		}
		if prev, exists := slotOwner[slot]; exists {
			return fmt.Errorf(
				"status_slot collision: endpoint=%s unit_id=%d slot=%d used by hosts %q and %q",
				s.StatusMemory.Endpoint,
				s.StatusMemory.UnitID,
				slot,
				prev,
				h.ID(),
			)
		}
		slotOwner[slot] = h.ID()
	}

	// ------------------------------------------------------------
	// MQTT (OPT-IN)
	// ------------------------------------------------------------

	if s.MQTT.Broker != "" {
		if _, err := url.Parse(s.MQTT.Broker); err != nil {
			return fmt.Errorf("mqtt.broker: %w", err)
		}
		if s.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", s.MQTT.QoS)
		}
	}

	return nil
}
