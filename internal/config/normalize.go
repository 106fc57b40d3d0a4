// internal/config/normalize.go
package config

import "strings"

const (
	DefaultTimeoutMs    = 5000
	DefaultIntervalMs   = 5000
	DefaultTopicPrefix  = "vhostsync"
	DefaultMQTTClientID = "vhostsync"
	DefaultLockFile     = "vhostsync.lock"
	DefaultConsoleLog   = "vhostsync.log"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	s := &cfg.Sync

	s.Management.BaseURL = strings.TrimRight(s.Management.BaseURL, "/")
	if s.Management.TimeoutMs == 0 {
		s.Management.TimeoutMs = DefaultTimeoutMs
	}

	if s.Poll.IntervalMs == 0 {
		s.Poll.IntervalMs = DefaultIntervalMs
	}

	if s.StatusMemory.TimeoutMs == 0 {
		s.StatusMemory.TimeoutMs = DefaultTimeoutMs
	}

	if s.LockFile == "" {
		s.LockFile = DefaultLockFile
	}

	if s.Console.Enabled && s.Console.LogFile == "" {
		s.Console.LogFile = DefaultConsoleLog
	}

	if s.MQTT.Broker != "" {
		if s.MQTT.ClientID == "" {
			s.MQTT.ClientID = DefaultMQTTClientID
		}
		s.MQTT.TopicPrefix = strings.Trim(s.MQTT.TopicPrefix, "/")
		if s.MQTT.TopicPrefix == "" {
			s.MQTT.TopicPrefix = DefaultTopicPrefix
		}
	}
}
