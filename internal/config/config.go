// internal/config/config.go
package config

type Config struct {
	Sync SyncConfig `yaml:"sync"`
}

type SyncConfig struct {
	Management   ManagementConfig   `yaml:"management"`
	Poll         PollConfig         `yaml:"poll"`
	Hosts        []HostConfig       `yaml:"hosts"`
	StatusMemory StatusMemoryConfig `yaml:"status_memory"`
	MQTT         MQTTConfig         `yaml:"mqtt"`
	Console      ConsoleConfig      `yaml:"console"`

	// LockFile guards against two processes synchronizing the same hosts.
	LockFile string `yaml:"lock_file"`
}

// ---- MANAGEMENT API ----

type ManagementConfig struct {
	BaseURL   string `yaml:"base_url"` // e.g. http://broker:8080/api/latest
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- HOST ----

type HostConfig struct {
	Node string `yaml:"node"`
	Host string `yaml:"host"`

	// IntervalMs overrides poll.interval_ms for this host.
	IntervalMs int `yaml:"interval_ms"`

	// Status block export (optional, opt-in)
	StatusSlot *uint16 `yaml:"status_slot"`
}

// ID is the "node/host" label used in logs and topics.
func (h HostConfig) ID() string { return h.Node + "/" + h.Host }

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// ---- STATUS MEMORY (Modbus) ----

type StatusMemoryConfig struct {
	Endpoint  string `yaml:"endpoint"` // host:port; empty disables export
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker      string `yaml:"broker"` // tcp://host:1883; empty disables publishing
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
	Retained    bool   `yaml:"retained"`
}

// ---- CONSOLE ----

type ConsoleConfig struct {
	Enabled bool `yaml:"enabled"`

	// LogFile receives log output while the console owns the terminal.
	LogFile string `yaml:"log_file"`
}
