// internal/emitter/emitter.go
package emitter

import (
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	jsoniter "github.com/json-iterator/go"

	cfg "github.com/tamzrod/vhostsync/internal/config"
	"github.com/tamzrod/vhostsync/internal/mgmt"
	"github.com/tamzrod/vhostsync/internal/poller"
	"github.com/tamzrod/vhostsync/internal/rates"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotConnected is returned while the broker link is down.
var ErrNotConnected = errors.New("emitter: mqtt not connected")

const publishTimeout = 2 * time.Second

// publisher is the subset of mqtt.Client the emitter uses.
type publisher interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Emitter publishes one rate report per successful poll cycle.
type Emitter struct {
	prefix   string
	qos      byte
	retained bool
	cli      publisher

	mu        sync.Mutex
	published uint64
	failed    uint64
}

// Report is the JSON payload of one cycle.
type Report struct {
	Node        string                `json:"node"`
	Host        string                `json:"host"`
	At          time.Time             `json:"at"`
	State       string                `json:"state"`
	Missing     bool                  `json:"missing,omitempty"`
	Rates       RateFields            `json:"rates"`
	Connections map[string]RateFields `json:"connections,omitempty"`
}

// RateFields holds per-second rates; nil means not yet defined.
type RateFields struct {
	MessagesIn  *float64 `json:"msgIn"`
	BytesIn     *float64 `json:"bytesIn"`
	MessagesOut *float64 `json:"msgOut"`
	BytesOut    *float64 `json:"bytesOut"`
}

// Connect dials the broker described by the mqtt section.
func Connect(mc cfg.MQTTConfig) (*Emitter, func() error, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(mc.Broker)
	opts.SetClientID(mc.ClientID)
	if mc.Username != "" {
		opts.SetUsername(mc.Username)
		opts.SetPassword(mc.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return nil, nil, fmt.Errorf("emitter: connect to %s timed out", mc.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, nil, fmt.Errorf("emitter: connect to %s: %w", mc.Broker, err)
	}

	e := New(c, mc)
	return e, func() error { c.Disconnect(250); return nil }, nil
}

// New wraps an already-connected client.
func New(cli publisher, mc cfg.MQTTConfig) *Emitter {
	return &Emitter{
		prefix:   mc.TopicPrefix,
		qos:      mc.QoS,
		retained: mc.Retained,
		cli:      cli,
	}
}

// Topic returns the rates topic of one host.
func (e *Emitter) Topic(ref mgmt.Ref) string {
	return fmt.Sprintf("%s/%s/%s/rates", e.prefix, ref.Node, ref.Host)
}

// Emit publishes the report of a successful cycle. Failed cycles are ignored.
func (e *Emitter) Emit(res poller.PollResult) error {
	if res.Err != nil {
		return nil
	}
	if !e.cli.IsConnectionOpen() {
		e.fail()
		return ErrNotConnected
	}

	payload, err := json.Marshal(NewReport(res))
	if err != nil {
		e.fail()
		return fmt.Errorf("emitter: marshal report: %w", err)
	}

	token := e.cli.Publish(e.Topic(res.Ref), e.qos, e.retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		e.fail()
		return fmt.Errorf("emitter: publish to %s timed out", e.Topic(res.Ref))
	}
	if err := token.Error(); err != nil {
		e.fail()
		return fmt.Errorf("emitter: publish to %s: %w", e.Topic(res.Ref), err)
	}

	e.mu.Lock()
	e.published++
	e.mu.Unlock()
	return nil
}

// Stats returns published and failed counts.
func (e *Emitter) Stats() (published, failed uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.published, e.failed
}

func (e *Emitter) fail() {
	e.mu.Lock()
	e.failed++
	e.mu.Unlock()
}

// NewReport converts a poll result into its wire payload.
func NewReport(res poller.PollResult) Report {
	r := Report{
		Node:    res.Ref.Node,
		Host:    res.Ref.Host,
		At:      res.At.UTC(),
		State:   string(res.Snapshot.State),
		Missing: res.Snapshot.Missing,
		Rates:   fields(res.Rates.Host),
	}
	if len(res.Rates.Connections) > 0 {
		r.Connections = make(map[string]RateFields, len(res.Rates.Connections))
		for id, s := range res.Rates.Connections {
			r.Connections[id] = fields(s)
		}
	}
	return r
}

func fields(s rates.Set) RateFields {
	return RateFields{
		MessagesIn:  value(s.MessagesIn),
		BytesIn:     value(s.BytesIn),
		MessagesOut: value(s.MessagesOut),
		BytesOut:    value(s.BytesOut),
	}
}

func value(r rates.Rate) *float64 {
	if !r.Defined {
		return nil
	}
	v := r.Value
	return &v
}
