package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// TopicPrefix is prepended to the message kind to form MQTT topics.
const TopicPrefix = "audiotrigger/"

// Mirror republishes every telemetry message to an MQTT broker so the
// facility historian can record the same stream the TCP subscriber sees.
type Mirror struct {
	client paho.Client
}

// NewMirror connects to the given broker.
func NewMirror(broker string) (*Mirror, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("audiotriggerd").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connect to broker %s: timeout", broker)
	}

	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker %s: %w", broker, err)
	}

	return &Mirror{client: client}, nil
}

// Publish validates the message and sends it to audiotrigger/<kind>.
func (m *Mirror) Publish(msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Kind(), err)
	}

	// QoS 0 (at-most-once), not retained.
	token := m.client.Publish(TopicPrefix+msg.Kind(), 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", msg.Kind())
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Kind(), err)
	}

	return nil
}

// Connected reports whether the broker connection is up.
func (m *Mirror) Connected() bool {
	return m.client.IsConnected()
}

// Close disconnects from the broker.
func (m *Mirror) Close() error {
	m.client.Disconnect(1000) // 1 second timeout

	return nil
}
