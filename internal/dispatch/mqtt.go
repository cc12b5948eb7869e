package dispatch

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// publisher abstracts the broker connection; injectable for tests.
type publisher interface {
	Publish(topic string, payload []byte) error
	Connected() bool
	Close()
}

// mqttPublisher publishes over a paho MQTT connection.
type mqttPublisher struct {
	client mqtt.Client
	qos    byte
}

// mqttSettings carries broker connection parameters.
type mqttSettings struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// newMQTTPublisher connects to the broker. Connection failures are
// returned to the caller; the module treats them as "notifier
// unavailable" rather than fatal.
func newMQTTPublisher(s mqttSettings) (*mqttPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.Broker)
	opts.SetClientID(s.ClientID)
	if s.Username != "" {
		opts.SetUsername(s.Username)
	}
	if s.Password != "" {
		opts.SetPassword(s.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", s.Broker, token.Error())
	}
	return &mqttPublisher{client: client, qos: s.QoS}, nil
}

func (p *mqttPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("publish %s: %w", topic, token.Error())
	}
	return nil
}

func (p *mqttPublisher) Connected() bool { return p.client.IsConnected() }

func (p *mqttPublisher) Close() { p.client.Disconnect(250) }
