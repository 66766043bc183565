// Package mqttpub publishes notification events to an MQTT broker for radio
// consoles and other machine subscribers.
package mqttpub

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/rescuegrid/firedispatch/core/notify"
	"github.com/rescuegrid/firedispatch/infra/logger"
)

// BroadcastTopic carries every published event.
const BroadcastTopic = "firedispatch/incidents"

// StationTopic names the per-station event topic.
func StationTopic(stationID string) string {
	return "firedispatch/stations/" + stationID + "/incidents"
}

// pahoClient is the subset of the paho client the publisher needs; tests
// substitute a fake.
type pahoClient interface {
	IsConnected() bool
	Disconnect(uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher implements notify.Notifier over MQTT. Events are published at QoS
// 1 so a briefly offline console catches up via the broker.
type Publisher struct {
	client pahoClient
	log    logger.Logger
}

// NewPublisher connects to the broker and returns a Publisher.
func NewPublisher(broker, clientID string, tlsConfig *tls.Config) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetTLSConfig(tlsConfig).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Publisher{client: client, log: logger.New("mqtt-notifier")}, nil
}

func (p *Publisher) publish(topic string, ev notify.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	token := p.client.Publish(topic, 1, false, payload)
	token.Wait()
	return token.Error()
}

// Broadcast publishes the event on the shared incident topic.
func (p *Publisher) Broadcast(_ context.Context, ev notify.Event) error {
	return p.publish(BroadcastTopic, ev)
}

// ToStation publishes the event on the station's own topic.
func (p *Publisher) ToStation(_ context.Context, stationID string, ev notify.Event) error {
	return p.publish(StationTopic(stationID), ev)
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
	return nil
}
