package mqttpub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescuegrid/firedispatch/core/notify"
	"github.com/rescuegrid/firedispatch/infra/logger"
)

type fakeToken struct{ err error }

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type fakeClient struct {
	published    map[string][][]byte
	publishErr   error
	disconnected bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{published: make(map[string][][]byte)}
}

func (c *fakeClient) IsConnected() bool { return !c.disconnected }
func (c *fakeClient) Disconnect(uint)   { c.disconnected = true }
func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	if c.publishErr != nil {
		return &fakeToken{err: c.publishErr}
	}
	c.published[topic] = append(c.published[topic], payload.([]byte))
	return &fakeToken{}
}

func TestToStationPublishesOnStationTopic(t *testing.T) {
	client := newFakeClient()
	pub := &Publisher{client: client, log: logger.NopLogger{}}

	ev := notify.Event{Type: notify.EventIncidentDispatched, AlarmID: "alarm-1", StationID: "st1"}
	require.NoError(t, pub.ToStation(context.Background(), "st1", ev))

	msgs := client.published["firedispatch/stations/st1/incidents"]
	require.Len(t, msgs, 1)
	var got notify.Event
	require.NoError(t, json.Unmarshal(msgs[0], &got))
	assert.Equal(t, "alarm-1", got.AlarmID)
}

func TestBroadcastPublishesOnSharedTopic(t *testing.T) {
	client := newFakeClient()
	pub := &Publisher{client: client, log: logger.NopLogger{}}

	require.NoError(t, pub.Broadcast(context.Background(), notify.Event{Type: notify.EventIncidentCreated}))
	assert.Len(t, client.published[BroadcastTopic], 1)
}

func TestPublishErrorPropagates(t *testing.T) {
	client := newFakeClient()
	client.publishErr = errors.New("broker gone")
	pub := &Publisher{client: client, log: logger.NopLogger{}}

	err := pub.Broadcast(context.Background(), notify.Event{Type: notify.EventIncidentCreated})
	assert.Error(t, err)
}

func TestCloseDisconnects(t *testing.T) {
	client := newFakeClient()
	pub := &Publisher{client: client, log: logger.NopLogger{}}

	require.NoError(t, pub.Close())
	assert.True(t, client.disconnected)
	// second close is a no-op
	require.NoError(t, pub.Close())
}
