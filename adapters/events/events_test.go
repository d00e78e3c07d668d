package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subscribe(t *testing.T, pubSub *gochannel.GoChannel, topic string) <-chan *message.Message {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	messages, err := pubSub.Subscribe(ctx, topic)
	require.NoError(t, err)
	return messages
}

func receive(t *testing.T, messages <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-messages:
		msg.Ack()
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestWatermillPublisher(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	logins := subscribe(t, pubSub, LoginTopic)
	logouts := subscribe(t, pubSub, LogoutTopic)

	p := NewWatermillPublisher(pubSub).(*WatermillPublisher)
	p.now = func() time.Time { return time.Unix(1000, 0) }

	require.NoError(t, p.PublishLogin(context.Background(), "alice", "active", "aca376f2"))
	var event SessionEvent
	require.NoError(t, json.Unmarshal(receive(t, logins).Payload, &event))
	assert.Equal(t, SessionEvent{AccountName: "alice", Permission: "active", ChainID: "aca376f2", At: 1000}, event)

	require.NoError(t, p.PublishLogout(context.Background(), "alice", "aca376f2"))
	event = SessionEvent{}
	require.NoError(t, json.Unmarshal(receive(t, logouts).Payload, &event))
	assert.Equal(t, SessionEvent{AccountName: "alice", ChainID: "aca376f2", At: 1000}, event)
}

func TestSignRequestDelegate(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	requests := subscribe(t, pubSub, DefaultSignTopic)
	sign := SignRequestDelegate(pubSub, "")

	id, err := sign(context.Background(), json.RawMessage(`{"actions":[]}`))
	require.NoError(t, err)

	msg := receive(t, requests)
	assert.Equal(t, id, msg.UUID)

	var req SignRequest
	require.NoError(t, json.Unmarshal(msg.Payload, &req))
	assert.Equal(t, id, req.RequestID)
	assert.JSONEq(t, `{"actions":[]}`, string(req.Transaction))

	_, err = sign(context.Background(), map[string]any{"expiration": "2026-10-17T00:00:00"})
	require.NoError(t, err)
	req = SignRequest{}
	require.NoError(t, json.Unmarshal(receive(t, requests).Payload, &req))
	assert.JSONEq(t, `{"expiration":"2026-10-17T00:00:00"}`, string(req.Transaction))
}

type failingPublisher struct{}

func (failingPublisher) Publish(topic string, messages ...*message.Message) error {
	return errors.New("closed")
}

func (failingPublisher) Close() error { return nil }

func TestSignRequestDelegatePublishError(t *testing.T) {
	sign := SignRequestDelegate(failingPublisher{}, "custom")

	_, err := sign(context.Background(), "tx")
	assert.ErrorContains(t, err, "failed to publish sign request")
}

func TestUnavailableSignDelegate(t *testing.T) {
	sign := UnavailableSignDelegate("REDIS_URL is not set")

	id, err := sign(context.Background(), json.RawMessage(`{"actions":[]}`))
	assert.Nil(t, id)
	require.ErrorIs(t, err, ErrNoSigner)
	assert.ErrorContains(t, err, "REDIS_URL is not set")
}
