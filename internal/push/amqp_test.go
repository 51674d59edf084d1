package push

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakePublisher struct {
	out []published
	err error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.out = append(f.out, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestAMQPNotifier_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	n := &AMQPNotifier{exchange: "app_topic", ch: pub}

	err := n.Notify(context.Background(), Notification{UserID: 7, Message: "hi", DeepLink: "https://app/likes"})
	require.NoError(t, err)
	require.Len(t, pub.out, 1)

	got := pub.out[0]
	assert.Equal(t, "app_topic", got.exchange)
	assert.Equal(t, RoutingKeyPush, got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)

	var env EventPayload
	require.NoError(t, json.Unmarshal(got.msg.Body, &env))
	assert.Equal(t, EventTypePush, env.EventType)

	var body Notification
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, Notification{UserID: 7, Message: "hi", DeepLink: "https://app/likes"}, body)
}

func TestAMQPNotifier_PublishError(t *testing.T) {
	n := &AMQPNotifier{exchange: "app_topic", ch: &fakePublisher{err: errors.New("channel closed")}}
	err := n.Notify(context.Background(), Notification{UserID: 1})
	assert.ErrorContains(t, err, "channel closed")
	assert.NoError(t, n.Close())
}
