package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(complete bool, err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if complete {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} {
	return t.done
}

func (t *fakeToken) Error() error {
	return t.err
}

type fakeClient struct {
	paho_mqtt.Client

	publishToken   paho_mqtt.Token
	publishedTopic string
	publishedQos   byte
	published      any

	subscribeToken  paho_mqtt.Token
	subscribedTopic string
	handler         paho_mqtt.MessageHandler
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload any) paho_mqtt.Token {
	c.publishedTopic = topic
	c.publishedQos = qos
	c.published = payload
	return c.publishToken
}

func (c *fakeClient) Subscribe(topic string, qos byte, handler paho_mqtt.MessageHandler) paho_mqtt.Token {
	c.subscribedTopic = topic
	c.handler = handler
	return c.subscribeToken
}

type fakeMessage struct {
	paho_mqtt.Message

	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string {
	return m.topic
}

func (m *fakeMessage) Payload() []byte {
	return m.payload
}

func TestPublish_Success(t *testing.T) {
	client := &fakeClient{publishToken: newFakeToken(true, nil)}
	s := New(client, 1)

	err := s.Publish(context.Background(), "homie/devA/nodeA/tempA/set", "42")
	require.NoError(t, err)
	assert.Equal(t, "homie/devA/nodeA/tempA/set", client.publishedTopic)
	assert.Equal(t, byte(1), client.publishedQos)
	assert.Equal(t, "42", client.published)
}

func TestPublish_TokenError(t *testing.T) {
	errPublish := errors.New("broker rejected")
	client := &fakeClient{publishToken: newFakeToken(true, errPublish)}
	s := New(client, 1)

	err := s.Publish(context.Background(), "topic", "payload")
	assert.ErrorIs(t, err, errPublish)
}

func TestPublish_ContextExpires(t *testing.T) {
	client := &fakeClient{publishToken: newFakeToken(false, nil)}
	s := New(client, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*50)
	defer cancel()

	err := s.Publish(ctx, "topic", "payload")
	assert.ErrorIs(t, err, ErrPublishTimeout)
}

func TestSubscribe_DeliversMessages(t *testing.T) {
	client := &fakeClient{subscribeToken: newFakeToken(true, nil)}
	s := New(client, 1)

	var gotTopic string
	var gotPayload []byte
	err := s.Subscribe("+/+/#", func(topic string, payload []byte) {
		gotTopic = topic
		gotPayload = payload
	})
	require.NoError(t, err)
	assert.Equal(t, "+/+/#", client.subscribedTopic)

	client.handler(client, &fakeMessage{topic: "homie/devA/nodeA/tempA", payload: []byte("21.5")})
	assert.Equal(t, "homie/devA/nodeA/tempA", gotTopic)
	assert.Equal(t, []byte("21.5"), gotPayload)
}

func TestSubscribe_Timeout(t *testing.T) {
	client := &fakeClient{subscribeToken: newFakeToken(false, nil)}
	s := New(client, 1)

	err := s.Subscribe("+/+/#", func(string, []byte) {})
	assert.ErrorIs(t, err, ErrSubscribeTimeout)
}
