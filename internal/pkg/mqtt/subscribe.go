package mqtt

import (
	"context"
	"errors"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const subscribeTimeout = time.Second * 5

var (
	ErrSubscribeTimeout = errors.New("subscribe not acknowledged in time")
	ErrPublishTimeout   = errors.New("publish not acknowledged in time")
)

// MessageHandler receives every message delivered on a subscription.
type MessageHandler func(topic string, payload []byte)

// Subscribe registers handler for every message matching filter. Paho
// invokes handlers one message at a time, preserving arrival order.
func (s *service) Subscribe(filter string, handler MessageHandler) error {
	token := s.client.Subscribe(filter, s.qos, func(_ paho_mqtt.Client, msg paho_mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(subscribeTimeout) {
		return ErrSubscribeTimeout
	}
	if err := token.Error(); err != nil {
		return err
	}
	s.logger.Info("subscribed", zap.String("filter", filter))
	return nil
}

// Publish sends payload to topic and waits until the broker acknowledges
// it or ctx expires.
func (s *service) Publish(ctx context.Context, topic, payload string) error {
	token := s.client.Publish(topic, s.qos, false, payload)

	done := make(chan struct{})
	go func() {
		token.Wait()
		close(done)
	}()

	select {
	case <-done:
		return token.Error()
	case <-ctx.Done():
		return errors.Join(ErrPublishTimeout, ctx.Err())
	}
}
