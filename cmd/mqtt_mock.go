package cmd

import (
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MockMqttClient is a hand-rolled paho client mock for cmd tests.
type MockMqttClient struct {
	ConnectFunc    func() paho_mqtt.Token
	DisconnectFunc func(quiesce uint)
	PublishFunc    func(topic string, qos byte, retained bool, payload any) paho_mqtt.Token
	SubscribeFunc  func(topic string, qos byte, callback paho_mqtt.MessageHandler) paho_mqtt.Token
}

func (m *MockMqttClient) IsConnected() bool {
	return true
}

func (m *MockMqttClient) IsConnectionOpen() bool {
	return true
}

func (m *MockMqttClient) Connect() paho_mqtt.Token {
	if m.ConnectFunc != nil {
		return m.ConnectFunc()
	}
	return &MockToken{Complete: true}
}

func (m *MockMqttClient) Disconnect(quiesce uint) {
	if m.DisconnectFunc != nil {
		m.DisconnectFunc(quiesce)
	}
}

func (m *MockMqttClient) Publish(topic string, qos byte, retained bool, payload any) paho_mqtt.Token {
	if m.PublishFunc != nil {
		return m.PublishFunc(topic, qos, retained, payload)
	}
	return &MockToken{Complete: true}
}

func (m *MockMqttClient) Subscribe(topic string, qos byte, callback paho_mqtt.MessageHandler) paho_mqtt.Token {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(topic, qos, callback)
	}
	return &MockToken{Complete: true}
}

func (m *MockMqttClient) SubscribeMultiple(filters map[string]byte, callback paho_mqtt.MessageHandler) paho_mqtt.Token {
	return &MockToken{Complete: true}
}

func (m *MockMqttClient) Unsubscribe(topics ...string) paho_mqtt.Token {
	return &MockToken{Complete: true}
}

func (m *MockMqttClient) AddRoute(topic string, callback paho_mqtt.MessageHandler) {
}

func (m *MockMqttClient) OptionsReader() paho_mqtt.ClientOptionsReader {
	return paho_mqtt.ClientOptionsReader{}
}

// MockToken is a paho token that completes (or not) immediately.
type MockToken struct {
	Complete bool
	Err      error
}

func (t *MockToken) Wait() bool {
	return t.Complete
}

func (t *MockToken) WaitTimeout(_ time.Duration) bool {
	return t.Complete
}

func (t *MockToken) Done() <-chan struct{} {
	done := make(chan struct{})
	if t.Complete {
		close(done)
	}
	return done
}

func (t *MockToken) Error() error {
	return t.Err
}
