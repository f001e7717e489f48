package mqtt

import (
	"errors"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const connectTimeout = time.Second * 5

type service struct {
	client paho_mqtt.Client
	qos    byte
	logger *zap.Logger
}

func New(client paho_mqtt.Client, qos byte) *service {
	return &service{
		client: client,
		qos:    qos,
		logger: zap.L(),
	}
}

func (s *service) Connect() error {
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errors.New("unable to connect in time")
	}
	return token.Error()
}

func (s *service) Disconnect() {
	s.client.Disconnect(250)
}
