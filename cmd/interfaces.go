package cmd

import (
	"context"

	"github.com/tim-hellhake/homie-adapter/internal/pkg/mqtt"
)

// mqttService defines the interface that cmd.run expects from the broker
// client wrapper.
type mqttService interface {
	Connect() error
	Disconnect()
	Subscribe(filter string, handler mqtt.MessageHandler) error
	Publish(ctx context.Context, topic, payload string) error
}
