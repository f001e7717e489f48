package publisher

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/tim-hellhake/homie-adapter/internal/pkg/model"
)

var errAlreadyRegistered = errors.New("publisher already registered")

var (
	mu                   sync.RWMutex
	registeredPublishers = make(map[string]publisher)
)

type publisher interface {
	// RegisterDevice announces a device the first time it is seen.
	RegisterDevice(ctx context.Context, device model.Device) error
	// RegisterProperty announces a newly discovered property of a device.
	RegisterProperty(ctx context.Context, deviceID string, desc model.PropertyDescriptor) error
	// PublishValue delivers a decoded property value.
	PublishValue(ctx context.Context, update model.ValueUpdate) error
}

func RegisterPublisher(name string, p publisher) error {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := registeredPublishers[name]; ok {
		return errAlreadyRegistered
	}
	registeredPublishers[name] = p
	return nil
}

// UnregisterPublisher removes a backend again. Used by tests.
func UnregisterPublisher(name string) {
	mu.Lock()
	defer mu.Unlock()
	delete(registeredPublishers, name)
}

// RegisterDevice fans a device announcement out to every backend. Backend
// failures are logged and skipped so one broken backend cannot stall the
// message stream.
func RegisterDevice(ctx context.Context, device model.Device) {
	for name, p := range snapshot() {
		if err := p.RegisterDevice(ctx, device); err != nil {
			zap.L().Error("failed to register device", zap.Error(err), zap.String("publisher", name), zap.String("device", device.ID))
			continue
		}
		zap.L().Debug("registered device", zap.String("device", device.ID), zap.String("publisher", name))
	}
}

func RegisterProperty(ctx context.Context, deviceID string, desc model.PropertyDescriptor) {
	for name, p := range snapshot() {
		if err := p.RegisterProperty(ctx, deviceID, desc); err != nil {
			zap.L().Error("failed to register property", zap.Error(err), zap.String("publisher", name), zap.String("device", deviceID), zap.String("property", desc.Name))
			continue
		}
		zap.L().Debug("registered property", zap.String("device", deviceID), zap.String("property", desc.Name), zap.String("publisher", name))
	}
}

func PublishValue(ctx context.Context, update model.ValueUpdate) {
	for name, p := range snapshot() {
		if err := p.PublishValue(ctx, update); err != nil {
			zap.L().Error("failed to publish value", zap.Error(err), zap.String("publisher", name), zap.String("device", update.DeviceID), zap.String("property", update.Property))
			continue
		}
	}
}

func snapshot() map[string]publisher {
	mu.RLock()
	defer mu.RUnlock()
	out := make(map[string]publisher, len(registeredPublishers))
	for name, p := range registeredPublishers {
		out[name] = p
	}
	return out
}
