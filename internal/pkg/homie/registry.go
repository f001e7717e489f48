package homie

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/tim-hellhake/homie-adapter/internal/pkg/contxt"
	"github.com/tim-hellhake/homie-adapter/internal/pkg/model"
	"github.com/tim-hellhake/homie-adapter/internal/pkg/publisher"
)

var (
	ErrUnknownDevice   = errors.New("unknown device")
	ErrUnknownProperty = errors.New("unknown property")
)

// transport is the slice of the broker client the registry needs for the
// write path.
type transport interface {
	Publish(ctx context.Context, topic, payload string) error
}

// Registry owns every device observed on the subscription and is the
// entry point for the inbound message stream. Lookup-or-create is atomic
// so paho handler goroutines and host-initiated writes can race safely.
type Registry struct {
	mu        sync.RWMutex
	devices   map[string]*Device
	transport transport
	logger    *zap.Logger
}

func NewRegistry(transport transport) *Registry {
	return &Registry{
		devices:   make(map[string]*Device),
		transport: transport,
		logger:    zap.L(),
	}
}

// HandleMessage dispatches one inbound (topic, payload) pair from the
// +/+/# subscription. Malformed topics are logged and dropped; the stream
// never stalls on a bad message.
func (r *Registry) HandleMessage(topic string, payload []byte) {
	t := ParseTopic(topic)
	if t.DeviceID == "" {
		r.logger.Warn("no device part found in topic, dropping message", zap.String("topic", topic))
		return
	}
	// A message is only actionable with a node segment; dropping here
	// keeps unattributable messages from creating half-empty devices.
	if t.NodeID == "" {
		r.logger.Warn("no node part found in topic, dropping message", zap.String("topic", topic))
		return
	}

	device, created := r.getOrCreate(t.DeviceID)
	if created {
		r.logger.Info("creating new device", zap.String("device", t.DeviceID))
		publisher.RegisterDevice(contxt.NewContext(announceTimeout), model.Device{ID: t.DeviceID})
	}

	device.Update(t, string(payload))
}

func (r *Registry) getOrCreate(id string) (*Device, bool) {
	r.mu.RLock()
	device, ok := r.devices[id]
	r.mu.RUnlock()
	if ok {
		return device, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if device, ok := r.devices[id]; ok {
		return device, false
	}
	device = newDevice(id, r.transport.Publish)
	r.devices[id] = device
	return device, true
}

// Device looks up a device by its identifier.
func (r *Registry) Device(id string) (*Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	device, ok := r.devices[id]
	return device, ok
}

// Devices lists every known device, sorted by identifier.
func (r *Registry) Devices() []model.Device {
	r.mu.RLock()
	ids := lo.Keys(r.devices)
	r.mu.RUnlock()

	sort.Strings(ids)
	return lo.Map(ids, func(id string, _ int) model.Device {
		return model.Device{ID: id}
	})
}

// Properties snapshots the property state of one device.
func (r *Registry) Properties(deviceID string) ([]model.PropertyState, error) {
	device, ok := r.Device(deviceID)
	if !ok {
		return nil, ErrUnknownDevice
	}
	return device.State(), nil
}

// SetValue performs a host-initiated write on one property. It blocks
// until the broker acknowledged the set message or ctx expires.
func (r *Registry) SetValue(ctx context.Context, deviceID, property string, value any) error {
	device, ok := r.Device(deviceID)
	if !ok {
		return ErrUnknownDevice
	}
	p, ok := device.Property(property)
	if !ok {
		return ErrUnknownProperty
	}
	return p.SetValue(ctx, value)
}
