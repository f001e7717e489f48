package homie

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/tim-hellhake/homie-adapter/internal/pkg/contxt"
	"github.com/tim-hellhake/homie-adapter/internal/pkg/model"
	"github.com/tim-hellhake/homie-adapter/internal/pkg/publisher"
)

// publishFunc publishes one payload to an absolute topic and waits for
// the broker acknowledgment.
type publishFunc func(ctx context.Context, topic, payload string) error

// Device owns the properties discovered under one deviceId. Devices are
// created on first sight and live for the process lifetime; Homie has no
// device-removed message.
type Device struct {
	mu         sync.Mutex
	id         string
	properties map[string]*Property
	publish    publishFunc
	logger     *zap.Logger
}

func newDevice(id string, publish publishFunc) *Device {
	return &Device{
		id:         id,
		properties: make(map[string]*Property),
		publish:    publish,
		logger:     zap.L(),
	}
}

// ID returns the broker-scoped device identifier.
func (d *Device) ID() string {
	return d.id
}

// Update routes one inbound message below deviceId level: node-level
// metadata and write echoes are dropped, everything else reaches the
// addressed property, creating it on first sight.
func (d *Device) Update(t Topic, payload string) {
	if t.NodeID == "" {
		d.logger.Warn("no node part in topic, dropping message",
			zap.String("device", d.id),
			zap.String("property_part", t.PropertyID))
		return
	}
	// Node-level $-attributes are not modeled.
	if t.PropertyID == "" || strings.HasPrefix(t.PropertyID, "$") {
		return
	}
	// Echo of a write we published ourselves.
	if t.IsSetEcho() {
		return
	}

	name := t.NodeID + "-" + t.PropertyID

	d.mu.Lock()
	property, exists := d.properties[name]
	if !exists {
		d.logger.Info("adding property to device",
			zap.String("device", d.id),
			zap.String("property", name))
		setTopic := t.SetTopic()
		property = newProperty(d.id, name, func(ctx context.Context, payload string) error {
			return d.publish(ctx, setTopic, payload)
		})
		d.properties[name] = property
	}
	d.mu.Unlock()

	if !exists {
		publisher.RegisterProperty(contxt.NewContext(announceTimeout), d.id, property.Descriptor())
	}

	if t.IsMetadata() {
		property.ApplyMetadata(t.Suffix, payload)
		return
	}
	property.HandleValue(payload)
}

// Property looks up a property by its nodeId-propertyId key.
func (d *Device) Property(name string) (*Property, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	property, ok := d.properties[name]
	return property, ok
}

// State snapshots every property's descriptor and cached value, sorted
// by property name.
func (d *Device) State() []model.PropertyState {
	d.mu.Lock()
	properties := lo.Values(d.properties)
	d.mu.Unlock()

	states := lo.Map(properties, func(p *Property, _ int) model.PropertyState {
		state := model.PropertyState{PropertyDescriptor: p.Descriptor()}
		if value, ok := p.Value(); ok {
			state.Value = value
		}
		return state
	})
	sort.Slice(states, func(i, j int) bool {
		return states[i].Name < states[j].Name
	})
	return states
}
