package homie

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tim-hellhake/homie-adapter/internal/pkg/contxt"
	"github.com/tim-hellhake/homie-adapter/internal/pkg/model"
	"github.com/tim-hellhake/homie-adapter/internal/pkg/publisher"
)

// ErrNotWritable is returned by SetValue for properties that never
// declared $settable=true.
var ErrNotWritable = errors.New("property is not writable")

const announceTimeout = time.Second * 5

// setFunc publishes a wire-form value to the property's set topic and
// blocks until the broker acknowledges it.
type setFunc func(ctx context.Context, payload string) error

// Property accumulates the metadata and last value of one Homie property.
// Attributes arrive as independent $-messages in any order; each message
// overwrites its attribute, last write wins.
type Property struct {
	mu       sync.RWMutex
	deviceID string
	name     string

	title      string
	datatype   model.Datatype
	typed      bool
	writable   bool
	unit       string
	valueRange *model.Range
	category   model.SemanticCategory

	value    any
	hasValue bool

	set    setFunc
	logger *zap.Logger
}

func newProperty(deviceID, name string, set setFunc) *Property {
	return &Property{
		deviceID: deviceID,
		name:     name,
		datatype: model.DatatypeString,
		set:      set,
		logger:   zap.L(),
	}
}

// Name returns the nodeId-propertyId key of this property.
func (p *Property) Name() string {
	return p.name
}

// ApplyMetadata merges one $-attribute message into the property. Keys
// outside the recognized vocabulary are ignored. Malformed payloads are
// logged and leave the current state untouched.
func (p *Property) ApplyMetadata(key, payload string) {
	p.logger.Debug("updating property attribute",
		zap.String("device", p.deviceID),
		zap.String("property", p.name),
		zap.String("key", key))

	p.mu.Lock()
	defer p.mu.Unlock()

	switch key {
	case "$name":
		p.title = payload
	case "$datatype":
		datatype, ok := model.ParseDatatype(payload)
		if !ok {
			p.logger.Warn("unrecognized datatype, falling back to string",
				zap.String("device", p.deviceID),
				zap.String("property", p.name),
				zap.String("datatype", payload))
		}
		p.datatype = datatype
		p.typed = true
	case "$settable":
		p.writable = payload == "true"
	case "$unit":
		p.unit = payload
		category, ok := model.UnitCategories[payload]
		if !ok {
			p.logger.Debug("no semantic category for unit",
				zap.String("device", p.deviceID),
				zap.String("property", p.name),
				zap.String("unit", payload))
			return
		}
		p.category = category
	case "$format":
		valueRange, err := parseRange(payload)
		if err != nil {
			p.logger.Warn("unable to parse format",
				zap.String("device", p.deviceID),
				zap.String("property", p.name),
				zap.String("format", payload),
				zap.Error(err))
			return
		}
		p.valueRange = valueRange
		p.category = model.CategoryLevel
	}
}

// parseRange parses a min:max format payload into a numeric range.
func parseRange(payload string) (*model.Range, error) {
	minPart, maxPart, found := strings.Cut(payload, ":")
	if !found {
		return nil, fmt.Errorf("format %q is not min:max", payload)
	}
	minValue, err := strconv.ParseInt(minPart, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("format minimum: %w", err)
	}
	maxValue, err := strconv.ParseInt(maxPart, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("format maximum: %w", err)
	}
	return &model.Range{Min: minValue, Max: maxValue}, nil
}

// HandleValue decodes a raw value payload according to the current
// datatype, caches it and notifies the host publishers. Decoding never
// fails; unparseable numeric payloads yield NaN.
func (p *Property) HandleValue(payload string) {
	p.mu.Lock()
	value := p.decode(payload)
	p.value = value
	p.hasValue = true
	unit := p.unit
	p.mu.Unlock()

	publisher.PublishValue(contxt.NewContext(announceTimeout), model.ValueUpdate{
		DeviceID:  p.deviceID,
		Property:  p.name,
		Value:     value,
		Unit:      unit,
		Timestamp: time.Now(),
	})
}

// decode casts a wire payload to the property's datatype. Callers hold
// the lock. A payload arriving before any $datatype message is decoded as
// a string; the cached result is never re-decoded once the type becomes
// known.
func (p *Property) decode(payload string) any {
	if !p.typed {
		p.logger.Warn("value received before $datatype, decoding as string",
			zap.String("device", p.deviceID),
			zap.String("property", p.name))
		return payload
	}
	return p.decodeTyped(payload)
}

// decodeTyped casts a wire payload to the declared datatype. Callers
// hold the lock and have already checked that a $datatype arrived.
func (p *Property) decodeTyped(payload string) any {
	if p.datatype.IsNumeric() {
		return p.decodeNumber(payload)
	}

	switch p.datatype {
	case model.DatatypeBoolean:
		return payload == "true"
	case model.DatatypeString, model.DatatypeEnum, model.DatatypeColor:
		return payload
	}

	p.logger.Warn("unknown datatype, passing payload through",
		zap.String("device", p.deviceID),
		zap.String("property", p.name),
		zap.String("datatype", p.datatype.String()))
	return payload
}

func (p *Property) decodeNumber(payload string) any {
	if p.datatype == model.DatatypeInteger {
		value, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return math.NaN()
		}
		return value
	}
	value, err := strconv.ParseFloat(payload, 64)
	if err != nil {
		return math.NaN()
	}
	return value
}

// SetValue serializes value, publishes it to the property's set topic and
// waits for the broker acknowledgment. The cached value only advances
// after a successful publish; the device's own echo of the write is not
// relied upon.
func (p *Property) SetValue(ctx context.Context, value any) error {
	p.mu.RLock()
	writable := p.writable
	set := p.set
	p.mu.RUnlock()

	if !writable {
		return ErrNotWritable
	}

	payload := encodeValue(value)
	if err := set(ctx, payload); err != nil {
		return fmt.Errorf("publish to set topic: %w", err)
	}

	p.mu.Lock()
	// A host write may land before any $datatype arrived; the wire form
	// is already a string, so cache it as-is without the read-path warn.
	decoded := any(payload)
	if p.typed {
		decoded = p.decodeTyped(payload)
	}
	p.value = decoded
	p.hasValue = true
	unit := p.unit
	p.mu.Unlock()

	publisher.PublishValue(contxt.NewContext(announceTimeout), model.ValueUpdate{
		DeviceID:  p.deviceID,
		Property:  p.name,
		Value:     decoded,
		Unit:      unit,
		Timestamp: time.Now(),
	})
	return nil
}

// encodeValue turns a typed value into its Homie wire form.
func encodeValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Descriptor returns the capability surface announced to the host.
func (p *Property) Descriptor() model.PropertyDescriptor {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var valueRange *model.Range
	if p.valueRange != nil {
		r := *p.valueRange
		valueRange = &r
	}

	return model.PropertyDescriptor{
		Name:     p.name,
		Title:    p.title,
		Datatype: p.datatype,
		Writable: p.writable,
		Unit:     p.unit,
		Range:    valueRange,
		Category: p.category,
	}
}

// Value returns the last decoded payload, if any arrived yet.
func (p *Property) Value() (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value, p.hasValue
}
