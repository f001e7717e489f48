package model

import "time"

// Device identifies a Homie device observed on the broker.
type Device struct {
	ID string `json:"id"`
}

// PropertyDescriptor is the capability surface announced to the host for
// one property. Unset optional attributes stay at their zero value.
type PropertyDescriptor struct {
	// Name is the nodeId-propertyId key, unique within the device.
	Name     string           `json:"name"`
	Title    string           `json:"title,omitempty"`
	Datatype Datatype         `json:"datatype"`
	Writable bool             `json:"writable"`
	Unit     string           `json:"unit,omitempty"`
	Range    *Range           `json:"range,omitempty"`
	Category SemanticCategory `json:"category,omitempty"`
}

// PropertyState pairs a property's descriptor with its cached value for
// host-facing snapshots.
type PropertyState struct {
	PropertyDescriptor
	Value any `json:"value,omitempty"`
}

// ValueUpdate is one decoded property value on its way to the host.
type ValueUpdate struct {
	DeviceID  string    `json:"device_id"`
	Property  string    `json:"property"`
	Value     any       `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
