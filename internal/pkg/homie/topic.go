package homie

import "strings"

// SetSuffix is the final topic segment of a host-initiated write.
const SetSuffix = "set"

// SubscriptionFilter matches every topic the adapter consumes: base and
// deviceId as single-level wildcards, the rest multi-level.
const SubscriptionFilter = "+/+/#"

// Topic holds the structural parts of a Homie topic. Absent segments are
// empty strings; callers validate the fields they require.
type Topic struct {
	Base       string
	DeviceID   string
	NodeID     string
	PropertyID string
	// Suffix is empty for a value message, a $-prefixed key for a
	// metadata message, or "set" for a write echo.
	Suffix string
}

// ParseTopic splits a topic into its parts. It is total: any input yields
// a Topic, malformed ones simply leave fields empty. Segments past the
// suffix are ignored.
func ParseTopic(topic string) Topic {
	parts := strings.Split(topic, "/")
	t := Topic{}
	if len(parts) > 0 {
		t.Base = parts[0]
	}
	if len(parts) > 1 {
		t.DeviceID = parts[1]
	}
	if len(parts) > 2 {
		t.NodeID = parts[2]
	}
	if len(parts) > 3 {
		t.PropertyID = parts[3]
	}
	if len(parts) > 4 {
		t.Suffix = parts[4]
	}
	return t
}

// IsMetadata reports whether the suffix is a $-prefixed attribute key.
func (t Topic) IsMetadata() bool {
	return strings.HasPrefix(t.Suffix, "$")
}

// IsSetEcho reports whether this is the echo of a write we published.
// The read path ignores these.
func (t Topic) IsSetEcho() bool {
	return t.Suffix == SetSuffix
}

// SetTopic returns the topic a write for this property publishes to.
func (t Topic) SetTopic() string {
	return strings.Join([]string{t.Base, t.DeviceID, t.NodeID, t.PropertyID, SetSuffix}, "/")
}
