package homie

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTopic(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		want  Topic
	}{
		{
			name:  "value topic",
			topic: "homie/devA/nodeA/tempA",
			want:  Topic{Base: "homie", DeviceID: "devA", NodeID: "nodeA", PropertyID: "tempA"},
		},
		{
			name:  "metadata topic",
			topic: "homie/devA/nodeA/tempA/$datatype",
			want:  Topic{Base: "homie", DeviceID: "devA", NodeID: "nodeA", PropertyID: "tempA", Suffix: "$datatype"},
		},
		{
			name:  "set topic",
			topic: "homie/devA/nodeA/tempA/set",
			want:  Topic{Base: "homie", DeviceID: "devA", NodeID: "nodeA", PropertyID: "tempA", Suffix: "set"},
		},
		{
			name:  "missing node",
			topic: "homie/devA",
			want:  Topic{Base: "homie", DeviceID: "devA"},
		},
		{
			name:  "base only",
			topic: "homie",
			want:  Topic{Base: "homie"},
		},
		{
			name:  "empty",
			topic: "",
			want:  Topic{},
		},
		{
			name:  "extra segments ignored",
			topic: "homie/devA/nodeA/tempA/$datatype/garbage",
			want:  Topic{Base: "homie", DeviceID: "devA", NodeID: "nodeA", PropertyID: "tempA", Suffix: "$datatype"},
		},
		{
			name:  "empty segments stay empty",
			topic: "homie//nodeA/tempA",
			want:  Topic{Base: "homie", NodeID: "nodeA", PropertyID: "tempA"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseTopic(tc.topic))
		})
	}
}

func TestTopicClassification(t *testing.T) {
	meta := ParseTopic("homie/devA/nodeA/tempA/$unit")
	assert.True(t, meta.IsMetadata())
	assert.False(t, meta.IsSetEcho())

	echo := ParseTopic("homie/devA/nodeA/tempA/set")
	assert.False(t, echo.IsMetadata())
	assert.True(t, echo.IsSetEcho())

	value := ParseTopic("homie/devA/nodeA/tempA")
	assert.False(t, value.IsMetadata())
	assert.False(t, value.IsSetEcho())
}

func TestTopicSetTopic(t *testing.T) {
	topic := ParseTopic("homie/devA/nodeA/tempA/$datatype")
	assert.Equal(t, "homie/devA/nodeA/tempA/set", topic.SetTopic())
}
