package homie

import (
	"context"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tim-hellhake/homie-adapter/internal/pkg/model"
	"github.com/tim-hellhake/homie-adapter/internal/pkg/publisher"
)

// observedLogger installs an observing global logger for the duration of
// the test. Components bind zap.L() at construction, so call this before
// building the thing under test.
func observedLogger(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	original := zap.L()
	zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(func() {
		zap.ReplaceGlobals(original)
	})
	return logs
}

func hasLogContaining(logs *observer.ObservedLogs, fragment string) bool {
	for _, entry := range logs.All() {
		if strings.Contains(entry.Message, fragment) {
			return true
		}
	}
	return false
}

// capturingBackend records every host announcement for assertions.
type capturingBackend struct {
	mu         sync.Mutex
	devices    []model.Device
	properties []model.PropertyDescriptor
	updates    []model.ValueUpdate
}

func (b *capturingBackend) RegisterDevice(_ context.Context, device model.Device) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices = append(b.devices, device)
	return nil
}

func (b *capturingBackend) RegisterProperty(_ context.Context, _ string, desc model.PropertyDescriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.properties = append(b.properties, desc)
	return nil
}

func (b *capturingBackend) PublishValue(_ context.Context, update model.ValueUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, update)
	return nil
}

func (b *capturingBackend) lastUpdate() (model.ValueUpdate, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.updates) == 0 {
		return model.ValueUpdate{}, false
	}
	return b.updates[len(b.updates)-1], true
}

func registerCapture(t *testing.T) *capturingBackend {
	t.Helper()
	backend := &capturingBackend{}
	if err := publisher.RegisterPublisher(t.Name(), backend); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		publisher.UnregisterPublisher(t.Name())
	})
	return backend
}

// fakeTransport records writes published by the core.
type fakeTransport struct {
	mu        sync.Mutex
	published []publishedMessage
	err       error
}

type publishedMessage struct {
	topic   string
	payload string
}

func (f *fakeTransport) Publish(_ context.Context, topic, payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, publishedMessage{topic: topic, payload: payload})
	return nil
}

func (f *fakeTransport) last() (publishedMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.published) == 0 {
		return publishedMessage{}, false
	}
	return f.published[len(f.published)-1], true
}
