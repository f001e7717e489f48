package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tim-hellhake/homie-adapter/internal/pkg/model"
)

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, res, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if res != nil {
		res.Body.Close()
	}
	t.Cleanup(func() {
		conn.Close()
	})
	return conn
}

func waitForClients(t *testing.T, s *server, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		return len(s.hub.clients) == want
	}, time.Second*5, time.Millisecond*10)
}

func readEvent(t *testing.T, conn *websocket.Conn) event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second * 5))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got event
	require.NoError(t, json.Unmarshal(data, &got))
	return got
}

func TestServeWS_StreamsEvents(t *testing.T) {
	s := New(&stubRegistry{})
	ts := httptest.NewServer(s.Router(""))
	defer ts.Close()

	conn := dialWS(t, ts)
	waitForClients(t, s, 1)

	require.NoError(t, s.RegisterDevice(context.Background(), model.Device{ID: "devA"}))
	require.NoError(t, s.RegisterProperty(context.Background(), "devA", model.PropertyDescriptor{
		Name:     "nodeA-tempA",
		Datatype: model.DatatypeFloat,
	}))

	got := readEvent(t, conn)
	assert.Equal(t, "device_added", got.Type)
	require.NotNil(t, got.Device)
	assert.Equal(t, "devA", got.Device.ID)

	got = readEvent(t, conn)
	assert.Equal(t, "property_added", got.Type)
	assert.Equal(t, "devA", got.DeviceID)
	require.NotNil(t, got.Property)
	assert.Equal(t, "nodeA-tempA", got.Property.Name)
}

func TestServeWS_ConcurrentBroadcasts(t *testing.T) {
	s := New(&stubRegistry{})
	ts := httptest.NewServer(s.Router(""))
	defer ts.Close()

	conn := dialWS(t, ts)
	waitForClients(t, s, 1)

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, s.PublishValue(context.Background(), model.ValueUpdate{
				DeviceID: "devA",
				Property: "nodeA-tempA",
				Value:    float64(n),
			}))
		}(i)
	}
	wg.Wait()

	for i := 0; i < writers; i++ {
		got := readEvent(t, conn)
		assert.Equal(t, "value", got.Type)
		require.NotNil(t, got.Update)
		assert.Equal(t, "devA", got.Update.DeviceID)
	}
}

func TestServeWS_RemovesClientOnDisconnect(t *testing.T) {
	s := New(&stubRegistry{})
	ts := httptest.NewServer(s.Router(""))
	defer ts.Close()

	conn := dialWS(t, ts)
	waitForClients(t, s, 1)

	conn.Close()
	waitForClients(t, s, 0)
}
