package app_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/nodeflow/internal/app"
	"github.com/vk/nodeflow/internal/registry"
	"github.com/vk/nodeflow/internal/testutil"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	cfg, err := app.NewConfig(app.Config{
		ListenAddr:  ":0",
		LogFormat:   "text",
		LogLevel:    "error",
		WorkerCount: 2,
	})
	require.NoError(t, err)
	return app.New(&testutil.SafeBuffer{}, cfg)
}

func TestRouter_Health(t *testing.T) {
	srv := httptest.NewServer(newTestApp(t).Router())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_ObjectInfo(t *testing.T) {
	srv := httptest.NewServer(newTestApp(t).Router())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/object_info")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var catalog map[string]registry.NodeInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&catalog))

	for _, typeName := range []string{"ZarrReader", "ZarrWriter", "ImageFilter", "ArrayStats"} {
		assert.Contains(t, catalog, typeName)
	}
	assert.True(t, catalog["ZarrWriter"].OutputNode)
	assert.False(t, catalog["ZarrReader"].OutputNode)

	filter := catalog["ImageFilter"]
	require.Contains(t, filter.Input.Required, "algorithm")
	assert.Equal(t, []string{"gaussian", "median", "sobel", "invert"}, filter.Input.Required["algorithm"].Options)
}

func TestRouter_Metrics(t *testing.T) {
	srv := httptest.NewServer(newTestApp(t).Router())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_RunOverWebsocket(t *testing.T) {
	srv := httptest.NewServer(newTestApp(t).Router())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/run"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(map[string]any{"command": "ping"}))
		var ev map[string]any
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, "pong", ev["type"])
	})

	t.Run("mock read through stats", func(t *testing.T) {
		// The reader serves its mock array for a path that does not exist;
		// no terminal node, so the last-declared node is the target.
		frame := `{"command":"execute_graph","graph":{
			"reader":{"type":"ZarrReader","inputs":{"file_path":"/no/such/store.zarr"}},
			"stats":{"type":"ArrayStats","inputs":{"array":["reader",0]}}
		}}`
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))

		for i := 0; i < 200; i++ {
			var ev map[string]any
			require.NoError(t, conn.ReadJSON(&ev))
			switch ev["type"] {
			case "done":
				return
			case "error":
				t.Fatalf("unexpected error event: %v", ev["message"])
			}
		}
		t.Fatal("no done event received")
	})
}

func TestNewConfig(t *testing.T) {
	_, err := app.NewConfig(app.Config{})
	assert.Error(t, err, "listen address is required")

	cfg, err := app.NewConfig(app.Config{ListenAddr: ":8000", WorkerCount: -1})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.WorkerCount, "worker count clamps to one")
}
