package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/nodeflow/internal/engine"
	"github.com/vk/nodeflow/internal/node"
	"github.com/vk/nodeflow/internal/schema"
	"github.com/vk/nodeflow/internal/session"
	"github.com/vk/nodeflow/internal/testutil"
	"github.com/vk/nodeflow/internal/worker"
)

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	mod := &testutil.StaticModule{
		Handlers: map[string]node.Handler{
			"OnRunConst": func(_ context.Context, call *node.Call) (node.Result, error) {
				return node.Single(call.Int("value")), nil
			},
		},
		Types: map[*schema.NodeType]string{
			{Type: "Const", Inputs: []*schema.InputSpec{
				{Name: "value", Type: schema.TypeInt, Default: 0},
			}}: "OnRunConst",
		},
	}
	return engine.New(testutil.NewRegistry(mod), worker.NewPool(2))
}

// dial spins up a server that hands every connection to a session and
// returns a connected client.
func dial(t *testing.T) *websocket.Conn {
	t.Helper()
	eng := testEngine(t)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		session.New(conn, eng).Serve(r.Context())
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	var ev map[string]any
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

// readUntil drains events until one of the given types arrives.
func readUntil(t *testing.T, conn *websocket.Conn, types ...string) map[string]any {
	t.Helper()
	for i := 0; i < 100; i++ {
		ev := readEvent(t, conn)
		for _, want := range types {
			if ev["type"] == want {
				return ev
			}
		}
	}
	t.Fatalf("no %v event within 100 frames", types)
	return nil
}

func TestSession_Ping(t *testing.T) {
	conn := dial(t)

	require.NoError(t, conn.WriteJSON(map[string]any{"command": "ping"}))
	ev := readEvent(t, conn)
	assert.Equal(t, map[string]any{"type": "pong"}, ev)
}

func TestSession_ExecuteGraph(t *testing.T) {
	conn := dial(t)

	frame := `{"command":"execute_graph","graph":{"c":{"type":"Const","inputs":{"value":3}}}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))

	ev := readUntil(t, conn, "done", "error")
	assert.Equal(t, "done", ev["type"])
	assert.Equal(t, "Done", ev["message"])
}

func TestSession_EmptyGraph(t *testing.T) {
	conn := dial(t)

	for _, frame := range []string{
		`{"command":"execute_graph"}`,
		`{"command":"execute_graph","graph":{}}`,
	} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
		ev := readEvent(t, conn)
		assert.Equal(t, "error", ev["type"])
		assert.Equal(t, "Graph data is empty", ev["message"])
	}
}

func TestSession_UnknownCommandIsIgnored(t *testing.T) {
	conn := dial(t)

	require.NoError(t, conn.WriteJSON(map[string]any{"command": "mystery"}))

	// The session must still be alive and responsive.
	require.NoError(t, conn.WriteJSON(map[string]any{"command": "ping"}))
	ev := readEvent(t, conn)
	assert.Equal(t, "pong", ev["type"])
}

func TestSession_CommandsRunInOrder(t *testing.T) {
	conn := dial(t)

	frame := `{"command":"execute_graph","graph":{"c":{"type":"Const","inputs":{"value":1}}}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
	require.NoError(t, conn.WriteJSON(map[string]any{"command": "ping"}))

	ev := readUntil(t, conn, "done", "error")
	assert.Equal(t, "done", ev["type"])

	ev = readEvent(t, conn)
	assert.Equal(t, "pong", ev["type"])
}
