package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeos/internal/agent"
	"lifeos/internal/server"
	"lifeos/internal/tables"
)

func dialWS(t *testing.T, e *testEnv) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(e.srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// readType reads messages until one of type typ arrives.
func readType(t *testing.T, conn *websocket.Conn, typ string) json.RawMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var head struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(data, &head))

		if head.Type == typ {
			return data
		}
	}
}

func TestWS_Request_Sync_Returns_Snapshot(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil, "")

	_, err := e.svc.Create(context.Background(), tables.Finances, map[string]any{"title": "Rent"})
	require.NoError(t, err)

	conn := dialWS(t, e)
	require.NoError(t, conn.WriteJSON(server.ClientMessage{Type: server.MsgRequestSync}))

	var msg struct {
		Type string `json:"type"`
		Data struct {
			Tasks    []map[string]any `json:"tasks"`
			Finances []map[string]any `json:"finances"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(readType(t, conn, server.MsgSyncData), &msg))

	assert.Empty(t, msg.Data.Tasks)
	require.Len(t, msg.Data.Finances, 1)
	assert.Equal(t, "Rent", msg.Data.Finances[0]["title"])
}

func TestWS_Pushes_Snapshot_After_Task_Write(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil, "")
	conn := dialWS(t, e)

	// The sync reply proves the subscription is live.
	require.NoError(t, conn.WriteJSON(server.ClientMessage{Type: server.MsgRequestSync}))
	readType(t, conn, server.MsgSyncData)

	rec := e.do(t, http.MethodPost, "/api/tables/tasks", `{"description":"call the venue"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var msg struct {
		Data struct {
			Tasks []map[string]any `json:"tasks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(readType(t, conn, server.MsgSyncData), &msg))

	require.Len(t, msg.Data.Tasks, 1)
	assert.Equal(t, "call the venue", msg.Data.Tasks[0]["description"])
}

func TestWS_Run_Command_Reports_Result(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil, "")
	e.runner.out = agent.Output{Stdout: "v1.2.3\n"}

	conn := dialWS(t, e)
	require.NoError(t, conn.WriteJSON(server.ClientMessage{Type: server.MsgRunCommand, Command: "openclaw --version"}))

	var msg server.CommandResult
	require.NoError(t, json.Unmarshal(readType(t, conn, server.MsgCommandResult), &msg))

	assert.Equal(t, []string{"--version"}, msg.Args)
	require.NotNil(t, msg.Result)
	assert.Equal(t, "v1.2.3\n", msg.Result.Stdout)
	assert.Nil(t, msg.Error)
	assert.Equal(t, []string{"--version"}, e.runner.lastArgs())
}

func TestWS_Ignores_Malformed_Messages(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil, "")
	conn := dialWS(t, e)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(server.ClientMessage{Type: "bogus"}))
	require.NoError(t, conn.WriteJSON(server.ClientMessage{Type: server.MsgRequestSync}))

	readType(t, conn, server.MsgSyncData)
}
