package server

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"lifeos/internal/agent"
	"lifeos/internal/notify"
)

// Push channel message types.
const (
	MsgRequestSync   = "request_sync"
	MsgRunCommand    = "run_command"
	MsgSyncData      = "sync_data"
	MsgCommandResult = "command_result"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 << 10
	outboxSize     = 8
)

// ClientMessage is a message sent by a dashboard client.
type ClientMessage struct {
	Type string   `json:"type"`
	Args []string `json:"args,omitempty"`

	// Command is a whitespace separated alternative to Args. A leading
	// "openclaw" is dropped.
	Command string `json:"command,omitempty"`
}

func (m ClientMessage) commandArgs() []string {
	if len(m.Args) > 0 {
		return m.Args
	}

	args := strings.Fields(m.Command)
	if len(args) > 0 && args[0] == "openclaw" {
		args = args[1:]
	}

	return args
}

// SyncData carries a table snapshot.
type SyncData struct {
	Type string          `json:"type"`
	Data notify.Snapshot `json:"data"`
}

// CommandResult reports a finished run_command. Exactly one of Result and
// Error is set.
type CommandResult struct {
	Type   string        `json:"type"`
	Args   []string      `json:"args"`
	Result *agent.Output `json:"result"`
	Error  *string       `json:"error"`
}

// session is one WebSocket connection. The read loop runs on the handler
// goroutine; every write goes through writeLoop.
type session struct {
	s    *Server
	conn *websocket.Conn
	sub  *notify.Subscription
	out  chan any

	done chan struct{}
	once sync.Once
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader already replied with an HTTP error.
		s.log.DebugContext(c.Request.Context(), "websocket upgrade failed", "error", err)

		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	sess := &session{
		s:    s,
		conn: conn,
		sub:  s.hub.Subscribe(),
		out:  make(chan any, outboxSize),
		done: make(chan struct{}),
	}

	s.log.DebugContext(ctx, "dashboard client connected", "subscriber", sess.sub.ID())

	go sess.writeLoop(ctx)

	sess.readLoop(ctx)

	s.log.DebugContext(ctx, "dashboard client disconnected", "subscriber", sess.sub.ID())
}

func (ss *session) readLoop(ctx context.Context) {
	defer ss.close()

	ss.conn.SetReadLimit(maxMessageSize)
	_ = ss.conn.SetReadDeadline(time.Now().Add(pongWait))
	ss.conn.SetPongHandler(func(string) error {
		return ss.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := ss.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ss.s.log.DebugContext(ctx, "websocket read failed", "error", err)
			}

			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			ss.s.log.DebugContext(ctx, "ignoring malformed websocket message", "error", err)

			continue
		}

		ss.dispatch(ctx, msg)
	}
}

func (ss *session) dispatch(ctx context.Context, msg ClientMessage) {
	switch msg.Type {
	case MsgRequestSync:
		ss.send(SyncData{Type: MsgSyncData, Data: ss.s.tables.Snapshot(ctx)})
	case MsgRunCommand:
		args := msg.commandArgs()

		go func() {
			result := CommandResult{Type: MsgCommandResult, Args: args}

			out, err := ss.s.agent.Run(ctx, args...)
			if err != nil {
				text := err.Error()
				result.Error = &text
			} else {
				result.Result = &out
			}

			ss.send(result)
		}()
	default:
		ss.s.log.DebugContext(ctx, "ignoring unknown websocket message", "type", msg.Type)
	}
}

// send queues msg unless the session is closed.
func (ss *session) send(msg any) {
	select {
	case ss.out <- msg:
	case <-ss.done:
	}
}

func (ss *session) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = ss.conn.Close()
	}()

	for {
		select {
		case msg := <-ss.out:
			if err := ss.write(msg); err != nil {
				ss.s.log.DebugContext(ctx, "websocket write failed", "error", err)

				return
			}
		case snap, ok := <-ss.sub.C():
			if !ok {
				ss.closeMessage()

				return
			}

			if err := ss.write(SyncData{Type: MsgSyncData, Data: snap}); err != nil {
				ss.s.log.DebugContext(ctx, "websocket write failed", "error", err)

				return
			}
		case <-ticker.C:
			_ = ss.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ss.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ss.done:
			ss.closeMessage()

			return
		}
	}
}

func (ss *session) write(msg any) error {
	_ = ss.conn.SetWriteDeadline(time.Now().Add(writeWait))

	return ss.conn.WriteJSON(msg)
}

func (ss *session) closeMessage() {
	_ = ss.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

func (ss *session) close() {
	ss.once.Do(func() {
		close(ss.done)
		ss.sub.Close()
	})
}
