// Package session drives one client connection: it reads run requests off
// the websocket, hands them to the engine, and relays engine events back.
// All writes to the connection go through a single writer goroutine; the
// engine and its worker threads only ever enqueue onto the session's event
// channel.
package session

import (
	"context"
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/vk/nodeflow/internal/ctxlog"
	"github.com/vk/nodeflow/internal/engine"
	"github.com/vk/nodeflow/internal/events"
	"github.com/vk/nodeflow/internal/graph"
	"github.com/vk/nodeflow/internal/metrics"
)

// Command is one client request frame.
type Command struct {
	Command string       `json:"command"`
	Graph   *graph.Graph `json:"graph,omitempty"`
	Targets []string     `json:"targets,omitempty"`
}

const sendBuffer = 64

// Session owns one websocket connection for its lifetime.
type Session struct {
	id     string
	conn   *websocket.Conn
	engine *engine.Engine
	send   chan events.Event

	ctx    context.Context
	cancel context.CancelFunc
}

// New wraps an upgraded connection. The caller remains responsible for
// closing conn after Serve returns.
func New(conn *websocket.Conn, eng *engine.Engine) *Session {
	return &Session{
		id:     ulid.Make().String(),
		conn:   conn,
		engine: eng,
		send:   make(chan events.Event, sendBuffer),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Emit implements events.Sink. It is safe to call from any goroutine and
// becomes a no-op once the session is shutting down.
func (s *Session) Emit(e events.Event) {
	select {
	case s.send <- e:
	case <-s.ctx.Done():
	}
}

// Serve runs the session until the client disconnects or ctx is cancelled.
// Commands execute one at a time, in arrival order; events produced by an
// in-flight run are flushed concurrently by the writer goroutine.
func (s *Session) Serve(ctx context.Context) {
	ctx = ctxlog.With(ctx, "session", s.id)
	s.ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()

	logger := ctxlog.FromContext(s.ctx)
	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		s.writePump(logger)
	}()

	logger.Info("Client connected.", "remote_addr", s.conn.RemoteAddr().String())
	for {
		var cmd Command
		if err := s.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Connection read failed.", "error", err)
			}
			break
		}
		s.handle(cmd)
	}

	s.cancel()
	<-writeDone
	logger.Info("Client disconnected.")
}

func (s *Session) handle(cmd Command) {
	logger := ctxlog.FromContext(s.ctx)
	switch cmd.Command {
	case "execute_graph":
		if cmd.Graph == nil || cmd.Graph.Len() == 0 {
			s.Emit(events.Error("Graph data is empty"))
			return
		}
		logger.Info("Received graph execution request.", "nodes", cmd.Graph.Len())
		req := engine.Request{Graph: cmd.Graph, Targets: cmd.Targets}
		if err := s.engine.Execute(s.ctx, req, s); err != nil {
			// The engine has already emitted the error event; the session
			// only records it operationally.
			logger.Error("Graph execution failed.", "error", err)
		}
	case "ping":
		s.Emit(events.Pong())
	default:
		logger.Warn("Ignoring unknown command.", "command", cmd.Command)
	}
}

// writePump is the connection's single writer. A write failure cancels the
// session so in-flight work stops emitting and unwinds.
func (s *Session) writePump(logger *slog.Logger) {
	for {
		select {
		case e := <-s.send:
			if err := s.conn.WriteJSON(e); err != nil {
				logger.Warn("Connection write failed.", "error", err)
				s.cancel()
				return
			}
		case <-s.ctx.Done():
			return
		}
	}
}
