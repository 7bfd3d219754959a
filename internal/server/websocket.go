package server

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/flynn-ai/jarvis/internal/agent"
	"github.com/flynn-ai/jarvis/pkg/protocol"
)

// socketSet tracks open websocket connections so Shutdown can close them.
type socketSet struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newSocketSet() *socketSet {
	return &socketSet{conns: make(map[*websocket.Conn]struct{})}
}

func (s *socketSet) add(c *websocket.Conn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *socketSet) remove(c *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) closeSockets() {
	s.sockets.mu.Lock()
	defer s.sockets.mu.Unlock()
	for c := range s.sockets.conns {
		_ = c.Close()
	}
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) send(msg protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

// wsHandler runs the command channel. Commands on one connection are
// processed in order; each produces progress frames followed by exactly one
// response or error frame carrying the command's ID.
func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	s.sockets.add(conn)
	defer func() {
		s.sockets.remove(conn)
		conn.Close()
	}()

	ctx := r.Context()
	out := &wsConn{conn: conn}
	s.log.Info().Str("remote", r.RemoteAddr).Msg("websocket connected")

	for {
		var msg protocol.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Msg("websocket read ended")
			}
			return
		}

		if msg.Type != protocol.MessageCommand {
			if out.send(protocol.Message{Type: protocol.MessageError, ID: msg.ID, Error: "unsupported message type: " + msg.Type}) != nil {
				return
			}
			continue
		}
		if strings.TrimSpace(msg.Text) == "" {
			if out.send(protocol.Message{Type: protocol.MessageError, ID: msg.ID, Error: "No text provided"}) != nil {
				return
			}
			continue
		}

		res := s.orch.ProcessStream(ctx, msg.Text, msg.Context, func(chunk agent.StreamChunk) {
			_ = out.send(protocol.Message{
				Type:       protocol.MessageProgress,
				ID:         msg.ID,
				Stage:      chunk.Stage,
				Specialist: chunk.Specialist,
				Text:       chunk.Text,
			})
		})
		if err := out.send(protocol.Message{Type: protocol.MessageResponse, ID: msg.ID, Response: NewCommandResponse(res)}); err != nil {
			s.log.Debug().Err(err).Msg("websocket write failed")
			return
		}
	}
}
