package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"

	"guesswhat/internal/events"
	"guesswhat/internal/wshub"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(s.Origins),
	})
	if err != nil {
		log.Printf("[Socket] Accept error: %v\n", err)
		return
	}
	defer conn.CloseNow()

	connID := uuid.New().String()
	client := &wshub.Client{ID: connID, Conn: conn, Send: s.Gateway.Register(connID)}
	log.Printf("[Socket] %s connected\n", connID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go client.WritePump(ctx)

	err = client.ReadLoop(ctx, s.dispatch(connID))
	s.Gateway.Unregister(connID)
	s.Engine.Disconnect(connID)
	log.Printf("[Socket] %s disconnected (status %d)\n", connID, websocket.CloseStatus(err))
}

// dispatch routes one connection's inbound events to the engine.
func (s *Server) dispatch(connID string) wshub.Dispatcher {
	return func(ctx context.Context, msg wshub.ClientMessage) {
		var err error
		switch msg.Event {
		case events.JoinSession:
			var p events.JoinSessionPayload
			if !s.decode(connID, msg, &p) {
				return
			}
			err = s.Engine.Join(ctx, connID, p.Username, p.SessionCode)
		case events.StartGame:
			var p events.StartGamePayload
			if !s.decode(connID, msg, &p) {
				return
			}
			err = s.Engine.Start(ctx, connID, p.SessionCode, p.Question, p.Answer)
		case events.Guess:
			var p events.GuessPayload
			if !s.decode(connID, msg, &p) {
				return
			}
			err = s.Engine.HandleGuess(ctx, connID, p.Guess)
		default:
			log.Printf("[Socket] %s sent unknown event %q\n", connID, msg.Event)
			return
		}
		if err != nil {
			log.Printf("[Socket] %s %s: %v\n", connID, msg.Event, err)
		}
	}
}

func (s *Server) decode(connID string, msg wshub.ClientMessage, v any) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		log.Printf("[Socket] %s bad %s payload: %v\n", connID, msg.Event, err)
		if err := s.Gateway.EmitToConnection(connID, events.Error, events.ErrorPayload{Message: wshub.InvalidMessage}); err != nil {
			log.Printf("[Socket] %v\n", err)
		}
		return false
	}
	return true
}

// originPatterns turns allowed origins into the host patterns websocket.Accept
// matches against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, o)
	}
	return patterns
}
