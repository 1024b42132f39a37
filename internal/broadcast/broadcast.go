// Package broadcast fans events out to connections grouped into channels.
// A channel is named by its session code.
package broadcast

import (
	"encoding/json"
	"fmt"
	"sync"
)

const sendBuffer = 32

// Message is one encoded event queued for a connection. It marshals to the
// {"event","data"} envelope sent over the wire.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Gateway struct {
	mu       sync.RWMutex
	conns    map[string]chan Message
	channels map[string]map[string]bool
}

func NewGateway() *Gateway {
	return &Gateway{
		conns:    make(map[string]chan Message),
		channels: make(map[string]map[string]bool),
	}
}

// Register creates the outbound queue for a connection.
func (g *Gateway) Register(connID string) <-chan Message {
	ch := make(chan Message, sendBuffer)
	g.mu.Lock()
	defer g.mu.Unlock()
	if old, ok := g.conns[connID]; ok {
		close(old)
	}
	g.conns[connID] = ch
	return ch
}

// Unregister closes the connection's queue and removes it from every channel.
func (g *Gateway) Unregister(connID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if ch, ok := g.conns[connID]; ok {
		close(ch)
		delete(g.conns, connID)
	}
	for name, members := range g.channels {
		delete(members, connID)
		if len(members) == 0 {
			delete(g.channels, name)
		}
	}
}

func (g *Gateway) JoinChannel(connID, channel string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.conns[connID]; !ok {
		return
	}
	members, ok := g.channels[channel]
	if !ok {
		members = make(map[string]bool)
		g.channels[channel] = members
	}
	members[connID] = true
}

func (g *Gateway) LeaveChannel(connID, channel string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if members, ok := g.channels[channel]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(g.channels, channel)
		}
	}
}

func (g *Gateway) Members(channel string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.channels[channel])
}

// EmitToChannel queues an event for every member of channel. Members whose
// queue is full miss the event.
func (g *Gateway) EmitToChannel(channel, event string, payload any) error {
	msg, err := encode(event, payload)
	if err != nil {
		return err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	for connID := range g.channels[channel] {
		select {
		case g.conns[connID] <- msg:
		default:
			// skip connections with full queues
		}
	}
	return nil
}

func (g *Gateway) EmitToConnection(connID, event string, payload any) error {
	msg, err := encode(event, payload)
	if err != nil {
		return err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	ch, ok := g.conns[connID]
	if !ok {
		return nil
	}
	select {
	case ch <- msg:
	default:
	}
	return nil
}

func encode(event string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encoding %s payload: %w", event, err)
	}
	return Message{Event: event, Data: data}, nil
}
