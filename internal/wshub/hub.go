// Package wshub moves event envelopes between a WebSocket connection and the
// broadcast gateway.
package wshub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"guesswhat/internal/broadcast"
	"guesswhat/internal/events"

	"github.com/coder/websocket"
)

// ClientMessage is the envelope received from clients.
type ClientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Dispatcher handles one decoded client message.
type Dispatcher func(ctx context.Context, msg ClientMessage)

// Client represents a single WebSocket connection.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send <-chan broadcast.Message
}

// WritePump reads from the Send channel and writes to the WebSocket connection
// until the channel is closed or ctx is done.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("[WSHub] Marshal error: %v\n", err)
				continue
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		}
	}
}

// ReadLoop decodes envelopes and hands them to dispatch one at a time, in the
// order they arrive. It returns the error that ended the connection.
func (c *Client) ReadLoop(ctx context.Context, dispatch Dispatcher) error {
	for {
		typ, data, err := c.Conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Event == "" {
			log.Printf("[WSHub] %s sent an invalid message\n", c.ID)
			if err := c.reject(ctx); err != nil {
				return err
			}
			continue
		}
		dispatch(ctx, msg)
	}
}

// reject writes an error event straight to the connection.
func (c *Client) reject(ctx context.Context) error {
	payload, err := json.Marshal(events.ErrorPayload{Message: InvalidMessage})
	if err != nil {
		return err
	}
	data, err := json.Marshal(broadcast.Message{Event: events.Error, Data: payload})
	if err != nil {
		return err
	}
	if err := c.Conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("writing reject to %s: %w", c.ID, err)
	}
	return nil
}

// InvalidMessage is reported for envelopes that cannot be decoded.
const InvalidMessage = "Invalid message"
