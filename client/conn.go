package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"arena-server/protocol"
)

const writeWait = 10 * time.Second

// Conn is a WebSocket connection to an arena server
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex // serializes writes
}

// Dial connects to the server's /ws endpoint
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Conn{ws: ws}, nil
}

// Join asks to enter the arena under name
func (c *Conn) Join(name string) error {
	return c.send(protocol.MsgJoin, protocol.JoinMsg{Name: name})
}

// SendInput sends steering input
func (c *Conn) SendInput(angle float64, boosting bool) error {
	return c.send(protocol.MsgInput, protocol.InputMsg{Angle: &angle, Boosting: &boosting})
}

// Leave announces a graceful exit
func (c *Conn) Leave() error {
	return c.send(protocol.MsgLeave, nil)
}

func (c *Conn) send(t string, payload any) error {
	data, err := protocol.Encode(t, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send %s: %w", t, err)
	}
	return nil
}

// ReadLoop feeds server messages into s until the connection fails or ctx
// is done
func (c *Conn) ReadLoop(ctx context.Context, s *Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		c.ws.Close()
	}()
	for {
		typ, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		switch typ {
		case websocket.BinaryMessage:
			gs, err := protocol.DecodeState(data)
			if err != nil {
				return err
			}
			s.HandleState(gs, time.Now())
		case websocket.TextMessage:
			if err := s.HandleMessage(json.RawMessage(data)); err != nil {
				return err
			}
		}
	}
}

// Close shuts the connection down
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.ws.Close()
}
