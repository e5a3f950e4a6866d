package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one live socket. The mutex serialises writes; gorilla allows at
// most one concurrent writer per connection.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex

	sessionID string
	roomCode  string
}

func (c *Client) send(event string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(Envelope[any]{Event: event, Data: data})
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.Close()
}
