package ws

import (
	"sync"

	"github.com/rs/zerolog"
)

// Hub tracks live clients by session id and by room, and fans events out to
// them. It implements the game engine's Notifier.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		log:     log,
	}
}

func (h *Hub) bind(c *Client) {
	h.mu.Lock()
	h.clients[c.sessionID] = c
	h.mu.Unlock()
}

func (h *Hub) unbind(sessionID string) {
	h.mu.Lock()
	delete(h.clients, sessionID)
	h.mu.Unlock()
}

func (h *Hub) joinRoom(roomCode string, c *Client) {
	h.mu.Lock()
	if h.rooms[roomCode] == nil {
		h.rooms[roomCode] = make(map[string]*Client)
	}
	h.rooms[roomCode][c.sessionID] = c
	h.mu.Unlock()
}

func (h *Hub) leaveRoom(roomCode, sessionID string) {
	h.mu.Lock()
	if members := h.rooms[roomCode]; members != nil {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(h.rooms, roomCode)
		}
	}
	h.mu.Unlock()
}

// drop removes the client from both indexes when its socket dies.
func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	if h.clients[c.sessionID] == c {
		delete(h.clients, c.sessionID)
	}
	if c.roomCode != "" {
		if members := h.rooms[c.roomCode]; members != nil {
			if members[c.sessionID] == c {
				delete(members, c.sessionID)
			}
			if len(members) == 0 {
				delete(h.rooms, c.roomCode)
			}
		}
	}
	h.mu.Unlock()
}

// ToRoom sends to every socket in the room. The member list is snapshotted
// under the lock; writes happen outside it.
func (h *Hub) ToRoom(roomCode, event string, data any) {
	h.sendRoom(roomCode, "", event, data)
}

func (h *Hub) ToRoomExcept(roomCode, exceptPlayerID, event string, data any) {
	h.sendRoom(roomCode, exceptPlayerID, event, data)
}

func (h *Hub) sendRoom(roomCode, exceptID, event string, data any) {
	h.mu.Lock()
	members := h.rooms[roomCode]
	targets := make([]*Client, 0, len(members))
	for id, c := range members {
		if id != exceptID {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		if err := c.send(event, data); err != nil {
			h.log.Debug().Err(err).Str("event", event).Msg("room send failed")
		}
	}
}

func (h *Hub) ToPlayer(playerID, event string, data any) {
	h.mu.Lock()
	c := h.clients[playerID]
	h.mu.Unlock()
	if c == nil {
		return
	}
	if err := c.send(event, data); err != nil {
		h.log.Debug().Err(err).Str("event", event).Msg("player send failed")
	}
}
