package ws

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Sudeep70/drawing-guess-game/internal/game"
)

const maxInboundBytes = 8 << 10

// Handler upgrades HTTP requests to websockets and dispatches client events
// into the game engine. Each socket gets a server-issued session id that
// doubles as the player id; reconnect rebinds a fresh socket to a prior id.
type Handler struct {
	engine   *game.Engine
	hub      *Hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(engine *game.Engine, hub *Hub, log zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		hub:    hub,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers enforce same-origin for cookies, not sockets; the
			// deployment fronts this with its own origin policy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &Client{conn: conn, sessionID: uuid.NewString()}
	h.hub.bind(c)
	h.log.Debug().Str("session", c.sessionID).Msg("socket connected")
	go h.readLoop(c)
}

func (h *Handler) readLoop(c *Client) {
	defer func() {
		roomCode := c.roomCode
		h.hub.drop(c)
		c.close()
		if roomCode != "" {
			h.engine.HandleDisconnect(roomCode, c.sessionID)
		}
		h.log.Debug().Str("session", c.sessionID).Msg("socket closed")
	}()

	c.conn.SetReadLimit(maxInboundBytes)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env rawEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			h.sendError(c, &game.GameError{Code: "BAD_MESSAGE", Message: "Malformed message"})
			continue
		}
		h.dispatch(c, env)
	}
}

func (h *Handler) dispatch(c *Client, env rawEnvelope) {
	switch env.Event {
	case eventRoomCreate:
		var p createRoomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.sendError(c, err)
			return
		}
		code, err := h.engine.CreateRoom(c.sessionID, p.PlayerName, p.Difficulty)
		if err != nil {
			h.sendError(c, err)
			return
		}
		c.roomCode = code
		h.hub.joinRoom(code, c)

	case eventRoomJoin:
		var p joinRoomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.sendError(c, err)
			return
		}
		code, err := h.engine.JoinRoom(c.sessionID, p.RoomCode, p.PlayerName)
		if err != nil {
			h.sendError(c, err)
			return
		}
		c.roomCode = code
		h.hub.joinRoom(code, c)

	case eventRoomLeave:
		if c.roomCode == "" {
			return
		}
		code := c.roomCode
		c.roomCode = ""
		h.hub.leaveRoom(code, c.sessionID)
		h.engine.Leave(code, c.sessionID)

	case eventReconnect:
		var p reconnectPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.sendError(c, err)
			return
		}
		if p.PriorSessionID == "" {
			h.sendError(c, game.ErrReconnectFailed)
			return
		}
		// Rebind the fresh socket to the prior identity before touching
		// game state, so replies reach this connection.
		h.hub.unbind(c.sessionID)
		c.sessionID = p.PriorSessionID
		h.hub.bind(c)
		code, err := h.engine.Reconnect(p.RoomCode, c.sessionID)
		if err != nil {
			h.sendError(c, err)
			return
		}
		c.roomCode = code
		h.hub.joinRoom(code, c)

	case eventGameStart:
		if err := h.engine.StartGame(c.roomCode, c.sessionID); err != nil {
			h.sendError(c, err)
		}

	case eventWordSelected:
		var p wordSelectedPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.sendError(c, err)
			return
		}
		if err := h.engine.SelectWord(c.roomCode, c.sessionID, p.Word); err != nil {
			h.sendError(c, err)
		}

	case eventGuess:
		var p guessPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.sendError(c, err)
			return
		}
		h.engine.SubmitGuess(c.roomCode, c.sessionID, p.Message)

	case eventDrawStroke:
		var s game.Stroke
		if err := json.Unmarshal(env.Data, &s); err != nil {
			h.sendError(c, err)
			return
		}
		h.engine.AddStroke(c.roomCode, c.sessionID, s)

	case eventDrawClear:
		h.engine.ClearCanvas(c.roomCode, c.sessionID)

	default:
		h.log.Debug().Str("event", env.Event).Msg("unknown event")
	}
}

func (h *Handler) sendError(c *Client, err error) {
	var gerr *game.GameError
	if !errors.As(err, &gerr) {
		gerr = &game.GameError{Code: "INTERNAL", Message: "Something went wrong"}
	}
	if werr := c.send(game.EventError, gerr); werr != nil {
		h.log.Debug().Err(werr).Msg("error send failed")
	}
}
