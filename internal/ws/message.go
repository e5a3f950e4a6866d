package ws

import "encoding/json"

// Envelope is the wire frame for every message in both directions:
// an event name plus an event-specific payload.
type Envelope[T any] struct {
	Event string `json:"event"`
	Data  T      `json:"data"`
}

// rawEnvelope defers payload decoding until the event name is known.
type rawEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Inbound client event names.
const (
	eventRoomCreate   = "room:create"
	eventRoomJoin     = "room:join"
	eventRoomLeave    = "room:leave"
	eventReconnect    = "player:reconnect"
	eventGameStart    = "game:start"
	eventWordSelected = "round:wordSelected"
	eventGuess        = "chat:guess"
	eventDrawStroke   = "draw:stroke"
	eventDrawClear    = "draw:clear"
)

type createRoomPayload struct {
	PlayerName string `json:"playerName"`
	Difficulty string `json:"difficulty"`
}

type joinRoomPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type reconnectPayload struct {
	RoomCode       string `json:"roomCode"`
	PriorSessionID string `json:"priorSessionId"`
}

type wordSelectedPayload struct {
	Word string `json:"word"`
}

type guessPayload struct {
	Message string `json:"message"`
}
