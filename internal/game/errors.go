package game

// GameError is a rejected client action. It is surfaced to the requester as
// an error event carrying a stable code; no state is mutated when one is
// returned.
type GameError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *GameError) Error() string { return e.Code + ": " + e.Message }

var (
	ErrInvalidName      = &GameError{Code: "INVALID_NAME", Message: "Name is required"}
	ErrRoomNotFound     = &GameError{Code: "ROOM_NOT_FOUND", Message: "Room not found"}
	ErrRoomFull         = &GameError{Code: "ROOM_FULL", Message: "Room is full (max 6)"}
	ErrGameInProgress   = &GameError{Code: "GAME_IN_PROGRESS", Message: "Game already in progress"}
	ErrNotHost          = &GameError{Code: "NOT_HOST", Message: "Only the host can start the game"}
	ErrNotEnoughPlayers = &GameError{Code: "NOT_ENOUGH_PLAYERS", Message: "Need at least 2 players"}
	ErrNotYourTurn      = &GameError{Code: "NOT_YOUR_TURN", Message: "You are not the drawer"}
	ErrInvalidWord      = &GameError{Code: "INVALID_WORD", Message: "Invalid word selection"}
	ErrReconnectFailed  = &GameError{Code: "RECONNECT_FAILED", Message: "Session not found"}
	ErrCodeExhausted    = &GameError{Code: "ROOM_CODE_EXHAUSTED", Message: "Could not allocate a room code"}
)
