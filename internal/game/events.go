package game

// Notifier decouples game logic from the transport. The websocket hub
// implements it; tests substitute a recorder.
type Notifier interface {
	ToRoom(roomCode, event string, data any)
	ToRoomExcept(roomCode, exceptPlayerID, event string, data any)
	ToPlayer(playerID, event string, data any)
}

// Outbound event names. Clients switch on these.
const (
	EventError = "error"

	EventRoomCreated  = "room:created"
	EventRoomJoined   = "room:joined"
	EventPlayerJoined = "room:playerJoined"
	EventPlayerLeft   = "room:playerLeft"

	EventGameStarting = "game:starting"
	EventGameOver     = "game:over"

	EventRoundNew     = "round:new"
	EventWordChoices  = "round:wordChoices"
	EventWordRevealed = "round:wordRevealed"
	EventWordLocked   = "round:wordLocked"
	EventHintReveal   = "round:hintReveal"
	EventTick         = "round:tick"
	EventCorrectGuess = "round:correctGuess"
	EventRoundEnd     = "round:end"

	EventChatMessage = "chat:message"
	EventGuessClose  = "guess:close"

	EventDrawStroke = "draw:stroke"
	EventDrawClear  = "draw:clear"
	EventDrawReplay = "draw:replay"
)

type RoomCreatedData struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

type RoomJoinedData struct {
	Room RoomSnapshot `json:"room"`
}

type PlayerJoinedData struct {
	Player PlayerSnapshot `json:"player"`
}

type PlayerLeftData struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type GameStartingData struct {
	Countdown int `json:"countdown"`
}

type RoundNewData struct {
	Round      int    `json:"round"`
	Total      int    `json:"total"`
	DrawerID   string `json:"drawerId"`
	DrawerName string `json:"drawerName"`
	HintMask   string `json:"hintMask"` // blank until the word is locked
}

// WordChoicesData goes to the drawer only.
type WordChoicesData struct {
	Words []string `json:"words"`
}

// WordRevealedData goes to the drawer only.
type WordRevealedData struct {
	Word string `json:"word"`
}

type WordLockedData struct {
	HintMask string `json:"hintMask"`
	TimeLeft int    `json:"timeLeft"`
}

type HintRevealData struct {
	HintMask string `json:"hintMask"`
}

type TickData struct {
	TimeLeft int `json:"timeLeft"`
}

type CorrectGuessData struct {
	PlayerID    string             `json:"playerId"`
	PlayerName  string             `json:"playerName"`
	GuessOrder  int                `json:"guessOrder"`
	ScoreEarned int                `json:"scoreEarned"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type ChatMessageData struct {
	Name     string `json:"name"`
	Message  string `json:"message"`
	IsSystem bool   `json:"isSystem"`
	IsDrawer bool   `json:"isDrawer,omitempty"`
}

// GuessCloseData is a private "so close" nudge to the guesser.
type GuessCloseData struct {
	Guess string `json:"guess"`
}

// PlayerScore is one player's running total as of the end of a round.
type PlayerScore struct {
	PlayerID   string `json:"playerId"`
	Name       string `json:"name"`
	TotalScore int    `json:"totalScore"`
}

type RoundEndData struct {
	Word        string             `json:"word"`
	DrawerBonus int                `json:"drawerBonus"`
	Scores      []PlayerScore      `json:"scores"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type GameOverData struct {
	FinalLeaderboard []LeaderboardEntry `json:"finalLeaderboard"`
	RoundHistory     []RoundSummary     `json:"roundHistory"`
}

type DrawReplayData struct {
	Strokes []Stroke `json:"strokes"`
}

func systemChat(message string) ChatMessageData {
	return ChatMessageData{Name: "System", Message: message, IsSystem: true}
}
