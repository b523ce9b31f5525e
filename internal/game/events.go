package game

// EventType names a game event sent to clients.
type EventType string

const (
	EventPlayerCaptured     EventType = "playerCaptured"
	EventCapturedByBlackBot EventType = "capturedByBlackBot"
	EventBlackBotDestroyed  EventType = "blackBotDestroyed"
	EventBlackBotsSpawned   EventType = "blackBotsSpawned"
	EventBonusCollected     EventType = "bonusCollected"
	EventApplyMalus         EventType = "applyMalus"
	EventMalusCollected     EventType = "malusCollected"
	EventGameStarted        EventType = "gameStarted"
	EventGamePaused         EventType = "gamePaused"
	EventGameResumed        EventType = "gameResumed"
	EventGameOver           EventType = "gameOver"
)

// Event is one side effect of a tick. To is the recipient player id; an empty
// To means every player.
type Event struct {
	Type EventType
	To   string
	Data interface{}
}

// PlayerCapturedData describes a player-vs-player capture.
type PlayerCapturedData struct {
	AttackerID      string `json:"attackerId"`
	AttackerName    string `json:"attackerName"`
	VictimID        string `json:"victimId"`
	VictimName      string `json:"victimName"`
	VictimNewColor  string `json:"victimNewColor"`
	BotsTransferred int    `json:"botsTransferred"`
}

// HostileCaptureData describes a black bot catching a player.
type HostileCaptureData struct {
	PlayerID   string `json:"playerId"`
	BlackBotID string `json:"blackBotId"`
	PointsLost int    `json:"pointsLost"`
}

// BlackBotDestroyedData describes an invincible player destroying a black bot.
type BlackBotDestroyedData struct {
	PlayerID   string `json:"playerId"`
	BlackBotID string `json:"blackBotId"`
	Points     int    `json:"points"`
}

// BlackBotsSpawnedData announces black bots entering the arena.
type BlackBotsSpawnedData struct {
	Count int `json:"count"`
}

// BonusCollectedData is sent to the player who picked up a bonus.
type BonusCollectedData struct {
	Type      BonusType `json:"type"`
	Duration  float64   `json:"duration"`
	Remaining float64   `json:"remaining"`
}

// ApplyMalusData is sent to every player hit by someone else's malus.
type ApplyMalusData struct {
	Type     MalusType `json:"type"`
	Duration float64   `json:"duration"`
	From     string    `json:"from"`
}

// MalusCollectedData is sent to the player who triggered a malus.
type MalusCollectedData struct {
	Type MalusType `json:"type"`
}

// GameStartedData announces the start of a match.
type GameStartedData struct {
	Duration float64 `json:"duration"`
	Players  int     `json:"players"`
	Bots     int     `json:"bots"`
}

// PauseData names the player who paused or resumed.
type PauseData struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
}

// GameOverData carries the final standings.
type GameOverData struct {
	Reason string        `json:"reason"`
	Scores []PlayerScore `json:"scores"`
}

// EventQueue collects events during a tick; the clock drains it once per tick.
type EventQueue struct {
	events []Event
}

// Push appends an event.
func (q *EventQueue) Push(t EventType, to string, data interface{}) {
	q.events = append(q.events, Event{Type: t, To: to, Data: data})
}

// Drain returns the queued events and empties the queue.
func (q *EventQueue) Drain() []Event {
	out := q.events
	q.events = nil
	return out
}
