package game

import "time"

// EntityKind tags the three entity categories.
type EntityKind string

const (
	KindPlayer   EntityKind = "player"
	KindBot      EntityKind = "bot"
	KindBlackBot EntityKind = "blackBot"
)

const (
	// NeutralColor marks bots nobody owns: defeated by a black bot or freshly
	// topped up. Black bots ignore them and they never infect other bots.
	NeutralColor  = "#FFFFFF"
	BlackBotColor = "#000000"
)

// PlayerColors is the palette handed out to players, in order.
var PlayerColors = []string{
	"#E6194B", "#3CB44B", "#FFE119", "#4363D8", "#F58231", "#911EB4",
	"#46F0F0", "#F032E6", "#BCF60C", "#FABEBE", "#008080", "#E6BEFF",
	"#9A6324", "#800000", "#AAFFC3", "#808000", "#FFD8B1", "#000075",
}

// Entity is the state every kind shares.
type Entity struct {
	ID      string
	Kind    EntityKind
	X, Y    float64
	Color   string
	Heading float64
}

// Pos returns the entity position.
func (e *Entity) Pos() Point {
	return Point{X: e.X, Y: e.Y}
}

// CaptureRecord is one line of a capture history.
type CaptureRecord struct {
	Nickname string `json:"nickname" msgpack:"nickname"`
	Count    int    `json:"count" msgpack:"count"`
}

// BonusType names a bonus pickup and the timer it extends.
type BonusType string

const (
	BonusSpeed         BonusType = "speed"
	BonusInvincibility BonusType = "invincibility"
	BonusReveal        BonusType = "reveal"
)

// BonusTypes lists every bonus type in a stable order.
var BonusTypes = []BonusType{BonusSpeed, BonusInvincibility, BonusReveal}

// Player is a connected human.
type Player struct {
	Entity
	Nickname          string
	Captures          int
	CapturedPlayers   map[string]*CaptureRecord // victim id -> record
	CapturedBy        map[string]*CaptureRecord // attacker id -> record
	CapturedByHostile int
	BonusPoints       int
	ProtectedUntil    time.Time
	Bonuses           map[BonusType]time.Time // expiry per bonus
	ReverseUntil      time.Time
	LastCapture       time.Time
	Hidden            bool
	movesThisTick     int
}

// NewPlayer creates a player at (x, y).
func NewPlayer(id, nickname, color string, x, y float64) *Player {
	return &Player{
		Entity:          Entity{ID: id, Kind: KindPlayer, X: x, Y: y, Color: color},
		Nickname:        nickname,
		CapturedPlayers: make(map[string]*CaptureRecord),
		CapturedBy:      make(map[string]*CaptureRecord),
		Bonuses:         make(map[BonusType]time.Time),
	}
}

// BonusActive reports whether the bonus timer runs at now.
func (p *Player) BonusActive(t BonusType, now time.Time) bool {
	return now.Before(p.Bonuses[t])
}

// Protected reports whether spawn protection is active.
func (p *Player) Protected(now time.Time) bool {
	return now.Before(p.ProtectedUntil)
}

// Invincible reports whether the invincibility bonus is active.
func (p *Player) Invincible(now time.Time) bool {
	return p.BonusActive(BonusInvincibility, now)
}

// IsInvulnerable reports whether the player is immune to capture.
func (p *Player) IsInvulnerable(now time.Time) bool {
	return p.Protected(now) || p.Invincible(now)
}

// ExtendBonus adds d to the bonus timer; an active timer is extended rather
// than restarted.
func (p *Player) ExtendBonus(t BonusType, d time.Duration, now time.Time) time.Time {
	until := p.Bonuses[t]
	if until.After(now) {
		until = until.Add(d)
	} else {
		until = now.Add(d)
	}
	p.Bonuses[t] = until
	return until
}

// ClearBonus ends a bonus timer. Clearing an inactive bonus is a no-op.
func (p *Player) ClearBonus(t BonusType) {
	delete(p.Bonuses, t)
}

func recordCapture(history map[string]*CaptureRecord, id, nickname string) {
	rec, ok := history[id]
	if !ok {
		rec = &CaptureRecord{}
		history[id] = rec
	}
	rec.Nickname = nickname
	rec.Count++
}

// WanderState is the ordinary bot FSM state.
type WanderState int

const (
	Wandering WanderState = iota
	Paused
)

// Wander is the movement state shared by every autonomous entity.
type Wander struct {
	State      WanderState
	VX, VY     float64
	StateUntil time.Time
	NextTurn   time.Time
	NextSample time.Time
	SampleX    float64
	SampleY    float64
	Stuck      int
}

// Bot is an ordinary autonomous entity whose color is the score unit.
type Bot struct {
	Entity
	Wander
}

// NewBot creates a bot at (x, y).
func NewBot(id, color string, x, y float64) *Bot {
	return &Bot{Entity: Entity{ID: id, Kind: KindBot, X: x, Y: y, Color: color}}
}

// HostileState is the black bot FSM state.
type HostileState int

const (
	Searching HostileState = iota
	Pursuing
)

// HostileBot hunts players and owned bots.
type HostileBot struct {
	Entity
	Wander
	State           HostileState
	DetectionRadius float64
	Speed           float64
	TargetID        string
	TargetKind      EntityKind
	NextScan        time.Time
	LastCapture     time.Time
}

// NewHostileBot creates a black bot at (x, y).
func NewHostileBot(id string, x, y, detection, speed float64) *HostileBot {
	return &HostileBot{
		Entity:          Entity{ID: id, Kind: KindBlackBot, X: x, Y: y, Color: BlackBotColor},
		DetectionRadius: detection,
		Speed:           speed,
	}
}

func (h *HostileBot) clearTarget() {
	h.TargetID = ""
	h.TargetKind = ""
	h.State = Searching
}
