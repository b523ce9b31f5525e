package game

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"arena-server/internal/logger"
)

const (
	TickRate     = 20 // ticks per second
	TickDuration = time.Second / TickRate

	PlayerStep       = 5.0 // px per move command
	BoostMultiplier  = 1.3
	MaxMoveMagnitude = 1.5
	MaxMovesPerTick  = 2
	TopUpInterval    = 10 * time.Second
)

// MaxPlayers is bounded by the palette so every player keeps a unique color.
var MaxPlayers = len(PlayerColors)

var (
	ErrGameFull      = errors.New("game is full")
	ErrGameOver      = errors.New("game is over")
	ErrGameStarted   = errors.New("game already started")
	ErrNotPauser     = errors.New("only the player who paused can resume")
	ErrUnknownPlayer = errors.New("unknown player")
)

// End reasons.
const (
	EndTimeout   = "timeout"
	EndNoPlayers = "noPlayers"
)

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// message is the {t, d} envelope events are sent in.
type message struct {
	T string      `json:"t"`
	D interface{} `json:"d,omitempty"`
}

// Result is the outcome of a finished game.
type Result struct {
	GameID    string
	Reason    string
	StartedAt time.Time
	EndedAt   time.Time
	Scores    []PlayerScore
}

type commandKind int

const (
	cmdMove commandKind = iota
	cmdPause
	cmdBonusExpired
)

type command struct {
	kind     commandKind
	playerID string
	dx, dy   float64
	boost    bool
	bonus    BonusType
}

// Options are the per-instance inputs that are not game settings.
type Options struct {
	Width, Height int
	Mask          *Mask // nil runs without obstacles
	Rand          *rand.Rand
}

// Game is one running arena. A single mutex guards the whole tick; commands
// arriving between ticks are queued and applied at the start of the next one.
type Game struct {
	ID string

	mu       sync.Mutex
	settings Settings
	world    *World
	reg      *Registry
	rng      *rand.Rand
	events   *EventQueue

	bots     *BotAI
	hostiles *HostileAI
	capture  *CaptureEngine
	zones    *ZoneEngine
	items    *ItemSpawner

	clients map[string]Broadcaster
	pending []command

	started     bool
	ended       bool
	startedAt   time.Time
	paused      bool
	pausedBy    string
	pausedAt    time.Time
	pausedTotal time.Duration

	blackBotsSpawned bool
	nextTopUp        time.Time
	tick             uint64

	// OnEnd is called once, outside the game lock, when the game finishes.
	OnEnd func(Result)

	log      *logrus.Entry
	stop     chan struct{}
	stopOnce sync.Once
}

// NewGame creates a game in its lobby phase.
func NewGame(id string, settings Settings, opts Options) *Game {
	settings.Normalize()
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		w, h = DefaultMapWidth, DefaultMapHeight
	}

	g := &Game{
		ID:       id,
		settings: settings,
		world:    NewWorld(w, h, opts.Mask, rng),
		reg:      NewRegistry(),
		rng:      rng,
		events:   &EventQueue{},
		clients:  make(map[string]Broadcaster),
		log:      logger.Log.WithField("game", id),
		stop:     make(chan struct{}),
	}
	g.bots = NewBotAI(g.world, g.reg, rng)
	g.hostiles = NewHostileAI(g.world, g.reg, rng, &g.settings, g.events)
	g.capture = NewCaptureEngine(g.world, g.reg, rng, g.hostiles, g.events)
	g.zones = NewZoneEngine(g.world, g.reg, rng, &g.settings)
	g.items = NewItemSpawner(g.world, g.reg, rng, &g.settings, g.events)
	return g
}

// Settings returns the normalized settings the game runs with.
func (g *Game) Settings() Settings {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.settings
}

// AddPlayer adds a player with a free palette color at a fresh spawn point.
func (g *Game) AddPlayer(nickname string, now time.Time) (*Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ended {
		return nil, ErrGameOver
	}
	color := g.reg.FreeColor()
	if g.reg.PlayerCount() >= MaxPlayers || color == "" {
		return nil, ErrGameFull
	}
	pos := g.world.FindSpawnPosition(g.reg.Occupied())
	p := NewPlayer(g.reg.NextID("p"), nickname, color, pos.X, pos.Y)
	if g.started {
		p.ProtectedUntil = now.Add(SpawnProtection)
	}
	g.reg.AddPlayer(p)
	g.log.WithFields(logrus.Fields{"player": p.ID, "nickname": nickname, "color": color}).Info("player joined")
	return p, nil
}

// RemovePlayer drops a player. Their bots become unclaimed. The last player
// leaving a started game ends it.
func (g *Game) RemovePlayer(id string, now time.Time) {
	g.mu.Lock()
	p := g.reg.Player(id)
	if p == nil {
		g.mu.Unlock()
		return
	}
	g.reg.RemovePlayer(id)
	delete(g.clients, id)
	g.reg.TransferColor(p.Color, NeutralColor, -1)
	if g.paused && g.pausedBy == id {
		g.resume(now, p)
	}
	g.log.WithField("player", id).Info("player left")

	var res *Result
	if g.started && !g.ended && g.reg.PlayerCount() == 0 {
		res = g.end(EndNoPlayers, now)
	}
	g.mu.Unlock()
	g.finish(res)
}

// SetClient associates a broadcaster with a player
func (g *Game) SetClient(playerID string, client Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[playerID] = client
}

// PlayerCount returns the number of players
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reg.PlayerCount()
}

// Started reports whether the game left its lobby phase.
func (g *Game) Started() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started
}

// Ended reports whether the game is over.
func (g *Game) Ended() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ended
}

// Paused reports whether the game is paused.
func (g *Game) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Start (re)initialises the arena: bots, black bots, zones and items are reset
// and every player is placed at a fresh spawn point.
func (g *Game) Start(now time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ended {
		return ErrGameOver
	}
	if g.started {
		return ErrGameStarted
	}
	g.reg.ResetNPCs()
	g.zones.Reset()
	g.items.Reset()
	g.events.Drain()
	g.pending = nil

	for _, p := range g.reg.Players() {
		g.capture.respawn(p, now)
	}
	g.spawnBots(g.settings.InitialBotCount)

	g.started = true
	g.startedAt = now
	g.paused, g.pausedBy, g.pausedTotal = false, "", 0
	g.blackBotsSpawned = false
	g.nextTopUp = now.Add(TopUpInterval)
	g.tick = 0
	g.events.Push(EventGameStarted, "", GameStartedData{
		Duration: g.settings.GameDuration,
		Players:  g.reg.PlayerCount(),
		Bots:     g.reg.BotCount(),
	})

	g.log.WithFields(logrus.Fields{
		"players":  g.reg.PlayerCount(),
		"bots":     g.reg.BotCount(),
		"duration": g.settings.GameDuration,
		"degraded": g.world.Degraded(),
	}).Info("game started")
	return nil
}

func (g *Game) spawnBots(n int) {
	for i := 0; i < n; i++ {
		pos := g.world.FindSpawnPosition(g.reg.Occupied())
		g.reg.AddBot(NewBot(g.reg.NextID("b"), NeutralColor, pos.X, pos.Y))
	}
}

// QueueMove queues a move command for the next tick.
func (g *Game) QueueMove(playerID string, dx, dy float64, boost bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = append(g.pending, command{kind: cmdMove, playerID: playerID, dx: dx, dy: dy, boost: boost})
}

// QueuePause queues a pause toggle. While paused, only the player who paused
// may resume.
func (g *Game) QueuePause(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case g.ended:
		return ErrGameOver
	case g.reg.Player(playerID) == nil:
		return ErrUnknownPlayer
	case g.paused && g.pausedBy != playerID:
		return ErrNotPauser
	}
	g.pending = append(g.pending, command{kind: cmdPause, playerID: playerID})
	return nil
}

// QueueBonusExpired queues a client's acknowledgement that a bonus ran out.
func (g *Game) QueueBonusExpired(playerID string, t BonusType) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = append(g.pending, command{kind: cmdBonusExpired, playerID: playerID, bonus: t})
}

// Run starts the game loop. It returns when ctx is cancelled, Stop is called
// or the game ends.
func (g *Game) Run(ctx context.Context) {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if g.Tick(now) {
				return
			}
		case <-g.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}

// elapsed is the game time spent unpaused.
func (g *Game) elapsed(now time.Time) time.Duration {
	paused := g.pausedTotal
	if g.paused {
		paused += now.Sub(g.pausedAt)
	}
	return now.Sub(g.startedAt) - paused
}

func (g *Game) timeLeft(now time.Time) float64 {
	left := g.settings.GameDuration - g.elapsed(now).Seconds()
	if left < 0 {
		return 0
	}
	return left
}

// TimeLeft returns the remaining game time in seconds.
func (g *Game) TimeLeft(now time.Time) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.started {
		return g.settings.GameDuration
	}
	return g.timeLeft(now)
}

// Tick advances the simulation to now. It reports whether the game is over.
func (g *Game) Tick(now time.Time) bool {
	g.mu.Lock()
	if g.ended {
		g.mu.Unlock()
		return true
	}
	if !g.started {
		g.mu.Unlock()
		return false
	}
	res := g.step(now)
	g.mu.Unlock()
	g.finish(res)
	return res != nil
}

func (g *Game) step(now time.Time) *Result {
	for _, p := range g.reg.Players() {
		p.movesThisTick = 0
	}
	g.applyCommands(now)

	if g.paused {
		g.flushEvents()
		return nil
	}
	if g.timeLeft(now) <= 0 {
		return g.end(EndTimeout, now)
	}

	g.maybeSpawnBlackBots(now)
	g.bots.Update(now)
	g.hostiles.Update(now)
	g.capture.Resolve(now)
	g.zones.Maintain(now)
	g.zones.Apply(now)
	g.items.Maintain(now)
	g.topUp(now)
	g.tick++

	g.broadcastState(now)
	g.flushEvents()
	return nil
}

func (g *Game) maybeSpawnBlackBots(now time.Time) {
	if !g.settings.EnableBlackBot || g.blackBotsSpawned {
		return
	}
	threshold := g.settings.GameDuration * g.settings.BlackBotStartPercent / 100
	if g.elapsed(now).Seconds() >= threshold {
		g.blackBotsSpawned = true
		g.hostiles.Spawn(g.settings.BlackBotCount)
	}
}

func (g *Game) topUp(now time.Time) {
	if now.Before(g.nextTopUp) {
		return
	}
	g.nextTopUp = now.Add(TopUpInterval)
	if missing := g.settings.InitialBotCount - g.reg.BotCount(); missing > 0 {
		g.spawnBots(missing)
		g.log.WithField("count", missing).Debug("bots topped up")
	}
}

func (g *Game) applyCommands(now time.Time) {
	cmds := g.pending
	g.pending = nil
	for _, c := range cmds {
		p := g.reg.Player(c.playerID)
		if p == nil {
			continue
		}
		switch c.kind {
		case cmdMove:
			if !g.paused {
				g.move(p, c.dx, c.dy, c.boost, now)
			}
		case cmdPause:
			g.togglePause(p, now)
		case cmdBonusExpired:
			p.ClearBonus(c.bonus)
		}
	}
}

// move applies one client direction. Bad input and blocked destinations are
// dropped silently.
func (g *Game) move(p *Player, dx, dy float64, boost bool, now time.Time) {
	if p.movesThisTick >= MaxMovesPerTick {
		return
	}
	if !finite(dx) || !finite(dy) || math.Hypot(dx, dy) > MaxMoveMagnitude {
		return
	}
	p.movesThisTick++

	step := PlayerStep
	if boost && p.BonusActive(BonusSpeed, now) {
		step *= BoostMultiplier
	}
	if now.Before(p.ReverseUntil) {
		dx, dy = -dx, -dy
	}
	mx, my := dx*step, dy*step
	if mx == 0 && my == 0 {
		return
	}
	p.Heading = math.Atan2(my, mx)
	if g.world.CanMove(p.X, p.Y, p.X+mx, p.Y+my, EntityRadius) {
		p.X += mx
		p.Y += my
	}
}

func (g *Game) togglePause(p *Player, now time.Time) {
	if !g.paused {
		g.paused = true
		g.pausedBy = p.ID
		g.pausedAt = now
		g.log.WithField("player", p.ID).Info("game paused")
		g.events.Push(EventGamePaused, "", PauseData{PlayerID: p.ID, Nickname: p.Nickname})
		return
	}
	if g.pausedBy == p.ID {
		g.resume(now, p)
	}
}

func (g *Game) resume(now time.Time, by *Player) {
	g.pausedTotal += now.Sub(g.pausedAt)
	g.paused = false
	g.pausedBy = ""
	g.log.WithField("player", by.ID).Info("game resumed")
	g.events.Push(EventGameResumed, "", PauseData{PlayerID: by.ID, Nickname: by.Nickname})
}

// end marks the game over and returns its result; the caller reports it
// after releasing the lock.
func (g *Game) end(reason string, now time.Time) *Result {
	g.ended = true
	res := &Result{
		GameID:    g.ID,
		Reason:    reason,
		StartedAt: g.startedAt,
		EndedAt:   now,
		Scores:    Scores(g.reg, now),
	}
	g.events.Push(EventGameOver, "", GameOverData{Reason: reason, Scores: res.Scores})
	g.flushEvents()
	g.log.WithFields(logrus.Fields{"reason": reason, "ticks": g.tick}).Info("game over")
	return res
}

func (g *Game) finish(res *Result) {
	if res != nil && g.OnEnd != nil {
		g.OnEnd(*res)
	}
}

// Snapshot builds the client view of the arena at now.
func (g *Game) Snapshot(now time.Time) *Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot(now)
}

func (g *Game) snapshot(now time.Time) *Snapshot {
	s := buildSnapshot(g.reg, g.items, g.zones, now)
	s.TimeLeft = round1(g.timeLeft(now))
	s.Tick = g.tick
	s.Paused = g.paused
	return s
}

// broadcastState sends the current game state to all clients
func (g *Game) broadcastState(now time.Time) {
	if len(g.clients) == 0 {
		return
	}
	data, err := EncodeSnapshot(g.snapshot(now))
	if err != nil {
		g.log.WithError(err).Error("snapshot encoding failed")
		return
	}
	for _, c := range g.clients {
		c.SendBinary(data)
	}
}

func (g *Game) flushEvents() {
	for _, ev := range g.events.Drain() {
		msg := message{T: string(ev.Type), D: ev.Data}
		if ev.To == "" {
			for _, c := range g.clients {
				c.SendJSON(msg)
			}
			continue
		}
		if c, ok := g.clients[ev.To]; ok {
			c.SendJSON(msg)
		}
	}
}
