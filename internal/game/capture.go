package game

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"arena-server/internal/logger"
)

const (
	DefaultCaptureRadius  = 20.0
	PlayerCaptureCooldown = 1000 * time.Millisecond
	SpawnProtection       = 3 * time.Second
)

// respawn moves p to a fresh spawn point and starts its protection window.
func (m *mover) respawn(p *Player, now time.Time) {
	pos := m.world.FindSpawnPosition(m.reg.Occupied())
	p.X, p.Y = pos.X, pos.Y
	p.ProtectedUntil = now.Add(SpawnProtection)
}

// CaptureEngine resolves contacts between every pair of entities once per tick.
type CaptureEngine struct {
	mover
	Radius  float64
	hostile *HostileAI
	events  *EventQueue
	grid    *SpatialGrid
	buf     []EntityRef
}

// NewCaptureEngine creates a capture engine using the default capture radius.
func NewCaptureEngine(world *World, reg *Registry, rng *rand.Rand, hostile *HostileAI, events *EventQueue) *CaptureEngine {
	return &CaptureEngine{
		mover:   mover{world: world, reg: reg, rng: rng, log: logger.Component("capture")},
		Radius:  DefaultCaptureRadius,
		hostile: hostile,
		events:  events,
		grid:    NewSpatialGrid(world.Width, world.Height),
	}
}

// Resolve evaluates each unordered pair of touching entities once. Contacts
// with black bots are settled first, on the positions at the start of the
// tick; the remaining pairs are then visited in flattened id order (players,
// bots, black bots), so a color picked up earlier in the pass spreads along a
// chain of touching bots.
func (c *CaptureEngine) Resolve(now time.Time) {
	c.pass(now, true)
	c.pass(now, false)
}

// pass visits the pairs that involve a black bot when hostiles is set, and
// every other pair otherwise.
func (c *CaptureEngine) pass(now time.Time, hostiles bool) {
	all := c.reg.AllEntities()
	c.grid.Clear()
	for i, e := range all {
		c.grid.Insert(e.X, e.Y, EntityRef{Kind: e.Kind, Idx: i})
	}

	for i, a := range all {
		if !c.alive(a) {
			continue
		}
		c.buf = c.grid.QueryBuf(a.X, a.Y, c.Radius, c.buf[:0])
		// grid order is not id order
		sortRefs(c.buf)
		for _, ref := range c.buf {
			if ref.Idx <= i {
				continue
			}
			b := all[ref.Idx]
			if (a.Kind == KindBlackBot || b.Kind == KindBlackBot) != hostiles {
				continue
			}
			if !c.alive(a) {
				break
			}
			if !c.alive(b) || !Overlaps(a.X, a.Y, b.X, b.Y, c.Radius) {
				continue
			}
			c.resolvePair(a, b, now)
		}
	}
}

// alive reports whether e is still registered; black bots can be destroyed
// mid-pass.
func (c *CaptureEngine) alive(e *Entity) bool {
	switch e.Kind {
	case KindPlayer:
		return c.reg.Player(e.ID) != nil
	case KindBot:
		return c.reg.Bot(e.ID) != nil
	case KindBlackBot:
		return c.reg.Hostile(e.ID) != nil
	}
	return false
}

func (c *CaptureEngine) resolvePair(a, b *Entity, now time.Time) {
	switch {
	case a.Kind == KindPlayer && b.Kind == KindBlackBot:
		c.playerVsHostile(c.reg.Player(a.ID), c.reg.Hostile(b.ID), now)
	case a.Kind == KindBlackBot && b.Kind == KindPlayer:
		c.playerVsHostile(c.reg.Player(b.ID), c.reg.Hostile(a.ID), now)
	case a.Kind == KindPlayer && b.Kind == KindPlayer:
		c.playerVsPlayer(c.reg.Player(a.ID), c.reg.Player(b.ID), now)
	case a.Kind == KindPlayer && b.Kind == KindBot:
		c.playerVsBot(c.reg.Player(a.ID), c.reg.Bot(b.ID))
	case a.Kind == KindBot && b.Kind == KindPlayer:
		c.playerVsBot(c.reg.Player(b.ID), c.reg.Bot(a.ID))
	case a.Kind == KindBot && b.Kind == KindBot:
		if a.Color != b.Color && a.Color != NeutralColor && b.Color != NeutralColor {
			b.Color = a.Color
		}
	}
}

func (c *CaptureEngine) playerVsHostile(p *Player, h *HostileBot, now time.Time) {
	if p.Invincible(now) {
		c.hostile.Destroy(h, p)
		return
	}
	if !p.IsInvulnerable(now) {
		c.hostile.CaptureEntity(h, &p.Entity, now)
	}
}

func (c *CaptureEngine) playerVsBot(p *Player, b *Bot) {
	if b.Color != p.Color {
		b.Color = p.Color
	}
}

func (c *CaptureEngine) canAttack(attacker, victim *Player, now time.Time) bool {
	if victim.IsInvulnerable(now) {
		return false
	}
	return attacker.LastCapture.IsZero() || now.Sub(attacker.LastCapture) >= PlayerCaptureCooldown
}

func (c *CaptureEngine) playerVsPlayer(a, b *Player, now time.Time) {
	if a.Color == b.Color {
		return
	}
	switch {
	case c.canAttack(a, b, now):
		c.CapturePlayer(a, b, now)
	case c.canAttack(b, a, now):
		c.CapturePlayer(b, a, now)
	}
}

// CapturePlayer hands every bot of the victim's color to the attacker and
// respawns the victim under a new color. It returns the number of bots
// transferred.
func (c *CaptureEngine) CapturePlayer(attacker, victim *Player, now time.Time) int {
	n := c.reg.TransferColor(victim.Color, attacker.Color, -1)

	recordCapture(attacker.CapturedPlayers, victim.ID, victim.Nickname)
	recordCapture(victim.CapturedBy, attacker.ID, attacker.Nickname)
	attacker.Captures++
	attacker.LastCapture = now

	if color := c.reg.FreeColor(); color != "" {
		victim.Color = color
	}
	c.respawn(victim, now)

	c.log.WithFields(logrus.Fields{
		"attacker": attacker.ID,
		"victim":   victim.ID,
		"bots":     n,
		"newColor": victim.Color,
	}).Debug("player captured")

	data := PlayerCapturedData{
		AttackerID:      attacker.ID,
		AttackerName:    attacker.Nickname,
		VictimID:        victim.ID,
		VictimName:      victim.Nickname,
		VictimNewColor:  victim.Color,
		BotsTransferred: n,
	}
	c.events.Push(EventPlayerCaptured, attacker.ID, data)
	c.events.Push(EventPlayerCaptured, victim.ID, data)
	return n
}

// sortRefs orders refs by index with an insertion sort; neighbourhoods are
// small.
func sortRefs(refs []EntityRef) {
	for i := 1; i < len(refs); i++ {
		for j := i; j > 0 && refs[j].Idx < refs[j-1].Idx; j-- {
			refs[j], refs[j-1] = refs[j-1], refs[j]
		}
	}
}
