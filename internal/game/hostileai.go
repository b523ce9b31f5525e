package game

import (
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"arena-server/internal/logger"
)

const (
	HostileScanInterval    = 500 * time.Millisecond
	HostileCaptureRange    = 20.0
	HostileCaptureCooldown = 2000 * time.Millisecond
	HostileKillBonus       = 5 // bonus points for destroying a black bot
)

// HostileAI drives the black bots: acquire a target, chase it, capture it.
type HostileAI struct {
	mover
	settings *Settings
	events   *EventQueue
}

// NewHostileAI creates the black bot behaviour.
func NewHostileAI(world *World, reg *Registry, rng *rand.Rand, settings *Settings, events *EventQueue) *HostileAI {
	return &HostileAI{
		mover:    mover{world: world, reg: reg, rng: rng, log: logger.Component("hostileai")},
		settings: settings,
		events:   events,
	}
}

// Spawn places n black bots at fresh spawn points.
func (ai *HostileAI) Spawn(n int) []*HostileBot {
	out := make([]*HostileBot, 0, n)
	for i := 0; i < n; i++ {
		p := ai.world.FindSpawnPosition(ai.reg.Occupied())
		h := NewHostileBot(ai.reg.NextID("h"), p.X, p.Y,
			ai.settings.BlackBotDetectionRadius, ai.settings.BlackBotSpeed)
		ai.reg.AddHostile(h)
		out = append(out, h)
	}
	if n > 0 {
		ai.log.WithField("count", n).Info("black bots entered the arena")
		ai.events.Push(EventBlackBotsSpawned, "", BlackBotsSpawnedData{Count: n})
	}
	return out
}

// eligible reports whether e may be hunted right now.
func (ai *HostileAI) eligible(e *Entity, now time.Time) bool {
	switch e.Kind {
	case KindPlayer:
		p := ai.reg.Player(e.ID)
		return p != nil && !p.IsInvulnerable(now)
	case KindBot:
		b := ai.reg.Bot(e.ID)
		return b != nil && b.Color != NeutralColor
	}
	return false
}

// resolveTarget looks the remembered target up again. A target that vanished,
// became immune or left the detection radius yields nil.
func (ai *HostileAI) resolveTarget(h *HostileBot, now time.Time) *Entity {
	if h.TargetID == "" {
		return nil
	}
	var e *Entity
	switch h.TargetKind {
	case KindPlayer:
		if p := ai.reg.Player(h.TargetID); p != nil {
			e = &p.Entity
		}
	case KindBot:
		if b := ai.reg.Bot(h.TargetID); b != nil {
			e = &b.Entity
		}
	}
	if e == nil || !ai.eligible(e, now) ||
		DistanceSq(h.X, h.Y, e.X, e.Y) > h.DetectionRadius*h.DetectionRadius {
		return nil
	}
	return e
}

// acquire scans the detection radius. Any eligible player beats any bot; the
// nearest wins within a class.
func (ai *HostileAI) acquire(h *HostileBot, now time.Time) *Entity {
	r2 := h.DetectionRadius * h.DetectionRadius
	var best *Entity
	bestD := math.MaxFloat64
	for _, p := range ai.reg.Players() {
		d := DistanceSq(h.X, h.Y, p.X, p.Y)
		if d <= r2 && d < bestD && !p.IsInvulnerable(now) {
			best, bestD = &p.Entity, d
		}
	}
	if best != nil {
		return best
	}
	for _, b := range ai.reg.Bots() {
		d := DistanceSq(h.X, h.Y, b.X, b.Y)
		if d <= r2 && d < bestD && b.Color != NeutralColor {
			best, bestD = &b.Entity, d
		}
	}
	return best
}

// Update advances every black bot by one tick.
func (ai *HostileAI) Update(now time.Time) {
	for _, h := range ai.reg.Hostiles() {
		if ai.reg.Hostile(h.ID) == nil {
			continue
		}
		ai.updateOne(h, now)
	}
}

func (ai *HostileAI) updateOne(h *HostileBot, now time.Time) {
	target := ai.resolveTarget(h, now)
	lost := h.TargetID != "" && target == nil
	if lost {
		h.clearTarget()
	}
	if lost || !now.Before(h.NextScan) {
		target = ai.acquire(h, now)
		h.NextScan = now.Add(HostileScanInterval)
		if target != nil {
			h.TargetID, h.TargetKind, h.State = target.ID, target.Kind, Pursuing
		} else {
			h.clearTarget()
		}
	}

	if target == nil {
		ai.wander(&h.Entity, &h.Wander, h.Speed, now)
		return
	}

	d := Distance(h.X, h.Y, target.X, target.Y)
	if d < HostileCaptureRange {
		ai.CaptureEntity(h, target, now)
		return
	}
	ux, uy := (target.X-h.X)/d, (target.Y-h.Y)/d
	ai.setHeading(&h.Entity, &h.Wander, math.Atan2(uy, ux), h.Speed)
	if !ai.step(&h.Entity, h.VX, h.VY) {
		if ai.turn(&h.Entity, &h.Wander, h.Speed) {
			ai.step(&h.Entity, h.VX, h.VY)
		}
	}
	ai.checkStuck(&h.Entity, &h.Wander, h.Speed, now)
}

// CaptureEntity makes h capture e, subject to the capture cooldown. A player
// who is invulnerable at this moment is never touched. It reports whether the
// capture happened.
func (ai *HostileAI) CaptureEntity(h *HostileBot, e *Entity, now time.Time) bool {
	if !h.LastCapture.IsZero() && now.Sub(h.LastCapture) < HostileCaptureCooldown {
		return false
	}
	switch e.Kind {
	case KindBot:
		b := ai.reg.Bot(e.ID)
		if b == nil || b.Color == NeutralColor {
			return false
		}
		b.Color = NeutralColor
	case KindPlayer:
		p := ai.reg.Player(e.ID)
		if p == nil || p.IsInvulnerable(now) {
			return false
		}
		ai.capturePlayer(h, p, now)
	default:
		return false
	}
	h.LastCapture = now
	h.clearTarget()
	return true
}

func (ai *HostileAI) capturePlayer(h *HostileBot, p *Player, now time.Time) {
	// Bonus points are never taken; the loss is counted in bots only.
	lost := int(math.Floor(float64(ai.reg.CountBots(p.Color)) * ai.settings.BlackBotPointsLossPercent / 100))
	recolored := ai.reg.TransferColor(p.Color, NeutralColor, lost)
	if shortfall := lost - recolored; shortfall > 0 {
		for i := 0; i < shortfall; i++ {
			pos := ai.world.FindSpawnPosition(ai.reg.Occupied())
			ai.reg.AddBot(NewBot(ai.reg.NextID("b"), NeutralColor, pos.X, pos.Y))
		}
	}

	ai.respawn(p, now)
	p.CapturedByHostile++

	ai.log.WithFields(logrus.Fields{
		"blackBot":   h.ID,
		"player":     p.ID,
		"pointsLost": lost,
		"recolored":  recolored,
	}).Debug("player caught by black bot")
	ai.events.Push(EventCapturedByBlackBot, p.ID, HostileCaptureData{
		PlayerID:   p.ID,
		BlackBotID: h.ID,
		PointsLost: lost,
	})
}

// Destroy removes a black bot rammed by an invincible player.
func (ai *HostileAI) Destroy(h *HostileBot, by *Player) {
	ai.reg.RemoveHostile(h.ID)
	by.BonusPoints += HostileKillBonus
	ai.log.WithFields(logrus.Fields{
		"blackBot": h.ID,
		"player":   by.ID,
	}).Debug("black bot destroyed")
	ai.events.Push(EventBlackBotDestroyed, "", BlackBotDestroyedData{
		PlayerID:   by.ID,
		BlackBotID: h.ID,
		Points:     HostileKillBonus,
	})
}
