package game

import (
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"arena-server/internal/logger"
)

const (
	BotSpeed = 2.0 // px per tick

	wanderMinMs      = 1000
	wanderMaxMs      = 3000
	stuckSampleEvery = 500 * time.Millisecond
	stuckThreshold   = 1.0 // px moved per sample below which a bot counts as stuck
	stuckEscapeAfter = 3
	stuckTeleportAt  = 5
	headingRetries   = 8
)

// escapeDirs are the cardinal and diagonal escape directions.
var escapeDirs = [8][2]float64{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{math.Sqrt2 / 2, math.Sqrt2 / 2}, {-math.Sqrt2 / 2, math.Sqrt2 / 2},
	{math.Sqrt2 / 2, -math.Sqrt2 / 2}, {-math.Sqrt2 / 2, -math.Sqrt2 / 2},
}

// mover holds the movement primitives both AIs are built from.
type mover struct {
	world *World
	reg   *Registry
	rng   *rand.Rand
	log   *logrus.Entry
}

func (m *mover) randDuration(minMs, maxMs int) time.Duration {
	return millis(minMs + m.rng.Intn(maxMs-minMs+1))
}

func (m *mover) setHeading(e *Entity, w *Wander, heading, speed float64) {
	e.Heading = NormalizeAngle(heading)
	w.VX = math.Cos(e.Heading) * speed
	w.VY = math.Sin(e.Heading) * speed
}

// step moves e by (dx, dy) if the destination is walkable.
func (m *mover) step(e *Entity, dx, dy float64) bool {
	nx, ny := e.X+dx, e.Y+dy
	if !m.world.CanMove(e.X, e.Y, nx, ny, EntityRadius) {
		return false
	}
	e.X, e.Y = nx, ny
	return true
}

// turn perturbs the heading by up to ±90°, keeping the first walkable choice.
// When every retry is blocked the heading is reversed.
func (m *mover) turn(e *Entity, w *Wander, speed float64) bool {
	for i := 0; i < headingRetries; i++ {
		h := e.Heading + (m.rng.Float64()*math.Pi - math.Pi/2)
		if m.world.CanMove(e.X, e.Y, e.X+math.Cos(h)*speed, e.Y+math.Sin(h)*speed, EntityRadius) {
			m.setHeading(e, w, h, speed)
			return true
		}
	}
	m.setHeading(e, w, e.Heading+math.Pi, speed)
	return false
}

func (m *mover) startWander(e *Entity, w *Wander, speed float64, now time.Time) {
	w.State = Wandering
	w.StateUntil = now.Add(m.randDuration(wanderMinMs, wanderMaxMs))
	w.NextTurn = now.Add(m.randDuration(wanderMinMs, wanderMaxMs))
	w.NextSample = now.Add(stuckSampleEvery)
	w.SampleX, w.SampleY = e.X, e.Y
	w.Stuck = 0
	m.setHeading(e, w, m.world.RandomHeading(), speed)
}

// wander advances the Wandering/Paused FSM by one tick.
func (m *mover) wander(e *Entity, w *Wander, speed float64, now time.Time) {
	if w.StateUntil.IsZero() {
		m.startWander(e, w, speed, now)
	}

	if !now.Before(w.StateUntil) {
		if w.State == Wandering {
			w.State = Paused
			w.VX, w.VY = 0, 0
		} else {
			w.State = Wandering
			m.setHeading(e, w, e.Heading, speed)
			w.NextTurn = now.Add(m.randDuration(wanderMinMs, wanderMaxMs))
		}
		w.StateUntil = now.Add(m.randDuration(wanderMinMs, wanderMaxMs))
	}

	if w.State == Wandering {
		if !now.Before(w.NextTurn) {
			m.turn(e, w, speed)
			w.NextTurn = now.Add(m.randDuration(wanderMinMs, wanderMaxMs))
		}
		if !m.step(e, w.VX, w.VY) {
			if m.turn(e, w, speed) {
				m.step(e, w.VX, w.VY)
			}
		}
	}

	m.checkStuck(e, w, speed, now)
}

// checkStuck samples displacement and escalates recovery: an escape step in eight
// directions first, a teleport to a fresh spawn point last.
func (m *mover) checkStuck(e *Entity, w *Wander, speed float64, now time.Time) {
	if now.Before(w.NextSample) {
		return
	}
	moved := Distance(w.SampleX, w.SampleY, e.X, e.Y)
	if w.State == Wandering {
		if moved < stuckThreshold {
			w.Stuck++
		} else {
			w.Stuck = 0
		}
	}
	w.NextSample = now.Add(stuckSampleEvery)

	switch {
	case w.Stuck > stuckTeleportAt:
		p := m.world.FindSpawnPosition(m.reg.Occupied())
		m.log.WithFields(logrus.Fields{
			"entity": e.ID,
			"from":   Point{X: e.X, Y: e.Y},
			"to":     p,
		}).Debug("stuck entity teleported")
		e.X, e.Y = p.X, p.Y
		w.Stuck = 0
		m.setHeading(e, w, m.world.RandomHeading(), speed)
	case w.Stuck > stuckEscapeAfter:
		step := speed * 2
		for _, d := range escapeDirs {
			if m.step(e, d[0]*step, d[1]*step) {
				m.setHeading(e, w, math.Atan2(d[1], d[0]), speed)
				break
			}
		}
	}
	w.SampleX, w.SampleY = e.X, e.Y
}

// BotAI drives the ordinary bots.
type BotAI struct {
	mover
}

// NewBotAI creates the ordinary bot behaviour.
func NewBotAI(world *World, reg *Registry, rng *rand.Rand) *BotAI {
	return &BotAI{mover{world: world, reg: reg, rng: rng, log: logger.Component("botai")}}
}

// Update advances every bot by one tick.
func (ai *BotAI) Update(now time.Time) {
	for _, b := range ai.reg.Bots() {
		ai.wander(&b.Entity, &b.Wander, BotSpeed, now)
	}
}
