package game

import (
	"math"
	"testing"
	"time"
)

func runBots(ai *BotAI, from time.Time, ticks int, each func(now time.Time)) time.Time {
	now := from
	for i := 0; i < ticks; i++ {
		now = now.Add(TickDuration)
		ai.Update(now)
		if each != nil {
			each(now)
		}
	}
	return now
}

func TestBotFirstTickWanders(t *testing.T) {
	e := newTestEnv()
	b := e.addBot(NeutralColor, 1000, 750)
	ai := NewBotAI(e.world, e.reg, e.rng)

	ai.Update(t0)
	if b.State != Wandering {
		t.Fatalf("expected Wandering, got %v", b.State)
	}
	if d := Distance(1000, 750, b.X, b.Y); math.Abs(d-BotSpeed) > 1e-9 {
		t.Errorf("expected a %v px step, moved %v", BotSpeed, d)
	}
	if got := math.Hypot(b.VX, b.VY); math.Abs(got-BotSpeed) > 1e-9 {
		t.Errorf("velocity magnitude %v, want %v", got, BotSpeed)
	}
}

func TestBotAlternatesWanderAndPause(t *testing.T) {
	e := newTestEnv()
	b := e.addBot(NeutralColor, 1000, 750)
	ai := NewBotAI(e.world, e.reg, e.rng)

	ai.Update(t0)
	ai.Update(b.StateUntil)
	if b.State != Paused {
		t.Fatalf("expected Paused, got %v", b.State)
	}
	x, y := b.X, b.Y
	ai.Update(b.StateUntil.Add(-time.Millisecond))
	if b.X != x || b.Y != y {
		t.Error("a paused bot must not move")
	}

	ai.Update(b.StateUntil)
	if b.State != Wandering {
		t.Errorf("expected Wandering after the pause, got %v", b.State)
	}
}

func TestBotsStayOutOfWalls(t *testing.T) {
	e := newTestEnv()
	mask := NewClearMask(2000, 1500)
	blockRect(mask, 400, 400, 800, 800)
	e.world = NewWorld(2000, 1500, mask, e.rng)

	bots := []*Bot{
		e.addBot(NeutralColor, 380, 600),
		e.addBot(NeutralColor, 600, 820),
		e.addBot(NeutralColor, 15, 15),
	}
	ai := NewBotAI(e.world, e.reg, e.rng)

	runBots(ai, t0, 2000, func(now time.Time) {
		for _, b := range bots {
			if !e.world.CanStand(b.X, b.Y, EntityRadius) {
				t.Fatalf("bot %s entered a wall at (%.1f, %.1f)", b.ID, b.X, b.Y)
			}
		}
	})
}

func TestStuckBotIsRelocated(t *testing.T) {
	e := newTestEnv()
	mask := NewClearMask(2000, 1500)
	blockRect(mask, 950, 700, 1050, 800)
	e.world = NewWorld(2000, 1500, mask, e.rng)

	b := e.addBot(NeutralColor, 1000, 750)
	ai := NewBotAI(e.world, e.reg, e.rng)

	runBots(ai, t0, 1200, nil)
	if !e.world.CanStand(b.X, b.Y, EntityRadius) {
		t.Errorf("bot still stuck at (%.1f, %.1f)", b.X, b.Y)
	}
}

func TestStuckBotEscapesBeforeTeleport(t *testing.T) {
	e := newTestEnv()
	mask := NewClearMask(2000, 1500)
	// wall right of the bot blocks the first escape direction
	blockRect(mask, 1012, 700, 1100, 800)
	e.world = NewWorld(2000, 1500, mask, e.rng)
	b := e.addBot(NeutralColor, 1000, 750)
	ai := NewBotAI(e.world, e.reg, e.rng)

	b.State = Wandering
	b.Stuck = stuckEscapeAfter
	b.SampleX, b.SampleY = b.X, b.Y
	ai.checkStuck(&b.Entity, &b.Wander, BotSpeed, t0)

	if b.X != 1000-2*BotSpeed || b.Y != 750 {
		t.Errorf("expected a %v px escape to the left, bot at (%v, %v)", 2*BotSpeed, b.X, b.Y)
	}
	if math.Abs(math.Abs(b.Heading)-math.Pi) > 1e-9 {
		t.Errorf("heading should follow the escape direction, got %v", b.Heading)
	}
	if b.Stuck != stuckEscapeAfter+1 {
		t.Errorf("escape must not reset the counter like a teleport, got %d", b.Stuck)
	}
}
