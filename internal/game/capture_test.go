package game

import (
	"testing"
	"time"
)

func TestCaptureChainRecolorsTouchingBots(t *testing.T) {
	e := newTestEnv()
	p := e.addPlayer("P", red, 100, 100)
	var bots []*Bot
	for y := 100.0; y <= 120; y += 5 {
		bots = append(bots, e.addBot(blue, 105, y))
	}

	c := e.captureEngine()
	c.Radius = 15
	c.Resolve(t0)

	for _, b := range bots {
		if b.Color != red {
			t.Errorf("bot %s at (%v, %v) should be red, got %s", b.ID, b.X, b.Y, b.Color)
		}
	}
	if p.Captures != 0 {
		t.Errorf("bot captures must not count, got %d", p.Captures)
	}
	if got := e.reg.CountBots(p.Color); got != 5 {
		t.Errorf("expected 5 bots for P, got %d", got)
	}
}

func TestPlayerCaptureTransfersVictimBots(t *testing.T) {
	e := newTestEnv()
	a := e.addPlayer("Alice", PlayerColors[0], 500, 500)
	b := e.addPlayer("Bob", PlayerColors[1], 510, 500)
	oldColor := b.Color
	e.addBot(oldColor, 1500, 1000)
	e.addBot(oldColor, 1500, 1100)
	e.addBot(oldColor, 1500, 1200)
	e.addBot(PlayerColors[0], 200, 1200)

	before := e.reg.CountBots(oldColor)
	e.captureEngine().Resolve(t0)

	if got := e.reg.CountBots(a.Color); got != before+1 {
		t.Errorf("expected %d bots for attacker, got %d", before+1, got)
	}
	if e.reg.CountBots(oldColor) != 0 {
		t.Error("no bot should keep the victim's old color")
	}
	if a.Captures != 1 {
		t.Errorf("expected 1 capture, got %d", a.Captures)
	}
	if rec := a.CapturedPlayers[b.ID]; rec == nil || rec.Count != 1 || rec.Nickname != "Bob" {
		t.Errorf("attacker history wrong: %+v", rec)
	}
	if rec := b.CapturedBy[a.ID]; rec == nil || rec.Count != 1 || rec.Nickname != "Alice" {
		t.Errorf("victim history wrong: %+v", rec)
	}
	if b.Color == a.Color || b.Color == oldColor {
		t.Errorf("victim should get a fresh color, got %s", b.Color)
	}
	if !b.Protected(t0) {
		t.Error("victim should be spawn protected")
	}
	if Distance(a.X, a.Y, b.X, b.Y) < SafeSpawnDistance {
		t.Error("victim should respawn away from the attacker")
	}

	evs := eventsOf(e.events.Drain(), EventPlayerCaptured)
	if len(evs) != 2 {
		t.Fatalf("expected 2 playerCaptured events, got %d", len(evs))
	}
	if evs[0].To != a.ID || evs[1].To != b.ID {
		t.Errorf("events should go to attacker then victim, got %s, %s", evs[0].To, evs[1].To)
	}
	if d := evs[0].Data.(PlayerCapturedData); d.BotsTransferred != before {
		t.Errorf("expected %d transferred, got %d", before, d.BotsTransferred)
	}
}

func TestPlayerCaptureReversedWhenFirstIsProtected(t *testing.T) {
	e := newTestEnv()
	a := e.addPlayer("A", PlayerColors[0], 500, 500)
	b := e.addPlayer("B", PlayerColors[1], 510, 500)
	b.ProtectedUntil = t0.Add(time.Second)

	e.captureEngine().Resolve(t0)
	if b.Captures != 1 || a.Captures != 0 {
		t.Errorf("protected B should capture A: a=%d b=%d", a.Captures, b.Captures)
	}
	if b.Color != PlayerColors[1] {
		t.Error("attacker keeps its color")
	}
}

func TestPlayerCaptureNeedsVulnerableVictim(t *testing.T) {
	e := newTestEnv()
	a := e.addPlayer("A", PlayerColors[0], 500, 500)
	b := e.addPlayer("B", PlayerColors[1], 510, 500)
	a.ProtectedUntil = t0.Add(time.Second)
	b.ExtendBonus(BonusInvincibility, time.Second, t0)

	e.captureEngine().Resolve(t0)
	if a.Captures != 0 || b.Captures != 0 {
		t.Error("no capture between two invulnerable players")
	}
}

func TestPlayerCaptureCooldown(t *testing.T) {
	e := newTestEnv()
	a := e.addPlayer("A", PlayerColors[0], 500, 500)
	b := e.addPlayer("B", PlayerColors[1], 510, 500)
	a.LastCapture = t0.Add(-500 * time.Millisecond)
	b.LastCapture = t0.Add(-500 * time.Millisecond)

	c := e.captureEngine()
	c.Resolve(t0)
	if a.Captures != 0 || b.Captures != 0 {
		t.Fatal("both attackers are on cooldown")
	}

	c.Resolve(t0.Add(600 * time.Millisecond))
	if a.Captures != 1 {
		t.Error("A should capture once its cooldown ran out")
	}
}

func TestInvinciblePlayerDestroysBlackBot(t *testing.T) {
	e := newTestEnv()
	p := e.addPlayer("P", red, 500, 500)
	p.ExtendBonus(BonusInvincibility, 5*time.Second, t0)
	e.reg.AddHostile(NewHostileBot("h00001", 505, 500, 300, 2.5))

	e.captureEngine().Resolve(t0)
	if e.reg.HostileCount() != 0 {
		t.Fatal("black bot should be destroyed")
	}
	if p.BonusPoints != HostileKillBonus {
		t.Errorf("expected %d bonus points, got %d", HostileKillBonus, p.BonusPoints)
	}
	if len(eventsOf(e.events.Drain(), EventBlackBotDestroyed)) != 1 {
		t.Error("expected a blackBotDestroyed event")
	}
}

func TestBlackBotCatchesPlayerOnContact(t *testing.T) {
	e := newTestEnv()
	p := e.addPlayer("P", red, 500, 500)
	e.reg.AddHostile(NewHostileBot("h00001", 505, 500, 300, 2.5))

	e.captureEngine().Resolve(t0)
	if p.CapturedByHostile != 1 {
		t.Errorf("expected 1 black bot capture, got %d", p.CapturedByHostile)
	}
	if e.reg.HostileCount() != 1 {
		t.Error("black bot should survive")
	}
}

func TestNeutralBotsDoNotInfect(t *testing.T) {
	e := newTestEnv()
	n := e.addBot(NeutralColor, 500, 500)
	b := e.addBot(blue, 505, 500)

	e.captureEngine().Resolve(t0)
	if n.Color != NeutralColor || b.Color != blue {
		t.Errorf("neutral contact should change nothing: %s %s", n.Color, b.Color)
	}
}

func TestPlayerReclaimsNeutralBot(t *testing.T) {
	e := newTestEnv()
	e.addPlayer("P", red, 500, 500)
	n := e.addBot(NeutralColor, 505, 500)

	e.captureEngine().Resolve(t0)
	if n.Color != red {
		t.Errorf("player should reclaim a neutral bot, got %s", n.Color)
	}
}

func TestBotInfectionFollowsIDOrder(t *testing.T) {
	e := newTestEnv()
	first := e.addBot(blue, 500, 500)
	second := e.addBot(red, 510, 500)

	e.captureEngine().Resolve(t0)
	if second.Color != blue || first.Color != blue {
		t.Errorf("second bot should take the first's color, got %s", second.Color)
	}
}

func TestBlackBotContactSettledBeforeBotPickups(t *testing.T) {
	e := newTestEnv()
	e.settings.BlackBotPointsLossPercent = 50
	p := e.addPlayer("P", red, 500, 500)
	for i := 0; i < 4; i++ {
		e.addBot(red, 100+float64(i)*60, 1200)
	}
	stray := e.addBot(blue, 505, 500)
	e.reg.AddHostile(NewHostileBot("h00001", 495, 500, 300, 2.5))

	e.captureEngine().Resolve(t0)

	if got := e.reg.CountBots(NeutralColor); got != 2 {
		t.Errorf("loss should be counted on the 4 bots held before the tick, got %d neutral", got)
	}
	if got := e.reg.CountBots(red); got != 2 {
		t.Errorf("expected 2 red bots left, got %d", got)
	}
	if stray.Color != blue {
		t.Errorf("respawned player should not pick up the bot it left behind, got %s", stray.Color)
	}
	if p.CapturedByHostile != 1 {
		t.Errorf("expected one black bot capture, got %d", p.CapturedByHostile)
	}
}
