package game

import "testing"

func TestRegistryIterationInIDOrder(t *testing.T) {
	r := NewRegistry()
	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		b := NewBot(r.NextID("b"), blue, 0, 0)
		ids = append(ids, b.ID)
	}
	// insert in reverse
	for i := len(ids) - 1; i >= 0; i-- {
		r.AddBot(NewBot(ids[i], blue, 0, 0))
	}
	for i, b := range r.Bots() {
		if b.ID != ids[i] {
			t.Fatalf("bot %d: expected %s, got %s", i, ids[i], b.ID)
		}
	}
}

func TestRegistryListsAreSnapshots(t *testing.T) {
	r := NewRegistry()
	r.AddHostile(NewHostileBot("h1", 0, 0, 100, 2))
	r.AddHostile(NewHostileBot("h2", 0, 0, 100, 2))

	list := r.Hostiles()
	r.RemoveHostile("h1")
	if len(list) != 2 || list[0].ID != "h1" {
		t.Error("earlier list should not change after removal")
	}
	if r.HostileCount() != 1 || len(r.Hostiles()) != 1 {
		t.Error("registry should hold one black bot")
	}
}

func TestTransferColorLimit(t *testing.T) {
	e := newTestEnv()
	for i := 0; i < 6; i++ {
		e.addBot(blue, float64(i*100), 0)
	}
	if n := e.reg.TransferColor(blue, red, 4); n != 4 {
		t.Errorf("expected 4 recolored, got %d", n)
	}
	if n := e.reg.CountBots(blue); n != 2 {
		t.Errorf("expected 2 blue left, got %d", n)
	}
	if n := e.reg.TransferColor(blue, red, -1); n != 2 {
		t.Errorf("unlimited transfer should recolor the rest, got %d", n)
	}
	if n := e.reg.TransferColor(red, red, -1); n != 0 {
		t.Errorf("same-color transfer should be a no-op, got %d", n)
	}
}

func TestScoreIncludesBonusPoints(t *testing.T) {
	e := newTestEnv()
	p := e.addPlayer("P", red, 0, 0)
	e.addBot(red, 100, 100)
	e.addBot(red, 200, 100)
	e.addBot(blue, 300, 100)
	p.BonusPoints = 5

	if got := e.reg.Score(p); got != 7 {
		t.Errorf("expected score 7, got %d", got)
	}
	if got := len(e.reg.EntitiesWithColor(red)); got != 2 {
		t.Errorf("expected 2 red bots, got %d", got)
	}
}

func TestFreeColorSkipsTakenColors(t *testing.T) {
	e := newTestEnv()
	e.addPlayer("A", PlayerColors[0], 0, 0)
	e.addPlayer("B", PlayerColors[1], 0, 0)
	if c := e.reg.FreeColor(); c != PlayerColors[2] {
		t.Errorf("expected %s, got %s", PlayerColors[2], c)
	}

	r := NewRegistry()
	for _, c := range PlayerColors {
		r.AddPlayer(NewPlayer(r.NextID("p"), "x", c, 0, 0))
	}
	if c := r.FreeColor(); c != "" {
		t.Errorf("exhausted palette should yield no color, got %s", c)
	}
}

func TestResetNPCsKeepsPlayers(t *testing.T) {
	e := newTestEnv()
	e.addPlayer("P", red, 0, 0)
	e.addBot(red, 0, 0)
	e.reg.AddHostile(NewHostileBot("h1", 0, 0, 100, 2))

	e.reg.ResetNPCs()
	if e.reg.PlayerCount() != 1 || e.reg.BotCount() != 0 || e.reg.HostileCount() != 0 {
		t.Error("ResetNPCs should drop bots and black bots only")
	}
	if len(e.reg.AllEntities()) != 1 {
		t.Error("flattened view should hold just the player")
	}
}
