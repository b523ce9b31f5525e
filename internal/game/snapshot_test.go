package game

import (
	"math/rand"
	"testing"
	"time"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := DefaultSettings()
	s.InitialBotCount = 25
	g := NewGame("g1", s, Options{Rand: rand.New(rand.NewSource(5))})
	for _, n := range []string{"Ann", "Ben", "Cid"} {
		if _, err := g.AddPlayer(n, t0); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.Start(t0); err != nil {
		t.Fatal(err)
	}
	g.mu.Lock()
	g.hostiles.Spawn(2)
	g.mu.Unlock()

	snap := g.Snapshot(t0.Add(time.Second))
	data, err := EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(got.Entities) != len(snap.Entities) || len(snap.Entities) != 3+25+2 {
		t.Fatalf("expected %d entities, got %d", len(snap.Entities), len(got.Entities))
	}
	for i := range snap.Entities {
		if got.Entities[i].ID != snap.Entities[i].ID || got.Entities[i].Color != snap.Entities[i].Color {
			t.Errorf("entity %d changed: %+v vs %+v", i, got.Entities[i], snap.Entities[i])
		}
	}
	if len(got.PlayerScores) != 3 {
		t.Errorf("expected 3 scores, got %d", len(got.PlayerScores))
	}
	if got.TimeLeft != snap.TimeLeft {
		t.Errorf("timeLeft changed: %v vs %v", got.TimeLeft, snap.TimeLeft)
	}
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	if _, err := DecodeSnapshot([]byte{0xc1}); err == nil {
		t.Error("expected error for invalid msgpack")
	}
}

func TestScoresOrderedByScore(t *testing.T) {
	e := newTestEnv()
	a := e.addPlayer("A", PlayerColors[0], 0, 0)
	b := e.addPlayer("B", PlayerColors[1], 0, 0)
	e.addBot(b.Color, 0, 0)
	e.addBot(b.Color, 0, 0)
	a.BonusPoints = 1
	a.CapturedBy[b.ID] = &CaptureRecord{Nickname: "B", Count: 2}
	b.ExtendBonus(BonusReveal, 3*time.Second, t0)

	scores := Scores(e.reg, t0)
	if scores[0].ID != b.ID || scores[0].CurrentBots != 2 {
		t.Errorf("B should lead with 2 bots, got %+v", scores[0])
	}
	if scores[0].ActiveBonuses[BonusReveal] != 3 {
		t.Errorf("expected 3s of reveal, got %v", scores[0].ActiveBonuses)
	}
	if scores[1].CapturedBy[b.ID].Count != 2 || scores[1].Score != 1 {
		t.Errorf("unexpected score line for A: %+v", scores[1])
	}
}

func TestSnapshotMarksHiddenAndProtected(t *testing.T) {
	e := newTestEnv()
	p := e.addPlayer("P", red, 100, 100)
	p.Hidden = true
	p.ProtectedUntil = t0.Add(time.Second)
	items := NewItemSpawner(e.world, e.reg, e.rng, &e.settings, e.events)
	zones := NewZoneEngine(e.world, e.reg, e.rng, &e.settings)

	s := buildSnapshot(e.reg, items, zones, t0)
	if len(s.Entities) != 1 || !s.Entities[0].Hidden || !s.Entities[0].Protected {
		t.Errorf("unexpected entity state %+v", s.Entities)
	}
	if s.Entities[0].Type != KindPlayer || s.Entities[0].Nickname != "P" {
		t.Errorf("player fields missing: %+v", s.Entities[0])
	}
}
