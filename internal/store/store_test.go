package store

import (
	"path/filepath"
	"testing"
	"time"

	"arena-server/internal/game"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndListMatches(t *testing.T) {
	db := openTestDB(t)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	first := game.Result{
		GameID:    "g1",
		Reason:    game.EndTimeout,
		StartedAt: start,
		EndedAt:   start.Add(3 * time.Minute),
		Scores: []game.PlayerScore{
			{ID: "p00001", Nickname: "Ann", Color: "#E6194B", Score: 12, CurrentBots: 10, Captures: 2, BonusPoints: 2},
			{ID: "p00002", Nickname: "Ben", Color: "#3CB44B", Score: 4, CurrentBots: 4, CapturedByBlackBot: 1},
		},
	}
	second := game.Result{
		GameID:    "g2",
		Reason:    game.EndNoPlayers,
		StartedAt: start.Add(time.Hour),
		EndedAt:   start.Add(time.Hour + time.Minute),
	}

	id1, err := db.RecordMatch(first)
	if err != nil {
		t.Fatalf("RecordMatch: %v", err)
	}
	id2, err := db.RecordMatch(second)
	if err != nil {
		t.Fatalf("RecordMatch: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("ids should grow, got %d then %d", id1, id2)
	}

	matches, err := db.RecentMatches(10)
	if err != nil {
		t.Fatalf("RecentMatches: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].GameID != "g2" || len(matches[0].Players) != 0 {
		t.Errorf("newest match first, got %+v", matches[0])
	}
	m := matches[1]
	if m.Reason != game.EndTimeout || m.Duration != 180 || !m.EndedAt.Equal(first.EndedAt) {
		t.Errorf("unexpected match row %+v", m)
	}
	if len(m.Players) != 2 || m.Players[0].Nickname != "Ann" || m.Players[0].Rank != 1 {
		t.Fatalf("unexpected players %+v", m.Players)
	}
	if m.Players[1].CapturedByBlackBot != 1 || m.Players[1].Bots != 4 {
		t.Errorf("unexpected second player %+v", m.Players[1])
	}

	limited, err := db.RecentMatches(1)
	if err != nil || len(limited) != 1 {
		t.Errorf("limit not honoured: %d, %v", len(limited), err)
	}
}

func TestSettings(t *testing.T) {
	db := openTestDB(t)
	if v := db.GetSetting("jwt_secret"); v != "" {
		t.Errorf("expected empty setting, got %q", v)
	}
	if err := db.SetSetting("jwt_secret", "abc"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetSetting("jwt_secret", "def"); err != nil {
		t.Fatal(err)
	}
	if v := db.GetSetting("jwt_secret"); v != "def" {
		t.Errorf("expected def, got %q", v)
	}
}

func TestOpenBadPath(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "x.db")); err == nil {
		t.Error("expected error for unreachable path")
	}
}
