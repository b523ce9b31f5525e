package server

import (
	"errors"
	"testing"
	"time"

	"arena-server/internal/game"
)

type mockRecorder struct {
	results []game.Result
	err     error
}

func (m *mockRecorder) RecordMatch(res game.Result) (int64, error) {
	m.results = append(m.results, res)
	return int64(len(m.results)), m.err
}

func newTestSessions(rec Recorder) *SessionManager {
	sm := NewSessionManager(SessionConfig{Defaults: game.DefaultSettings(), Recorder: rec})
	return sm
}

func TestCreateSessionLimit(t *testing.T) {
	sm := newTestSessions(nil)
	defer sm.Shutdown()

	for i := 0; i < maxSessions; i++ {
		if sm.CreateSession("s", sm.Defaults()) == nil {
			t.Fatalf("session %d refused", i)
		}
	}
	if sm.CreateSession("one too many", sm.Defaults()) != nil {
		t.Error("expected the session cap to hold")
	}
	if sm.Count() != maxSessions {
		t.Errorf("expected %d sessions, got %d", maxSessions, sm.Count())
	}
}

func TestSessionEndRecordsAndRemoves(t *testing.T) {
	rec := &mockRecorder{}
	sm := newTestSessions(rec)
	sess := sm.CreateSession("end", sm.Defaults())

	res := game.Result{GameID: sess.ID, Reason: game.EndTimeout}
	sm.onEnd(sess.ID)(res)

	if len(rec.results) != 1 || rec.results[0].GameID != sess.ID {
		t.Errorf("result not recorded: %+v", rec.results)
	}
	if sm.GetSession(sess.ID) != nil {
		t.Error("ended session should be removed")
	}
}

func TestSessionEndSurvivesRecorderError(t *testing.T) {
	rec := &mockRecorder{err: errors.New("disk full")}
	sm := newTestSessions(rec)
	sess := sm.CreateSession("end", sm.Defaults())

	sm.onEnd(sess.ID)(game.Result{GameID: sess.ID})
	if sm.GetSession(sess.ID) != nil {
		t.Error("session should be removed even when recording fails")
	}
}

func TestReapIdle(t *testing.T) {
	sm := newTestSessions(nil)
	defer sm.Shutdown()

	idle := sm.CreateSession("idle", sm.Defaults())
	busy := sm.CreateSession("busy", sm.Defaults())
	if _, err := busy.Game.AddPlayer("Ann", time.Now()); err != nil {
		t.Fatal(err)
	}

	if n := sm.ReapIdle(time.Now()); n != 0 {
		t.Errorf("fresh sessions reaped: %d", n)
	}
	later := time.Now().Add(SessionIdleTimeout + time.Second)
	if n := sm.ReapIdle(later); n != 1 {
		t.Errorf("expected 1 reaped session, got %d", n)
	}
	if sm.GetSession(idle.ID) != nil || sm.GetSession(busy.ID) == nil {
		t.Error("only the empty session should be reaped")
	}
}

func TestOwnership(t *testing.T) {
	sm := newTestSessions(nil)
	defer sm.Shutdown()
	sess := sm.CreateSession("own", sm.Defaults())

	if !sess.CanStart("p1") {
		t.Error("an unowned session can be started by anyone")
	}
	if !sess.claimOwner("p1") || sess.claimOwner("p2") {
		t.Error("first claimant should own the session")
	}
	if sess.CanStart("p2") {
		t.Error("non-owner must not start")
	}
	sess.releaseOwner("p2")
	if !sess.CanStart("p1") || sess.CanStart("p2") {
		t.Error("release by a non-owner must be ignored")
	}
	sess.releaseOwner("p1")
	if !sess.claimOwner("p2") {
		t.Error("ownership should pass to the next claimant")
	}
}

func TestRemovePlayerClosesEmptySession(t *testing.T) {
	sm := newTestSessions(nil)
	sess := sm.CreateSession("r", sm.Defaults())
	a, _ := sess.Game.AddPlayer("Ann", time.Now())
	b, _ := sess.Game.AddPlayer("Ben", time.Now())

	sm.RemovePlayer(sess.ID, a.ID)
	if sm.GetSession(sess.ID) == nil {
		t.Fatal("session with a player left should stay open")
	}
	sm.RemovePlayer(sess.ID, b.ID)
	if sm.GetSession(sess.ID) != nil {
		t.Error("empty session should be closed")
	}
	sm.RemovePlayer(sess.ID, b.ID)
}
