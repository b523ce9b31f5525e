package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"arena-server/internal/game"
	"arena-server/internal/logger"
)

const maxSessions = 100

// SessionIdleTimeout is how long a session may sit without players before
// it is reaped.
var SessionIdleTimeout = 2 * time.Minute

// Recorder persists finished games.
type Recorder interface {
	RecordMatch(res game.Result) (int64, error)
}

// Session represents a game session that players can join
type Session struct {
	ID        string
	Name      string
	Game      *game.Game
	CreatedAt time.Time

	mu     sync.Mutex
	owner  string // player id allowed to start; empty lets anyone start
	cancel context.CancelFunc
}

// claimOwner makes playerID the owner when nobody holds it yet and reports
// whether playerID owns the session afterwards.
func (s *Session) claimOwner(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == "" {
		s.owner = playerID
	}
	return s.owner == playerID
}

func (s *Session) releaseOwner(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == playerID {
		s.owner = ""
	}
}

// CanStart reports whether playerID may start the game.
func (s *Session) CanStart(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner == "" || s.owner == playerID
}

// SessionConfig carries what every new game is built from.
type SessionConfig struct {
	Defaults game.Settings
	Width    int
	Height   int
	Mask     *game.Mask
	Recorder Recorder // optional
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      SessionConfig
	log      *logrus.Entry
}

// NewSessionManager creates a new SessionManager
func NewSessionManager(cfg SessionConfig) *SessionManager {
	cfg.Defaults.Normalize()
	return &SessionManager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		log:      logger.Component("sessions"),
	}
}

// Defaults returns the settings new sessions start from.
func (sm *SessionManager) Defaults() game.Settings {
	return sm.cfg.Defaults
}

// CreateSession creates a new game session and starts its loop. Returns nil
// if the limit is reached.
func (sm *SessionManager) CreateSession(name string, settings game.Settings) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil
	}

	id := uuid.NewString()
	g := game.NewGame(id, settings, game.Options{
		Width:  sm.cfg.Width,
		Height: sm.cfg.Height,
		Mask:   sm.cfg.Mask,
	})
	ctx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		ID:        id,
		Name:      name,
		Game:      g,
		CreatedAt: time.Now(),
		cancel:    cancel,
	}
	g.OnEnd = sm.onEnd(id)
	sm.sessions[id] = sess
	go g.Run(ctx)

	sm.log.WithFields(logrus.Fields{"session": id, "name": name}).Info("session created")
	return sess
}

// onEnd stores the result and drops the session.
func (sm *SessionManager) onEnd(id string) func(game.Result) {
	return func(res game.Result) {
		if sm.cfg.Recorder != nil {
			matchID, err := sm.cfg.Recorder.RecordMatch(res)
			if err != nil {
				sm.log.WithError(err).WithField("session", id).Error("could not record match")
			} else {
				sm.log.WithFields(logrus.Fields{"session": id, "match": matchID}).Debug("match recorded")
			}
		}
		sm.removeSession(id)
	}
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// RemovePlayer removes a player from a session. A session left without
// players is closed.
func (sm *SessionManager) RemovePlayer(sessionID, playerID string) {
	sess := sm.GetSession(sessionID)
	if sess == nil {
		return
	}
	sess.releaseOwner(playerID)
	sess.Game.RemovePlayer(playerID, time.Now())

	if sess.Game.PlayerCount() == 0 {
		sm.removeSession(sessionID)
	}
}

func (sm *SessionManager) removeSession(id string) {
	sm.mu.Lock()
	sess, ok := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()
	if !ok {
		return
	}
	sess.Game.Stop()
	sess.cancel()
	sm.log.WithField("session", id).Info("session closed")
}

// ReapIdle closes sessions that never got a player within SessionIdleTimeout.
func (sm *SessionManager) ReapIdle(now time.Time) int {
	sm.mu.RLock()
	var idle []string
	for id, sess := range sm.sessions {
		if now.Sub(sess.CreatedAt) >= SessionIdleTimeout && sess.Game.PlayerCount() == 0 {
			idle = append(idle, id)
		}
	}
	sm.mu.RUnlock()

	for _, id := range idle {
		sm.removeSession(id)
	}
	return len(idle)
}

// Shutdown stops every running game.
func (sm *SessionManager) Shutdown() {
	sm.mu.RLock()
	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	sm.mu.RUnlock()
	for _, id := range ids {
		sm.removeSession(id)
	}
}

// Count returns the number of open sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ListSessions returns info about all active sessions, oldest first
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	all := make([]*Session, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		all = append(all, sess)
	}
	sm.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	list := make([]SessionInfo, 0, len(all))
	for _, sess := range all {
		list = append(list, SessionInfo{
			ID:      sess.ID,
			Name:    sess.Name,
			Players: sess.Game.PlayerCount(),
			Started: sess.Game.Started(),
		})
	}
	return list
}
