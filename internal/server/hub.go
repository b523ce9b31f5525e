package server

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"arena-server/internal/logger"
	"arena-server/internal/store"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
	reapInterval  = 10 * time.Second
)

// HubConfig wires the hub to its collaborators. DB and Admin are optional.
type HubConfig struct {
	Sessions  *SessionManager
	DB        *store.DB
	Admin     *Admin
	PublicURL string
}

// Hub manages all connected clients and routes them to sessions
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	sessions   *SessionManager
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int

	db        *store.DB
	admin     *Admin
	publicURL string
	log       *logrus.Entry
}

// NewHub creates a new Hub
func NewHub(cfg HubConfig) *Hub {
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = NewSessionManager(SessionConfig{})
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		sessions:   sessions,
		ipConns:    make(map[string]int),
		db:         cfg.DB,
		admin:      cfg.Admin,
		publicURL:  cfg.PublicURL,
		log:        logger.Component("hub"),
	}
}

// Sessions returns the session manager.
func (h *Hub) Sessions() *SessionManager {
	return h.sessions
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events and reaps idle sessions until
// done is closed.
func (h *Hub) Run(done <-chan struct{}) {
	reap := time.NewTicker(reapInterval)
	defer reap.Stop()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			// Remove from session if in one
			if client.sessionID != "" {
				h.sessions.RemovePlayer(client.sessionID, client.playerID)
			}

		case now := <-reap.C:
			if n := h.sessions.ReapIdle(now); n > 0 {
				h.log.WithField("count", n).Info("reaped idle sessions")
			}

		case <-done:
			h.sessions.Shutdown()
			return
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
