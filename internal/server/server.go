package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"

	"arena-server/internal/store"
)

const (
	qrSize             = 256
	defaultMatchLimit  = 20
	maxMatchLimit      = 200
	maxLoginBodyLength = 1024
)

var uuidPathRe = regexp.MustCompile(`^/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve static files with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(clientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		// SPA: serve index.html for root and session paths
		if r.URL.Path == "/" || uuidPathRe.MatchString(r.URL.Path) {
			http.ServeFile(w, r, filepath.Join(clientDir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	}))

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.WithError(err).Warn("upgrade error")
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	mux.HandleFunc("GET /qr/{sid}", hub.handleQR)

	if hub.admin != nil {
		mux.HandleFunc("POST /admin/login", hub.handleAdminLogin)
		mux.HandleFunc("GET /admin/sessions", hub.admin.Require(hub.handleAdminSessions))
		mux.HandleFunc("GET /admin/matches", hub.admin.Require(hub.handleAdminMatches))
	}

	return mux
}

// handleQR renders the join link of a session as a PNG QR code.
func (h *Hub) handleQR(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	if h.sessions.GetSession(sid) == nil {
		http.NotFound(w, r)
		return
	}
	link := strings.TrimRight(h.publicURL, "/") + "/" + sid
	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		h.log.WithError(err).Error("qr encode failed")
		http.Error(w, "qr encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *Hub) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBodyLength)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorMsg{Msg: "invalid request"})
		return
	}
	token, err := h.admin.Login(req.Password, extractIP(r))
	switch {
	case errors.Is(err, ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, ErrorMsg{Msg: err.Error()})
		return
	case errors.Is(err, ErrBadPassword):
		h.log.WithField("remote", extractIP(r)).Warn("admin login failed")
		writeJSON(w, http.StatusUnauthorized, ErrorMsg{Msg: err.Error()})
		return
	case err != nil:
		h.log.WithError(err).Error("admin token signing failed")
		writeJSON(w, http.StatusInternalServerError, ErrorMsg{Msg: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (h *Hub) handleAdminSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.ListSessions())
}

func (h *Hub) handleAdminMatches(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorMsg{Msg: "match history disabled"})
		return
	}
	limit := defaultMatchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, ErrorMsg{Msg: "invalid limit"})
			return
		}
		limit = min(n, maxMatchLimit)
	}
	matches, err := h.db.RecentMatches(limit)
	if err != nil {
		h.log.WithError(err).Error("could not load matches")
		writeJSON(w, http.StatusInternalServerError, ErrorMsg{Msg: "internal error"})
		return
	}
	if matches == nil {
		matches = []store.MatchRow{}
	}
	writeJSON(w, http.StatusOK, matches)
}
