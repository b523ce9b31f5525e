package game

import (
	"fmt"
	"sort"
)

// Registry is the single owner of every entity in a game. Iteration is always
// in id order so that a tick is deterministic for a given random source.
type Registry struct {
	players  map[string]*Player
	bots     map[string]*Bot
	hostiles map[string]*HostileBot

	playerList  []*Player
	botList     []*Bot
	hostileList []*HostileBot
	dirty       bool

	seq int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		players:  make(map[string]*Player),
		bots:     make(map[string]*Bot),
		hostiles: make(map[string]*HostileBot),
	}
}

// NextID returns a fresh id with the given prefix. Ids sort in creation order.
func (r *Registry) NextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s%05d", prefix, r.seq)
}

// Reset drops every entity.
func (r *Registry) Reset() {
	r.players = make(map[string]*Player)
	r.bots = make(map[string]*Bot)
	r.hostiles = make(map[string]*HostileBot)
	r.dirty = true
}

// ResetNPCs drops bots and black bots, keeping players.
func (r *Registry) ResetNPCs() {
	r.bots = make(map[string]*Bot)
	r.hostiles = make(map[string]*HostileBot)
	r.dirty = true
}

func (r *Registry) AddPlayer(p *Player) {
	r.players[p.ID] = p
	r.dirty = true
}

func (r *Registry) RemovePlayer(id string) {
	if _, ok := r.players[id]; ok {
		delete(r.players, id)
		r.dirty = true
	}
}

// Player returns the player with the given id, or nil.
func (r *Registry) Player(id string) *Player {
	return r.players[id]
}

func (r *Registry) AddBot(b *Bot) {
	r.bots[b.ID] = b
	r.dirty = true
}

// Bot returns the bot with the given id, or nil.
func (r *Registry) Bot(id string) *Bot {
	return r.bots[id]
}

func (r *Registry) AddHostile(h *HostileBot) {
	r.hostiles[h.ID] = h
	r.dirty = true
}

func (r *Registry) RemoveHostile(id string) {
	if _, ok := r.hostiles[id]; ok {
		delete(r.hostiles, id)
		r.dirty = true
	}
}

// Hostile returns the black bot with the given id, or nil.
func (r *Registry) Hostile(id string) *HostileBot {
	return r.hostiles[id]
}

func (r *Registry) rebuild() {
	if !r.dirty && r.playerList != nil {
		return
	}
	r.playerList = make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		r.playerList = append(r.playerList, p)
	}
	sort.Slice(r.playerList, func(i, j int) bool { return r.playerList[i].ID < r.playerList[j].ID })

	r.botList = make([]*Bot, 0, len(r.bots))
	for _, b := range r.bots {
		r.botList = append(r.botList, b)
	}
	sort.Slice(r.botList, func(i, j int) bool { return r.botList[i].ID < r.botList[j].ID })

	r.hostileList = make([]*HostileBot, 0, len(r.hostiles))
	for _, h := range r.hostiles {
		r.hostileList = append(r.hostileList, h)
	}
	sort.Slice(r.hostileList, func(i, j int) bool { return r.hostileList[i].ID < r.hostileList[j].ID })
	r.dirty = false
}

// Players returns the players in id order. The returned slice is a snapshot:
// later mutations do not change it.
func (r *Registry) Players() []*Player {
	r.rebuild()
	return r.playerList
}

// Bots returns the bots in id order.
func (r *Registry) Bots() []*Bot {
	r.rebuild()
	return r.botList
}

// Hostiles returns the black bots in id order.
func (r *Registry) Hostiles() []*HostileBot {
	r.rebuild()
	return r.hostileList
}

func (r *Registry) PlayerCount() int  { return len(r.players) }
func (r *Registry) BotCount() int     { return len(r.bots) }
func (r *Registry) HostileCount() int { return len(r.hostiles) }

// AllEntities returns a flattened view: players, then bots, then black bots.
func (r *Registry) AllEntities() []*Entity {
	r.rebuild()
	out := make([]*Entity, 0, len(r.players)+len(r.bots)+len(r.hostiles))
	for _, p := range r.playerList {
		out = append(out, &p.Entity)
	}
	for _, b := range r.botList {
		out = append(out, &b.Entity)
	}
	for _, h := range r.hostileList {
		out = append(out, &h.Entity)
	}
	return out
}

// Occupied returns the position of every live entity.
func (r *Registry) Occupied() []Point {
	all := r.AllEntities()
	pts := make([]Point, len(all))
	for i, e := range all {
		pts[i] = e.Pos()
	}
	return pts
}

// EntitiesWithColor returns the bots wearing color, in id order.
func (r *Registry) EntitiesWithColor(color string) []*Bot {
	var out []*Bot
	for _, b := range r.Bots() {
		if b.Color == color {
			out = append(out, b)
		}
	}
	return out
}

// CountBots returns the number of bots wearing color.
func (r *Registry) CountBots(color string) int {
	n := 0
	for _, b := range r.bots {
		if b.Color == color {
			n++
		}
	}
	return n
}

// TransferColor recolors up to limit bots from one color to another and
// returns how many changed. A negative limit recolors all of them.
func (r *Registry) TransferColor(from, to string, limit int) int {
	if from == to {
		return 0
	}
	n := 0
	for _, b := range r.Bots() {
		if limit >= 0 && n >= limit {
			break
		}
		if b.Color == from {
			b.Color = to
			n++
		}
	}
	return n
}

// Score is the number of bots in the player's color plus bonus points.
func (r *Registry) Score(p *Player) int {
	return r.CountBots(p.Color) + p.BonusPoints
}

// ColorInUse reports whether an active player wears color.
func (r *Registry) ColorInUse(color string) bool {
	for _, p := range r.players {
		if p.Color == color {
			return true
		}
	}
	return false
}

// FreeColor returns the first palette color no player wears, or "" when the
// palette is exhausted.
func (r *Registry) FreeColor() string {
	for _, c := range PlayerColors {
		if !r.ColorInUse(c) {
			return c
		}
	}
	return ""
}

// PlayerColorList returns the colors of all players in id order.
func (r *Registry) PlayerColorList() []string {
	players := r.Players()
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Color
	}
	return out
}
