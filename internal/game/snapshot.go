package game

import (
	"fmt"
	"sort"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// EntityState is one entity as clients see it.
type EntityState struct {
	ID        string     `json:"id" msgpack:"id"`
	X         float64    `json:"x" msgpack:"x"`
	Y         float64    `json:"y" msgpack:"y"`
	Color     string     `json:"color" msgpack:"color"`
	Type      EntityKind `json:"type" msgpack:"type"`
	Direction string     `json:"direction" msgpack:"direction"`
	Nickname  string     `json:"nickname,omitempty" msgpack:"nickname,omitempty"`
	Hidden    bool       `json:"hidden,omitempty" msgpack:"hidden,omitempty"`
	Protected bool       `json:"protected,omitempty" msgpack:"protected,omitempty"`
}

// PlayerScore is a scoreboard line.
type PlayerScore struct {
	ID                 string                   `json:"id" msgpack:"id"`
	Nickname           string                   `json:"nickname" msgpack:"nickname"`
	Color              string                   `json:"color" msgpack:"color"`
	CurrentBots        int                      `json:"currentBots" msgpack:"currentBots"`
	Score              int                      `json:"score" msgpack:"score"`
	Captures           int                      `json:"captures" msgpack:"captures"`
	CapturedPlayers    map[string]CaptureRecord `json:"capturedPlayers" msgpack:"capturedPlayers"`
	CapturedBy         map[string]CaptureRecord `json:"capturedBy" msgpack:"capturedBy"`
	CapturedByBlackBot int                      `json:"capturedByBlackBot" msgpack:"capturedByBlackBot"`
	BonusPoints        int                      `json:"bonusPoints" msgpack:"bonusPoints"`
	ActiveBonuses      map[BonusType]float64    `json:"activeBonuses,omitempty" msgpack:"activeBonuses,omitempty"` // seconds left
}

// ItemState is a bonus or malus on the map.
type ItemState struct {
	ID        string  `json:"id" msgpack:"id"`
	Type      string  `json:"type" msgpack:"type"`
	X         float64 `json:"x" msgpack:"x"`
	Y         float64 `json:"y" msgpack:"y"`
	Warning   bool    `json:"warning" msgpack:"warning"`
	Blink     bool    `json:"blink" msgpack:"blink"`
	Remaining float64 `json:"remaining" msgpack:"remaining"`
}

// ZoneShape is the circle a zone covers.
type ZoneShape struct {
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	Radius float64 `json:"radius" msgpack:"radius"`
}

// ZoneState is an active zone.
type ZoneState struct {
	ID        string    `json:"id" msgpack:"id"`
	Type      ZoneType  `json:"type" msgpack:"type"`
	Shape     ZoneShape `json:"shape" msgpack:"shape"`
	Remaining float64   `json:"remaining" msgpack:"remaining"`
}

// Snapshot is the immutable per-tick view handed to the network layer.
type Snapshot struct {
	Entities     []EntityState `json:"entities" msgpack:"entities"`
	PlayerScores []PlayerScore `json:"playerScores" msgpack:"playerScores"`
	TimeLeft     float64       `json:"timeLeft" msgpack:"timeLeft"`
	Bonuses      []ItemState   `json:"bonuses" msgpack:"bonuses"`
	Malus        []ItemState   `json:"malus" msgpack:"malus"`
	Zones        []ZoneState   `json:"zones" msgpack:"zones"`
	Tick         uint64        `json:"tick" msgpack:"tick"`
	Paused       bool          `json:"paused" msgpack:"paused"`
}

// EncodeSnapshot serializes a snapshot for a binary state frame.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot is the inverse of EncodeSnapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

func copyHistory(h map[string]*CaptureRecord) map[string]CaptureRecord {
	out := make(map[string]CaptureRecord, len(h))
	for id, rec := range h {
		out[id] = *rec
	}
	return out
}

// Scores builds the scoreboard, best score first, ties broken by id.
func Scores(reg *Registry, now time.Time) []PlayerScore {
	players := reg.Players()
	out := make([]PlayerScore, 0, len(players))
	for _, p := range players {
		ps := PlayerScore{
			ID:                 p.ID,
			Nickname:           p.Nickname,
			Color:              p.Color,
			CurrentBots:        reg.CountBots(p.Color),
			Score:              reg.Score(p),
			Captures:           p.Captures,
			CapturedPlayers:    copyHistory(p.CapturedPlayers),
			CapturedBy:         copyHistory(p.CapturedBy),
			CapturedByBlackBot: p.CapturedByHostile,
			BonusPoints:        p.BonusPoints,
		}
		for _, t := range BonusTypes {
			if p.BonusActive(t, now) {
				if ps.ActiveBonuses == nil {
					ps.ActiveBonuses = make(map[BonusType]float64)
				}
				ps.ActiveBonuses[t] = round1(p.Bonuses[t].Sub(now).Seconds())
			}
		}
		out = append(out, ps)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func itemStates(items []*Item, now time.Time) []ItemState {
	out := make([]ItemState, 0, len(items))
	for _, it := range items {
		t := string(it.Bonus)
		if it.IsMalus() {
			t = string(it.Malus)
		}
		out = append(out, ItemState{
			ID:        it.ID,
			Type:      t,
			X:         round1(it.X),
			Y:         round1(it.Y),
			Warning:   it.Warning(now),
			Blink:     it.Blink(now),
			Remaining: round1(it.ExpiresAt().Sub(now).Seconds()),
		})
	}
	return out
}

// buildSnapshot captures the registry, items and zones at now.
func buildSnapshot(reg *Registry, items *ItemSpawner, zones *ZoneEngine, now time.Time) *Snapshot {
	s := &Snapshot{
		Entities:     make([]EntityState, 0, reg.PlayerCount()+reg.BotCount()+reg.HostileCount()),
		PlayerScores: Scores(reg, now),
		Bonuses:      itemStates(items.Bonuses(), now),
		Malus:        itemStates(items.Maluses(), now),
		Zones:        make([]ZoneState, 0, len(zones.Zones())),
	}
	for _, p := range reg.Players() {
		s.Entities = append(s.Entities, EntityState{
			ID:        p.ID,
			X:         round1(p.X),
			Y:         round1(p.Y),
			Color:     p.Color,
			Type:      KindPlayer,
			Direction: directionName(p.Heading),
			Nickname:  p.Nickname,
			Hidden:    p.Hidden,
			Protected: p.Protected(now),
		})
	}
	for _, b := range reg.Bots() {
		s.Entities = append(s.Entities, EntityState{
			ID: b.ID, X: round1(b.X), Y: round1(b.Y), Color: b.Color,
			Type: KindBot, Direction: directionName(b.Heading),
		})
	}
	for _, h := range reg.Hostiles() {
		s.Entities = append(s.Entities, EntityState{
			ID: h.ID, X: round1(h.X), Y: round1(h.Y), Color: h.Color,
			Type: KindBlackBot, Direction: directionName(h.Heading),
		})
	}
	for _, z := range zones.Zones() {
		s.Zones = append(s.Zones, ZoneState{
			ID:        z.ID,
			Type:      z.Type,
			Shape:     ZoneShape{X: round1(z.X), Y: round1(z.Y), Radius: round1(z.Radius)},
			Remaining: round1(z.ExpiresAt().Sub(now).Seconds()),
		})
	}
	return s
}
