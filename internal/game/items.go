package game

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"arena-server/internal/logger"
)

// MalusType names a malus and the effect it applies to the other players.
type MalusType string

const (
	MalusReverse  MalusType = "reverse"
	MalusBlur     MalusType = "blur"
	MalusNegative MalusType = "negative"
)

// MalusTypes lists every malus type in a stable order.
var MalusTypes = []MalusType{MalusReverse, MalusBlur, MalusNegative}

const (
	ItemLifetime      = 8 * time.Second
	ItemWarning       = 3 * time.Second
	ItemBlinkInterval = 250 * time.Millisecond
	ItemPickupRadius  = 20.0
	MaxMalus          = 5
)

// Item is a bonus or malus lying on the map. Exactly one of Bonus and Malus
// is set.
type Item struct {
	ID        string
	Bonus     BonusType
	Malus     MalusType
	X, Y      float64
	CreatedAt time.Time
}

// IsMalus reports whether the item is a malus.
func (it *Item) IsMalus() bool {
	return it.Malus != ""
}

// ExpiresAt is the end of the item's lifetime.
func (it *Item) ExpiresAt() time.Time {
	return it.CreatedAt.Add(ItemLifetime)
}

// Warning reports whether the item is in its last seconds.
func (it *Item) Warning(now time.Time) bool {
	return !now.Before(it.ExpiresAt().Add(-ItemWarning))
}

// Blink is the visibility phase during the warning window; outside it the
// item is always shown.
func (it *Item) Blink(now time.Time) bool {
	if !it.Warning(now) {
		return true
	}
	phase := now.Sub(it.ExpiresAt().Add(-ItemWarning)) / ItemBlinkInterval
	return phase%2 == 0
}

// ItemSpawner owns the pickups on the map.
type ItemSpawner struct {
	mover
	settings  *Settings
	events    *EventQueue
	bonuses   []*Item
	maluses   []*Item
	nextBonus time.Time
	nextMalus time.Time
}

// NewItemSpawner creates an empty item spawner.
func NewItemSpawner(world *World, reg *Registry, rng *rand.Rand, settings *Settings, events *EventQueue) *ItemSpawner {
	return &ItemSpawner{
		mover:    mover{world: world, reg: reg, rng: rng, log: logger.Component("items")},
		settings: settings,
		events:   events,
	}
}

func (s *ItemSpawner) Bonuses() []*Item { return s.bonuses }
func (s *ItemSpawner) Maluses() []*Item { return s.maluses }

// Reset drops every item and pending spawn.
func (s *ItemSpawner) Reset() {
	s.bonuses, s.maluses = nil, nil
	s.nextBonus, s.nextMalus = time.Time{}, time.Time{}
}

// jitter scales an interval by U[0.5, 1.5].
func (s *ItemSpawner) jitter(sec float64) time.Duration {
	return seconds(sec * (0.5 + s.rng.Float64()))
}

// Maintain expires items, runs due spawn attempts and resolves pickups.
func (s *ItemSpawner) Maintain(now time.Time) {
	s.bonuses = expire(s.bonuses, now)
	s.maluses = expire(s.maluses, now)

	if s.nextBonus.IsZero() {
		s.nextBonus = now.Add(s.jitter(s.settings.BonusSpawnIntervalSeconds))
	} else if !now.Before(s.nextBonus) {
		s.trySpawnBonus(now)
		s.nextBonus = now.Add(s.jitter(s.settings.BonusSpawnIntervalSeconds))
	}
	if s.nextMalus.IsZero() {
		s.nextMalus = now.Add(s.jitter(s.settings.MalusSpawnIntervalSeconds))
	} else if !now.Before(s.nextMalus) {
		s.trySpawnMalus(now)
		s.nextMalus = now.Add(s.jitter(s.settings.MalusSpawnIntervalSeconds))
	}

	s.pickups(now)
}

func expire(items []*Item, now time.Time) []*Item {
	live := items[:0]
	for _, it := range items {
		if now.Before(it.ExpiresAt()) {
			live = append(live, it)
		}
	}
	return live
}

func (s *ItemSpawner) trySpawnBonus(now time.Time) *Item {
	var enabled []BonusType
	for _, t := range BonusTypes {
		if s.settings.Bonus(t).Enabled {
			enabled = append(enabled, t)
		}
	}
	if len(enabled) == 0 {
		return nil
	}
	t := enabled[s.rng.Intn(len(enabled))]
	if s.rng.Float64()*100 >= s.settings.Bonus(t).SpawnRatePercent {
		return nil
	}
	it := s.place(now)
	it.Bonus = t
	s.bonuses = append(s.bonuses, it)
	s.log.WithFields(logrus.Fields{"item": it.ID, "bonus": t}).Debug("bonus spawned")
	return it
}

func (s *ItemSpawner) trySpawnMalus(now time.Time) *Item {
	if len(s.maluses) >= MaxMalus {
		return nil
	}
	var enabled []MalusType
	for _, t := range MalusTypes {
		if s.settings.Malus(t).Enabled {
			enabled = append(enabled, t)
		}
	}
	if len(enabled) == 0 || s.rng.Float64()*100 >= s.settings.MalusSpawnRate {
		return nil
	}
	it := s.place(now)
	it.Malus = enabled[s.rng.Intn(len(enabled))]
	s.maluses = append(s.maluses, it)
	s.log.WithFields(logrus.Fields{"item": it.ID, "malus": it.Malus}).Debug("malus spawned")
	return it
}

func (s *ItemSpawner) place(now time.Time) *Item {
	p := s.world.FindSpawnPosition(s.reg.Occupied())
	return &Item{ID: s.reg.NextID("i"), X: p.X, Y: p.Y, CreatedAt: now}
}

func (s *ItemSpawner) pickups(now time.Time) {
	for _, p := range s.reg.Players() {
		s.bonuses = s.collect(s.bonuses, p, now)
		s.maluses = s.collect(s.maluses, p, now)
	}
}

func (s *ItemSpawner) collect(items []*Item, p *Player, now time.Time) []*Item {
	live := items[:0]
	for _, it := range items {
		if !Overlaps(p.X, p.Y, it.X, it.Y, ItemPickupRadius) {
			live = append(live, it)
			continue
		}
		if it.IsMalus() {
			s.applyMalus(p, it.Malus, now)
		} else {
			s.applyBonus(p, it.Bonus, now)
		}
	}
	return live
}

func (s *ItemSpawner) applyBonus(p *Player, t BonusType, now time.Time) {
	cfg := s.settings.Bonus(t)
	until := p.ExtendBonus(t, seconds(cfg.Duration), now)
	s.events.Push(EventBonusCollected, p.ID, BonusCollectedData{
		Type:      t,
		Duration:  cfg.Duration,
		Remaining: round1(until.Sub(now).Seconds()),
	})
}

func (s *ItemSpawner) applyMalus(collector *Player, t MalusType, now time.Time) {
	cfg := s.settings.Malus(t)
	d := seconds(cfg.Duration)
	for _, o := range s.reg.Players() {
		if o.ID == collector.ID {
			continue
		}
		if t == MalusReverse && o.ReverseUntil.Before(now.Add(d)) {
			o.ReverseUntil = now.Add(d)
		}
		s.events.Push(EventApplyMalus, o.ID, ApplyMalusData{
			Type:     t,
			Duration: cfg.Duration,
			From:     collector.Nickname,
		})
	}
	s.events.Push(EventMalusCollected, collector.ID, MalusCollectedData{Type: t})
	s.log.WithFields(logrus.Fields{"player": collector.ID, "malus": t}).Debug("malus collected")
}
