package game

import (
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"arena-server/internal/logger"
)

// ZoneType is one of the four area effects.
type ZoneType string

const (
	ZoneChaos   ZoneType = "chaos"
	ZoneRepel   ZoneType = "repel"
	ZoneAttract ZoneType = "attract"
	ZoneStealth ZoneType = "stealth"
)

const (
	MaxZones      = 3
	MinZoneRadius = 80.0

	chaosChance   = 0.05
	repelRange    = 200.0
	repelStrength = 200.0 // force = strength / distance
	repelMaxStep  = 5.0
	attractStep   = 3.0
)

// Zone is a timed circular area effect.
type Zone struct {
	ID        string
	Type      ZoneType
	X, Y      float64
	Radius    float64
	CreatedAt time.Time
	Duration  time.Duration
}

// Contains reports whether (x, y) lies inside the zone.
func (z *Zone) Contains(x, y float64) bool {
	return DistanceSq(z.X, z.Y, x, y) <= z.Radius*z.Radius
}

// ExpiresAt is the wall-clock end of the zone.
func (z *Zone) ExpiresAt() time.Time {
	return z.CreatedAt.Add(z.Duration)
}

// ZoneEngine owns the active zones.
type ZoneEngine struct {
	mover
	settings  *Settings
	zones     []*Zone
	nextSpawn time.Time
}

// NewZoneEngine creates an empty zone engine.
func NewZoneEngine(world *World, reg *Registry, rng *rand.Rand, settings *Settings) *ZoneEngine {
	return &ZoneEngine{
		mover:    mover{world: world, reg: reg, rng: rng, log: logger.Component("zones")},
		settings: settings,
	}
}

// Zones returns the active zones.
func (ze *ZoneEngine) Zones() []*Zone {
	return ze.zones
}

// Reset drops every zone and the pending spawn.
func (ze *ZoneEngine) Reset() {
	ze.zones = nil
	ze.nextSpawn = time.Time{}
}

// MaxZoneRadius keeps a zone's area within a fifth of the map.
func (ze *ZoneEngine) MaxZoneRadius() float64 {
	return math.Sqrt(ze.world.Width * ze.world.Height / 5 / math.Pi)
}

// Maintain expires old zones and spawns a new one when the timer is due.
func (ze *ZoneEngine) Maintain(now time.Time) {
	live := ze.zones[:0]
	for _, z := range ze.zones {
		if now.Before(z.ExpiresAt()) {
			live = append(live, z)
		} else {
			ze.log.WithFields(logrus.Fields{"zone": z.ID, "type": z.Type}).Debug("zone expired")
		}
	}
	ze.zones = live

	types := ze.settings.EnabledZoneTypes()
	if len(types) == 0 || len(ze.zones) >= MaxZones {
		return
	}
	if ze.nextSpawn.IsZero() {
		ze.nextSpawn = now.Add(seconds(ze.settings.Zones.SpawnInterval))
		return
	}
	if now.Before(ze.nextSpawn) {
		return
	}
	ze.nextSpawn = time.Time{}
	ze.spawn(types[ze.rng.Intn(len(types))], now)
}

func (ze *ZoneEngine) spawn(t ZoneType, now time.Time) *Zone {
	maxR := ze.MaxZoneRadius()
	minR := math.Min(MinZoneRadius, maxR)
	r := minR + ze.rng.Float64()*(maxR-minR)

	z := &Zone{
		ID:        ze.reg.NextID("z"),
		Type:      t,
		X:         ze.randomCoord(ze.world.Width, r),
		Y:         ze.randomCoord(ze.world.Height, r),
		Radius:    r,
		CreatedAt: now,
	}
	minD, maxD := ze.settings.Zones.MinDuration, ze.settings.Zones.MaxDuration
	z.Duration = seconds(minD + ze.rng.Float64()*(maxD-minD))
	ze.zones = append(ze.zones, z)

	ze.log.WithFields(logrus.Fields{
		"zone":     z.ID,
		"type":     z.Type,
		"radius":   round1(r),
		"duration": z.Duration,
	}).Debug("zone spawned")
	return z
}

// randomCoord picks a coordinate that keeps the whole circle on the map when
// it fits.
func (ze *ZoneEngine) randomCoord(size, r float64) float64 {
	if 2*r >= size {
		return size / 2
	}
	return r + ze.rng.Float64()*(size-2*r)
}

// Apply runs every zone's effect for one tick.
func (ze *ZoneEngine) Apply(now time.Time) {
	players := ze.reg.Players()
	for _, z := range ze.zones {
		switch z.Type {
		case ZoneChaos:
			ze.chaos(z)
		case ZoneRepel:
			ze.repel(z, players)
		case ZoneAttract:
			ze.attract(z, players)
		}
	}
	for _, p := range players {
		p.Hidden = false
		for _, z := range ze.zones {
			if z.Type == ZoneStealth && z.Contains(p.X, p.Y) {
				p.Hidden = true
				break
			}
		}
	}
}

func (ze *ZoneEngine) chaos(z *Zone) {
	colors := ze.reg.PlayerColorList()
	if len(colors) == 0 {
		return
	}
	for _, b := range ze.reg.Bots() {
		if z.Contains(b.X, b.Y) && ze.rng.Float64() < chaosChance {
			b.Color = colors[ze.rng.Intn(len(colors))]
		}
	}
}

func (ze *ZoneEngine) repel(z *Zone, players []*Player) {
	for _, b := range ze.reg.Bots() {
		if !z.Contains(b.X, b.Y) {
			continue
		}
		var fx, fy float64
		for _, p := range players {
			if !z.Contains(p.X, p.Y) {
				continue
			}
			d := Distance(p.X, p.Y, b.X, b.Y)
			if d == 0 || d >= repelRange {
				continue
			}
			f := repelStrength / d
			fx += (b.X - p.X) / d * f
			fy += (b.Y - p.Y) / d * f
		}
		if fx == 0 && fy == 0 {
			continue
		}
		ze.step(&b.Entity, Clamp(fx, -repelMaxStep, repelMaxStep), Clamp(fy, -repelMaxStep, repelMaxStep))
	}
}

func (ze *ZoneEngine) attract(z *Zone, players []*Player) {
	if len(players) == 0 {
		return
	}
	for _, b := range ze.reg.Bots() {
		if !z.Contains(b.X, b.Y) {
			continue
		}
		var nearest *Player
		best := math.MaxFloat64
		for _, p := range players {
			if d := DistanceSq(p.X, p.Y, b.X, b.Y); d < best {
				nearest, best = p, d
			}
		}
		d := math.Sqrt(best)
		if d < attractStep {
			continue
		}
		ze.step(&b.Entity, (nearest.X-b.X)/d*attractStep, (nearest.Y-b.Y)/d*attractStep)
	}
}
