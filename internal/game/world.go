package game

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"arena-server/internal/logger"
)

const (
	DefaultMapWidth  = 2000
	DefaultMapHeight = 1500

	EntityRadius      = 10.0 // body radius used for wall checks
	SafeSpawnDistance = 50.0
	SpawnMargin       = 50.0
	MaxSpawnAttempts  = 100

	spiralStep   = 50.0
	spiralAngles = 16
	spiralRings  = 20
	edgeAngles   = 8
	innerRing    = 0.7
)

// World owns the collision mask and answers point and placement queries.
type World struct {
	Width, Height float64
	mask          *Mask
	rng           *rand.Rand
	log           *logrus.Entry
	degraded      bool
}

// NewWorld creates a world of w×h pixels. A nil mask puts the world in
// degraded mode: no obstacles at all.
func NewWorld(w, h int, mask *Mask, rng *rand.Rand) *World {
	wd := &World{
		Width:  float64(w),
		Height: float64(h),
		mask:   mask,
		rng:    rng,
		log:    logger.Component("world"),
	}
	if mask == nil {
		wd.mask = NewClearMask(w, h)
		wd.degraded = true
		wd.log.Warn("no collision mask, running without obstacles")
	}
	return wd
}

// Degraded reports whether the world runs on the all-clear fallback mask.
func (w *World) Degraded() bool {
	return w.degraded
}

// Center returns the middle of the map.
func (w *World) Center() Point {
	return Point{X: w.Width / 2, Y: w.Height / 2}
}

// InBounds reports whether (x, y) lies on the map.
func (w *World) InBounds(x, y float64) bool {
	return x >= 0 && y >= 0 && x < w.Width && y < w.Height
}

// IsBlocked reports whether (x, y) is a wall or off the map.
func (w *World) IsBlocked(x, y float64) bool {
	if !finite(x) || !finite(y) || !w.InBounds(x, y) {
		return true
	}
	return w.mask.At(int(x), int(y))
}

// CanMove reports whether a body of the given radius may stand at (toX, toY).
// The body is approximated by 8 samples on two concentric rings.
func (w *World) CanMove(fromX, fromY, toX, toY, radius float64) bool {
	if w.IsBlocked(toX, toY) {
		return false
	}
	for i := 0; i < edgeAngles; i++ {
		a := float64(i) * 2 * math.Pi / edgeAngles
		cos, sin := math.Cos(a), math.Sin(a)
		for _, r := range [2]float64{radius, radius * innerRing} {
			if w.IsBlocked(toX+cos*r, toY+sin*r) {
				return false
			}
		}
	}
	return true
}

// CanStand is CanMove for a stationary body.
func (w *World) CanStand(x, y, radius float64) bool {
	return w.CanMove(x, y, x, y, radius)
}

func (w *World) spawnValid(x, y float64, occupied []Point) bool {
	if !w.CanStand(x, y, EntityRadius) {
		return false
	}
	for _, o := range occupied {
		if DistanceSq(x, y, o.X, o.Y) < SafeSpawnDistance*SafeSpawnDistance {
			return false
		}
	}
	return true
}

// FindSpawnPosition returns a standable point at least SafeSpawnDistance from
// every occupied point. Random sampling is tried first, then a spiral from the
// centre; if both fail the exact centre is returned and a warning is logged.
func (w *World) FindSpawnPosition(occupied []Point) Point {
	spanX := w.Width - 2*SpawnMargin
	spanY := w.Height - 2*SpawnMargin
	if spanX > 0 && spanY > 0 {
		for i := 0; i < MaxSpawnAttempts; i++ {
			x := SpawnMargin + w.rng.Float64()*spanX
			y := SpawnMargin + w.rng.Float64()*spanY
			if w.spawnValid(x, y, occupied) {
				return Point{X: x, Y: y}
			}
		}
	}

	c := w.Center()
	if w.spawnValid(c.X, c.Y, occupied) {
		return c
	}
	for ring := 1; ring <= spiralRings; ring++ {
		r := float64(ring) * spiralStep
		for i := 0; i < spiralAngles; i++ {
			a := float64(i) * 2 * math.Pi / spiralAngles
			x := c.X + math.Cos(a)*r
			y := c.Y + math.Sin(a)*r
			if w.spawnValid(x, y, occupied) {
				return Point{X: x, Y: y}
			}
		}
	}

	w.log.WithFields(logrus.Fields{
		"occupied": len(occupied),
	}).Warn("spawn search exhausted, placing at map centre")
	return c
}

// RandomHeading returns a uniformly random angle.
func (w *World) RandomHeading() float64 {
	return w.rng.Float64()*2*math.Pi - math.Pi
}
