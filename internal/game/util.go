package game

import (
	"math"
	"time"
)

// Point is a position on the map.
type Point struct {
	X, Y float64
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Distance returns the distance between two points
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceSq returns the squared distance between two points
func DistanceSq(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx + dy*dy
}

// Overlaps reports whether two points are strictly closer than radius.
func Overlaps(x1, y1, x2, y2, radius float64) bool {
	return DistanceSq(x1, y1, x2, y2) < radius*radius
}

// NormalizeAngle wraps angle to [-PI, PI]
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// directionName maps a heading to the sprite direction the client draws.
func directionName(heading float64) string {
	a := NormalizeAngle(heading)
	switch {
	case a >= -math.Pi/4 && a < math.Pi/4:
		return "right"
	case a >= math.Pi/4 && a < 3*math.Pi/4:
		return "down"
	case a >= -3*math.Pi/4 && a < -math.Pi/4:
		return "up"
	default:
		return "left"
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
