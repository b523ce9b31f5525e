package game

import (
	"math"
	"testing"
)

func TestNormalizeReplacesNonFiniteValues(t *testing.T) {
	d := DefaultSettings()
	s := DefaultSettings()
	s.GameDuration = math.NaN()
	s.Zones.MinDuration = math.NaN()
	s.Zones.MaxDuration = math.Inf(1)
	s.BlackBotSpeed = math.Inf(-1)
	s.MalusSpawnRate = math.NaN()
	s.Reveal.SpawnRatePercent = math.NaN()

	s.Normalize()

	if s != d {
		t.Errorf("non-finite values should fall back to defaults:\n got %+v\nwant %+v", s, d)
	}
}

func TestNormalizeClamps(t *testing.T) {
	s := DefaultSettings()
	s.GameDuration = 1
	s.InitialBotCount = -3
	s.BlackBotCount = 99
	s.Zones.MinDuration = 30
	s.Zones.MaxDuration = 5
	s.Normalize()

	if s.GameDuration != 10 || s.InitialBotCount != 0 || s.BlackBotCount != 20 {
		t.Errorf("ranges not clamped: %+v", s)
	}
	if s.Zones.MaxDuration != s.Zones.MinDuration {
		t.Errorf("max zone duration should be raised to the minimum, got %v < %v", s.Zones.MaxDuration, s.Zones.MinDuration)
	}
}
