package game

// BonusSettings configures one bonus type.
type BonusSettings struct {
	Enabled          bool    `yaml:"enabled" json:"enabled"`
	Duration         float64 `yaml:"duration" json:"duration"` // seconds
	SpawnRatePercent float64 `yaml:"spawnRatePercent" json:"spawnRatePercent"`
}

// MalusSettings configures one malus type.
type MalusSettings struct {
	Enabled  bool    `yaml:"enabled" json:"enabled"`
	Duration float64 `yaml:"duration" json:"duration"` // seconds
}

// ZoneSettings configures the special zones.
type ZoneSettings struct {
	Chaos         bool    `yaml:"chaos" json:"chaos"`
	Repel         bool    `yaml:"repel" json:"repel"`
	Attract       bool    `yaml:"attract" json:"attract"`
	Stealth       bool    `yaml:"stealth" json:"stealth"`
	MinDuration   float64 `yaml:"minDuration" json:"minDuration"`     // seconds
	MaxDuration   float64 `yaml:"maxDuration" json:"maxDuration"`     // seconds
	SpawnInterval float64 `yaml:"spawnInterval" json:"spawnInterval"` // seconds
}

// Settings are the options a game is started with.
type Settings struct {
	GameDuration    float64 `yaml:"gameDuration" json:"gameDuration"` // seconds
	InitialBotCount int     `yaml:"initialBotCount" json:"initialBotCount"`

	SpeedBoost                BonusSettings `yaml:"speedBoost" json:"speedBoost"`
	Invincibility             BonusSettings `yaml:"invincibility" json:"invincibility"`
	Reveal                    BonusSettings `yaml:"reveal" json:"reveal"`
	BonusSpawnIntervalSeconds float64       `yaml:"bonusSpawnIntervalSeconds" json:"bonusSpawnIntervalSeconds"`

	ReverseControls           MalusSettings `yaml:"reverseControls" json:"reverseControls"`
	Blur                      MalusSettings `yaml:"blur" json:"blur"`
	NegativeVision            MalusSettings `yaml:"negativeVision" json:"negativeVision"`
	MalusSpawnIntervalSeconds float64       `yaml:"malusSpawnIntervalSeconds" json:"malusSpawnIntervalSeconds"`
	MalusSpawnRate            float64       `yaml:"malusSpawnRate" json:"malusSpawnRate"` // percent

	EnableSpecialZones bool         `yaml:"enableSpecialZones" json:"enableSpecialZones"`
	Zones              ZoneSettings `yaml:"zones" json:"zones"`

	EnableBlackBot            bool    `yaml:"enableBlackBot" json:"enableBlackBot"`
	BlackBotCount             int     `yaml:"blackBotCount" json:"blackBotCount"`
	BlackBotStartPercent      float64 `yaml:"blackBotStartPercent" json:"blackBotStartPercent"`
	BlackBotDetectionRadius   float64 `yaml:"blackBotDetectionRadius" json:"blackBotDetectionRadius"`
	BlackBotSpeed             float64 `yaml:"blackBotSpeed" json:"blackBotSpeed"` // px per tick
	BlackBotPointsLossPercent float64 `yaml:"blackBotPointsLossPercent" json:"blackBotPointsLossPercent"`
}

// DefaultSettings returns the settings of a standard match.
func DefaultSettings() Settings {
	return Settings{
		GameDuration:    180,
		InitialBotCount: 40,

		SpeedBoost:                BonusSettings{Enabled: true, Duration: 5, SpawnRatePercent: 50},
		Invincibility:             BonusSettings{Enabled: true, Duration: 5, SpawnRatePercent: 30},
		Reveal:                    BonusSettings{Enabled: true, Duration: 8, SpawnRatePercent: 40},
		BonusSpawnIntervalSeconds: 10,

		ReverseControls:           MalusSettings{Enabled: true, Duration: 5},
		Blur:                      MalusSettings{Enabled: true, Duration: 5},
		NegativeVision:            MalusSettings{Enabled: true, Duration: 5},
		MalusSpawnIntervalSeconds: 15,
		MalusSpawnRate:            50,

		EnableSpecialZones: true,
		Zones: ZoneSettings{
			Chaos: true, Repel: true, Attract: true, Stealth: true,
			MinDuration: 10, MaxDuration: 20, SpawnInterval: 15,
		},

		EnableBlackBot:            true,
		BlackBotCount:             1,
		BlackBotStartPercent:      50,
		BlackBotDetectionRadius:   300,
		BlackBotSpeed:             2.5,
		BlackBotPointsLossPercent: 30,
	}
}

// Normalize clamps every option into its valid range.
// Non-finite values fall back to the defaults first.
func (s *Settings) Normalize() {
	s.replaceNonFinite(DefaultSettings())
	s.GameDuration = Clamp(s.GameDuration, 10, 3600)
	if s.InitialBotCount < 0 {
		s.InitialBotCount = 0
	}
	if s.InitialBotCount > 500 {
		s.InitialBotCount = 500
	}
	for _, b := range []*BonusSettings{&s.SpeedBoost, &s.Invincibility, &s.Reveal} {
		b.Duration = Clamp(b.Duration, 0, 120)
		b.SpawnRatePercent = Clamp(b.SpawnRatePercent, 0, 100)
	}
	for _, m := range []*MalusSettings{&s.ReverseControls, &s.Blur, &s.NegativeVision} {
		m.Duration = Clamp(m.Duration, 0, 120)
	}
	s.BonusSpawnIntervalSeconds = Clamp(s.BonusSpawnIntervalSeconds, 1, 600)
	s.MalusSpawnIntervalSeconds = Clamp(s.MalusSpawnIntervalSeconds, 1, 600)
	s.MalusSpawnRate = Clamp(s.MalusSpawnRate, 0, 100)

	s.Zones.MinDuration = Clamp(s.Zones.MinDuration, 1, 600)
	s.Zones.MaxDuration = Clamp(s.Zones.MaxDuration, s.Zones.MinDuration, 600)
	s.Zones.SpawnInterval = Clamp(s.Zones.SpawnInterval, 1, 600)

	if s.BlackBotCount < 0 {
		s.BlackBotCount = 0
	}
	if s.BlackBotCount > 20 {
		s.BlackBotCount = 20
	}
	s.BlackBotStartPercent = Clamp(s.BlackBotStartPercent, 0, 100)
	s.BlackBotDetectionRadius = Clamp(s.BlackBotDetectionRadius, 20, 2000)
	s.BlackBotSpeed = Clamp(s.BlackBotSpeed, 0.5, 20)
	s.BlackBotPointsLossPercent = Clamp(s.BlackBotPointsLossPercent, 0, 100)
}

// Bonus returns the settings for a bonus type.
func (s *Settings) Bonus(t BonusType) BonusSettings {
	switch t {
	case BonusSpeed:
		return s.SpeedBoost
	case BonusInvincibility:
		return s.Invincibility
	case BonusReveal:
		return s.Reveal
	}
	return BonusSettings{}
}

// Malus returns the settings for a malus type.
func (s *Settings) Malus(t MalusType) MalusSettings {
	switch t {
	case MalusReverse:
		return s.ReverseControls
	case MalusBlur:
		return s.Blur
	case MalusNegative:
		return s.NegativeVision
	}
	return MalusSettings{}
}

// EnabledZoneTypes lists the zone types that may spawn.
func (s *Settings) EnabledZoneTypes() []ZoneType {
	if !s.EnableSpecialZones {
		return nil
	}
	var out []ZoneType
	if s.Zones.Chaos {
		out = append(out, ZoneChaos)
	}
	if s.Zones.Repel {
		out = append(out, ZoneRepel)
	}
	if s.Zones.Attract {
		out = append(out, ZoneAttract)
	}
	if s.Zones.Stealth {
		out = append(out, ZoneStealth)
	}
	return out
}

func (s *Settings) replaceNonFinite(d Settings) {
	pairs := [][2]*float64{
		{&s.GameDuration, &d.GameDuration},
		{&s.SpeedBoost.Duration, &d.SpeedBoost.Duration},
		{&s.SpeedBoost.SpawnRatePercent, &d.SpeedBoost.SpawnRatePercent},
		{&s.Invincibility.Duration, &d.Invincibility.Duration},
		{&s.Invincibility.SpawnRatePercent, &d.Invincibility.SpawnRatePercent},
		{&s.Reveal.Duration, &d.Reveal.Duration},
		{&s.Reveal.SpawnRatePercent, &d.Reveal.SpawnRatePercent},
		{&s.BonusSpawnIntervalSeconds, &d.BonusSpawnIntervalSeconds},
		{&s.ReverseControls.Duration, &d.ReverseControls.Duration},
		{&s.Blur.Duration, &d.Blur.Duration},
		{&s.NegativeVision.Duration, &d.NegativeVision.Duration},
		{&s.MalusSpawnIntervalSeconds, &d.MalusSpawnIntervalSeconds},
		{&s.MalusSpawnRate, &d.MalusSpawnRate},
		{&s.Zones.MinDuration, &d.Zones.MinDuration},
		{&s.Zones.MaxDuration, &d.Zones.MaxDuration},
		{&s.Zones.SpawnInterval, &d.Zones.SpawnInterval},
		{&s.BlackBotStartPercent, &d.BlackBotStartPercent},
		{&s.BlackBotDetectionRadius, &d.BlackBotDetectionRadius},
		{&s.BlackBotSpeed, &d.BlackBotSpeed},
		{&s.BlackBotPointsLossPercent, &d.BlackBotPointsLossPercent},
	}
	for _, p := range pairs {
		if !finite(*p[0]) {
			*p[0] = *p[1]
		}
	}
}
