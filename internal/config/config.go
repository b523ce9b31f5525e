package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"arena-server/internal/game"
	"arena-server/internal/logger"
)

// Config is the process configuration.
type Config struct {
	Addr         string
	ClientDir    string
	MaskPath     string
	SettingsPath string
	DBPath       string
	AdminHash    string // bcrypt hash of the admin password; empty disables admin routes
	JWTSecret    string
	PublicURL    string
	MapWidth     int
	MapHeight    int
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:      ":8080",
		ClientDir: "../client",
		DBPath:    "arena.db",
		PublicURL: "http://localhost:8080",
		MapWidth:  game.DefaultMapWidth,
		MapHeight: game.DefaultMapHeight,
	}
}

// Load reads an optional .env file, then the ARENA_* environment variables
// over the defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Log.Debug("no .env file loaded")
	}

	cfg := Default()
	str := map[string]*string{
		"ARENA_ADDR":       &cfg.Addr,
		"ARENA_CLIENT_DIR": &cfg.ClientDir,
		"ARENA_MASK":       &cfg.MaskPath,
		"ARENA_SETTINGS":   &cfg.SettingsPath,
		"ARENA_DB":         &cfg.DBPath,
		"ARENA_ADMIN_HASH": &cfg.AdminHash,
		"ARENA_JWT_SECRET": &cfg.JWTSecret,
		"ARENA_PUBLIC_URL": &cfg.PublicURL,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"ARENA_MAP_W": &cfg.MapWidth,
		"ARENA_MAP_H": &cfg.MapHeight,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("%s: invalid size %q", key, v)
		}
		*dst = n
	}
	return cfg, nil
}

// LoadSettings reads game settings from a YAML file over the defaults. An
// empty path or a missing file yields the defaults.
func LoadSettings(path string) (game.Settings, error) {
	s := game.DefaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Log.WithField("path", path).Warn("settings file not found, using defaults")
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return game.DefaultSettings(), fmt.Errorf("parse settings %s: %w", path, err)
	}
	s.Normalize()
	return s, nil
}
