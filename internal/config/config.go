package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port      string `yaml:"port"`
		PublicURL string `yaml:"publicUrl"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questions struct {
		DefaultBank string `yaml:"defaultBank"`
		File        string `yaml:"file"`
		TTL         string `yaml:"ttl"`
		MaxPerRoom  int    `yaml:"maxPerRoom"`
	} `yaml:"questions"`
	Game struct {
		Scoring          string `yaml:"scoring"`
		EagerReveal      *bool  `yaml:"eagerReveal"`
		LeaderboardDelay string `yaml:"leaderboardDelay"`
		DefaultTimeLimit string `yaml:"defaultTimeLimit"`
		RoomIdleTimeout  string `yaml:"roomIdleTimeout"`
		JanitorInterval  string `yaml:"janitorInterval"`
		PinLength        int    `yaml:"pinLength"`
	} `yaml:"game"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Server.PublicURL = "http://localhost:8080"
	cfg.Redis.TTL = "3h"
	cfg.Questions.DefaultBank = "default"
	cfg.Questions.TTL = "10m"
	cfg.Questions.MaxPerRoom = 30
	cfg.Game.Scoring = "speed"
	eager := true
	cfg.Game.EagerReveal = &eager
	cfg.Game.LeaderboardDelay = "1500ms"
	cfg.Game.DefaultTimeLimit = "20s"
	cfg.Game.RoomIdleTimeout = "2h"
	cfg.Game.JanitorInterval = "1m"
	cfg.Game.PinLength = 6
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	return cfg
}

// Load reads YAML config from path on top of the defaults. An empty path
// returns the defaults; a missing file is only tolerated for the default path.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultPath {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// DefaultPath is where the CLI looks for a config file when none is given.
const DefaultPath = "config/config.yaml"

// EagerReveal reports the configured eager-reveal setting, true when unset.
func (c Config) EagerReveal() bool {
	return c.Game.EagerReveal == nil || *c.Game.EagerReveal
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
