package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: "9000"
game:
  scoring: exact
  eagerReveal: false
  leaderboardDelay: 0s
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9000" || cfg.Game.Scoring != "exact" {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.EagerReveal() {
		t.Fatalf("expected eager reveal disabled")
	}
	if cfg.Questions.MaxPerRoom != 30 || cfg.Questions.DefaultBank != "default" {
		t.Fatalf("expected defaults kept for unset keys, got %+v", cfg.Questions)
	}
	if d := Duration(cfg.Game.LeaderboardDelay, time.Second); d != 0 {
		t.Fatalf("expected explicit zero delay, got %v", d)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for explicit missing file")
	}
	cfg, err := Load("")
	if err != nil || !cfg.EagerReveal() || cfg.Game.PinLength != 6 {
		t.Fatalf("expected defaults for empty path, got %+v %v", cfg, err)
	}
}

func TestDuration(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", 5 * time.Second},
		{"garbage", 5 * time.Second},
		{"1500ms", 1500 * time.Millisecond},
		{"2h", 2 * time.Hour},
	}
	for _, tc := range cases {
		if got := Duration(tc.raw, 5*time.Second); got != tc.want {
			t.Fatalf("Duration(%q): expected %v, got %v", tc.raw, tc.want, got)
		}
	}
}
