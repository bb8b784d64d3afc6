package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defaults := Default()
	if cfg.ListenAddr != defaults.ListenAddr {
		t.Fatalf("expected default listen addr, got %q", cfg.ListenAddr)
	}
	if cfg.Simulation.TickRateHz != defaults.Simulation.TickRateHz {
		t.Fatalf("expected default tick rate, got %d", cfg.Simulation.TickRateHz)
	}
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
listen_addr: ":9999"
simulation:
  tick_rate_hz: 60
  time_scale: 2.5
  game_duration_sec: 120
agents:
  cooldown_sec: 1.5
scenario:
  seed: 99
  players: 4
  neutral_planets: 10
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Fatalf("expected overridden addr, got %q", cfg.ListenAddr)
	}
	if cfg.Simulation.TickRateHz != 60 || cfg.Simulation.TimeScale != 2.5 {
		t.Fatalf("unexpected simulation config %+v", cfg.Simulation)
	}
	if cfg.Scenario.Players != 4 || cfg.Scenario.Seed != 99 {
		t.Fatalf("unexpected scenario config %+v", cfg.Scenario)
	}
	// Untouched sections keep their defaults.
	if !cfg.Logging.Console {
		t.Fatalf("expected console logging default to survive")
	}
	if got := cfg.AgentCooldown(); got != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s cooldown, got %v", got)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("simulation:\n  time_scale: -1\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected a validation error for negative time scale")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STARFALL_LISTEN_ADDR", ":7070")
	t.Setenv("STARFALL_TIME_SCALE", "8")
	t.Setenv("STARFALL_SCENARIO", "/maps/duel.json")
	t.Setenv("STARFALL_JOURNAL", "/var/run/game.db")

	cfg := Default()
	cfg.FromEnv()
	if cfg.ListenAddr != ":7070" {
		t.Fatalf("expected env addr, got %q", cfg.ListenAddr)
	}
	if cfg.Simulation.TimeScale != 8 {
		t.Fatalf("expected env time scale, got %f", cfg.Simulation.TimeScale)
	}
	if cfg.Scenario.Path != "/maps/duel.json" || cfg.Journal.Path != "/var/run/game.db" {
		t.Fatalf("expected env paths, got %+v %+v", cfg.Scenario, cfg.Journal)
	}
}

func TestFromEnvIgnoresInvalidTimeScale(t *testing.T) {
	t.Setenv("STARFALL_TIME_SCALE", "banana")
	cfg := Default()
	cfg.FromEnv()
	if cfg.Simulation.TimeScale != 1 {
		t.Fatalf("invalid env value must not override, got %f", cfg.Simulation.TimeScale)
	}
}

func TestValidateCatchesBadRosters(t *testing.T) {
	cfg := Default()
	cfg.Scenario.Players = 1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected a roster validation error")
	}
	cfg = Default()
	cfg.Scenario.Players = 1
	cfg.Scenario.Path = "maps/duel.json"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("a file-backed scenario ignores the generator roster: %v", err)
	}
}
