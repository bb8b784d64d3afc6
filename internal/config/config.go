// Package config loads the server's YAML configuration and applies
// environment overrides for the handful of knobs operators change in
// deployment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration. Zero values are filled in by
// Default before a file or the environment is consulted.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	Simulation Simulation `yaml:"simulation"`
	Agents     Agents     `yaml:"agents"`
	Scenario   Scenario   `yaml:"scenario"`
	Journal    Journal    `yaml:"journal"`
	Logging    Logging    `yaml:"logging"`
	Metrics    Metrics    `yaml:"metrics"`
}

// Simulation tunes the tick loop and game rules.
type Simulation struct {
	TickRateHz      int     `yaml:"tick_rate_hz"`
	TimeScale       float64 `yaml:"time_scale"`
	CatchupMaxTicks int     `yaml:"catchup_max_ticks"`
	GameDurationSec float64 `yaml:"game_duration_sec"`
	CommandCapacity int     `yaml:"command_capacity"`
	PerPlayerLimit  int     `yaml:"per_player_limit"`
}

// Agents tunes the built-in decision agents.
type Agents struct {
	CooldownSec float64 `yaml:"cooldown_sec"`
}

// Scenario selects the starting map. When Path is empty a map is generated
// from Seed instead.
type Scenario struct {
	Path           string `yaml:"path"`
	Seed           int64  `yaml:"seed"`
	Players        int    `yaml:"players"`
	NeutralPlanets int    `yaml:"neutral_planets"`
}

// Journal configures the on-disk replay record. An empty path disables it.
type Journal struct {
	Path string `yaml:"path"`
}

// Logging selects the sinks the event router fans out to.
type Logging struct {
	Console bool   `yaml:"console"`
	JSON    bool   `yaml:"json"`
	JSONDir string `yaml:"json_dir"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Enabled     bool `yaml:"enabled"`
	EnablePprof bool `yaml:"enable_pprof"`
}

// Default returns the configuration a bare server starts with.
func Default() Config {
	return Config{
		ListenAddr: ":8080",
		Simulation: Simulation{
			TickRateHz:      20,
			TimeScale:       1,
			CatchupMaxTicks: 4,
			GameDurationSec: 600,
			CommandCapacity: 256,
			PerPlayerLimit:  8,
		},
		Agents: Agents{
			CooldownSec: 0.5,
		},
		Scenario: Scenario{
			Seed:           1,
			Players:        2,
			NeutralPlanets: 6,
		},
		Logging: Logging{
			Console: true,
			JSON:    false,
			JSONDir: "logs",
		},
		Metrics: Metrics{
			Enabled: true,
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// FromEnv applies the deployment overrides on top of the loaded file.
func (c *Config) FromEnv() {
	if addr := os.Getenv("STARFALL_LISTEN_ADDR"); addr != "" {
		c.ListenAddr = addr
	}
	if scale := os.Getenv("STARFALL_TIME_SCALE"); scale != "" {
		if v, err := strconv.ParseFloat(scale, 64); err == nil && v > 0 {
			c.Simulation.TimeScale = v
		}
	}
	if path := os.Getenv("STARFALL_SCENARIO"); path != "" {
		c.Scenario.Path = path
	}
	if path := os.Getenv("STARFALL_JOURNAL"); path != "" {
		c.Journal.Path = path
	}
}

// Validate rejects configurations the engine would panic on.
func (c Config) Validate() error {
	if c.Simulation.TickRateHz <= 0 {
		return fmt.Errorf("config: tick_rate_hz must be positive, got %d", c.Simulation.TickRateHz)
	}
	if c.Simulation.TimeScale <= 0 {
		return fmt.Errorf("config: time_scale must be positive, got %f", c.Simulation.TimeScale)
	}
	if c.Simulation.GameDurationSec <= 0 {
		return fmt.Errorf("config: game_duration_sec must be positive, got %f", c.Simulation.GameDurationSec)
	}
	if c.Scenario.Path == "" && c.Scenario.Players < 2 {
		return fmt.Errorf("config: generated scenarios need at least 2 players, got %d", c.Scenario.Players)
	}
	return nil
}

// AgentCooldown converts the configured cooldown to a duration.
func (c Config) AgentCooldown() time.Duration {
	if c.Agents.CooldownSec <= 0 {
		return 0
	}
	return time.Duration(c.Agents.CooldownSec * float64(time.Second))
}
