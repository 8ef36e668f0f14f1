// Package config loads run configuration from a YAML file, then applies
// overrides from a .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/talgya/hearsay/internal/agents"
	"github.com/talgya/hearsay/internal/engine"
	"github.com/talgya/hearsay/internal/world"
)

// Config is the full run configuration.
type Config struct {
	Seed     uint64 `yaml:"seed"` // 0 = random
	LogLevel string `yaml:"log_level"`

	World   WorldConfig   `yaml:"world"`
	Agents  AgentsConfig  `yaml:"agents"`
	Gossip  GossipConfig  `yaml:"gossip"`
	Engine  EngineConfig  `yaml:"engine"`
	Server  ServerConfig  `yaml:"server"`
	History HistoryConfig `yaml:"history"`
}

type WorldConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	NumBiomes int `yaml:"num_biomes"`
}

type AgentsConfig struct {
	Count          int     `yaml:"count"`
	MaxHunger      uint32  `yaml:"max_hunger"`
	MaxThirst      uint32  `yaml:"max_thirst"`
	HungerPerFood  uint32  `yaml:"hunger_per_food"`
	ThirstPerWater uint32  `yaml:"thirst_per_water"`
	SenseRange     int     `yaml:"sense_range"`
	DecayRate      float64 `yaml:"decay_rate"`
}

type GossipConfig struct {
	Trust  float64 `yaml:"trust"`
	Sample int     `yaml:"sample"` // 0 = whole map
}

type EngineConfig struct {
	IntervalMs  int    `yaml:"interval_ms"`
	ReportEvery uint64 `yaml:"report_every"`
	AutoRun     bool   `yaml:"auto_run"`
}

type ServerConfig struct {
	Port         int     `yaml:"port"`      // 0 = no HTTP API
	AdminKey     string  `yaml:"admin_key"` // Empty = control endpoints disabled
	ControlRPS   float64 `yaml:"control_rps"`
	ControlBurst int     `yaml:"control_burst"`
}

type HistoryConfig struct {
	Path       string `yaml:"path"` // Empty = history disabled
	EveryTicks uint64 `yaml:"every_ticks"`
}

// Default returns the standard configuration.
func Default() Config {
	p := engine.DefaultParams()
	return Config{
		LogLevel: "info",
		World: WorldConfig{
			Width:     p.World.Width,
			Height:    p.World.Height,
			NumBiomes: p.World.NumBiomes,
		},
		Agents: AgentsConfig{
			Count:          p.NumAgents,
			MaxHunger:      p.Limits.MaxHunger,
			MaxThirst:      p.Limits.MaxThirst,
			HungerPerFood:  p.Limits.HungerPerFood,
			ThirstPerWater: p.Limits.ThirstPerWater,
			SenseRange:     p.SenseRange,
			DecayRate:      p.DecayRate,
		},
		Gossip: GossipConfig{
			Trust:  p.GossipTrust,
			Sample: p.GossipSample,
		},
		Engine: EngineConfig{
			IntervalMs:  100,
			ReportEvery: p.ReportEvery,
		},
		Server: ServerConfig{
			Port:         8080,
			ControlRPS:   5,
			ControlBurst: 10,
		},
		History: HistoryConfig{
			EveryTicks: 10,
		},
	}
}

// Load reads the YAML file at path (skipped if empty) on top of Default,
// then the env file named by HEARSAY_ENV (or .env), then env overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}

	envFile := os.Getenv("HEARSAY_ENV")
	if envFile == "" {
		envFile = ".env"
	}
	// Missing env files are fine.
	_ = godotenv.Load(envFile)

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("HEARSAY_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("HEARSAY_SEED: %w", err)
		}
		c.Seed = seed
	}
	if v := os.Getenv("HEARSAY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HEARSAY_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("HEARSAY_ADMIN_KEY"); v != "" {
		c.Server.AdminKey = v
	}
	if v := os.Getenv("HEARSAY_DB"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate reports configuration errors. They are not recoverable.
func (c Config) Validate() error {
	var errs []error
	if err := c.Params().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Engine.IntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("engine.interval_ms must be positive, got %d", c.Engine.IntervalMs))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// Params converts the configuration into simulation parameters.
func (c Config) Params() engine.Params {
	return engine.Params{
		World: world.GenConfig{
			Width:     c.World.Width,
			Height:    c.World.Height,
			NumBiomes: c.World.NumBiomes,
		},
		NumAgents: c.Agents.Count,
		Limits: agents.NeedLimits{
			MaxHunger:      c.Agents.MaxHunger,
			MaxThirst:      c.Agents.MaxThirst,
			HungerPerFood:  c.Agents.HungerPerFood,
			ThirstPerWater: c.Agents.ThirstPerWater,
		},
		SenseRange:   c.Agents.SenseRange,
		DecayRate:    c.Agents.DecayRate,
		GossipTrust:  c.Gossip.Trust,
		GossipSample: c.Gossip.Sample,
		ReportEvery:  c.Engine.ReportEvery,
	}
}

// Interval returns the tick interval for continuous runs.
func (c Config) Interval() time.Duration {
	return time.Duration(c.Engine.IntervalMs) * time.Millisecond
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
