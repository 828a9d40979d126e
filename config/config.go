/*
Package config loads the journey server configuration.

PRECEDENCE (later wins):
  1. Defaults
  2. YAML file (--config)
  3. .env in the working directory, when present
  4. Environment: JOURNEY_PORT, JOURNEY_DB, JOURNEY_DURATION_MONTHS,
     JOURNEY_CATALOGUE, JOURNEY_SCHEDULE, JOURNEY_SCHEDULER_ENABLED,
     JOURNEY_ALLOWED_ORIGINS, LOG_LEVEL, LOG_FORMAT

  CLI flags are applied on top by cmd/journeyd.

EXAMPLE:
  server:
    port: 8080
    allowed_origins: ["http://localhost:3000"]
  database:
    path: ./data/journey.db
  program:
    duration_months: 6
  achievements:
    catalogue_path: ./catalogue.json
  scheduler:
    enabled: true
    spec: "@every 1h"
  log:
    level: info
    format: json
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/warp/journey-engine/journey"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidPort     = errors.New("invalid port")
	ErrInvalidDuration = errors.New("program.duration_months must be between 1 and 120")
	ErrEmptySchedule   = errors.New("scheduler.spec must be set when the scheduler is enabled")
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Program      ProgramConfig      `yaml:"program"`
	Achievements AchievementsConfig `yaml:"achievements"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Log          LogConfig          `yaml:"log"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type ProgramConfig struct {
	// DurationMonths applies to mentorships saved without an explicit length.
	DurationMonths int `yaml:"duration_months"`
}

type AchievementsConfig struct {
	// CataloguePath names a JSON catalogue; empty uses the built-in one.
	CataloguePath string `yaml:"catalogue_path"`
}

type SchedulerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Spec    string `yaml:"spec"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "human"
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Database:  DatabaseConfig{Path: "./data/journey.db"},
		Program:   ProgramConfig{DurationMonths: 6},
		Scheduler: SchedulerConfig{Enabled: true, Spec: "@every 1h"},
		Log:       LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("JOURNEY_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: JOURNEY_PORT=%q", ErrInvalidPort, v)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("JOURNEY_DB"); ok {
		c.Database.Path = v
	}
	if v, ok := lookup("JOURNEY_DURATION_MONTHS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: JOURNEY_DURATION_MONTHS=%q", ErrInvalidDuration, v)
		}
		c.Program.DurationMonths = n
	}
	if v, ok := lookup("JOURNEY_CATALOGUE"); ok {
		c.Achievements.CataloguePath = v
	}
	if v, ok := lookup("JOURNEY_SCHEDULE"); ok {
		c.Scheduler.Spec = v
	}
	if v, ok := lookup("JOURNEY_SCHEDULER_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("JOURNEY_SCHEDULER_ENABLED=%q: %w", v, err)
		}
		c.Scheduler.Enabled = enabled
	}
	if v, ok := lookup("JOURNEY_ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	return nil
}

// Validate checks the values Load cannot repair.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}
	if c.Program.DurationMonths < 1 || c.Program.DurationMonths > journey.MaxDurationMonths {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, c.Program.DurationMonths)
	}
	if c.Scheduler.Enabled && strings.TrimSpace(c.Scheduler.Spec) == "" {
		return ErrEmptySchedule
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
