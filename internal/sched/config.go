package sched

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	yaml "github.com/goccy/go-yaml"
)

// Config mirrors config.yml
type Config struct {
	Policy string `yaml:"policy"`  // adaptive | rm
	TickMS int    `yaml:"tick_ms"` // wall-clock delay between trigger fires
	Speed  int    `yaml:"speed"`   // simulation ticks per trigger fire

	BaseQuantum   int64   `yaml:"base_quantum"`   // 20
	MinQuantum    int64   `yaml:"min_quantum"`    // 6
	LoadTasks     int     `yaml:"load_tasks"`     // active tasks that count as full load
	LoadShrink    float64 `yaml:"load_shrink"`    // 0.7
	MissedPenalty int64   `yaml:"missed_penalty"` // 200
	MissBoost     int64   `yaml:"miss_boost"`     // 100

	RMTick     int64 `yaml:"rm_tick"`     // 10
	RMSentinel int64 `yaml:"rm_sentinel"` // rank of tasks without a period

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Addr      string `yaml:"addr"`
	DBPath    string `yaml:"db_path"`
}

// DefaultConfig returns the values used when no config file is present.
func DefaultConfig() Config {
	return Config{
		Policy:        PolicyAdaptive,
		TickMS:        50,
		Speed:         1,
		BaseQuantum:   20,
		MinQuantum:    6,
		LoadTasks:     6,
		LoadShrink:    0.7,
		MissedPenalty: 200,
		MissBoost:     100,
		RMTick:        10,
		RMSentinel:    999999,
		LogLevel:      "info",
		LogFormat:     "text",
		Addr:          ":8080",
	}
}

// Load reads YAML and overrides defaults; empty path = defaults only.
// A missing file is not an error, a malformed one is.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.clamp()
	return cfg, nil
}

// clamp puts out-of-range values back to their defaults.
func (cfg *Config) clamp() {
	def := DefaultConfig()

	if cfg.Policy == "" {
		cfg.Policy = def.Policy
	}
	if cfg.TickMS <= 0 {
		cfg.TickMS = def.TickMS
	}
	if cfg.Speed <= 0 {
		cfg.Speed = def.Speed
	}
	if cfg.BaseQuantum <= 0 {
		cfg.BaseQuantum = def.BaseQuantum
	}
	if cfg.MinQuantum <= 0 || cfg.MinQuantum > cfg.BaseQuantum {
		cfg.MinQuantum = min(def.MinQuantum, cfg.BaseQuantum)
	}
	if cfg.LoadTasks <= 0 {
		cfg.LoadTasks = def.LoadTasks
	}
	if cfg.LoadShrink < 0 || cfg.LoadShrink >= 1 {
		cfg.LoadShrink = def.LoadShrink
	}
	if cfg.MissedPenalty < 0 {
		cfg.MissedPenalty = def.MissedPenalty
	}
	if cfg.MissBoost < 0 {
		cfg.MissBoost = def.MissBoost
	}
	if cfg.RMTick <= 0 {
		cfg.RMTick = def.RMTick
	}
	if cfg.RMSentinel <= 0 {
		cfg.RMSentinel = def.RMSentinel
	}
}
