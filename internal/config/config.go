// Package config holds the tunables for a tiles run. Values start from
// Default, are overlaid by an optional TOML file and then by command line
// flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.lost.host/meutraa/tiles/internal/schedule"
	"github.com/pelletier/go-toml/v2"
)

type API struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type Paths struct {
	CacheDir string `toml:"cache_dir"` // Charts database and downloaded audio
	LogFile  string `toml:"log_file"`
}

type Game struct {
	HitWindowMs   int     `toml:"hit_window_ms"`
	LeadTimeMs    int     `toml:"lead_time_ms"`
	BaseExtent    float64 `toml:"base_extent"`
	OffsetMs      int     `toml:"offset_ms"`
	Speed         float64 `toml:"speed"`
	Keys          string  `toml:"keys"` // One key per lane, left to right
	FramePeriodMs int     `toml:"frame_period_ms"`
	Spacing       int     `toml:"spacing"`
	BarRow        int     `toml:"bar_row"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Config struct {
	API     API     `toml:"api"`
	Paths   Paths   `toml:"paths"`
	Game    Game    `toml:"game"`
	Logging Logging `toml:"logging"`
	NoCache bool    `toml:"-"`
}

func Default() Config {
	cacheDir := ".tiles"
	if dir, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(dir, "tiles")
	}
	return Config{
		API: API{
			BaseURL:        "http://localhost:3000",
			TimeoutSeconds: 15,
		},
		Paths: Paths{
			CacheDir: cacheDir,
			LogFile:  filepath.Join(cacheDir, "tiles.log"),
		},
		Game: Game{
			HitWindowMs:   int(schedule.DefaultHitWindow / time.Millisecond),
			LeadTimeMs:    int(schedule.DefaultLeadTime / time.Millisecond),
			BaseExtent:    schedule.DefaultBaseExtent,
			Speed:         1.0,
			Keys:          "1234",
			FramePeriodMs: 8,
			Spacing:       6,
			BarRow:        4,
		},
		Logging: Logging{
			Level:  "info",
			Format: "auto",
		},
	}
}

// DefaultPath is where Load looks when no file is named.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tiles", "config.toml")
}

// Load reads the file at path over the defaults. A missing file is not an
// error; the second result reports whether one was read.
func Load(path string) (*Config, bool, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	exists := false
	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, false, fmt.Errorf("open config: %w", err)
		default:
			defer file.Close()
			if err := toml.NewDecoder(file).DisallowUnknownFields().Decode(&cfg); err != nil {
				return nil, false, fmt.Errorf("parse config %s: %w", path, err)
			}
			exists = true
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return &cfg, exists, nil
}

// KeyLane maps a pressed key to its lane, or -1.
func (c *Config) KeyLane(r rune) int {
	for i, k := range []rune(c.Game.Keys) {
		if k == r {
			return i
		}
	}
	return -1
}

func (c *Config) ScheduleOptions() schedule.Options {
	return schedule.Options{
		LeadTime:   time.Duration(c.Game.LeadTimeMs) * time.Millisecond,
		HitWindow:  time.Duration(c.Game.HitWindowMs) * time.Millisecond,
		BaseExtent: c.Game.BaseExtent,
	}
}

func (c *Config) Offset() time.Duration {
	return time.Duration(c.Game.OffsetMs) * time.Millisecond
}

func (c *Config) FramePeriod() time.Duration {
	return time.Duration(c.Game.FramePeriodMs) * time.Millisecond
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// AudioDir is where downloaded tracks are kept.
func (c *Config) AudioDir() string {
	return filepath.Join(c.Paths.CacheDir, "audio")
}

func (c *Config) ChartDB() string {
	return filepath.Join(c.Paths.CacheDir, "charts.db")
}

func (c *Config) normalize() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}
