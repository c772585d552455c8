package config

import (
	"errors"
	"fmt"
	"math"
)

// Validate normalizes the configuration and checks it is usable.
func (c *Config) Validate() error {
	c.normalize()
	if c.API.BaseURL == "" {
		return errors.New("api.base_url must be set")
	}
	if c.API.TimeoutSeconds <= 0 {
		return errors.New("api.timeout_seconds must be positive")
	}
	if c.Paths.CacheDir == "" {
		return errors.New("paths.cache_dir must be set")
	}
	if err := c.validateGame(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateGame() error {
	g := c.Game
	if g.HitWindowMs <= 0 {
		return errors.New("game.hit_window_ms must be positive")
	}
	if g.LeadTimeMs <= g.HitWindowMs {
		return errors.New("game.lead_time_ms must be longer than the hit window")
	}
	if g.BaseExtent <= 0 || g.BaseExtent > 0.5 {
		return errors.New("game.base_extent must be in (0, 0.5]")
	}
	if math.IsNaN(g.Speed) || g.Speed < 0.25 || g.Speed > 2 {
		return fmt.Errorf("game.speed %v must be between 0.25 and 2", g.Speed)
	}
	if g.Keys == "" {
		return errors.New("game.keys must name at least one key")
	}
	seen := map[rune]bool{}
	for _, r := range g.Keys {
		if seen[r] {
			return fmt.Errorf("game.keys: %q is bound twice", r)
		}
		seen[r] = true
	}
	if g.FramePeriodMs <= 0 {
		return errors.New("game.frame_period_ms must be positive")
	}
	if g.Spacing < 1 {
		return errors.New("game.spacing must be at least 1")
	}
	if g.BarRow < 1 {
		return errors.New("game.bar_row must be at least 1")
	}
	return nil
}
