package config

import (
	"time"

	"gopkg.in/alecthomas/kingpin.v2"
)

// Flags are the command line overrides. Zero values leave the file or
// default setting alone.
type Flags struct {
	Target     *string
	Audio      *string
	ConfigPath *string
	API        *string
	Rate       *float64
	Offset     *time.Duration
	Keys       *string
	LogLevel   *string
	LogFormat  *string
	CacheDir   *string
	NoCache    *bool
}

func Bind(app *kingpin.Application) *Flags {
	return &Flags{
		Target:     app.Arg("chart", "Job id on the song service, or a local .json/.yaml chart").Required().String(),
		Audio:      app.Flag("audio", "Audio file for a local chart").Short('a').ExistingFile(),
		ConfigPath: app.Flag("config", "TOML configuration file").Short('c').String(),
		API:        app.Flag("api", "Song service base url").String(),
		Rate:       app.Flag("rate", "Playback speed").Short('r').Float64(),
		Offset:     app.Flag("offset", "Global input offset").Short('o').Duration(),
		Keys:       app.Flag("keys", "Lane keys, left to right").Short('k').String(),
		LogLevel:   app.Flag("log-level", "debug, info, warn or error").String(),
		LogFormat:  app.Flag("log-format", "auto, console or json").String(),
		CacheDir:   app.Flag("cache-dir", "Chart and audio cache directory").String(),
		NoCache:    app.Flag("no-cache", "Always fetch the chart").Bool(),
	}
}

// Apply copies the flags that were given onto cfg and validates the result.
func (f *Flags) Apply(cfg *Config) error {
	if s := deref(f.API); s != "" {
		cfg.API.BaseURL = s
	}
	if f.Rate != nil && *f.Rate != 0 {
		cfg.Game.Speed = *f.Rate
	}
	if f.Offset != nil && *f.Offset != 0 {
		cfg.Game.OffsetMs = int(*f.Offset / time.Millisecond)
	}
	if s := deref(f.Keys); s != "" {
		cfg.Game.Keys = s
	}
	if s := deref(f.LogLevel); s != "" {
		cfg.Logging.Level = s
	}
	if s := deref(f.LogFormat); s != "" {
		cfg.Logging.Format = s
	}
	if s := deref(f.CacheDir); s != "" {
		cfg.Paths.CacheDir = s
	}
	if f.NoCache != nil {
		cfg.NoCache = *f.NoCache
	}
	return cfg.Validate()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
