package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"git.lost.host/meutraa/tiles/internal/audio"
	"git.lost.host/meutraa/tiles/internal/chartapi"
	"git.lost.host/meutraa/tiles/internal/chartcache"
	"git.lost.host/meutraa/tiles/internal/config"
	"git.lost.host/meutraa/tiles/internal/game"
	"git.lost.host/meutraa/tiles/internal/logging"
	"git.lost.host/meutraa/tiles/internal/parser"
	"gopkg.in/alecthomas/kingpin.v2"
)

const version = "0.3.0"

func main() {
	app := kingpin.New("tiles", "Piano tiles in the terminal.")
	app.Version(version)
	flags := config.Bind(app)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := run(flags); nil != err {
		fmt.Fprintln(os.Stderr, "tiles:", err)
		os.Exit(1)
	}
}

func run(flags *config.Flags) error {
	cfg, _, err := config.Load(*flags.ConfigPath)
	if nil != err {
		return err
	}
	if err := flags.Apply(cfg); nil != err {
		return err
	}

	// The game owns the terminal, so logs go to a file.
	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Path:   cfg.Paths.LogFile,
	})
	if nil != err {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chart, audioPath, err := load(ctx, cfg, *flags.Target, *flags.Audio, logger)
	if nil != err {
		return err
	}

	player, err := audio.Open(audioPath, logger)
	if nil != err {
		return err
	}

	p := newProgram(cfg, chart, player, logger)
	defer p.Close()
	if err := p.Run(ctx); nil != err {
		return err
	}

	fmt.Println(summary(chart, p.game.Snapshot()))
	return nil
}

// isChartFile reports whether target names a local chart rather than a job.
func isChartFile(target string) bool {
	switch strings.ToLower(filepath.Ext(target)) {
	case ".json", ".yaml", ".yml":
		_, err := os.Stat(target)
		return nil == err
	}
	return false
}

// load resolves the chart and a playable audio file for target.
func load(ctx context.Context, cfg *config.Config, target, audioFlag string, logger *slog.Logger) (*game.Chart, string, error) {
	if isChartFile(target) {
		return loadFile(&parser.DefaultParser{}, target, audioFlag)
	}

	client, err := chartapi.New(cfg.API.BaseURL, cfg.Timeout(), logger)
	if nil != err {
		return nil, "", err
	}
	source := &chartapi.Source{Client: client}
	if !cfg.NoCache {
		if err := os.MkdirAll(cfg.Paths.CacheDir, 0o755); nil != err {
			return nil, "", fmt.Errorf("ensure cache directory: %w", err)
		}
		cache, err := chartcache.Open(cfg.ChartDB())
		if nil != err {
			logger.Warn("chart cache unavailable", "path", cfg.ChartDB(), "error", err)
		} else {
			defer cache.Close()
			source.Cache = cache
		}
	}

	chart, err := source.Load(ctx, target)
	if nil != err {
		return nil, "", err
	}
	if audioFlag != "" {
		return chart, audioFlag, nil
	}
	if chart.AudioURL == "" {
		return nil, "", fmt.Errorf("chart %s has no audio", target)
	}
	path, err := client.DownloadAudio(ctx, target, chart.AudioURL, cfg.AudioDir())
	if nil != err {
		return nil, "", err
	}
	return chart, path, nil
}

// loadFile reads a local chart. Its audio is the --audio flag, or the
// chart's audioUrl taken as a path relative to the chart.
func loadFile(psr parser.Parser, file, audioFlag string) (*game.Chart, string, error) {
	chart, err := psr.Parse(file)
	if nil != err {
		return nil, "", fmt.Errorf("read chart %s: %w", file, err)
	}
	if audioFlag != "" {
		return chart, audioFlag, nil
	}
	if chart.AudioURL == "" || strings.Contains(chart.AudioURL, "://") {
		return nil, "", errors.New("local charts need --audio unless audioUrl names a file")
	}
	path := chart.AudioURL
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(file), path)
	}
	return chart, path, nil
}
