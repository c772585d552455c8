package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.lost.host/meutraa/tiles/internal/clock"
	"git.lost.host/meutraa/tiles/internal/config"
	"git.lost.host/meutraa/tiles/internal/engine"
	"git.lost.host/meutraa/tiles/internal/game"
	"git.lost.host/meutraa/tiles/internal/logging"
	"git.lost.host/meutraa/tiles/internal/render"
	"git.lost.host/meutraa/tiles/internal/theme"
	"github.com/eiannone/keyboard"
)

const (
	flashFor     = 120 * time.Millisecond
	judgementFor = 400 * time.Millisecond
)

// track is the audio as the host sees it: a clock source that also says
// when it has played out.
type track interface {
	clock.Transport
	Ended() <-chan struct{}
}

// Program binds the engine to the terminal, the keyboard and the speaker.
// Everything runs on the goroutine that calls Run.
type Program struct {
	cfg      *config.Config
	game     *engine.Game
	player   track
	pump     *render.Pump
	renderer render.Renderer
	logger   *slog.Logger

	pressed   []time.Time // Last press per lane
	last      game.Judgement
	lastAt    time.Time
	lastError error
}

func newProgram(cfg *config.Config, chart *game.Chart, player track, logger *slog.Logger) *Program {
	p := &Program{
		cfg:      cfg,
		player:   player,
		pump:     &render.Pump{},
		renderer: render.NewDefaultRenderer(&theme.DefaultTheme{}, cfg.Game.Spacing, cfg.Game.BarRow),
		logger:   logging.OrNop(logger),
		pressed:  make([]time.Time, max(chart.Lanes, 0)),
	}
	if keys := len([]rune(cfg.Game.Keys)); keys < chart.Lanes {
		p.logger.Warn("not every lane has a key",
			"lanes", chart.Lanes,
			"keys", cfg.Game.Keys,
			"unreachable", chart.Lanes-keys,
		)
	}
	p.game = engine.New(chart, player, p.pump, engine.Options{
		Schedule: cfg.ScheduleOptions(),
		Offset:   cfg.Offset(),
		Speed:    cfg.Game.Speed,
		Logger:   logger,
		Hooks: engine.Hooks{
			OnJudgement: p.judged,
			OnChartError: func(err error) {
				p.lastError = err
			},
		},
	})
	return p
}

func (p *Program) Run(ctx context.Context) error {
	keys, err := keyboard.GetKeys(128)
	if nil != err {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	defer func() {
		if err := keyboard.Close(); nil != err {
			p.logger.Warn("unable to close keyboard", "error", err)
		}
	}()

	if err := p.renderer.Init(); nil != err {
		return err
	}
	defer p.renderer.Deinit()

	p.start()

	ticker := time.NewTicker(p.cfg.FramePeriod())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-keys:
			if !ok {
				return nil
			}
			if nil != key.Err {
				return fmt.Errorf("keyboard: %w", key.Err)
			}
			if p.handleKey(key, time.Now()) {
				return nil
			}
		case <-p.player.Ended():
			p.game.TransportEnded()
		case <-ticker.C:
			p.pump.Fire()
			p.renderer.Draw(p.scene(time.Now()))
		}
	}
}

func (p *Program) Close() error {
	return p.game.Close()
}

func (p *Program) start() {
	p.lastError = nil
	if err := p.game.Restart(); nil != err {
		p.lastError = err
		p.logger.Error("unable to start", "error", err)
	}
}

// handleKey acts on one key press and reports whether to quit.
func (p *Program) handleKey(key keyboard.KeyEvent, now time.Time) bool {
	if lane := p.cfg.KeyLane(key.Rune); lane >= 0 && key.Key == 0 {
		if lane < len(p.pressed) {
			p.pressed[lane] = now
		}
		p.game.HandleLaneInput(lane)
		return false
	}

	switch {
	case key.Key == keyboard.KeyEsc, key.Key == keyboard.KeyCtrlC, key.Rune == 'q':
		return true
	case key.Key == keyboard.KeySpace:
		if p.game.Phase() == engine.Playing {
			p.game.Pause()
		} else {
			p.start()
		}
	case key.Rune == '+', key.Rune == '=':
		p.changeSpeed(p.game.SpeedUp)
	case key.Rune == '-', key.Rune == '_':
		p.changeSpeed(p.game.SpeedDown)
	}
	return false
}

func (p *Program) changeSpeed(step func() error) {
	if err := step(); nil != err {
		p.logger.Warn("speed change failed", "error", err)
	}
}

func (p *Program) judged(j game.Judgement) {
	if j.Source != game.FromInput {
		return
	}
	p.last = j
	p.lastAt = time.Now()
}

func (p *Program) scene(now time.Time) render.Scene {
	s := p.game.Snapshot()
	scene := render.Scene{
		Lanes:    s.Lanes,
		Tiles:    tiles(s.ActiveNotes),
		Active:   make([]bool, max(s.Lanes, 0)),
		Progress: s.Progress(),
		Status:   status(p.game.Chart(), s),
	}
	for lane := range scene.Active {
		scene.Active[lane] = lane < len(p.pressed) && now.Sub(p.pressed[lane]) < flashFor
	}
	if s.Phase == engine.Playing && now.Sub(p.lastAt) < judgementFor {
		scene.Status = append(scene.Status, "", describe(p.last))
	}
	scene.Overlay = overlay(s, p.lastError)
	return scene
}

func tiles(notes []game.ActiveNote) []render.Tile {
	out := make([]render.Tile, 0, len(notes))
	for _, n := range notes {
		out = append(out, render.Tile{
			Lane:     n.Lane,
			Progress: n.Progress,
			Extent:   n.Extent,
			Long:     n.IsLong(),
		})
	}
	return out
}

func status(chart *game.Chart, s engine.Snapshot) []string {
	title := chart.Title
	if title == "" {
		title = chart.JobID
	}
	return []string{
		title,
		fmt.Sprintf("%s / %s", engine.FormatClock(s.Current), engine.FormatClock(s.Duration)),
		fmt.Sprintf("   Speed: %.2fx", s.Speed),
		fmt.Sprintf("    Hits: %5d", s.Hits),
		fmt.Sprintf("  Misses: %5d", s.Misses),
		fmt.Sprintf("Accuracy: %4d%%", s.Accuracy),
	}
}

func describe(j game.Judgement) string {
	switch {
	case j.Stray():
		return "\033[1;31mStray\033[0m"
	case j.Kind == game.Hit:
		return fmt.Sprintf("\033[1;32mHit\033[0m %+4dms", j.Offset.Milliseconds())
	}
	return "\033[1;31mMiss\033[0m"
}

func overlay(s engine.Snapshot, err error) []string {
	switch {
	case nil != err:
		return []string{err.Error(), "space to retry, q to quit"}
	case s.Phase == engine.Ready:
		return []string{"space to start"}
	case s.Phase == engine.Ended:
		return []string{fmt.Sprintf("Accuracy %d%%", s.Accuracy), "space to play again, q to quit"}
	}
	return nil
}
