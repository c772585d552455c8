// Package engine runs a piano tiles session: it owns the phase, the score
// and the active notes, and keeps them in step with the playback clock.
//
// A Game is not safe for concurrent use. The host calls every method,
// including the frame callbacks it fires through render.Frames, from one
// goroutine.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.lost.host/meutraa/tiles/internal/clock"
	"git.lost.host/meutraa/tiles/internal/game"
	"git.lost.host/meutraa/tiles/internal/logging"
	"git.lost.host/meutraa/tiles/internal/render"
	"git.lost.host/meutraa/tiles/internal/schedule"
	"git.lost.host/meutraa/tiles/internal/score"
	"github.com/google/uuid"
)

var (
	ErrNotPlaying   = errors.New("game is not playing")
	ErrInvalidSpeed = errors.New("invalid playback speed")
	ErrTransport    = errors.New("audio transport failed")
)

// Hooks are optional observers. They are called synchronously.
type Hooks struct {
	OnJudgement  func(game.Judgement)
	OnPhase      func(from, to Phase)
	OnChartError func(error)
}

type Options struct {
	Schedule schedule.Options
	Offset   time.Duration // Added to every clock reading
	Speed    float64       // Initial playback speed, DefaultSpeed if zero
	Logger   *slog.Logger
	Hooks    Hooks
}

type Game struct {
	chart     *game.Chart
	clock     *clock.Clock
	scheduler *schedule.Scheduler
	matcher   *score.Matcher
	tracker   score.Tracker
	loop      *render.Loop
	logger    *slog.Logger
	hooks     Hooks

	// Session state, replaced wholesale by Start.
	sessionID string
	phase     Phase
	set       *game.ActiveSet
	current   time.Duration
	speed     float64
}

// New prepares a game in the ready phase. The chart is validated by Start,
// not here, so a broken chart is reported through the normal start path.
func New(chart *game.Chart, transport clock.Transport, frames render.Frames, opts Options) *Game {
	sched := schedule.New(opts.Schedule)
	speed := opts.Speed
	if speed == 0 {
		speed = DefaultSpeed
	}
	g := &Game{
		chart:     chart,
		clock:     clock.New(transport, opts.Offset),
		scheduler: sched,
		matcher:   score.NewMatcher(sched.Options().HitWindow),
		logger:    logging.OrNop(opts.Logger),
		hooks:     opts.Hooks,
		phase:     Ready,
		speed:     speed,
	}
	g.loop = render.NewLoop(frames, g.tick)
	return g
}

func (g *Game) Phase() Phase {
	return g.phase
}

func (g *Game) Chart() *game.Chart {
	return g.chart
}

// HitWindow is the absolute judging tolerance.
func (g *Game) HitWindow() time.Duration {
	return g.matcher.Window()
}

// Start begins a fresh session from the top of the track. Any running
// session is superseded. On failure nothing of the new session is kept.
func (g *Game) Start() error {
	if err := g.chart.Validate(); err != nil {
		g.logger.Warn("chart rejected", "error", err)
		if g.hooks.OnChartError != nil {
			g.hooks.OnChartError(err)
		}
		return err
	}
	if err := validSpeed(g.speed); err != nil {
		return err
	}

	g.loop.Stop()
	if err := g.startTransport(); err != nil {
		g.clock.Pause()
		if g.phase == Playing {
			g.setPhase(Ended)
		}
		g.logger.Warn("audio transport not ready", "error", err)
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	g.sessionID = uuid.NewString()
	g.tracker.Reset()
	g.set = g.scheduler.Reset(g.chart)
	g.current = 0
	g.logger.Info("session started",
		"session", g.sessionID,
		"job", g.chart.JobID,
		"notes", g.chart.NoteCount(),
		"speed", g.speed,
	)
	g.setPhase(Playing)
	g.loop.Start()
	return nil
}

// Restart is Start from whatever phase the game is in.
func (g *Game) Restart() error {
	return g.Start()
}

func (g *Game) startTransport() error {
	if err := g.clock.SeekTo(0); err != nil {
		return err
	}
	if err := g.clock.SetRate(g.speed); err != nil {
		return err
	}
	return g.clock.Play()
}

// Pause stops playback and ends the session, keeping the counters.
func (g *Game) Pause() error {
	if g.phase != Playing {
		return fmt.Errorf("pause: %w (phase %v)", ErrNotPlaying, g.phase)
	}
	g.halt()
	g.logger.Info("session paused", "session", g.sessionID, "at", g.current)
	g.setPhase(Ended)
	return nil
}

// Stop returns to the ready phase from any phase. Counters are kept for
// display until the next Start.
func (g *Game) Stop() {
	g.halt()
	g.setPhase(Ready)
}

// TransportEnded is called by the host when the audio reaches its natural end.
func (g *Game) TransportEnded() {
	if g.phase != Playing {
		return
	}
	g.current = g.clock.Now()
	g.apply(g.scheduler.Update(g.current))
	g.complete("transport ended")
}

// HandleLaneInput judges a press in lane against the clock as it reads now.
// It reports false when no session is playing.
func (g *Game) HandleLaneInput(lane int) (game.Judgement, bool) {
	if g.phase != Playing {
		return game.Judgement{}, false
	}
	j := g.matcher.Apply(g.set, lane, g.clock.Now())
	g.apply([]game.Judgement{j})
	return j, true
}

// Close tears the session down and releases the transport.
func (g *Game) Close() error {
	g.loop.Stop()
	if g.phase == Playing {
		g.setPhase(Ended)
	}
	return g.clock.Close()
}

func (g *Game) tick() bool {
	if g.phase != Playing {
		return false
	}
	g.current = g.clock.Now()
	g.apply(g.scheduler.Update(g.current))
	if g.current >= g.chart.Duration {
		g.complete("duration reached")
		return false
	}
	return true
}

func (g *Game) complete(reason string) {
	g.apply(g.scheduler.Finish(g.current))
	g.halt()
	g.logger.Info("session complete",
		"session", g.sessionID,
		"reason", reason,
		"hits", g.tracker.Hits(),
		"misses", g.tracker.Misses(),
		"accuracy", g.tracker.Accuracy(),
	)
	g.setPhase(Ended)
}

func (g *Game) halt() {
	g.loop.Stop()
	g.clock.Pause()
}

func (g *Game) apply(judgements []game.Judgement) {
	for _, j := range judgements {
		g.tracker.Record(j)
		g.logger.Debug("note judged",
			"session", g.sessionID,
			"lane", j.Lane,
			"kind", j.Kind,
			"source", j.Source,
			"offset", j.Offset,
			"at", j.At,
		)
		if g.hooks.OnJudgement != nil {
			g.hooks.OnJudgement(j)
		}
	}
}

func (g *Game) setPhase(p Phase) {
	if g.phase == p {
		return
	}
	from := g.phase
	g.phase = p
	if g.hooks.OnPhase != nil {
		g.hooks.OnPhase(from, p)
	}
}
