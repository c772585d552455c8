// Package audio plays a track through the speaker and reports its position,
// which is the clock the game runs on.
package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"git.lost.host/meutraa/tiles/internal/logging"
	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
)

var ErrClosed = errors.New("audio player closed")

// The speaker can only be initialised once per process.
var (
	speakerOnce sync.Once
	speakerErr  error
	speakerRate beep.SampleRate
)

// Player is a clock.Transport backed by the beep speaker. All stream state
// is guarded by the speaker lock, since the speaker goroutine pulls samples
// concurrently with the game.
type Player struct {
	format    beep.Format
	stream    beep.StreamSeekCloser
	resampler *beep.Resampler
	ctrl      *beep.Ctrl
	rate      float64
	logger    *slog.Logger

	queued bool
	closed bool
	ended  chan struct{}
}

// Open decodes the file by its extension and prepares the speaker. The
// player starts paused at the beginning of the track.
func Open(path string, logger *slog.Logger) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	case ".ogg":
		stream, format, err = vorbis.Decode(f)
	case ".wav":
		stream, format, err = wav.Decode(f)
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported audio format %q", ext)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	speakerOnce.Do(func() {
		speakerRate = format.SampleRate
		speakerErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/30))
	})
	if speakerErr != nil {
		stream.Close()
		return nil, fmt.Errorf("init speaker: %w", speakerErr)
	}

	p := newPlayer(stream, format, logger)
	if format.SampleRate != speakerRate {
		// Later tracks play at the rate the speaker was opened with.
		p.logger.Warn("sample rate differs from speaker", "track", format.SampleRate, "speaker", speakerRate)
	}
	p.logger.Info("audio opened",
		"path", path,
		"sample_rate", format.SampleRate,
		"length", p.Duration(),
	)
	return p, nil
}

func newPlayer(stream beep.StreamSeekCloser, format beep.Format, logger *slog.Logger) *Player {
	p := &Player{
		format: format,
		stream: stream,
		ctrl:   &beep.Ctrl{Paused: true},
		rate:   1,
		logger: logging.OrNop(logger),
		ended:  make(chan struct{}, 1),
	}
	p.rewire()
	return p
}

// rewire puts a fresh resampler between the track and the control. The
// resampler reads ahead and latches the end of the track, so it is replaced
// whenever the track position jumps.
func (p *Player) rewire() {
	p.resampler = beep.ResampleRatio(4, p.rate, p.stream)
	p.ctrl.Streamer = p.resampler
}

// Ended receives once each time the track plays to its end.
func (p *Player) Ended() <-chan struct{} {
	return p.ended
}

// Duration is the length of the whole track.
func (p *Player) Duration() time.Duration {
	return p.format.SampleRate.D(p.stream.Len())
}

func (p *Player) Play() error {
	speaker.Lock()
	if p.closed {
		speaker.Unlock()
		return ErrClosed
	}
	p.ctrl.Paused = false
	requeue := !p.queued
	p.queued = true
	speaker.Unlock()

	if requeue {
		speaker.Play(p.sequence())
	}
	return nil
}

// sequence is what the speaker pulls from: the controlled track followed by
// the end notification.
func (p *Player) sequence() beep.Streamer {
	return beep.Seq(p.ctrl, beep.Callback(p.finish))
}

// finish runs on the speaker goroutine with the speaker lock held.
func (p *Player) finish() {
	p.queued = false
	if p.closed {
		return
	}
	select {
	case p.ended <- struct{}{}:
	default:
	}
}

func (p *Player) Pause() {
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
}

func (p *Player) Seek(d time.Duration) error {
	speaker.Lock()
	defer speaker.Unlock()
	if p.closed {
		return ErrClosed
	}
	n := p.format.SampleRate.N(d)
	if n < 0 {
		n = 0
	}
	if n > p.stream.Len() {
		n = p.stream.Len()
	}
	if err := p.stream.Seek(n); err != nil {
		return fmt.Errorf("seek to %v: %w", d, err)
	}
	p.rewire()
	return nil
}

// Position is the current place in the track. It is measured in track time
// whatever the playback rate, and runs ahead of the speaker by the
// resampler's read-ahead.
func (p *Player) Position() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	return p.format.SampleRate.D(p.stream.Position())
}

func (p *Player) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	speaker.Lock()
	p.rate = rate
	p.resampler.SetRatio(rate)
	speaker.Unlock()
}

func (p *Player) Close() error {
	speaker.Lock()
	if p.closed {
		speaker.Unlock()
		return nil
	}
	p.closed = true
	p.ctrl.Paused = true
	p.ctrl.Streamer = nil
	speaker.Unlock()
	return p.stream.Close()
}
