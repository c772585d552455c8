// Package testsupport holds fakes and fixtures shared by package tests.
package testsupport

import (
	"errors"
	"time"
)

// ErrNotReady is a convenient failure for PlayErr.
var ErrNotReady = errors.New("audio not ready")

// Transport is a hand-driven audio transport. Position only moves when the
// test calls Advance or SetPosition.
type Transport struct {
	Pos     time.Duration
	Rate    float64
	Playing bool
	Closed  bool

	PlayErr error
	SeekErr error

	Plays, Pauses, Seeks int
}

func NewTransport() *Transport {
	return &Transport{Rate: 1}
}

func (t *Transport) Play() error {
	if t.PlayErr != nil {
		return t.PlayErr
	}
	t.Plays++
	t.Playing = true
	return nil
}

func (t *Transport) Pause() {
	t.Pauses++
	t.Playing = false
}

func (t *Transport) Seek(position time.Duration) error {
	if t.SeekErr != nil {
		return t.SeekErr
	}
	t.Seeks++
	t.Pos = position
	return nil
}

func (t *Transport) Position() time.Duration {
	return t.Pos
}

func (t *Transport) SetRate(rate float64) {
	t.Rate = rate
}

func (t *Transport) Close() error {
	t.Closed = true
	t.Playing = false
	return nil
}

// Advance moves the position by wall time scaled by the rate, if playing.
func (t *Transport) Advance(wall time.Duration) {
	if !t.Playing {
		return
	}
	t.Pos += time.Duration(float64(wall) * t.Rate)
}

// SetPosition jumps the audio position directly.
func (t *Transport) SetPosition(position time.Duration) {
	t.Pos = position
}
