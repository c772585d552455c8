// Package clock wraps an audio transport as the single source of playback
// time. Time is always read back from the transport; nothing here counts
// ticks or adds up frame deltas.
package clock

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRate is returned for a playback rate that is not positive.
var ErrInvalidRate = errors.New("playback rate must be positive")

// Transport is the capability the engine needs from an audio backend.
// Position reports elapsed audio time, which does not change unit when the
// rate changes.
type Transport interface {
	Play() error
	Pause()
	Seek(position time.Duration) error
	Position() time.Duration
	SetRate(rate float64)
	Close() error
}

type Clock struct {
	transport Transport
	offset    time.Duration
	rate      float64
	last      time.Duration
}

// New returns a clock over t. offset is added to every reading, to line up
// audio output latency with what the player hears.
func New(t Transport, offset time.Duration) *Clock {
	return &Clock{transport: t, offset: offset, rate: 1}
}

// Now returns the current playback time. Readings never go backwards between
// seeks, and are never negative.
func (c *Clock) Now() time.Duration {
	now := c.transport.Position() + c.offset
	if now < 0 {
		now = 0
	}
	if now < c.last {
		return c.last
	}
	c.last = now
	return now
}

func (c *Clock) Rate() float64 {
	return c.rate
}

func (c *Clock) SetRate(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	c.rate = rate
	c.transport.SetRate(rate)
	return nil
}

func (c *Clock) SeekTo(position time.Duration) error {
	if err := c.transport.Seek(position); err != nil {
		return fmt.Errorf("seek transport to %v: %w", position, err)
	}
	c.last = 0
	return nil
}

func (c *Clock) Play() error {
	if err := c.transport.Play(); err != nil {
		return fmt.Errorf("play transport: %w", err)
	}
	return nil
}

func (c *Clock) Pause() {
	c.transport.Pause()
}

// Close releases the transport.
func (c *Clock) Close() error {
	c.transport.Pause()
	return c.transport.Close()
}
