package engine

import (
	"fmt"
	"math"
)

const (
	MinSpeed     = 0.25
	MaxSpeed     = 2.0
	SpeedStep    = 0.25
	DefaultSpeed = 1.0
)

func validSpeed(rate float64) error {
	if math.IsNaN(rate) || rate < MinSpeed || rate > MaxSpeed {
		return fmt.Errorf("%w: %v not in [%v, %v]", ErrInvalidSpeed, rate, MinSpeed, MaxSpeed)
	}
	return nil
}

// SetSpeed changes the playback rate in any phase. The hit window stays the
// same number of audio milliseconds.
func (g *Game) SetSpeed(rate float64) error {
	if err := validSpeed(rate); err != nil {
		return err
	}
	if err := g.clock.SetRate(rate); err != nil {
		return err
	}
	g.speed = rate
	g.logger.Debug("playback speed changed", "speed", rate)
	return nil
}

func (g *Game) SpeedUp() error {
	return g.SetSpeed(stepSpeed(g.speed, SpeedStep))
}

func (g *Game) SpeedDown() error {
	return g.SetSpeed(stepSpeed(g.speed, -SpeedStep))
}

func (g *Game) Speed() float64 {
	return g.speed
}

func stepSpeed(speed, step float64) float64 {
	next := math.Round((speed+step)*100) / 100
	return math.Max(MinSpeed, math.Min(MaxSpeed, next))
}
