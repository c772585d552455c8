package game

import (
	"errors"
	"fmt"
	"time"
)

// DefaultLanes is used when a chart does not say how many lanes it has.
const DefaultLanes = 4

// ErrInvalidChart is wrapped by every chart validation failure.
var ErrInvalidChart = errors.New("invalid chart")

// Chart is a playable track and its notes. It is not modified once loaded.
type Chart struct {
	JobID     string
	Title     string
	Genre     string
	Mood      string
	Duration  time.Duration
	BPM       float64
	Lanes     int
	AudioURL  string
	CreatedAt time.Time

	// Notes is nil when the source did not provide a list at all.
	Notes []Note
}

// Validate checks the chart can be played. A nil chart is reported as not loaded.
func (c *Chart) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: no chart loaded", ErrInvalidChart)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidChart, c.Duration)
	}
	if c.Notes == nil {
		return fmt.Errorf("%w: notes missing", ErrInvalidChart)
	}
	if c.Lanes <= 0 {
		return fmt.Errorf("%w: lane count must be positive, got %d", ErrInvalidChart, c.Lanes)
	}

	var prev time.Duration
	for i, n := range c.Notes {
		if n.Time < 0 {
			return fmt.Errorf("%w: note %d has negative time %v", ErrInvalidChart, i, n.Time)
		}
		if n.Lane < 0 || n.Lane >= c.Lanes {
			return fmt.Errorf("%w: note %d lane %d outside [0, %d)", ErrInvalidChart, i, n.Lane, c.Lanes)
		}
		if n.Length < 0 {
			return fmt.Errorf("%w: note %d has negative length %v", ErrInvalidChart, i, n.Length)
		}
		if i > 0 && n.Time < prev {
			return fmt.Errorf("%w: note %d at %v is before note %d at %v", ErrInvalidChart, i, n.Time, i-1, prev)
		}
		prev = n.Time
	}
	return nil
}

func (c *Chart) NoteCount() int {
	return len(c.Notes)
}

func (c *Chart) HoldCount() int {
	count := 0
	for _, n := range c.Notes {
		if n.IsLong() {
			count++
		}
	}
	return count
}
