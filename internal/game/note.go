package game

import (
	"time"
)

type Note struct {
	Lane   int           // The chart column
	Time   time.Duration // The time the note should be hit
	Length time.Duration // How long a hold lasts, zero for a tap
}

// IsLong reports whether the note is held rather than tapped.
func (n Note) IsLong() bool {
	return n.Length > 0
}

func (n Note) End() time.Duration {
	return n.Time + n.Length
}
