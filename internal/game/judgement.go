package game

import (
	"time"
)

type Kind uint8

const (
	Miss Kind = iota
	Hit
)

func (k Kind) String() string {
	switch k {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	}
	return "unknown"
}

// Source records what caused a judgement.
type Source uint8

const (
	FromInput Source = iota
	FromExpiry
)

func (s Source) String() string {
	if s == FromExpiry {
		return "expiry"
	}
	return "input"
}

// Judgement is the terminal classification of one note, or of a lane press
// that matched nothing (NoteID is zero in that case).
type Judgement struct {
	NoteID ActiveID
	Lane   int
	Kind   Kind
	Source Source
	Offset time.Duration // Judging time minus note time, positive is late
	At     time.Duration // Clock time the judgement was made
}

// Stray reports whether this was a press that matched no note.
func (j Judgement) Stray() bool {
	return j.NoteID == 0
}
