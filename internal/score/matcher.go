package score

import (
	"time"

	"git.lost.host/meutraa/tiles/internal/game"
)

// Matcher resolves lane presses against the active notes.
type Matcher struct {
	window time.Duration
}

func NewMatcher(window time.Duration) *Matcher {
	return &Matcher{window: window}
}

// Window is the absolute tolerance either side of a note. It does not depend
// on playback speed or frame rate.
func (m *Matcher) Window() time.Duration {
	return m.window
}

func abs(x time.Duration) time.Duration {
	if x < 0 {
		return -x
	}
	return x
}

// Distance is how early a press at hitTime is for a note at noteTime.
// Negative means late.
func Distance(noteTime, hitTime time.Duration) time.Duration {
	return noteTime - hitTime
}

// Apply judges a press in lane at time at. The closest unresolved note in the
// lane within the window is removed and reported as a hit; the earlier note
// wins a tie. A press that matches nothing is a stray miss.
func (m *Matcher) Apply(set *game.ActiveSet, lane int, at time.Duration) game.Judgement {
	var closest *game.ActiveNote
	best := time.Duration(0)

	set.EachInLane(lane, func(a *game.ActiveNote) bool {
		d := Distance(a.Time, at)
		if d > m.window {
			// Notes are in time order, the rest are further away.
			return false
		}
		ad := abs(d)
		if ad > m.window {
			return true
		}
		if closest == nil || ad < best {
			closest = a
			best = ad
		}
		return true
	})

	if closest == nil || !set.Remove(closest.ID) {
		return game.Judgement{Lane: lane, Kind: game.Miss, Source: game.FromInput, At: at}
	}
	return game.Judgement{
		NoteID: closest.ID,
		Lane:   lane,
		Kind:   game.Hit,
		Source: game.FromInput,
		Offset: -Distance(closest.Time, at),
		At:     at,
	}
}
