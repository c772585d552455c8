package engine

import (
	"fmt"
	"time"

	"git.lost.host/meutraa/tiles/internal/game"
)

// Snapshot is a read-only view of the session for the presentation layer.
type Snapshot struct {
	SessionID   string
	Phase       Phase
	Hits        int
	Misses      int
	Accuracy    int
	Current     time.Duration
	Duration    time.Duration
	Speed       float64
	Lanes       int
	ActiveNotes []game.ActiveNote // Visible notes only, in time order
}

// Progress is the fraction of the track played, capped at 1.
func (s Snapshot) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := float64(s.Current) / float64(s.Duration)
	if p > 1 {
		return 1
	}
	return p
}

func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		SessionID: g.sessionID,
		Phase:     g.phase,
		Hits:      g.tracker.Hits(),
		Misses:    g.tracker.Misses(),
		Accuracy:  g.tracker.Accuracy(),
		Current:   g.current,
		Speed:     g.speed,
	}
	if g.chart != nil {
		s.Duration = g.chart.Duration
		s.Lanes = g.chart.Lanes
	}
	if g.set != nil {
		s.ActiveNotes = g.set.Visible()
	} else {
		s.ActiveNotes = []game.ActiveNote{}
	}
	return s
}

// FormatClock renders a duration as m:ss, dropping partial seconds.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
