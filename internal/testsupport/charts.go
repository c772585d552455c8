package testsupport

import (
	"time"

	"git.lost.host/meutraa/tiles/internal/game"
)

// Chart builds a four lane chart with the given duration and notes.
func Chart(duration time.Duration, notes ...game.Note) *game.Chart {
	if notes == nil {
		notes = []game.Note{}
	}
	return &game.Chart{
		JobID:    "test-job",
		Title:    "Test Song",
		Duration: duration,
		BPM:      120,
		Lanes:    game.DefaultLanes,
		AudioURL: "/api/audio/test-job",
		Notes:    notes,
	}
}

// TwoNoteChart is the ten second chart with notes at 1s in lane 0 and 2s in lane 1.
func TwoNoteChart() *game.Chart {
	return Chart(10*time.Second,
		game.Note{Lane: 0, Time: 1000 * time.Millisecond},
		game.Note{Lane: 1, Time: 2000 * time.Millisecond},
	)
}

// DenseChart puts count notes every step, cycling through the lanes.
func DenseChart(count int, step time.Duration) *game.Chart {
	notes := make([]game.Note, count)
	for i := range notes {
		notes[i] = game.Note{Lane: i % game.DefaultLanes, Time: time.Duration(i+1) * step}
	}
	return Chart(time.Duration(count+2)*step, notes...)
}

// Ms is shorthand for a millisecond duration.
func Ms(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
