package score

import (
	"math"

	"git.lost.host/meutraa/tiles/internal/game"
)

// Tracker holds the running hit and miss counters of a session. Everything
// it reports is derived from those two numbers.
type Tracker struct {
	hits   int
	misses int
}

func (t *Tracker) Hit()  { t.hits++ }
func (t *Tracker) Miss() { t.misses++ }

func (t *Tracker) Reset() {
	t.hits, t.misses = 0, 0
}

// Record counts a judgement.
func (t *Tracker) Record(j game.Judgement) {
	if j.Kind == game.Hit {
		t.Hit()
		return
	}
	t.Miss()
}

func (t *Tracker) Hits() int   { return t.hits }
func (t *Tracker) Misses() int { return t.misses }

func (t *Tracker) Accuracy() int {
	return Accuracy(t.hits, t.misses)
}

// Accuracy is the rounded percentage of hits, or 0 before anything was judged.
func Accuracy(hits, misses int) int {
	total := hits + misses
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(hits) / float64(total) * 100))
}
