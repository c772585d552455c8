// Package schedule projects chart notes onto the lanes for a given playback
// time and expires notes nobody hit.
//
// Every pass works from the absolute clock reading and the chart alone. The
// two cursors only ever move forward as time does, so a late or skipped frame
// catches up on the next pass without losing or repeating a note.
package schedule

import (
	"time"

	"git.lost.host/meutraa/tiles/internal/game"
)

const (
	DefaultLeadTime   = 2400 * time.Millisecond
	DefaultHitWindow  = 160 * time.Millisecond
	DefaultBaseExtent = 0.16
	MaxExtent         = 0.5
)

type Options struct {
	LeadTime   time.Duration // How long before its time a note appears
	HitWindow  time.Duration // Tolerance either side of a note's time
	BaseExtent float64       // Smallest rendered note, as a fraction of the lane
}

func (o Options) WithDefaults() Options {
	if o.LeadTime <= 0 {
		o.LeadTime = DefaultLeadTime
	}
	if o.HitWindow <= 0 {
		o.HitWindow = DefaultHitWindow
	}
	if o.BaseExtent <= 0 {
		o.BaseExtent = DefaultBaseExtent
	}
	if o.BaseExtent > MaxExtent {
		o.BaseExtent = MaxExtent
	}
	return o
}

type Scheduler struct {
	opts  Options
	notes []game.Note
	set   *game.ActiveSet
	ids   []game.ActiveID

	spawned int // notes[:spawned] have entered the spawn window
	expired int // notes[:expired] have passed their hit window
}

func New(opts Options) *Scheduler {
	return &Scheduler{opts: opts.WithDefaults()}
}

func (s *Scheduler) Options() Options {
	return s.opts
}

// Reset builds a fresh active set holding every note of the chart and
// rewinds the cursors. The previous set is no longer touched.
func (s *Scheduler) Reset(chart *game.Chart) *game.ActiveSet {
	s.notes = chart.Notes
	s.set = game.NewActiveSet(chart.Lanes)
	s.ids = make([]game.ActiveID, len(chart.Notes))
	for i, n := range chart.Notes {
		s.ids[i] = s.set.Add(i, n)
	}
	s.spawned = 0
	s.expired = 0
	return s.set
}

// Update brings notes into view, refreshes their positions and returns a
// miss for each note whose window closed unresolved.
func (s *Scheduler) Update(now time.Duration) []game.Judgement {
	if s.set == nil {
		return nil
	}

	for s.spawned < len(s.notes) && now >= s.notes[s.spawned].Time-s.opts.LeadTime {
		if a, ok := s.set.Get(s.ids[s.spawned]); ok {
			a.Visible = true
		}
		s.spawned++
	}

	var misses []game.Judgement
	for s.expired < len(s.notes) && now > s.notes[s.expired].Time+s.opts.HitWindow {
		if j, ok := s.expire(s.expired, now); ok {
			misses = append(misses, j)
		}
		s.expired++
	}

	for i := s.expired; i < s.spawned; i++ {
		a, ok := s.set.Get(s.ids[i])
		if !ok {
			continue
		}
		a.Visible = true
		a.Progress = s.Progress(a.Time, now)
		a.Extent = s.Extent(a.Note)
	}
	return misses
}

// Finish expires every note still unresolved, whatever the time. It is used
// when the run ends so that each note is classified.
func (s *Scheduler) Finish(now time.Duration) []game.Judgement {
	if s.set == nil {
		return nil
	}
	var misses []game.Judgement
	for ; s.expired < len(s.notes); s.expired++ {
		if j, ok := s.expire(s.expired, now); ok {
			misses = append(misses, j)
		}
	}
	if s.spawned < s.expired {
		s.spawned = s.expired
	}
	return misses
}

func (s *Scheduler) expire(index int, now time.Duration) (game.Judgement, bool) {
	id := s.ids[index]
	if !s.set.Remove(id) {
		// Already hit.
		return game.Judgement{}, false
	}
	n := s.notes[index]
	return game.Judgement{
		NoteID: id,
		Lane:   n.Lane,
		Kind:   game.Miss,
		Source: game.FromExpiry,
		Offset: now - n.Time,
		At:     now,
	}, true
}

// Progress is 0 when the note spawns and 1 when it reaches the hit line. It
// keeps growing past 1 until the note expires.
func (s *Scheduler) Progress(noteTime, now time.Duration) float64 {
	p := float64(now-(noteTime-s.opts.LeadTime)) / float64(s.opts.LeadTime)
	if p < 0 {
		return 0
	}
	return p
}

// Extent is the rendered length of a note as a fraction of the lane. Holds
// are capped at half the lane so they never cover the hit line region.
func (s *Scheduler) Extent(n game.Note) float64 {
	if !n.IsLong() {
		return s.opts.BaseExtent
	}
	e := float64(n.Length) / float64(s.opts.LeadTime)
	if e < s.opts.BaseExtent {
		return s.opts.BaseExtent
	}
	if e > MaxExtent {
		return MaxExtent
	}
	return e
}
