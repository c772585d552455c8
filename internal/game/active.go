package game

// ActiveID identifies one active note within a session. Zero is never issued.
type ActiveID uint64

// ActiveNote is a chart note that has not been resolved yet in the current
// session. Visible, Progress and Extent are written by the scheduler.
type ActiveNote struct {
	ID    ActiveID
	Index int // Position of the note in Chart.Notes
	Note

	Visible  bool
	Progress float64 // 0 when spawned, 1 at the hit line
	Extent   float64 // Rendered length as a fraction of the lane
}

// ActiveSet is an arena of unresolved notes keyed by ActiveID. Notes are
// removed by ID only, so removing the same note twice is detected rather
// than removing a neighbour.
type ActiveSet struct {
	next    ActiveID
	entries map[ActiveID]*ActiveNote

	// IDs in insertion order, which is chart order. Removed IDs stay here
	// until compact drops them.
	order []ActiveID
	lanes [][]ActiveID
	dead  int
}

func NewActiveSet(lanes int) *ActiveSet {
	if lanes < 0 {
		lanes = 0
	}
	return &ActiveSet{
		entries: map[ActiveID]*ActiveNote{},
		lanes:   make([][]ActiveID, lanes),
	}
}

// Add inserts a note. Notes must be added in ascending time order and with
// a lane inside the set's range.
func (s *ActiveSet) Add(index int, n Note) ActiveID {
	s.next++
	id := s.next
	s.entries[id] = &ActiveNote{ID: id, Index: index, Note: n}
	s.order = append(s.order, id)
	if n.Lane >= 0 && n.Lane < len(s.lanes) {
		s.lanes[n.Lane] = append(s.lanes[n.Lane], id)
	}
	return id
}

func (s *ActiveSet) Get(id ActiveID) (*ActiveNote, bool) {
	a, ok := s.entries[id]
	return a, ok
}

// Remove drops the note and reports whether it was still present. Only the
// first call for a given ID returns true.
func (s *ActiveSet) Remove(id ActiveID) bool {
	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	s.dead++
	if s.dead > 64 && s.dead > len(s.entries) {
		s.compact()
	}
	return true
}

func (s *ActiveSet) Len() int {
	return len(s.entries)
}

func (s *ActiveSet) Lanes() int {
	return len(s.lanes)
}

// EachInLane calls fn for every unresolved note in the lane in time order
// until fn returns false. fn must not add or remove notes.
func (s *ActiveSet) EachInLane(lane int, fn func(*ActiveNote) bool) {
	if lane < 0 || lane >= len(s.lanes) {
		return
	}
	for _, id := range s.lanes[lane] {
		a, ok := s.entries[id]
		if !ok {
			continue
		}
		if !fn(a) {
			return
		}
	}
}

// Each calls fn for every unresolved note in time order until fn returns
// false. fn must not add or remove notes.
func (s *ActiveSet) Each(fn func(*ActiveNote) bool) {
	for _, id := range s.order {
		a, ok := s.entries[id]
		if !ok {
			continue
		}
		if !fn(a) {
			return
		}
	}
}

// Visible copies the notes currently on screen, in time order.
func (s *ActiveSet) Visible() []ActiveNote {
	visible := []ActiveNote{}
	s.Each(func(a *ActiveNote) bool {
		if a.Visible {
			visible = append(visible, *a)
		}
		return true
	})
	return visible
}

func (s *ActiveSet) compact() {
	keep := func(ids []ActiveID) []ActiveID {
		out := ids[:0]
		for _, id := range ids {
			if _, ok := s.entries[id]; ok {
				out = append(out, id)
			}
		}
		return out
	}
	s.order = keep(s.order)
	for i := range s.lanes {
		s.lanes[i] = keep(s.lanes[i])
	}
	s.dead = 0
}
