package render

// Frames is the host's "call me on the next frame" primitive. The returned
// cancel func drops the request if it has not fired yet.
type Frames interface {
	RequestFrame(fn func()) (cancel func())
}

// Loop calls tick once per frame until tick returns false or Stop is
// called. It never blocks; between frames nothing runs.
type Loop struct {
	frames  Frames
	tick    func() bool
	cancel  func()
	running bool
	gen     uint64
}

func NewLoop(frames Frames, tick func() bool) *Loop {
	return &Loop{frames: frames, tick: tick}
}

func (l *Loop) Running() bool {
	return l.running
}

// Start requests the first frame. It does nothing if the loop is running.
func (l *Loop) Start() {
	if l.running {
		return
	}
	l.running = true
	l.request()
}

// Stop cancels the pending frame. No tick fires after Stop returns, even
// when Stop is called from inside a tick.
func (l *Loop) Stop() {
	l.gen++
	l.running = false
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

func (l *Loop) request() {
	gen := l.gen
	l.cancel = l.frames.RequestFrame(func() {
		if !l.running || gen != l.gen {
			return
		}
		l.cancel = nil
		if !l.tick() {
			if gen == l.gen {
				l.running = false
			}
			return
		}
		if l.running && gen == l.gen {
			l.request()
		}
	})
}
