package render

type request struct {
	fn   func()
	done bool
}

// Pump is a Frames implementation for hosts that own their event loop. The
// host calls Fire once per frame from the same goroutine that handles
// input, which keeps the engine single threaded.
type Pump struct {
	queue []*request
}

func (p *Pump) RequestFrame(fn func()) func() {
	r := &request{fn: fn}
	p.queue = append(p.queue, r)
	return func() { r.done = true }
}

// Fire runs the callbacks requested before this call and returns how many
// ran. Callbacks requested while firing wait for the next Fire.
func (p *Pump) Fire() int {
	batch := p.queue
	p.queue = nil
	fired := 0
	for _, r := range batch {
		if r.done {
			continue
		}
		r.done = true
		r.fn()
		fired++
	}
	return fired
}

// Pending counts requests that have not fired or been cancelled.
func (p *Pump) Pending() int {
	n := 0
	for _, r := range p.queue {
		if !r.done {
			n++
		}
	}
	return n
}
