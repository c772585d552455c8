package engine

import (
	"errors"
	"testing"
	"time"

	"git.lost.host/meutraa/tiles/internal/game"
	"git.lost.host/meutraa/tiles/internal/render"
	"git.lost.host/meutraa/tiles/internal/testsupport"
)

var ms = testsupport.Ms

type harness struct {
	game      *Game
	transport *testsupport.Transport
	pump      *render.Pump
	judged    []game.Judgement
	phases    []Phase
	chartErrs []error
}

func newHarness(t *testing.T, chart *game.Chart) *harness {
	t.Helper()
	h := &harness{
		transport: testsupport.NewTransport(),
		pump:      &render.Pump{},
	}
	h.game = New(chart, h.transport, h.pump, Options{
		Hooks: Hooks{
			OnJudgement:  func(j game.Judgement) { h.judged = append(h.judged, j) },
			OnPhase:      func(_, to Phase) { h.phases = append(h.phases, to) },
			OnChartError: func(err error) { h.chartErrs = append(h.chartErrs, err) },
		},
	})
	return h
}

// frame moves the audio to position and fires one frame.
func (h *harness) frame(position time.Duration) {
	h.transport.SetPosition(position)
	h.pump.Fire()
}

// playThrough fires a frame every 16ms of audio until the run ends.
func (h *harness) playThrough(t *testing.T) {
	t.Helper()
	for pos := h.transport.Pos; h.game.Phase() == Playing; pos += ms(16) {
		h.frame(pos)
		if pos > 10*time.Minute {
			t.Fatal("run never completed")
		}
	}
}

func TestWorkedExample(t *testing.T) {
	h := newHarness(t, testsupport.TwoNoteChart())
	if err := h.game.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	h.frame(ms(1000))
	h.transport.SetPosition(ms(1050))
	j, ok := h.game.HandleLaneInput(0)
	if !ok || j.Kind != game.Hit || j.Offset != ms(50) {
		t.Fatalf("expected a hit 50ms late, got %+v", j)
	}

	h.transport.SetPosition(ms(2300))
	j, _ = h.game.HandleLaneInput(1)
	if j.Kind != game.Miss || !j.Stray() {
		t.Fatalf("expected a stray miss, got %+v", j)
	}

	h.frame(ms(2300))
	h.frame(ms(2316))
	h.frame(ms(5000))
	s := h.game.Snapshot()
	if s.Hits != 1 || s.Misses != 2 {
		t.Fatalf("expected 1 hit and 2 misses, got %d/%d", s.Hits, s.Misses)
	}

	expired := 0
	for _, j := range h.judged {
		if j.Source == game.FromExpiry {
			expired++
		}
	}
	if expired != 1 {
		t.Fatalf("expected the lane 1 note to expire exactly once, got %d", expired)
	}

	h.playThrough(t)
	s = h.game.Snapshot()
	if s.Phase != Ended || s.Hits != 1 || s.Misses != 2 {
		t.Fatalf("unexpected final snapshot %+v", s)
	}
}

func TestUntouchedRunMissesEverything(t *testing.T) {
	chart := testsupport.DenseChart(30, ms(250))
	h := newHarness(t, chart)
	if err := h.game.Start(); err != nil {
		t.Fatal(err)
	}
	h.playThrough(t)

	s := h.game.Snapshot()
	if s.Hits != 0 || s.Misses != chart.NoteCount() || s.Accuracy != 0 {
		t.Fatalf("expected %d misses and no hits, got %+v", chart.NoteCount(), s)
	}
	if h.transport.Playing {
		t.Fatal("transport still playing after completion")
	}
	if h.pump.Pending() != 0 {
		t.Fatal("a frame is still requested after completion")
	}
}

func TestEveryNoteClassifiedOnce(t *testing.T) {
	chart := testsupport.Chart(3*time.Second,
		game.Note{Lane: 0, Time: ms(500)},
		game.Note{Lane: 1, Time: ms(500)},
		game.Note{Lane: 0, Time: ms(900), Length: ms(800)},
		game.Note{Lane: 2, Time: ms(1500)},
		game.Note{Lane: 3, Time: ms(2990)},
	)
	h := newHarness(t, chart)
	if err := h.game.Start(); err != nil {
		t.Fatal(err)
	}

	presses := map[time.Duration]int{
		ms(480):  0,
		ms(520):  1,
		ms(940):  0,
		ms(1800): 2,
	}
	for pos := time.Duration(0); h.game.Phase() == Playing; pos += ms(20) {
		h.frame(pos)
		if lane, ok := presses[pos]; ok {
			h.game.HandleLaneInput(lane)
		}
	}

	seen := map[game.ActiveID]int{}
	for _, j := range h.judged {
		if !j.Stray() {
			seen[j.NoteID]++
		}
	}
	if len(seen) != chart.NoteCount() {
		t.Fatalf("expected %d notes classified, got %d", chart.NoteCount(), len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("note %d classified %d times", id, n)
		}
	}
	s := h.game.Snapshot()
	if s.Hits != 3 || s.Misses != 3 {
		t.Fatalf("expected 3 hits and 3 misses (one stray), got %d/%d", s.Hits, s.Misses)
	}
}

func TestRestartClearsSession(t *testing.T) {
	h := newHarness(t, testsupport.TwoNoteChart())
	if err := h.game.Start(); err != nil {
		t.Fatal(err)
	}
	h.frame(ms(1000))
	h.game.HandleLaneInput(0)
	h.game.HandleLaneInput(3)
	h.frame(ms(1500))
	first := h.game.Snapshot()
	if len(first.ActiveNotes) != 1 {
		t.Fatalf("expected the lane 1 note on screen, got %+v", first.ActiveNotes)
	}

	if err := h.game.Pause(); err != nil {
		t.Fatal(err)
	}
	paused := h.game.Snapshot()
	if paused.Phase != Ended || paused.Hits != 1 || paused.Misses != 1 {
		t.Fatalf("pause must keep counters, got %+v", paused)
	}

	if err := h.game.Restart(); err != nil {
		t.Fatal(err)
	}
	s := h.game.Snapshot()
	if s.Phase != Playing || s.Hits != 0 || s.Misses != 0 || s.Current != 0 {
		t.Fatalf("restart did not reset the session: %+v", s)
	}
	if s.SessionID == first.SessionID {
		t.Fatal("restart should start a new session")
	}
	if h.transport.Pos != 0 {
		t.Fatalf("restart should seek to 0, transport at %v", h.transport.Pos)
	}
	if len(s.ActiveNotes) != 0 {
		t.Fatalf("stale notes carried over: %+v", s.ActiveNotes)
	}
	if h.game.set.Len() != 2 {
		t.Fatalf("expected a full fresh set of 2 notes, got %d", h.game.set.Len())
	}

	h.frame(ms(100))
	if n := len(h.game.Snapshot().ActiveNotes); n != 2 {
		t.Fatalf("expected both notes on screen after restart, got %d", n)
	}
}

func TestRestartFromPlayingSupersedes(t *testing.T) {
	h := newHarness(t, testsupport.TwoNoteChart())
	if err := h.game.Start(); err != nil {
		t.Fatal(err)
	}
	h.frame(ms(500))
	if err := h.game.Start(); err != nil {
		t.Fatal(err)
	}
	if h.pump.Pending() != 1 {
		t.Fatalf("expected exactly one outstanding frame, got %d", h.pump.Pending())
	}
}

func TestPauseOnlyWhilePlaying(t *testing.T) {
	h := newHarness(t, testsupport.TwoNoteChart())
	if err := h.game.Pause(); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("expected ErrNotPlaying, got %v", err)
	}
	if h.game.Phase() != Ready {
		t.Fatalf("expected ready, got %v", h.game.Phase())
	}

	h.game.Start()
	h.frame(ms(300))
	if err := h.game.Pause(); err != nil {
		t.Fatal(err)
	}
	if h.transport.Playing {
		t.Fatal("pause must stop the transport")
	}
	if h.pump.Fire() != 0 {
		t.Fatal("a tick fired after pause")
	}
	if _, ok := h.game.HandleLaneInput(0); ok {
		t.Fatal("input must be ignored when not playing")
	}
}

func TestInvalidChartStaysReady(t *testing.T) {
	broken := testsupport.TwoNoteChart()
	broken.Duration = 0
	charts := map[string]*game.Chart{
		"nil":       nil,
		"zero":      broken,
		"no notes":  {Duration: time.Second, Lanes: 4},
		"bad lanes": testsupport.Chart(time.Second, game.Note{Lane: 6}),
	}
	for name, chart := range charts {
		h := newHarness(t, chart)
		err := h.game.Start()
		if !errors.Is(err, game.ErrInvalidChart) {
			t.Errorf("%s: expected ErrInvalidChart, got %v", name, err)
		}
		if h.game.Phase() != Ready || len(h.chartErrs) != 1 {
			t.Errorf("%s: expected ready with one chart error, got %v and %d", name, h.game.Phase(), len(h.chartErrs))
		}
		if h.transport.Plays != 0 || h.pump.Pending() != 0 {
			t.Errorf("%s: nothing should start for an invalid chart", name)
		}
	}
}

func TestTransportFailureLeavesNoSession(t *testing.T) {
	h := newHarness(t, testsupport.TwoNoteChart())
	h.transport.PlayErr = testsupport.ErrNotReady

	err := h.game.Start()
	if !errors.Is(err, ErrTransport) || !errors.Is(err, testsupport.ErrNotReady) {
		t.Fatalf("expected a wrapped transport error, got %v", err)
	}
	s := h.game.Snapshot()
	if s.Phase != Ready || s.SessionID != "" || len(s.ActiveNotes) != 0 || h.pump.Pending() != 0 {
		t.Fatalf("partial session left behind: %+v", s)
	}

	h.transport.PlayErr = nil
	if err := h.game.Start(); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if h.game.Phase() != Playing {
		t.Fatalf("expected playing after retry, got %v", h.game.Phase())
	}
}

func TestTransportEnded(t *testing.T) {
	h := newHarness(t, testsupport.TwoNoteChart())
	h.game.Start()
	h.frame(ms(1000))
	h.game.HandleLaneInput(0)

	h.transport.SetPosition(ms(1500))
	h.game.TransportEnded()
	s := h.game.Snapshot()
	if s.Phase != Ended || s.Hits != 1 || s.Misses != 1 {
		t.Fatalf("expected ended with every note classified, got %+v", s)
	}
	if h.pump.Fire() != 0 {
		t.Fatal("a tick fired after the transport ended")
	}

	h.game.TransportEnded()
	if s := h.game.Snapshot(); s.Misses != 1 {
		t.Fatal("a second end signal must not count again")
	}
}

func TestSpeedChangeKeepsHitWindow(t *testing.T) {
	h := newHarness(t, testsupport.Chart(10*time.Second,
		game.Note{Lane: 0, Time: ms(1000)},
		game.Note{Lane: 0, Time: ms(3000)},
	))
	h.game.Start()
	window := h.game.HitWindow()

	if err := h.game.SetSpeed(2); err != nil {
		t.Fatal(err)
	}
	if h.transport.Rate != 2 {
		t.Fatalf("speed not propagated, transport rate %v", h.transport.Rate)
	}
	if h.game.HitWindow() != window {
		t.Fatal("hit window changed with speed")
	}

	// 500ms of wall time is 1000ms of audio at double speed.
	h.transport.Advance(ms(500))
	h.pump.Fire()
	if s := h.game.Snapshot(); s.Current != ms(1000) {
		t.Fatalf("expected 1s of audio time, got %v", s.Current)
	}

	h.transport.SetPosition(ms(1000) + window)
	if j, _ := h.game.HandleLaneInput(0); j.Kind != game.Hit {
		t.Fatalf("press at the window edge should hit at any speed, got %+v", j)
	}
	h.transport.SetPosition(ms(3000) + window + ms(1))
	if j, _ := h.game.HandleLaneInput(0); j.Kind != game.Miss {
		t.Fatalf("press just outside the window should miss, got %+v", j)
	}
}

func TestSpeedChangeMovesNotesFaster(t *testing.T) {
	travel := func(speed float64) float64 {
		h := newHarness(t, testsupport.Chart(10*time.Second, game.Note{Lane: 0, Time: ms(3000)}))
		h.game.SetSpeed(speed)
		h.game.Start()
		h.transport.Advance(ms(1200))
		h.pump.Fire()
		notes := h.game.Snapshot().ActiveNotes
		if len(notes) != 1 {
			t.Fatalf("expected the note on screen at speed %v", speed)
		}
		return notes[0].Progress
	}
	if slow, fast := travel(1), travel(2); fast <= slow {
		t.Fatalf("expected faster travel at double speed, got %v vs %v", fast, slow)
	}
}

func TestSetSpeedBounds(t *testing.T) {
	h := newHarness(t, testsupport.TwoNoteChart())
	for _, bad := range []float64{0, -1, 0.1, 2.5} {
		if err := h.game.SetSpeed(bad); !errors.Is(err, ErrInvalidSpeed) {
			t.Errorf("speed %v: expected ErrInvalidSpeed, got %v", bad, err)
		}
	}
	if h.game.Speed() != DefaultSpeed {
		t.Fatalf("rejected speeds must not apply, got %v", h.game.Speed())
	}

	for i := 0; i < 10; i++ {
		h.game.SpeedUp()
	}
	if h.game.Speed() != MaxSpeed {
		t.Fatalf("expected speed capped at %v, got %v", MaxSpeed, h.game.Speed())
	}
	for i := 0; i < 10; i++ {
		h.game.SpeedDown()
	}
	if h.game.Speed() != MinSpeed {
		t.Fatalf("expected speed floored at %v, got %v", MinSpeed, h.game.Speed())
	}
}

func TestStopAndClose(t *testing.T) {
	h := newHarness(t, testsupport.TwoNoteChart())
	h.game.Start()
	h.frame(ms(1000))
	h.game.HandleLaneInput(0)
	h.game.Stop()
	if s := h.game.Snapshot(); s.Phase != Ready || s.Hits != 1 {
		t.Fatalf("stop should return to ready and keep counters, got %+v", s)
	}

	h.game.Start()
	if err := h.game.Close(); err != nil {
		t.Fatal(err)
	}
	if !h.transport.Closed || h.transport.Playing {
		t.Fatal("close must release the transport")
	}
	if h.pump.Fire() != 0 {
		t.Fatal("a tick fired after close")
	}
}

func TestCurrentIsMonotonicAndClockRead(t *testing.T) {
	h := newHarness(t, testsupport.TwoNoteChart())
	h.game.Start()
	h.frame(ms(800))
	h.frame(ms(790))
	if s := h.game.Snapshot(); s.Current != ms(800) {
		t.Fatalf("expected current to hold at 800ms, got %v", s.Current)
	}
	h.frame(ms(1234))
	if s := h.game.Snapshot(); s.Current != ms(1234) {
		t.Fatalf("expected the clock reading, got %v", s.Current)
	}
}

func TestSnapshotHelpers(t *testing.T) {
	if p := (Snapshot{Current: ms(500), Duration: ms(1000)}).Progress(); p != 0.5 {
		t.Fatalf("expected 0.5, got %v", p)
	}
	if p := (Snapshot{Current: ms(1500), Duration: ms(1000)}).Progress(); p != 1 {
		t.Fatalf("expected progress capped at 1, got %v", p)
	}
	clocks := map[time.Duration]string{
		0:                         "0:00",
		ms(59_999):                "0:59",
		ms(61_000):                "1:01",
		10*time.Minute + ms(5000): "10:05",
	}
	for d, expected := range clocks {
		if s := FormatClock(d); s != expected {
			t.Errorf("%v: expected %s, got %s", d, expected, s)
		}
	}
}
