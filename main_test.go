package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"git.lost.host/meutraa/tiles/internal/config"
	"git.lost.host/meutraa/tiles/internal/engine"
	"git.lost.host/meutraa/tiles/internal/game"
	"git.lost.host/meutraa/tiles/internal/logging"
	"git.lost.host/meutraa/tiles/internal/parser"
	"git.lost.host/meutraa/tiles/internal/testsupport"
	"github.com/eiannone/keyboard"
)

type fakeTrack struct {
	*testsupport.Transport
	ended chan struct{}
}

func (f *fakeTrack) Ended() <-chan struct{} {
	return f.ended
}

func newTestProgram(t *testing.T) (*Program, *testsupport.Transport) {
	t.Helper()
	cfg := config.Default()
	tr := testsupport.NewTransport()
	p := newProgram(&cfg, testsupport.TwoNoteChart(), &fakeTrack{Transport: tr, ended: make(chan struct{}, 1)}, nil)
	return p, tr
}

func press(r rune) keyboard.KeyEvent {
	return keyboard.KeyEvent{Rune: r}
}

func TestLaneKeysAreJudged(t *testing.T) {
	p, tr := newTestProgram(t)
	p.start()
	if p.game.Phase() != engine.Playing {
		t.Fatalf("expected to be playing, got %v", p.game.Phase())
	}

	tr.Advance(testsupport.Ms(1000))
	now := time.Now()
	if p.handleKey(press('1'), now) {
		t.Fatal("lane key should not quit")
	}
	s := p.game.Snapshot()
	if s.Hits != 1 || s.Misses != 0 {
		t.Fatalf("expected one hit, got %d hits %d misses", s.Hits, s.Misses)
	}

	scene := p.scene(now)
	if !scene.Active[0] || scene.Active[1] {
		t.Fatalf("expected only lane 0 to flash, got %v", scene.Active)
	}
	if !strings.Contains(strings.Join(scene.Status, "\n"), "Hit") {
		t.Fatalf("expected the hit in the status, got %q", scene.Status)
	}
	if later := p.scene(now.Add(time.Second)); later.Active[0] {
		t.Fatal("flash should fade")
	}

	// Lane 1 has nothing near, so this is a stray press.
	p.handleKey(press('2'), now)
	if s := p.game.Snapshot(); s.Misses != 1 {
		t.Fatalf("expected a stray miss, got %d", s.Misses)
	}
}

func TestControlKeys(t *testing.T) {
	p, tr := newTestProgram(t)
	p.start()

	p.handleKey(press('+'), time.Now())
	if p.game.Speed() != 1.25 || tr.Rate != 1.25 {
		t.Fatalf("expected speed 1.25, got %v (transport %v)", p.game.Speed(), tr.Rate)
	}
	p.handleKey(press('-'), time.Now())
	p.handleKey(press('-'), time.Now())
	if p.game.Speed() != 0.75 {
		t.Fatalf("expected speed 0.75, got %v", p.game.Speed())
	}

	tr.SetPosition(testsupport.Ms(1000))
	p.handleKey(press('1'), time.Now())
	p.handleKey(keyboard.KeyEvent{Key: keyboard.KeySpace}, time.Now())
	if p.game.Phase() != engine.Ended {
		t.Fatalf("expected space to pause, got %v", p.game.Phase())
	}
	overlay := p.scene(time.Now()).Overlay
	if len(overlay) == 0 || overlay[0] != "Accuracy 100%" {
		t.Fatalf("unexpected overlay %q", overlay)
	}

	p.handleKey(keyboard.KeyEvent{Key: keyboard.KeySpace}, time.Now())
	if p.game.Phase() != engine.Playing {
		t.Fatalf("expected space to restart, got %v", p.game.Phase())
	}
	if s := p.game.Snapshot(); s.Hits != 0 || s.Current != 0 {
		t.Fatalf("restart should clear the session, got %+v", s)
	}

	if !p.handleKey(press('q'), time.Now()) {
		t.Fatal("expected q to quit")
	}
	if !p.handleKey(keyboard.KeyEvent{Key: keyboard.KeyEsc}, time.Now()) {
		t.Fatal("expected escape to quit")
	}
}

func TestStartFailureShown(t *testing.T) {
	p, tr := newTestProgram(t)
	tr.PlayErr = testsupport.ErrNotReady
	p.start()
	overlay := p.scene(time.Now()).Overlay
	if len(overlay) == 0 || !strings.Contains(overlay[0], "audio not ready") {
		t.Fatalf("expected the failure in the overlay, got %q", overlay)
	}
}

func TestTiles(t *testing.T) {
	notes := []game.ActiveNote{
		{Note: game.Note{Lane: 2, Time: time.Second}, Progress: 0.5, Extent: 0.16},
		{Note: game.Note{Lane: 1, Time: time.Second, Length: time.Second}, Progress: 0.25, Extent: 0.4},
	}
	got := tiles(notes)
	if len(got) != 2 || got[0].Lane != 2 || got[0].Long || !got[1].Long || got[1].Extent != 0.4 {
		t.Fatalf("unexpected tiles %+v", got)
	}
}

func TestHeading(t *testing.T) {
	chart := &game.Chart{JobID: "job-1", Title: "Night Drive", Genre: "synthwave", Mood: " calm "}
	if got := heading(chart); got != "Night Drive · Synthwave, Calm" {
		t.Fatalf("unexpected heading %q", got)
	}
	if got := heading(&game.Chart{JobID: "job-1"}); got != "job-1" {
		t.Fatalf("unexpected heading %q", got)
	}
}

func TestSummary(t *testing.T) {
	chart := testsupport.TwoNoteChart()
	out := summary(chart, engine.Snapshot{Hits: 3, Misses: 1, Accuracy: 75, Current: 65 * time.Second, Duration: 2 * time.Minute, Speed: 1})
	for _, want := range []string{"75%", "1:05 / 2:00", "1.00x"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "chart.yaml")
	data := "durationMs: 4000\naudioUrl: song.ogg\nnotes:\n  - tMs: 500\n    lane: 1\n"
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if !isChartFile(file) {
		t.Fatal("expected a yaml file to be treated as a chart")
	}
	if isChartFile("job-123") {
		t.Fatal("job ids are not chart files")
	}

	chart, audio, err := loadFile(&parser.DefaultParser{}, file, "")
	if err != nil {
		t.Fatalf("loadFile returned error: %v", err)
	}
	if audio != filepath.Join(dir, "song.ogg") || len(chart.Notes) != 1 {
		t.Fatalf("unexpected result %q %+v", audio, chart)
	}

	_, audio, err = loadFile(&parser.DefaultParser{}, file, "/tmp/other.mp3")
	if err != nil || audio != "/tmp/other.mp3" {
		t.Fatalf("expected the flag to win, got %q (%v)", audio, err)
	}
}

func TestNegativeLanesReportedAsChartError(t *testing.T) {
	chart, err := (&parser.DefaultParser{}).Decode([]byte(`{"durationMs":10000,"lanes":-1,"notes":[]}`), parser.JSON)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	tr := testsupport.NewTransport()
	p := newProgram(&cfg, chart, &fakeTrack{Transport: tr, ended: make(chan struct{}, 1)}, nil)
	p.start()

	if !errors.Is(p.lastError, game.ErrInvalidChart) {
		t.Fatalf("expected a chart error, got %v", p.lastError)
	}
	if p.game.Phase() != engine.Ready || tr.Plays != 0 {
		t.Fatalf("nothing should play, phase %v", p.game.Phase())
	}
	scene := p.scene(time.Now())
	if len(scene.Active) != 0 || len(scene.Overlay) == 0 {
		t.Fatalf("unexpected scene %+v", scene)
	}
	if p.handleKey(press('1'), time.Now()) {
		t.Fatal("lane key should not quit")
	}
}

func TestMissingLaneKeysLogged(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	chart := testsupport.Chart(time.Second)
	chart.Lanes = 6
	newProgram(&cfg, chart, &fakeTrack{Transport: testsupport.NewTransport()}, logger)
	if !strings.Contains(buf.String(), "not every lane has a key") || !strings.Contains(buf.String(), `"unreachable":2`) {
		t.Fatalf("expected a warning about unbound lanes, got %q", buf.String())
	}

	buf.Reset()
	newProgram(&cfg, testsupport.TwoNoteChart(), &fakeTrack{Transport: testsupport.NewTransport()}, logger)
	if buf.Len() != 0 {
		t.Fatalf("four keys cover four lanes, got %q", buf.String())
	}
}

// fixedParser hands back one chart whatever the file.
type fixedParser struct {
	chart *game.Chart
	files []string
}

func (f *fixedParser) Parse(file string) (*game.Chart, error) {
	f.files = append(f.files, file)
	return f.chart, nil
}

func TestLoadFileUsesParser(t *testing.T) {
	psr := &fixedParser{chart: &game.Chart{AudioURL: "/abs/song.mp3"}}
	_, audio, err := loadFile(psr, "charts/a.json", "")
	if err != nil {
		t.Fatal(err)
	}
	if audio != "/abs/song.mp3" || len(psr.files) != 1 || psr.files[0] != "charts/a.json" {
		t.Fatalf("unexpected result %q %v", audio, psr.files)
	}
	psr.chart = &game.Chart{AudioURL: "https://cdn.example/a.mp3"}
	if _, _, err := loadFile(psr, "charts/a.json", ""); err == nil {
		t.Fatal("remote audio needs --audio for a local chart")
	}
}
