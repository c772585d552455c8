package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.lost.host/meutraa/tiles/internal/game"
	"gopkg.in/yaml.v3"
)

type Format int

const (
	JSON Format = iota
	YAML
)

// FormatOf picks the chart format from a file extension. Anything that is
// not YAML is read as JSON.
func FormatOf(file string) Format {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

type DefaultParser struct{}

func (p *DefaultParser) Parse(file string) (*game.Chart, error) {
	data, err := os.ReadFile(file)
	if nil != err {
		return nil, err
	}
	return p.Decode(data, FormatOf(file))
}

// wireNote and wireChart mirror the chart service's JSON. Times are in
// milliseconds.
type wireNote struct {
	TimeMs     float64 `json:"tMs" yaml:"tMs"`
	Lane       int     `json:"lane" yaml:"lane"`
	DurationMs float64 `json:"durationMs" yaml:"durationMs"`
}

type wireChart struct {
	JobID      string  `json:"jobId" yaml:"jobId"`
	Title      string  `json:"title" yaml:"title"`
	Genre      string  `json:"genre" yaml:"genre"`
	Mood       string  `json:"mood" yaml:"mood"`
	DurationMs float64 `json:"durationMs" yaml:"durationMs"`
	BPM        float64 `json:"bpm" yaml:"bpm"`
	Lanes      int     `json:"lanes" yaml:"lanes"`
	AudioURL   string  `json:"audioUrl" yaml:"audioUrl"`
	CreatedAt  string  `json:"createdAt" yaml:"createdAt"`
}

// Decode reads a chart. A notes field that is missing or is not a list
// leaves Chart.Notes nil, which the engine rejects when starting; malformed
// documents are an error here.
func (p *DefaultParser) Decode(data []byte, format Format) (*game.Chart, error) {
	var (
		wc    wireChart
		notes []wireNote
	)
	switch format {
	case YAML:
		var doc struct {
			wireChart `yaml:",inline"`
			Notes     yaml.Node `yaml:"notes"`
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml chart: %w", err)
		}
		wc = doc.wireChart
		if doc.Notes.Kind == yaml.SequenceNode {
			notes = []wireNote{}
			if err := doc.Notes.Decode(&notes); err != nil {
				return nil, fmt.Errorf("decode yaml notes: %w", err)
			}
		}
	default:
		var doc struct {
			wireChart
			Notes json.RawMessage `json:"notes"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode json chart: %w", err)
		}
		wc = doc.wireChart
		if raw := bytes.TrimSpace(doc.Notes); len(raw) > 0 && raw[0] == '[' {
			notes = []wireNote{}
			if err := json.Unmarshal(raw, &notes); err != nil {
				return nil, fmt.Errorf("decode json notes: %w", err)
			}
		}
	}
	return toChart(wc, notes), nil
}

func toChart(wc wireChart, notes []wireNote) *game.Chart {
	chart := &game.Chart{
		JobID:    wc.JobID,
		Title:    wc.Title,
		Genre:    wc.Genre,
		Mood:     wc.Mood,
		Duration: millis(wc.DurationMs),
		BPM:      wc.BPM,
		Lanes:    wc.Lanes,
		AudioURL: wc.AudioURL,
	}
	if chart.Lanes == 0 {
		chart.Lanes = game.DefaultLanes
	}
	if t, err := time.Parse(time.RFC3339, wc.CreatedAt); err == nil {
		chart.CreatedAt = t
	}
	if notes != nil {
		chart.Notes = make([]game.Note, len(notes))
		for i, n := range notes {
			chart.Notes[i] = game.Note{
				Lane:   n.Lane,
				Time:   millis(n.TimeMs),
				Length: millis(n.DurationMs),
			}
		}
	}
	return chart
}

func millis(ms float64) time.Duration {
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}
