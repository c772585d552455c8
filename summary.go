package main

import (
	"fmt"
	"strings"

	"git.lost.host/meutraa/tiles/internal/engine"
	"git.lost.host/meutraa/tiles/internal/game"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// heading is the title line of the summary, e.g. "Night Drive · Synthwave, Calm".
func heading(chart *game.Chart) string {
	title := chart.Title
	if title == "" {
		title = chart.JobID
	}
	var tags []string
	caser := cases.Title(language.Und)
	for _, tag := range []string{chart.Genre, chart.Mood} {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, caser.String(tag))
		}
	}
	if len(tags) == 0 {
		return title
	}
	return title + " · " + strings.Join(tags, ", ")
}

func summary(chart *game.Chart, s engine.Snapshot) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(heading(chart))
	tw.AppendHeader(table.Row{"Notes", "Hits", "Misses", "Accuracy", "Played", "Speed"})
	tw.AppendRow(table.Row{
		chart.NoteCount(),
		s.Hits,
		s.Misses,
		fmt.Sprintf("%d%%", s.Accuracy),
		fmt.Sprintf("%s / %s", engine.FormatClock(s.Current), engine.FormatClock(s.Duration)),
		fmt.Sprintf("%.2fx", s.Speed),
	})
	configs := make([]table.ColumnConfig, 0, 6)
	for i := 1; i <= 6; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
