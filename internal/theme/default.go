package theme

import (
	"fmt"
)

type Color struct {
	R, G, B uint8
}

type DefaultTheme struct {
}

func (t *DefaultTheme) RenderNote(lane int, long bool) string {
	color := getLaneColor(lane)
	sym := noteSym
	if long {
		sym = holdSym
	}
	return fmt.Sprintf("\033[38;2;%v;%v;%vm%v\033[0m", color.R, color.G, color.B, sym)
}

func (t *DefaultTheme) RenderHitField(lane int, active bool) string {
	if active {
		color := getLaneColor(lane)
		return fmt.Sprintf("\033[38;2;%v;%v;%vm%v\033[0m", color.R, color.G, color.B, barActiveSym)
	}
	return barSym
}

const (
	noteSym      = "⬤"
	holdSym      = "┃"
	barSym       = "─"
	barActiveSym = "━"
)

var laneColors = []Color{
	{236, 30, 0},    // red
	{0, 118, 236},   // blue
	{236, 195, 0},   // yellow
	{0, 236, 128},   // green
	{106, 0, 236},   // purple
	{236, 0, 106},   // pink
	{236, 128, 0},   // orange
	{173, 236, 236}, // light blue
}

func getLaneColor(lane int) Color {
	if lane < 0 {
		return Color{255, 255, 255}
	}
	return laneColors[lane%len(laneColors)]
}
