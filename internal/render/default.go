package render

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"git.lost.host/meutraa/tiles/internal/theme"
	"golang.org/x/term"
)

// DefaultRenderer draws the lanes with ANSI escapes on a terminal.
type DefaultRenderer struct {
	Theme   theme.Theme
	Spacing int // Columns between lanes
	BarRow  int // Rows between the hit line and the bottom

	out           io.Writer
	fd            int
	buffer        strings.Builder
	rows, columns int
}

func NewDefaultRenderer(th theme.Theme, spacing, barRow int) *DefaultRenderer {
	return &DefaultRenderer{
		Theme:   th,
		Spacing: spacing,
		BarRow:  barRow,
		out:     os.Stdout,
		fd:      int(os.Stdout.Fd()),
	}
}

func (r *DefaultRenderer) Init() error {
	if !term.IsTerminal(r.fd) {
		return fmt.Errorf("stdout is not a terminal")
	}
	if err := r.resize(); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s%s%s",
		"\033[?1049h", // Enable alternate buffer
		"\033[?25l",   // Make the cursor invisible
		"\033[J",      // Clear the screen
	)
	return nil
}

func (r *DefaultRenderer) Deinit() error {
	_, err := fmt.Fprintf(r.out, "%s%s",
		"\033[?1049l", // Disable alternate buffer
		"\033[?25h",   // Make the cursor visible
	)
	return err
}

func (r *DefaultRenderer) resize() error {
	columns, rows, err := term.GetSize(r.fd)
	if err != nil {
		return fmt.Errorf("unable to get terminal size: %w", err)
	}
	r.rows, r.columns = rows, columns
	return nil
}

// column returns the terminal column of a lane, centred on the screen.
func (r *DefaultRenderer) column(lane, lanes int) int {
	width := (lanes - 1) * r.Spacing
	return r.columns/2 - width/2 + lane*r.Spacing
}

func (r *DefaultRenderer) Draw(scene Scene) {
	// The terminal may have been resized since the last frame.
	_ = r.resize()
	r.buffer.WriteString("\033[2J")

	top := 3
	hitRow := r.rows - r.BarRow
	travel := hitRow - top
	if travel < 1 {
		travel = 1
	}

	r.Fill(1, 1, strings.Repeat("━", int(float64(r.columns)*clamp(scene.Progress, 0, 1))))

	for lane := 0; lane < scene.Lanes; lane++ {
		active := lane < len(scene.Active) && scene.Active[lane]
		r.Fill(hitRow, r.column(lane, scene.Lanes), r.Theme.RenderHitField(lane, active))
	}

	for _, tile := range scene.Tiles {
		col := r.column(tile.Lane, scene.Lanes)
		head := top + int(tile.Progress*float64(travel))
		length := int(tile.Extent * float64(travel))
		if length < 1 {
			length = 1
		}
		// The head is the bottom edge; a hold trails up behind it.
		for row := head - length + 1; row <= head; row++ {
			if row < top || row >= r.rows {
				continue
			}
			r.Fill(row, col, r.Theme.RenderNote(tile.Lane, tile.Long))
		}
	}

	sideCol := r.column(0, scene.Lanes) - 28
	if sideCol < 2 {
		sideCol = 2
	}
	for i, line := range scene.Status {
		r.Fill(top+1+i, sideCol, line)
	}

	middle := r.rows / 2
	for i, line := range scene.Overlay {
		r.Fill(middle-len(scene.Overlay)/2+i, r.columns/2-len(line)/2, line)
	}

	r.flush()
}

func (r *DefaultRenderer) Fill(row, column int, message string) {
	r.buffer.WriteString("\033[")
	r.buffer.WriteString(strconv.Itoa(row))
	r.buffer.WriteString(";")
	r.buffer.WriteString(strconv.Itoa(column))
	r.buffer.WriteString("H")
	r.buffer.WriteString(message)
}

func (r *DefaultRenderer) flush() {
	io.WriteString(r.out, r.buffer.String())
	r.buffer.Reset()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
