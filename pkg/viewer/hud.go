package viewer

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/taigrr/diorama/pkg/demo"
)

// Status is what the HUD reports about the scene.
type Status struct {
	Triangles int
	Load      demo.LoadState
	Grid      bool
	Paused    bool
	Playing   bool // The clip is advancing; false once a finite loop ends

	Azimuth, Polar float64 // Orbit camera angles in degrees
}

// StatusOf reads the HUD status from d.
func StatusOf(d *demo.Demo) Status {
	return Status{
		Triangles: d.Triangles,
		Load:      d.LoadState(),
		Grid:      d.Renderer.ShowGrid,
		Paused:    d.Action != nil && d.Action.Paused,
		Playing:   d.Action != nil && d.Action.IsRunning(),
		Azimuth:   d.Controls.Azimuth() * 180 / math.Pi,
		Polar:     d.Controls.Polar() * 180 / math.Pi,
	}
}

// HUD draws the status overlay on top of the terminal frame.
type HUD struct {
	Visible bool

	title     string
	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

// NewHUD creates a hidden HUD titled title.
func NewHUD(title string, now time.Time) *HUD {
	return &HUD{title: title, fpsTime: now}
}

// FPS returns the last measured frame rate.
func (h *HUD) FPS() float64 {
	return h.fps
}

// UpdateFPS counts a frame (call once per frame)
func (h *HUD) UpdateFPS(now time.Time) {
	h.fpsFrames++
	elapsed := now.Sub(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = now
	}
}

// Render writes the overlay as ANSI escapes for a width x height terminal.
func (h *HUD) Render(w io.Writer, width, height int, st Status) {
	const (
		reset     = "\x1b[0m"
		bold      = "\x1b[1m"
		dim       = "\x1b[2m"
		bgBlack   = "\x1b[40m"
		fgWhite   = "\x1b[97m"
		fgGreen   = "\x1b[92m"
		fgYellow  = "\x1b[93m"
		fgCyan    = "\x1b[96m"
		clearLine = "\x1b[2K"
	)

	moveTo := func(row, col int) string {
		return fmt.Sprintf("\x1b[%d;%dH", row, col)
	}

	// Always clear the HUD rows (so toggling off works)
	fmt.Fprint(w, moveTo(1, 1)+clearLine)
	fmt.Fprint(w, moveTo(height, 1)+clearLine)

	if !h.Visible {
		return
	}

	fmt.Fprintf(w, "%s%s%s %.0f FPS %s", moveTo(1, 1), bgBlack, fgGreen, h.fps, reset)

	titleCol := max((width-len(h.title)-2)/2, 1)
	fmt.Fprintf(w, "%s%s%s%s %s %s", moveTo(1, titleCol), bold, bgBlack, fgWhite, h.title, reset)

	tris := fmt.Sprintf(" %d tris ", st.Triangles)
	fmt.Fprintf(w, "%s%s%s%s%s%s", moveTo(1, max(width-len(tris)+1, 1)), bgBlack, fgCyan, bold, tris, reset)

	fmt.Fprintf(w, "%s%s%s %s Grid  %s Paused  %s Playing  cam %.0f°/%.0f° %s",
		moveTo(height, 1), bgBlack, fgWhite, check(st.Grid), check(st.Paused), check(st.Playing), st.Azimuth, st.Polar, reset)

	model := fmt.Sprintf(" model %s ", st.Load)
	fmt.Fprintf(w, "%s%s%s%s%s%s", moveTo(height, max(width-len(model)+1, 1)), bgBlack, dim, fgYellow, model, reset)
}

func check(on bool) string {
	if on {
		return "[✓]"
	}
	return "[ ]"
}
