// Package tui prints a headless run to a plain terminal as it happens, for
// when a full-screen viewer is not wanted.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/viz"
)

const (
	width       = 70
	height      = 20
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// Watcher is a sim.Observer that redraws the system at most frameRate times
// per second. The view is fitted to the seed layout on the first frame and
// then follows the barycenter.
type Watcher struct {
	out       io.Writer
	name      string
	frameRate int
	color     bool
	lastFrame time.Time
	canvas    *viz.Canvas
	camera    *viz.Camera
	fitted    bool
	frames    int
	now       func() time.Time
}

func NewWatcher(out io.Writer, name string, frameRate int, color bool) *Watcher {
	return &Watcher{
		out:       out,
		name:      name,
		frameRate: max(frameRate, 1),
		color:     color,
		canvas:    viz.NewCanvas(width, height),
		camera:    viz.NewCamera(frameRate),
		now:       time.Now,
	}
}

func (w *Watcher) OnTick(eng *gravity.Engine) {
	now := w.now()
	if now.Sub(w.lastFrame) < time.Second/time.Duration(w.frameRate) {
		return
	}
	w.lastFrame = now
	w.Draw(eng)
}

// Draw renders one frame unconditionally.
func (w *Watcher) Draw(eng *gravity.Engine) {
	insts := eng.Instances()
	center, _ := eng.Barycenter()
	pw, ph := w.canvas.PixelSize()

	if !w.fitted {
		pts := make([]r3.Vec, len(insts))
		for i, inst := range insts {
			pts[i] = inst.Position
		}
		w.camera.Fit(center, pts, pw, ph)
		w.fitted = true
	} else {
		w.camera.Track(center)
	}

	w.canvas.Clear()
	for _, inst := range insts {
		x, y := w.camera.Project(inst.Position, pw, ph)
		w.canvas.Disc(x, y, max(int(inst.Scale+0.5), 0), inst.Color)
	}
	w.render(eng)
	w.frames++
}

func (w *Watcher) Frames() int { return w.frames }

func (w *Watcher) render(eng *gravity.Engine) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s  tick=%d  bodies=%d\n", w.name, eng.Ticks(), eng.Len()))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	body := w.canvas.String()
	if w.color {
		body = w.canvas.Render() + "\n"
	}
	for _, row := range strings.SplitAfter(body, "\n") {
		if row == "" {
			continue
		}
		b.WriteString("  ")
		b.WriteString(row)
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	if n := eng.DegeneratePairs(); n > 0 {
		b.WriteString(fmt.Sprintf("  %d coincident pair(s) skipped\n", n))
	}

	fmt.Fprint(w.out, b.String())
}

func (w *Watcher) Start() { fmt.Fprint(w.out, hideCursor) }
func (w *Watcher) Stop()  { fmt.Fprint(w.out, showCursor) }
