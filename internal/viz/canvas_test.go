package viz

import (
	"math"
	"strings"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/gravity"
)

func TestCanvasSetUnset(t *testing.T) {
	c := NewCanvas(4, 2)
	if w, h := c.PixelSize(); w != 8 || h != 8 {
		t.Fatalf("pixel size = %dx%d", w, h)
	}

	c.Set(0, 0)
	c.Set(1, 3)
	if got := c.Grid[0][0]; got != blank|0x1|0x80 {
		t.Errorf("cell = %U", got)
	}
	c.Unset(0, 0)
	if got := c.Grid[0][0]; got != blank|0x80 {
		t.Errorf("cell after unset = %U", got)
	}

	c.Set(-1, 0)
	c.Set(8, 0)
	c.Set(0, 8)

	c.Clear()
	for _, row := range c.Grid {
		for _, r := range row {
			if r != blank {
				t.Fatal("expected blank canvas after clear")
			}
		}
	}
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(3, 2)
	lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for _, l := range lines {
		if len([]rune(l)) != 3 {
			t.Errorf("expected 3 cells, got %q", l)
		}
	}
}

func TestCanvasDiscAndColor(t *testing.T) {
	c := NewCanvas(10, 5)
	red := colorful.Color{R: 1}
	c.Disc(10, 10, 2, red)

	if c.Grid[2][5] == blank {
		t.Error("expected disc center to be set")
	}
	if !c.colored[2][5] || c.Colors[2][5] != red {
		t.Error("expected disc cell to carry its color")
	}
	if c.Grid[0][0] != blank {
		t.Error("disc leaked to the corner")
	}

	out := c.Render()
	if strings.Count(out, "\n") != 4 {
		t.Errorf("expected 5 rendered rows, got %q", out)
	}
}

func TestCanvasResize(t *testing.T) {
	c := NewCanvas(4, 4)
	c.Set(1, 1)
	c.Resize(6, 3)
	if c.Width != 6 || c.Height != 3 || len(c.Grid) != 3 || len(c.Grid[0]) != 6 {
		t.Errorf("unexpected size %dx%d", c.Width, c.Height)
	}
	if c.Grid[0][0] != blank {
		t.Error("expected cleared canvas after resize")
	}
	c.Resize(0, 0)
	if c.Width != 1 || c.Height != 1 {
		t.Error("expected minimum 1x1 canvas")
	}
}

func TestCameraProjectUnproject(t *testing.T) {
	cam := NewCamera(30)
	cam.Center = r3.Vec{X: 5, Y: -3}
	cam.Scale = 2

	if x, y := cam.Project(cam.Center, 100, 60); x != 50 || y != 30 {
		t.Errorf("center projects to (%d, %d)", x, y)
	}
	if x, y := cam.Project(r3.Vec{X: 15, Y: 2}, 100, 60); x != 70 || y != 20 {
		t.Errorf("point projects to (%d, %d), want (70, 20)", x, y)
	}

	for _, px := range [][2]int{{0, 0}, {13, 47}, {99, 59}} {
		w := cam.Unproject(float64(px[0])+0.5, float64(px[1])+0.5, 100, 60)
		if x, y := cam.Project(w, 100, 60); x != px[0] || y != px[1] {
			t.Errorf("round trip of %v gave (%d, %d)", px, x, y)
		}
	}

	w := cam.CellToWorld(25, 7, 50, 15)
	if x, y := cam.Project(w, 100, 60); x/2 != 25 || y/4 != 7 {
		t.Errorf("cell center maps back to cell (%d, %d)", x/2, y/4)
	}
}

func TestCameraZoomBounds(t *testing.T) {
	cam := NewCamera(30)
	for i := 0; i < 100; i++ {
		cam.ZoomIn()
	}
	if cam.Scale != maxScale {
		t.Errorf("scale = %f, want %f", cam.Scale, maxScale)
	}
	for i := 0; i < 100; i++ {
		cam.ZoomOut()
	}
	if cam.Scale != minScale {
		t.Errorf("scale = %f, want %f", cam.Scale, minScale)
	}
}

func TestCameraFit(t *testing.T) {
	cam := NewCamera(30)
	pts := []r3.Vec{{X: 10}, {X: -20}}
	cam.Fit(r3.Vec{}, pts, 160, 96)

	for _, p := range pts {
		x, y := cam.Project(p, 160, 96)
		if x < 0 || x >= 160 || y < 0 || y >= 96 {
			t.Errorf("point %v off screen at (%d, %d)", p, x, y)
		}
	}
	if math.Abs(cam.Scale-0.4*96/20) > 1e-12 {
		t.Errorf("scale = %f", cam.Scale)
	}
}

func TestCameraTrack(t *testing.T) {
	cam := NewCamera(30)
	target := r3.Vec{X: 40, Y: -10}
	for i := 0; i < 300; i++ {
		cam.Track(target)
	}
	if r3.Norm(r3.Sub(cam.Center, target)) > 0.1 {
		t.Errorf("camera at %v, expected to settle on %v", cam.Center, target)
	}
}

func TestTrails(t *testing.T) {
	tr := NewTrails(3)
	for i := 0; i < 5; i++ {
		tr.Record([]gravity.Instance{{Handle: 0, Position: r3.Vec{X: float64(i)}}})
	}

	pts := tr.Points(0)
	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %d", len(pts))
	}
	for i, want := range []float64{2, 3, 4} {
		if pts[i].X != want {
			t.Errorf("point %d = %v, want x=%v", i, pts[i], want)
		}
	}
	if tr.Points(1) != nil {
		t.Error("expected no trail for unknown body")
	}

	tr.Clear()
	if len(tr.Points(0)) != 0 {
		t.Error("expected empty trail after clear")
	}

	off := NewTrails(0)
	off.Record([]gravity.Instance{{Handle: 0}})
	if off.Points(0) != nil {
		t.Error("expected disabled trails to record nothing")
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8); got != "▁▂▃▄▅▆▇█" {
		t.Errorf("sparkline = %q", got)
	}
	if got := Sparkline(nil, 4); got != "────" {
		t.Errorf("empty sparkline = %q", got)
	}
	if got := []rune(Sparkline([]float64{1, 2, 3, 4, 5}, 3)); len(got) != 3 {
		t.Errorf("expected 3 runes, got %d", len(got))
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("retro").Name != "retro" {
		t.Error("expected retro theme")
	}
	if GetTheme("nope").Name != Themes[0].Name {
		t.Error("expected fallback theme")
	}
	th := Themes[0]
	for range Themes {
		th = NextTheme(th)
	}
	if th.Name != Themes[0].Name {
		t.Error("expected theme cycle to wrap")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names mismatch")
	}
}
