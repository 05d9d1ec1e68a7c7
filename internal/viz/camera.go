package viz

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	minScale = 0.05
	maxScale = 40.0
	zoomStep = 1.25
)

// Camera looks straight down the z axis. Scale is in sub-pixels per world
// unit; braille sub-pixels are close enough to square that one scale serves
// both axes.
type Camera struct {
	Center r3.Vec
	Scale  float64

	spring     harmonica.Spring
	velX, velY float64
}

// NewCamera returns a camera at the origin whose follow spring is stepped
// fps times per second.
func NewCamera(fps int) *Camera {
	return &Camera{
		Scale:  1,
		spring: harmonica.NewSpring(harmonica.FPS(max(fps, 1)), 4.0, 0.9),
	}
}

// Project maps a world point to sub-pixel coordinates on a w×h canvas.
// The result may fall outside the canvas.
func (c *Camera) Project(p r3.Vec, w, h int) (int, int) {
	x := float64(w)/2 + (p.X-c.Center.X)*c.Scale
	y := float64(h)/2 - (p.Y-c.Center.Y)*c.Scale
	return int(math.Floor(x)), int(math.Floor(y))
}

// Unproject maps sub-pixel coordinates back to the z=0 plane.
func (c *Camera) Unproject(x, y float64, w, h int) r3.Vec {
	return r3.Vec{
		X: c.Center.X + (x-float64(w)/2)/c.Scale,
		Y: c.Center.Y - (y-float64(h)/2)/c.Scale,
	}
}

// CellToWorld maps the center of a terminal cell of a cols×rows braille
// canvas to the z=0 plane.
func (c *Camera) CellToWorld(col, row, cols, rows int) r3.Vec {
	return c.Unproject(float64(col*2)+1, float64(row*4)+2, cols*2, rows*4)
}

func (c *Camera) ZoomIn()  { c.Scale = math.Min(maxScale, c.Scale*zoomStep) }
func (c *Camera) ZoomOut() { c.Scale = math.Max(minScale, c.Scale/zoomStep) }

// Fit centers on center and picks the largest scale that keeps every point
// inside the middle 80% of a w×h canvas.
func (c *Camera) Fit(center r3.Vec, points []r3.Vec, w, h int) {
	c.Center = center
	c.velX, c.velY = 0, 0
	extent := 1.0
	for _, p := range points {
		extent = math.Max(extent, math.Abs(p.X-center.X))
		extent = math.Max(extent, math.Abs(p.Y-center.Y))
	}
	half := 0.4 * float64(min(w, h))
	c.Scale = math.Max(minScale, math.Min(maxScale, half/extent))
}

// Track moves the center one spring step toward target.
func (c *Camera) Track(target r3.Vec) {
	c.Center.X, c.velX = c.spring.Update(c.Center.X, c.velX, target.X)
	c.Center.Y, c.velY = c.spring.Update(c.Center.Y, c.velY, target.Y)
}
