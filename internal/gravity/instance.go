package gravity

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// Instance is the render projection of one body.
type Instance struct {
	Handle   Handle
	Position r3.Vec
	Scale    float64
	Color    colorful.Color
}

// Instances projects the current buffer for rendering. The returned slice
// is a fresh copy and does not alias engine state.
func (e *Engine) Instances() []Instance {
	cur := e.current()
	out := make([]Instance, len(cur))
	for i, b := range cur {
		out[i] = Instance{
			Handle:   Handle(i),
			Position: b.Position,
			Scale:    RenderScale(b.Mass, e.scaleDiv),
			Color:    BodyColor(Handle(i), b.Mass),
		}
	}
	return out
}

// RenderScale grows with the order of magnitude of mass so that size
// differences stay visible across the preset range.
func RenderScale(mass, divisor float64) float64 {
	return math.Log10(mass) / divisor
}

// BodyColor derives a stable color for a body: hue walks the golden angle by
// handle, heavier bodies are lighter.
func BodyColor(h Handle, mass float64) colorful.Color {
	hue := math.Mod(float64(h)*137.508+30, 360)
	l := 0.45 + 0.05*math.Min(math.Max(math.Log10(mass)-3, 0), 5)
	return colorful.Hcl(hue, 0.6, l).Clamped()
}
