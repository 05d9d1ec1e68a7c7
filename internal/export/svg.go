// Package export renders canvases and traced orbits as SVG documents.
package export

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/gravsim/internal/analysis"
	"github.com/san-kum/gravsim/internal/viz"
)

const (
	background   = "#0a0a0a"
	defaultColor = "#00ff00"
)

var pixelMap = [4][2]int{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// CanvasToSVG draws every set braille dot of canvas as a circle, scale
// units per sub-pixel, in its cell's color.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	pw, ph := canvas.PixelSize()

	var sb strings.Builder
	header(&sb, float64(pw)*scale, float64(ph)*scale)

	r := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			pattern := int(canvas.Grid[row][col] - 0x2800)
			if pattern <= 0 {
				continue
			}
			fill := defaultColor
			if clr, ok := canvas.CellColor(row, col); ok {
				fill = clr.Hex()
			}
			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					cx := baseX + float64(dx)*scale + scale/2
					cy := baseY + float64(dy)*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"/>\n", cx, cy, r, fill)
				}
			}
		}
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// OrbitsToSVG draws each orbit as a path on a shared square scale, with the
// barycenter at the origin marked by a cross. colors[i] strokes orbits[i];
// missing colors fall back to green.
func OrbitsToSVG(orbits []*analysis.Orbit, colors []colorful.Color, width, height int) string {
	var all []analysis.Point
	for _, o := range orbits {
		all = append(all, o.Points...)
	}
	if len(all) == 0 {
		return ""
	}

	half := 1.0
	for _, p := range all {
		half = max(half, abs(p.X), abs(p.Y))
	}
	half *= 1.1
	side := float64(min(width, height))
	toX := func(x float64) float64 { return float64(width)/2 + x/half*side/2 }
	toY := func(y float64) float64 { return float64(height)/2 - y/half*side/2 }

	var sb strings.Builder
	header(&sb, float64(width), float64(height))

	for i, o := range orbits {
		if len(o.Points) < 2 {
			continue
		}
		stroke := defaultColor
		if i < len(colors) {
			stroke = colors[i].Hex()
		}
		fmt.Fprintf(&sb, "<path id=\"body-%d\" fill=\"none\" stroke=\"%s\" stroke-width=\"1.2\" d=\"M", int(o.Body), stroke)
		for j, p := range o.Points {
			if j > 0 {
				sb.WriteString(" L")
			}
			fmt.Fprintf(&sb, "%.1f,%.1f", toX(p.X), toY(p.Y))
		}
		sb.WriteString("\"/>\n")

		last := o.Points[len(o.Points)-1]
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"%s\"/>\n", toX(last.X), toY(last.Y), stroke)
	}

	cx, cy := toX(0), toY(0)
	fmt.Fprintf(&sb, "<path stroke=\"#888888\" d=\"M%.1f,%.1f L%.1f,%.1f M%.1f,%.1f L%.1f,%.1f\"/>\n",
		cx-5, cy, cx+5, cy, cx, cy-5, cx, cy+5)

	sb.WriteString("</svg>\n")
	return sb.String()
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
