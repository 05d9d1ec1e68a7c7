package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a grid of braille cells, each 2 sub-pixels wide and 4 tall, with
// one optional foreground color per cell. The last color set in a cell wins.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Colors        [][]colorful.Color
	colored       [][]bool
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{}
	c.Resize(w, h)
	return c
}

// Resize reallocates the grid and clears it.
func (c *Canvas) Resize(w, h int) {
	w, h = max(w, 1), max(h, 1)
	c.Width, c.Height = w, h
	c.Grid = make([][]rune, h)
	c.Colors = make([][]colorful.Color, h)
	c.colored = make([][]bool, h)
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Colors[i] = make([]colorful.Color, w)
		c.colored[i] = make([]bool, w)
	}
	c.Clear()
}

// PixelSize is the canvas size in sub-pixels.
func (c *Canvas) PixelSize() (int, int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) cell(x, y int) (row, col int, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, false
	}
	col, row = x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, false
	}
	return row, col, true
}

// Set sets a pixel at (x, y) in sub-pixel coordinates.
func (c *Canvas) Set(x, y int) {
	row, col, ok := c.cell(x, y)
	if !ok {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// SetColor sets a pixel and colors its cell.
func (c *Canvas) SetColor(x, y int, clr colorful.Color) {
	row, col, ok := c.cell(x, y)
	if !ok {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	c.Colors[row][col] = clr
	c.colored[row][col] = true
}

// CellColor returns the color of cell (row, col) and whether one was set.
func (c *Canvas) CellColor(row, col int) (colorful.Color, bool) {
	if row < 0 || col < 0 || row >= c.Height || col >= c.Width {
		return colorful.Color{}, false
	}
	return c.Colors[row][col], c.colored[row][col]
}

// Unset clears a pixel
func (c *Canvas) Unset(x, y int) {
	row, col, ok := c.cell(x, y)
	if !ok {
		return
	}
	c.Grid[row][col] &^= rune(pixelMap[y%4][x%2])
	if c.Grid[row][col] < blank {
		c.Grid[row][col] = blank
	}
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.colored[i][j] = false
		}
	}
}

// Disc fills a disc of radius r sub-pixels centered at (x, y).
func (c *Canvas) Disc(x, y, r int, clr colorful.Color) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r+r {
				c.SetColor(x+dx, y+dy, clr)
			}
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// String renders the canvas without color.
func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Render renders the canvas with cell colors, one style per run of equally
// colored cells.
func (c *Canvas) Render() string {
	var b strings.Builder
	for i, row := range c.Grid {
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && c.sameColor(i, start, j) {
				continue
			}
			run := string(row[start:j])
			if c.colored[i][start] {
				b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Colors[i][start].Hex())).Render(run))
			} else {
				b.WriteString(run)
			}
			start = j
		}
		if i < len(c.Grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (c *Canvas) sameColor(row, a, b int) bool {
	if c.colored[row][a] != c.colored[row][b] {
		return false
	}
	return !c.colored[row][a] || c.Colors[row][a] == c.Colors[row][b]
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
