package viz

import (
	"math"
	"strings"
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

const brailleBlank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set sets a pixel at (x, y) in sub-pixel coordinates. The canvas size in
// sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
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

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Point is a position in world coordinates.
type Point struct {
	X, Y float64
}

// Viewport maps a world-coordinate box onto a canvas with equal scale on
// both axes, y pointing up.
type Viewport struct {
	MinX, MinY float64
	Scale      float64
	pw, ph     int
}

// FitViewport returns the viewport that shows every point on c with a
// margin of one tenth of the larger extent.
func FitViewport(c *Canvas, pts []Point) Viewport {
	pw, ph := c.Width*2, c.Height*4
	if len(pts) == 0 {
		return Viewport{MinX: -1, MinY: -1, Scale: float64(min(pw, ph)) / 2, pw: pw, ph: ph}
	}

	minX, maxX := pts[0].X, pts[0].X
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	pad := 0.1 * span
	span += 2 * pad

	scale := math.Min(float64(pw-1)/span, float64(ph-1)/span)
	// centre the box on the canvas
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	return Viewport{
		MinX:  cx - float64(pw-1)/(2*scale),
		MinY:  cy - float64(ph-1)/(2*scale),
		Scale: scale,
		pw:    pw,
		ph:    ph,
	}
}

// Project converts a world point to canvas sub-pixels.
func (v Viewport) Project(p Point) (int, int) {
	x := int(math.Round((p.X - v.MinX) * v.Scale))
	y := v.ph - 1 - int(math.Round((p.Y-v.MinY)*v.Scale))
	return x, y
}

// Polyline draws consecutive points joined by lines.
func (c *Canvas) Polyline(v Viewport, pts []Point) {
	for i := range pts {
		x1, y1 := v.Project(pts[i])
		if i == 0 {
			c.Set(x1, y1)
			continue
		}
		x0, y0 := v.Project(pts[i-1])
		c.DrawLine(x0, y0, x1, y1)
	}
}

// Dotted draws every other point only, so a reference reads apart from a
// solid path.
func (c *Canvas) Dotted(v Viewport, pts []Point) {
	for i := 0; i < len(pts); i += 2 {
		c.Set(v.Project(pts[i]))
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
