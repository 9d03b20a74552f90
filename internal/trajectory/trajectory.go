package trajectory

import (
	"math"

	"github.com/san-kum/unimpc/internal/dynamo"
)

// Line moves at constant velocity from (X0, Y0).
type Line struct {
	X0, Y0 float64
	VX, VY float64
}

func NewLine(x0, y0, vx, vy float64) *Line {
	return &Line{X0: x0, Y0: y0, VX: vx, VY: vy}
}

func (l *Line) At(t float64) dynamo.Setpoint {
	return dynamo.Setpoint{X: l.X0 + l.VX*t, Y: l.Y0 + l.VY*t, VX: l.VX, VY: l.VY}
}

// Circle runs counter-clockwise at constant speed, starting at the bottom
// of the circle heading along +x.
type Circle struct {
	CX, CY float64
	Radius float64
	Speed  float64
}

func NewCircle(cx, cy, radius, speed float64) *Circle {
	return &Circle{CX: cx, CY: cy, Radius: radius, Speed: speed}
}

func (c *Circle) At(t float64) dynamo.Setpoint {
	if c.Radius <= 0 {
		return dynamo.Setpoint{X: c.CX, Y: c.CY}
	}
	w := c.Speed / c.Radius
	sin, cos := math.Sin(w*t), math.Cos(w*t)
	return dynamo.Setpoint{
		X:  c.CX + c.Radius*sin,
		Y:  c.CY - c.Radius*cos,
		VX: c.Speed * cos,
		VY: c.Speed * sin,
	}
}

// Figure8 is the lemniscate of Gerono x = A·sin(wt), y = A·sin(wt)·cos(wt)
// centred on (CX, CY).
type Figure8 struct {
	CX, CY    float64
	Amplitude float64
	Rate      float64
}

func NewFigure8(cx, cy, amplitude, rate float64) *Figure8 {
	return &Figure8{CX: cx, CY: cy, Amplitude: amplitude, Rate: rate}
}

func (f *Figure8) At(t float64) dynamo.Setpoint {
	a, w := f.Amplitude, f.Rate
	return dynamo.Setpoint{
		X:  f.CX + a*math.Sin(w*t),
		Y:  f.CY + 0.5*a*math.Sin(2*w*t),
		VX: a * w * math.Cos(w*t),
		VY: a * w * math.Cos(2*w*t),
	}
}

// Stationary holds a fixed point with zero velocity.
type Stationary struct {
	X, Y float64
}

func NewStationary(x, y float64) *Stationary {
	return &Stationary{X: x, Y: y}
}

func (s *Stationary) At(float64) dynamo.Setpoint {
	return dynamo.Setpoint{X: s.X, Y: s.Y}
}
