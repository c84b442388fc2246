package geom

import "math"

// Vec is a 2D point or direction in world pixels.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func V(x, y float64) Vec { return Vec{X: x, Y: y} }

func (v Vec) Add(o Vec) Vec         { return Vec{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec         { return Vec{X: v.X - o.X, Y: v.Y - o.Y} }
func (v Vec) Scale(s float64) Vec   { return Vec{X: v.X * s, Y: v.Y * s} }
func (v Vec) Dot(o Vec) float64     { return v.X*o.X + v.Y*o.Y }
func (v Vec) Cross(o Vec) float64   { return v.X*o.Y - v.Y*o.X }
func (v Vec) Len() float64          { return math.Hypot(v.X, v.Y) }
func (v Vec) Dist(o Vec) float64    { return v.Sub(o).Len() }
func (v Vec) IsZero() bool          { return v.X == 0 && v.Y == 0 }
func (v Vec) Angle() float64        { return math.Atan2(v.Y, v.X) }
func (v Vec) Finite() bool          { return isFinite(v.X) && isFinite(v.Y) }

// Normalize returns the unit vector, or the zero vector for zero length.
func (v Vec) Normalize() Vec {
	l := v.Len()
	if l == 0 {
		return Vec{}
	}
	return Vec{X: v.X / l, Y: v.Y / l}
}

// Limit caps the vector length at max.
func (v Vec) Limit(max float64) Vec {
	l := v.Len()
	if l <= max || l == 0 {
		return v
	}
	return v.Scale(max / l)
}

// FromAngle returns a vector of length l pointing along angle (radians).
func FromAngle(angle, l float64) Vec {
	return Vec{X: math.Cos(angle) * l, Y: math.Sin(angle) * l}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
