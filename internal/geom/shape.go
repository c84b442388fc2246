package geom

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	W float64 `yaml:"w" json:"w"`
	H float64 `yaml:"h" json:"h"`
}

func (r Rect) Contains(p Vec) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

func (r Rect) Center() Vec {
	return Vec{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Overlaps reports whether two rectangles intersect.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// RandomPoint maps two unit samples onto a point inside the rectangle.
func (r Rect) RandomPoint(u, v float64) Vec {
	return Vec{X: r.X + u*r.W, Y: r.Y + v*r.H}
}

// Circle is a center and radius, used for hitboxes and trigger ranges.
type Circle struct {
	Center Vec     `json:"center"`
	Radius float64 `json:"radius"`
}

func (c Circle) Contains(p Vec) bool {
	return c.Center.Dist(p) <= c.Radius
}

func (c Circle) Overlaps(o Circle) bool {
	return c.Center.Dist(o.Center) < c.Radius+o.Radius
}

// Clamp limits v to [lo, hi] and reports whether it was clamped.
func Clamp(v, lo, hi float64) (float64, bool) {
	if v < lo {
		return lo, true
	}
	if v > hi {
		return hi, true
	}
	return v, false
}
