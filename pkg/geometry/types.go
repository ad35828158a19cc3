// Package geometry provides the 2D/3D primitives and angle math used by the digitizer.
package geometry

import (
	"math"
)

// Epsilon is the tolerance below which lengths and determinants are treated as zero.
const Epsilon = 1e-10

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// Length returns the distance from the origin.
func (p Point2D) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Lerp interpolates linearly between p and other; t=0 yields p, t=1 yields other.
func (p Point2D) Lerp(other Point2D, t float64) Point2D {
	return Point2D{X: p.X + (other.X-p.X)*t, Y: p.Y + (other.Y-p.Y)*t}
}

// Cross returns the z component of the cross product of vectors a and b.
func Cross(a, b Point2D) float64 {
	return a.X*b.Y - a.Y*b.X
}

// Point3D is a real-world position with elevation.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// XY drops the elevation.
func (p Point3D) XY() Point2D {
	return Point2D{X: p.X, Y: p.Y}
}

// Distance returns the Euclidean distance to another point in 3D.
func (p Point3D) Distance(other Point3D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	dz := p.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Distance2D is the planar distance between (x1,y1) and (x2,y2).
func Distance2D(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// Distance3D is the spatial distance between (x1,y1,z1) and (x2,y2,z2).
func Distance3D(x1, y1, z1, x2, y2, z2 float64) float64 {
	return Point3D{X: x1, Y: y1, Z: z1}.Distance(Point3D{X: x2, Y: y2, Z: z2})
}
