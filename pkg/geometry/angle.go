package geometry

import "math"

// NormalizeAngle maps any angle in degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a -= 360
	}
	return a
}

// AngleFromCenter returns the direction of point as seen from center, in degrees within [0, 360).
func AngleFromCenter(center, point Point2D) float64 {
	rad := math.Atan2(point.Y-center.Y, point.X-center.X)
	return NormalizeAngle(rad * 180 / math.Pi)
}

// IsAngleBetween reports whether angle lies on the counter-clockwise sweep from start to end.
// When start > end the sweep wraps through 0.
func IsAngleBetween(angle, start, end float64) bool {
	angle = NormalizeAngle(angle)
	start = NormalizeAngle(start)
	end = NormalizeAngle(end)
	if start <= end {
		return angle >= start && angle <= end
	}
	return angle >= start || angle <= end
}

// PointOnCircle returns the point at deg degrees on the circle (center, radius).
func PointOnCircle(center Point2D, radius, deg float64) Point2D {
	rad := deg * math.Pi / 180
	return Point2D{
		X: center.X + radius*math.Cos(rad),
		Y: center.Y + radius*math.Sin(rad),
	}
}
