package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrColinear is returned when three points do not define a circle.
var ErrColinear = errors.New("colinear points")

// GeometryError reports a failed geometric construction.
type GeometryError struct {
	Op  string
	Err error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GeometryError) Unwrap() error { return e.Err }

// CircleFromThreePoints fits the circle passing through p1, p2 and p3.
//
// The center solves the perpendicular-bisector system
//
//	2(x2-x1)·cx + 2(y2-y1)·cy = x2²+y2² - x1²-y1²
//	2(x3-x1)·cx + 2(y3-y1)·cy = x3²+y3² - x1²-y1²
//
// and the radius is the distance from the center to p1. Colinear or coincident
// input makes the system singular and yields a *GeometryError wrapping ErrColinear.
func CircleFromThreePoints(p1, p2, p3 Point2D) (Point2D, float64, error) {
	a := mat.NewDense(2, 2, []float64{
		2 * (p2.X - p1.X), 2 * (p2.Y - p1.Y),
		2 * (p3.X - p1.X), 2 * (p3.Y - p1.Y),
	})
	if math.Abs(mat.Det(a)) < Epsilon {
		return Point2D{}, 0, &GeometryError{Op: "circle fit", Err: ErrColinear}
	}

	r1 := p1.X*p1.X + p1.Y*p1.Y
	b := mat.NewVecDense(2, []float64{
		p2.X*p2.X + p2.Y*p2.Y - r1,
		p3.X*p3.X + p3.Y*p3.Y - r1,
	})

	var c mat.VecDense
	var cond mat.Condition
	if err := c.SolveVec(a, b); err != nil && !errors.As(err, &cond) {
		return Point2D{}, 0, &GeometryError{Op: "circle fit", Err: fmt.Errorf("%w: %v", ErrColinear, err)}
	}

	center := Point2D{X: c.AtVec(0), Y: c.AtVec(1)}
	return center, center.Distance(p1), nil
}
