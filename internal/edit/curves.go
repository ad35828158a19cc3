package edit

import (
	"fmt"
	"math"

	"plan-digitizer/internal/logging"
	"plan-digitizer/internal/project"
	"plan-digitizer/pkg/geometry"
)

// DefaultInteriorCount is the number of interior arc points sampled when none is configured.
const DefaultInteriorCount = 4

// angleEps is the tolerance for treating two angles in degrees as equal.
const angleEps = 1e-9

// arcPlan is a fitted arc, computed before any mutation.
type arcPlan struct {
	center     geometry.Point2D
	radius     float64
	startAngle float64 // counter-clockwise sweep start, degrees
	endAngle   float64 // sweep end, greater than startAngle
	interior   []geometry.Point2D
}

// planArc fits the circle through start, hint and end and samples count interior points, ordered
// from start towards end. The hint selects which of the two arcs joining start and end is meant.
func planArc(start, hint, end geometry.Point2D, count int) (arcPlan, error) {
	center, radius, err := geometry.CircleFromThreePoints(start, hint, end)
	if err != nil {
		return arcPlan{}, err
	}

	startAngle := geometry.AngleFromCenter(center, start)
	endAngle := geometry.AngleFromCenter(center, end)
	if endAngle <= startAngle {
		endAngle += 360
	}

	sweepStart, sweepEnd := startAngle, endAngle
	flipped := !hintOnSweep(center, start, hint, end, startAngle, endAngle)
	if flipped {
		// Complementary arc: counter-clockwise from end back round to start.
		sweepStart, sweepEnd = endAngle, startAngle+360
	}

	interior := make([]geometry.Point2D, count)
	for i := 1; i <= count; i++ {
		a := sweepStart + (sweepEnd-sweepStart)*float64(i)/float64(count+1)
		interior[i-1] = geometry.PointOnCircle(center, radius, a)
	}
	if flipped {
		for i, j := 0, len(interior)-1; i < j; i, j = i+1, j-1 {
			interior[i], interior[j] = interior[j], interior[i]
		}
	}

	return arcPlan{
		center:     center,
		radius:     radius,
		startAngle: geometry.NormalizeAngle(sweepStart),
		endAngle:   geometry.NormalizeAngle(sweepStart) + (sweepEnd - sweepStart),
		interior:   interior,
	}, nil
}

// hintOnSweep reports whether hint lies on the counter-clockwise sweep [startAngle, endAngle).
// When the hint's angle coincides with an endpoint the side of the chord decides: the
// counter-clockwise arc from start to end lies to the right of the chord start->end.
func hintOnSweep(center, start, hint, end geometry.Point2D, startAngle, endAngle float64) bool {
	h := geometry.AngleFromCenter(center, hint)
	for h < startAngle {
		h += 360
	}
	if math.Abs(h-startAngle) < angleEps || math.Abs(h-endAngle) < angleEps || math.Abs(h-startAngle-360) < angleEps {
		return geometry.Cross(end.Sub(start), hint.Sub(start)) < 0
	}
	return h < endAngle
}

// CreateCurve builds a circular arc from startID to endID through the circle defined together
// with centerID (the third clicked point; it picks the arc side and need not lie on the final
// arc exactly). interiorCount new points are sampled between the ends at the current elevation,
// a base line start->end is found or created, and the curve is stored.
func (e *Editor) CreateCurve(startID, centerID, endID, interiorCount int) (*project.Curve, error) {
	if interiorCount < 0 {
		return nil, fmt.Errorf("interior count must not be negative, got %d", interiorCount)
	}
	for _, id := range []int{startID, centerID, endID} {
		if !e.project.HasPoint(id) {
			return nil, missingPoint(id)
		}
	}
	ps, pc, pe := e.project.Point(startID), e.project.Point(centerID), e.project.Point(endID)

	plan, err := planArc(ps.Real().XY(), pc.Real().XY(), pe.Real().XY(), interiorCount)
	if err != nil {
		return nil, err
	}
	inv, err := e.project.Transform.Inverse()
	if err != nil {
		return nil, err
	}

	z := e.currentZ
	arc := make([]int, 0, interiorCount+2)
	arc = append(arc, startID)
	for _, rp := range plan.interior {
		src := inv.Apply(rp)
		pt := &project.Point{
			ID:    e.project.IDs.NextPoint(),
			RealX: rp.X,
			RealY: rp.Y,
			Z:     z,
			PDFX:  src.X,
			PDFY:  src.Y,
		}
		e.project.AddPoint(pt)
		arc = append(arc, pt.ID)
	}
	arc = append(arc, endID)

	base := e.project.FindLine(startID, endID)
	if base == nil {
		base, err = e.CreateLine(startID, endID, "")
		if err != nil {
			return nil, err
		}
	}

	center := plan.center
	c := &project.Curve{
		ID:          e.project.IDs.NextCurve(),
		StartID:     startID,
		EndID:       endID,
		BaseLineID:  base.ID,
		ArcPointIDs: arc,
		ZLevel:      z,
		Center:      &center,
		Radius:      plan.radius,
		StartAngle:  plan.startAngle,
		EndAngle:    plan.endAngle,
	}
	e.refreshArcReal(c)
	e.project.AddCurve(c)
	logging.Logger().Debug("curve created", "id", c.ID, "start", startID, "end", endID,
		"radius", plan.radius, "base_line", base.ID)
	return c, nil
}

// DeleteCurve removes a curve. With removeOrphans, every arc point (endpoints included) left with
// no references is deleted as well. The base line is not touched.
func (e *Editor) DeleteCurve(id int, removeOrphans bool) (DeletionResult, error) {
	c, err := e.project.RemoveCurve(id)
	if err != nil {
		return DeletionResult{}, missingCurve(id)
	}
	res := DeletionResult{Curves: []int{id}}
	if removeOrphans {
		for _, pid := range c.PointSet() {
			if e.project.HasPoint(pid) && e.project.RefCount(pid) == 0 {
				if err := e.DeletePoint(pid, true); err == nil {
					res.Points = append(res.Points, pid)
				}
			}
		}
	}
	res.sort()
	return res, nil
}

// RemoveCurve is the interactive curve delete: the base line goes first, unless another curve
// uses it, so the endpoints' reference counts drop before orphan cleanup.
func (e *Editor) RemoveCurve(id int) (DeletionResult, error) {
	c := e.project.Curve(id)
	if c == nil {
		return DeletionResult{}, missingCurve(id)
	}
	var res DeletionResult
	if c.BaseLineID != 0 && e.project.Line(c.BaseLineID) != nil && !e.baseLineShared(c) {
		if err := e.DeleteLine(c.BaseLineID); err != nil {
			return res, err
		}
		res.Lines = append(res.Lines, c.BaseLineID)
	}
	r, err := e.DeleteCurve(id, true)
	if err != nil {
		return res, err
	}
	res.merge(r)
	res.sort()
	return res, nil
}

func (e *Editor) baseLineShared(c *project.Curve) bool {
	for _, other := range e.project.Curves() {
		if other.ID != c.ID && other.BaseLineID == c.BaseLineID {
			return true
		}
	}
	return false
}

// arcIDs returns the curve's arc, falling back to its endpoints for curves without arc ids.
func arcIDs(c *project.Curve) []int {
	if len(c.ArcPointIDs) > 0 {
		return c.ArcPointIDs
	}
	return []int{c.StartID, c.EndID}
}

// DuplicateCurve copies a curve to each elevation in zs. Every arc point is found or created at the
// new elevation, the base line (if the source has one) is found or created between the new ends,
// and a new curve references the new ids. An identical curve already present is reused.
func (e *Editor) DuplicateCurve(id int, zs []float64) (DuplicateResult, error) {
	c := e.project.Curve(id)
	if c == nil {
		return DuplicateResult{}, missingCurve(id)
	}
	src := arcIDs(c)
	for _, pid := range src {
		if !e.project.HasPoint(pid) {
			return DuplicateResult{}, missingPoint(pid)
		}
	}
	hasBase := c.BaseLineID != 0 && e.project.Line(c.BaseLineID) != nil

	var res DuplicateResult
	for _, z := range zs {
		arc := make([]int, len(src))
		for i, pid := range src {
			pt, created := e.pointAtElevation(e.project.Point(pid), z)
			if created {
				res.Points = append(res.Points, pt.ID)
			}
			arc[i] = pt.ID
		}
		start, end := arc[0], arc[len(arc)-1]

		baseID := 0
		if hasBase {
			base := e.project.FindLine(start, end)
			if base == nil {
				nl, err := e.CreateLine(start, end, e.project.Line(c.BaseLineID).Description)
				if err != nil {
					return res, err
				}
				base = nl
				res.Lines = append(res.Lines, nl.ID)
			}
			baseID = base.ID
		}

		if e.findCurve(arc) != nil {
			continue
		}
		nc := &project.Curve{
			ID:          e.project.IDs.NextCurve(),
			StartID:     start,
			EndID:       end,
			BaseLineID:  baseID,
			ArcPointIDs: arc,
			ZLevel:      z,
			Description: c.Description,
			Radius:      c.Radius,
			StartAngle:  c.StartAngle,
			EndAngle:    c.EndAngle,
		}
		if c.Center != nil {
			center := *c.Center
			nc.Center = &center
		}
		e.refreshArcReal(nc)
		e.project.AddCurve(nc)
		res.Curves = append(res.Curves, nc.ID)
	}
	logging.Logger().Info("curve duplicated", "source", id, "elevations", len(zs),
		"curves", len(res.Curves), "points", len(res.Points))
	return res, nil
}

func (e *Editor) findCurve(arc []int) *project.Curve {
	for _, c := range e.project.Curves() {
		if equalIDs(c.ArcPointIDs, arc) {
			return c
		}
	}
	return nil
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
