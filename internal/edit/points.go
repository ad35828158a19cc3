package edit

import (
	"fmt"

	"plan-digitizer/internal/logging"
	"plan-digitizer/internal/project"
)

// ZResolution selects how SetPointZ handles a point shared with lines or curves.
type ZResolution int

const (
	// ZCancel refuses the edit. It is the zero value.
	ZCancel ZResolution = iota
	// ZDuplicate leaves the point alone and creates a copy at the new elevation.
	ZDuplicate
	// ZPropagate moves the point and everything directly connected to it to the new elevation.
	ZPropagate
)

// CreatePoint places a point at page coordinate (sourceX, sourceY) with elevation z.
func (e *Editor) CreatePoint(sourceX, sourceY, z float64, description string) *project.Point {
	rx, ry := e.project.Transform.TransformPoint(sourceX, sourceY)
	pt := &project.Point{
		ID:          e.project.IDs.NextPoint(),
		RealX:       rx,
		RealY:       ry,
		Z:           z,
		PDFX:        sourceX,
		PDFY:        sourceY,
		Description: description,
	}
	e.project.AddPoint(pt)
	logging.Logger().Debug("point created", "id", pt.ID, "x", rx, "y", ry, "z", z)
	return pt
}

// UpdatePoint replaces the description.
func (e *Editor) UpdatePoint(id int, description string) error {
	pt := e.project.Point(id)
	if pt == nil {
		return missingPoint(id)
	}
	pt.Description = description
	pt.JustDuplicated = false
	return nil
}

// MovePoint sets a new page coordinate and re-derives the real position.
func (e *Editor) MovePoint(id int, sourceX, sourceY float64) error {
	pt := e.project.Point(id)
	if pt == nil {
		return missingPoint(id)
	}
	pt.PDFX, pt.PDFY = sourceX, sourceY
	pt.RealX, pt.RealY = e.project.Transform.TransformPoint(sourceX, sourceY)
	pt.JustDuplicated = false
	for _, c := range e.project.CurvesTouching(id) {
		e.refreshArcReal(c)
	}
	return nil
}

// SetPointZ changes a point's elevation. An unreferenced point is updated in place. A point used by
// lines or curves is handled according to res: ZCancel returns ErrZConflict, ZDuplicate returns a
// new point at z and leaves the original untouched, ZPropagate moves the point together with the
// other endpoint of each touching line and every point of each touching curve.
func (e *Editor) SetPointZ(id int, z float64, res ZResolution) (*project.Point, error) {
	pt := e.project.Point(id)
	if pt == nil {
		return nil, missingPoint(id)
	}
	if pt.Z == z {
		pt.JustDuplicated = false
		return pt, nil
	}

	lines := e.project.LinesTouching(id)
	curves := e.project.CurvesTouching(id)
	if len(lines) == 0 && len(curves) == 0 {
		pt.Z = z
		pt.JustDuplicated = false
		return pt, nil
	}

	switch res {
	case ZDuplicate:
		return e.DuplicatePoint(id, z)
	case ZPropagate:
		pt.Z = z
		pt.JustDuplicated = false
		for _, l := range lines {
			if other := e.project.Point(l.Other(id)); other != nil {
				other.Z = z
			}
		}
		for _, c := range curves {
			for _, pid := range c.PointSet() {
				if p := e.project.Point(pid); p != nil {
					p.Z = z
				}
			}
			c.ZLevel = z
		}
		// Line endpoints may belong to other curves; refresh every curve that could have moved.
		for _, c := range e.project.Curves() {
			e.refreshArcReal(c)
		}
		logging.Logger().Info("elevation propagated", "point", id, "z", z,
			"lines", len(lines), "curves", len(curves))
		return pt, nil
	default:
		return nil, fmt.Errorf("%w: point %d is used by %d line(s) and %d curve(s)",
			ErrZConflict, id, len(lines), len(curves))
	}
}

// SetHidden toggles visibility of a point, line or curve.
func (e *Editor) SetHidden(kind project.Kind, id int, hidden bool) error {
	switch kind {
	case project.KindPoint:
		pt := e.project.Point(id)
		if pt == nil {
			return missingPoint(id)
		}
		pt.Hidden = hidden
	case project.KindLine:
		l := e.project.Line(id)
		if l == nil {
			return missingLine(id)
		}
		l.Hidden = hidden
	case project.KindCurve:
		c := e.project.Curve(id)
		if c == nil {
			return missingCurve(id)
		}
		c.Hidden = hidden
	default:
		return fmt.Errorf("unknown kind %q", kind)
	}
	return nil
}

// DuplicatePoint copies the source point's coordinates and description to a new id at elevation z.
func (e *Editor) DuplicatePoint(id int, z float64) (*project.Point, error) {
	src := e.project.Point(id)
	if src == nil {
		return nil, missingPoint(id)
	}
	dup := &project.Point{
		ID:             e.project.IDs.NextPoint(),
		RealX:          src.RealX,
		RealY:          src.RealY,
		Z:              z,
		PDFX:           src.PDFX,
		PDFY:           src.PDFY,
		Description:    src.Description,
		JustDuplicated: true,
	}
	e.project.AddPoint(dup)
	logging.Logger().Debug("point duplicated", "source", id, "id", dup.ID, "z", z)
	return dup, nil
}

// pointAtElevation returns a point at src's real position and elevation z, creating one if needed.
// created reports whether a new point was made.
func (e *Editor) pointAtElevation(src *project.Point, z float64) (pt *project.Point, created bool) {
	if found := e.project.FindPointAt(src.RealX, src.RealY, z); found != nil {
		return found, false
	}
	dup, _ := e.DuplicatePoint(src.ID, z)
	return dup, true
}

// DeletePoint removes a point. Without force a referenced point is refused with a
// *ReferencedEntityError; with force it is removed and any lines or curves using it are left
// for the caller to deal with. No cascade happens here.
func (e *Editor) DeletePoint(id int, force bool) error {
	if !e.project.HasPoint(id) {
		return missingPoint(id)
	}
	if n := e.project.RefCount(id); n > 0 && !force {
		return &ReferencedEntityError{PointID: id, Count: n}
	}
	_, err := e.project.RemovePoint(id)
	return err
}

// RemovePoint is the interactive delete. An interior arc point takes its owning curves with it
// (base lines and orphaned arc points included); a point used by lines or as a curve endpoint is
// cascade-deleted; an unused point is simply removed. When a Confirmer is set it must agree
// before anything other than an unused point is removed.
func (e *Editor) RemovePoint(id int) (DeletionResult, error) {
	if !e.project.HasPoint(id) {
		return DeletionResult{}, missingPoint(id)
	}

	var res DeletionResult
	if owners := e.project.CurvesWithInterior(id); len(owners) > 0 {
		ids := make([]int, len(owners))
		for i, c := range owners {
			ids[i] = c.ID
		}
		if !e.confirmed(fmt.Sprintf("Point %d is an arc point of curve(s) %v. Delete the curve(s)?", id, ids)) {
			return DeletionResult{}, ErrCancelled
		}
		for _, cid := range ids {
			r, err := e.RemoveCurve(cid)
			if err != nil {
				return res, err
			}
			res.merge(r)
		}
		if !e.project.HasPoint(id) {
			res.sort()
			return res, nil
		}
	}

	if n := e.project.RefCount(id); n > 0 {
		if !e.confirmed(fmt.Sprintf("Point %d is referenced by %d item(s). Delete them too?", id, n)) {
			return res, ErrCancelled
		}
		r, err := e.CascadeDeletePoint(id)
		res.merge(r)
		res.sort()
		return res, err
	}

	if err := e.DeletePoint(id, false); err != nil {
		return res, err
	}
	res.Points = append(res.Points, id)
	res.sort()
	return res, nil
}

func (e *Editor) confirmed(prompt string) bool {
	if e.confirm == nil {
		return true
	}
	return e.confirm.Confirm(prompt)
}

// refreshArcReal rebuilds the cached real coordinates of a curve's arc.
func (e *Editor) refreshArcReal(c *project.Curve) {
	if len(c.ArcPointIDs) == 0 {
		return
	}
	arc := make([][3]float64, 0, len(c.ArcPointIDs))
	for _, id := range c.ArcPointIDs {
		pt := e.project.Point(id)
		if pt == nil {
			return
		}
		arc = append(arc, [3]float64{pt.RealX, pt.RealY, pt.Z})
	}
	c.ArcPointsReal = arc
}
