package edit

import (
	"plan-digitizer/internal/logging"
	"plan-digitizer/internal/project"
)

// CreateLine joins two existing, distinct points.
func (e *Editor) CreateLine(startID, endID int, description string) (*project.Line, error) {
	if !e.project.HasPoint(startID) {
		return nil, missingPoint(startID)
	}
	if !e.project.HasPoint(endID) {
		return nil, missingPoint(endID)
	}
	if startID == endID {
		return nil, ErrZeroLengthLine
	}
	l := &project.Line{
		ID:          e.project.IDs.NextLine(),
		StartID:     startID,
		EndID:       endID,
		Description: description,
	}
	e.project.AddLine(l)
	logging.Logger().Debug("line created", "id", l.ID, "start", startID, "end", endID)
	return l, nil
}

// DeleteLine removes a line. Its endpoints are not touched.
func (e *Editor) DeleteLine(id int) error {
	if _, err := e.project.RemoveLine(id); err != nil {
		return missingLine(id)
	}
	return nil
}

// DuplicateResult lists the ids created by a duplicate operation.
type DuplicateResult struct {
	Points []int
	Lines  []int
	Curves []int
}

// DuplicateLine copies a line to each elevation in zs, reusing points that already sit at the
// same real position and elevation. A line serving as a curve's base line is not copied on its
// own: the whole curve is duplicated instead.
func (e *Editor) DuplicateLine(id int, zs []float64) (DuplicateResult, error) {
	l := e.project.Line(id)
	if l == nil {
		return DuplicateResult{}, missingLine(id)
	}
	if c := e.project.CurveByBaseLine(id); c != nil {
		return e.DuplicateCurve(c.ID, zs)
	}
	start, end := e.project.Point(l.StartID), e.project.Point(l.EndID)
	if start == nil {
		return DuplicateResult{}, missingPoint(l.StartID)
	}
	if end == nil {
		return DuplicateResult{}, missingPoint(l.EndID)
	}

	var res DuplicateResult
	for _, z := range zs {
		s, created := e.pointAtElevation(start, z)
		if created {
			res.Points = append(res.Points, s.ID)
		}
		t, created := e.pointAtElevation(end, z)
		if created {
			res.Points = append(res.Points, t.ID)
		}
		if existing := e.project.FindLine(s.ID, t.ID); existing != nil {
			continue
		}
		nl, err := e.CreateLine(s.ID, t.ID, l.Description)
		if err != nil {
			// Only reachable when both endpoints collapse onto one point.
			logging.Logger().Warn("line duplicate skipped", "line", id, "z", z, "error", err)
			continue
		}
		res.Lines = append(res.Lines, nl.ID)
	}
	return res, nil
}
