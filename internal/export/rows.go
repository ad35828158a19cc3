// Package export flattens a project into the tables consumed by reporting and SQL tooling: points,
// lines with endpoint elevations, and a fixed-width curve position table.
package export

import (
	"plan-digitizer/internal/logging"
	"plan-digitizer/internal/project"
)

// PointRow is one point with its real position.
type PointRow struct {
	ID          int     `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	Description string  `json:"description"`
	Hidden      bool    `json:"hidden"`
}

// LineRow is one line with the elevations of its endpoints.
type LineRow struct {
	ID          int     `json:"id"`
	StartID     int     `json:"start_id"`
	EndID       int     `json:"end_id"`
	StartZ      float64 `json:"start_z"`
	EndZ        float64 `json:"end_z"`
	Description string  `json:"description"`
	Hidden      bool    `json:"hidden"`
}

// CurvePosition is one slot of a curve normalized to a fixed number of positions.
// LineID is the curve's base line, 0 when it has none.
type CurvePosition struct {
	CurveID  int `json:"curve_id"`
	Position int `json:"position"`
	PointID  int `json:"point_id"`
	LineID   int `json:"line_id"`
}

// Tables holds every exported row.
type Tables struct {
	Points         []PointRow
	Lines          []LineRow
	CurvePositions []CurvePosition
}

// Build collects all three tables. Each curve contributes exactly interiorCount+2 positions.
// Build never adds points, so an arc shorter than that is padded with its end id. Run
// edit.Editor.NormalizeCurves first to get interpolated interior positions instead.
func Build(p *project.Project, interiorCount int) Tables {
	return Tables{
		Points:         PointRows(p),
		Lines:          LineRows(p),
		CurvePositions: CurvePositions(p, interiorCount),
	}
}

// PointRows lists every point ordered by id.
func PointRows(p *project.Project) []PointRow {
	pts := p.Points()
	out := make([]PointRow, len(pts))
	for i, pt := range pts {
		out[i] = PointRow{
			ID:          pt.ID,
			X:           pt.RealX,
			Y:           pt.RealY,
			Z:           pt.Z,
			Description: pt.Description,
			Hidden:      pt.Hidden,
		}
	}
	return out
}

// LineRows lists every line ordered by id. An endpoint that does not exist exports elevation 0.
func LineRows(p *project.Project) []LineRow {
	lines := p.Lines()
	out := make([]LineRow, len(lines))
	for i, l := range lines {
		row := LineRow{
			ID:          l.ID,
			StartID:     l.StartID,
			EndID:       l.EndID,
			Description: l.Description,
			Hidden:      l.Hidden,
		}
		if s := p.Point(l.StartID); s != nil {
			row.StartZ = s.Z
		} else {
			logging.Logger().Warn("export: line start missing", "line", l.ID, "point", l.StartID)
		}
		if e := p.Point(l.EndID); e != nil {
			row.EndZ = e.Z
		} else {
			logging.Logger().Warn("export: line end missing", "line", l.ID, "point", l.EndID)
		}
		out[i] = row
	}
	return out
}

// CurvePositions lays every curve out over interiorCount+2 positions numbered from 1. Longer arcs
// are thinned evenly keeping both ends; shorter ones are padded by repeating the last id. Curves
// with no points are left out.
func CurvePositions(p *project.Project, interiorCount int) []CurvePosition {
	n := interiorCount + 2
	var out []CurvePosition
	for _, c := range p.Curves() {
		arc := c.ArcPointIDs
		if len(arc) == 0 {
			if c.StartID == 0 || c.EndID == 0 {
				continue
			}
			arc = []int{c.StartID, c.EndID}
		}
		for i, id := range project.ResampleIDs(arc, n) {
			out = append(out, CurvePosition{
				CurveID:  c.ID,
				Position: i + 1,
				PointID:  id,
				LineID:   c.BaseLineID,
			})
		}
	}
	return out
}
