// Package migrate upgrades project files written before curves carried arc point ids.
//
// A legacy curve stores only raw page samples along its arc (arc_points_pdf). Migration matches each
// sample to an existing point at the curve's elevation, synthesizes the points that do not exist,
// fills arc_point_ids and arc_points_real, and links or creates the base line. Running it on an
// already migrated project changes nothing.
package migrate

import (
	"math"

	"plan-digitizer/internal/ids"
	"plan-digitizer/internal/logging"
	"plan-digitizer/internal/project"
	"plan-digitizer/pkg/geometry"
)

// DefaultTolerance is the page-space distance within which a sample matches an existing point.
const DefaultTolerance = 2.0

// CurveAction describes what migration did to one curve.
type CurveAction struct {
	CurveID         int  `json:"curve_id"`
	Matched         int  `json:"matched"`
	Synthesized     int  `json:"synthesized"`
	BaseLineCreated bool `json:"base_line_created"`
	BaseLineLinked  bool `json:"base_line_linked"`
	EndsFixed       bool `json:"ends_fixed"`
	RealRefreshed   bool `json:"real_refreshed"`
}

func (a CurveAction) changed() bool {
	return a.Matched > 0 || a.Synthesized > 0 || a.BaseLineCreated || a.BaseLineLinked ||
		a.EndsFixed || a.RealRefreshed
}

// Report summarizes a migration run. Curves lists only curves that changed.
type Report struct {
	Curves  []CurveAction `json:"curves"`
	Skipped []int         `json:"skipped"`
	Before  ids.Counters  `json:"counters_before"`
	After   ids.Counters  `json:"counters_after"`
}

// Changed reports whether the run modified the project.
func (r Report) Changed() bool {
	return len(r.Curves) > 0 || r.Before != r.After
}

// Migrate brings every curve of p into canonical form and raises the id counters above every id
// present. The returned error, if any, is a *project.ReferentialIntegrityError describing
// references that remain broken; the migration itself has still been applied.
func Migrate(p *project.Project, tolerance float64) (Report, error) {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if p.IDs == nil {
		p.IDs = ids.New()
	}
	r := Report{Before: p.IDs.Counters()}
	// New points and lines must not collide with ids already in the file.
	p.RehydrateIDs()

	m := &migrator{p: p, tolerance: tolerance}
	for _, c := range p.Curves() {
		act, ok := m.curve(c)
		if !ok {
			r.Skipped = append(r.Skipped, c.ID)
			logging.Logger().Warn("migrate: curve has no arc data, skipped", "curve", c.ID)
			continue
		}
		if act.changed() {
			r.Curves = append(r.Curves, act)
			logging.Logger().Info("curve migrated", "curve", c.ID, "matched", act.Matched,
				"synthesized", act.Synthesized, "base_line_created", act.BaseLineCreated)
		}
	}
	p.RehydrateIDs()
	r.After = p.IDs.Counters()

	return r, p.CheckIntegrity()
}

type migrator struct {
	p         *project.Project
	tolerance float64
}

func (m *migrator) curve(c *project.Curve) (CurveAction, bool) {
	act := CurveAction{CurveID: c.ID}

	if len(c.ArcPointIDs) == 0 {
		switch {
		case len(c.ArcPointsPDF) >= 2:
			c.ArcPointIDs = m.fromSamples(c, &act)
		case m.p.HasPoint(c.StartID) && m.p.HasPoint(c.EndID) && c.StartID != c.EndID:
			c.ArcPointIDs = []int{c.StartID, c.EndID}
			act.EndsFixed = true
		default:
			return act, false
		}
	}

	arc := c.ArcPointIDs
	if first, last := arc[0], arc[len(arc)-1]; c.StartID != first || c.EndID != last {
		c.StartID, c.EndID = first, last
		act.EndsFixed = true
	}

	if c.StartID != c.EndID && (c.BaseLineID == 0 || m.p.Line(c.BaseLineID) == nil) {
		if l := m.p.FindLineEither(c.StartID, c.EndID); l != nil {
			c.BaseLineID = l.ID
			act.BaseLineLinked = true
		} else {
			l := &project.Line{ID: m.p.IDs.NextLine(), StartID: c.StartID, EndID: c.EndID}
			m.p.AddLine(l)
			c.BaseLineID = l.ID
			act.BaseLineCreated = true
		}
	}

	if rows := m.arcReal(c); !equalRows(rows, c.ArcPointsReal) {
		c.ArcPointsReal = rows
		act.RealRefreshed = true
	}
	return act, true
}

// fromSamples resolves raw page samples to point ids. The first and last sample resolve to the
// curve's declared endpoints when those exist.
func (m *migrator) fromSamples(c *project.Curve, act *CurveAction) []int {
	level := int(math.Round(c.ZLevel))
	n := len(c.ArcPointsPDF)
	out := make([]int, 0, n)
	for i, s := range c.ArcPointsPDF {
		sample := geometry.Point2D{X: s[0], Y: s[1]}
		var id int
		switch {
		case i == 0 && m.p.HasPoint(c.StartID):
			id = c.StartID
		case i == n-1 && m.p.HasPoint(c.EndID):
			id = c.EndID
		default:
			if pt := m.nearest(sample, level); pt != nil {
				id = pt.ID
				act.Matched++
			} else {
				id = m.synthesize(sample, c.ZLevel)
				act.Synthesized++
			}
		}
		if len(out) > 0 && out[len(out)-1] == id {
			continue
		}
		out = append(out, id)
	}
	return out
}

// nearest returns the closest point at level within tolerance of sample in page space, lowest id
// first on ties.
func (m *migrator) nearest(sample geometry.Point2D, level int) *project.Point {
	var best *project.Point
	bestDist := math.Inf(1)
	for _, pt := range m.p.Points() {
		if pt.Level() != level {
			continue
		}
		d := pt.Source().Distance(sample)
		if d <= m.tolerance && d < bestDist {
			best, bestDist = pt, d
		}
	}
	return best
}

func (m *migrator) synthesize(sample geometry.Point2D, z float64) int {
	rx, ry := m.p.Transform.TransformPoint(sample.X, sample.Y)
	pt := &project.Point{
		ID:    m.p.IDs.NextPoint(),
		RealX: rx,
		RealY: ry,
		Z:     z,
		PDFX:  sample.X,
		PDFY:  sample.Y,
	}
	m.p.AddPoint(pt)
	return pt.ID
}

// arcReal builds the cached arc coordinates from the arc points. An id that does not resolve
// keeps the existing row when there is one and otherwise sits at the curve's elevation.
func (m *migrator) arcReal(c *project.Curve) [][3]float64 {
	out := make([][3]float64, len(c.ArcPointIDs))
	for i, id := range c.ArcPointIDs {
		if pt := m.p.Point(id); pt != nil {
			out[i] = [3]float64{pt.RealX, pt.RealY, pt.Z}
			continue
		}
		switch {
		case i < len(c.ArcPointsReal):
			out[i] = c.ArcPointsReal[i]
		case i < len(c.ArcPointsPDF):
			x, y := m.p.Transform.TransformPoint(c.ArcPointsPDF[i][0], c.ArcPointsPDF[i][1])
			out[i] = [3]float64{x, y, c.ZLevel}
		default:
			out[i] = [3]float64{0, 0, c.ZLevel}
		}
	}
	return out
}

func equalRows(a, b [][3]float64) bool {
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
