package edit

import (
	"fmt"
	"sort"

	"plan-digitizer/internal/logging"
	"plan-digitizer/internal/project"
	"plan-digitizer/pkg/geometry"
)

// NormalizeCurves brings every curve to exactly interiorCount+2 arc points and returns the ids
// of the curves it changed.
//
// Short arcs gain interior points interpolated linearly in page space between neighbouring arc
// points, placed at the curve's elevation; the longest page-space gaps are filled first. When a
// neighbour is missing the arc is padded by repeating its last id instead. Long arcs are thinned
// evenly, keeping both ends, and points no longer referenced are deleted. A negative
// interiorCount is rejected before anything changes.
func (e *Editor) NormalizeCurves(interiorCount int) ([]int, error) {
	if interiorCount < 0 {
		return nil, fmt.Errorf("interior count must not be negative, got %d", interiorCount)
	}
	n := interiorCount + 2
	var changed []int
	for _, c := range e.project.Curves() {
		if len(c.ArcPointIDs) == 0 && (c.StartID == 0 || c.EndID == 0) {
			continue
		}
		arc := arcIDs(c)
		if len(arc) == n && len(c.ArcPointIDs) == n {
			continue
		}
		var next []int
		if len(arc) < n {
			next = e.densify(c, arc, n)
		} else {
			next = project.ResampleIDs(arc, n)
		}
		dropped := difference(arc, next)
		c.ArcPointIDs = next
		c.StartID, c.EndID = next[0], next[len(next)-1]
		e.refreshArcReal(c)
		for _, pid := range dropped {
			if e.project.HasPoint(pid) && e.project.RefCount(pid) == 0 {
				if err := e.DeletePoint(pid, true); err != nil {
					logging.Logger().Warn("normalize: dropped point not deleted", "curve", c.ID, "point", pid, "err", err)
				}
			}
		}
		changed = append(changed, c.ID)
	}
	if len(changed) > 0 {
		logging.Logger().Info("curves normalized", "count", len(changed), "positions", n)
	}
	return changed, nil
}

// densify inserts interpolated points into arc until it has n entries.
func (e *Editor) densify(c *project.Curve, arc []int, n int) []int {
	src := make([]geometry.Point2D, len(arc))
	for i, pid := range arc {
		pt := e.project.Point(pid)
		if pt == nil {
			return project.ResampleIDs(arc, n)
		}
		src[i] = pt.Source()
	}
	if len(arc) < 2 {
		return project.ResampleIDs(arc, n)
	}

	// Hand out the missing positions one at a time to the segment with the longest sub-gap.
	segs := len(arc) - 1
	extra := make([]int, segs)
	length := make([]float64, segs)
	for i := 0; i < segs; i++ {
		length[i] = src[i].Distance(src[i+1])
	}
	for missing := n - len(arc); missing > 0; missing-- {
		best := 0
		for i := 1; i < segs; i++ {
			if length[i]/float64(extra[i]+1) > length[best]/float64(extra[best]+1) {
				best = i
			}
		}
		extra[best]++
	}

	out := make([]int, 0, n)
	for i := 0; i < segs; i++ {
		out = append(out, arc[i])
		for k := 1; k <= extra[i]; k++ {
			p := src[i].Lerp(src[i+1], float64(k)/float64(extra[i]+1))
			rx, ry := e.project.Transform.TransformPoint(p.X, p.Y)
			pt := &project.Point{
				ID:    e.project.IDs.NextPoint(),
				RealX: rx,
				RealY: ry,
				Z:     c.ZLevel,
				PDFX:  p.X,
				PDFY:  p.Y,
			}
			e.project.AddPoint(pt)
			out = append(out, pt.ID)
		}
	}
	return append(out, arc[len(arc)-1])
}

// difference returns the ids in a that do not appear in b, sorted.
func difference(a, b []int) []int {
	keep := make(map[int]bool, len(b))
	for _, id := range b {
		keep[id] = true
	}
	seen := make(map[int]bool)
	var out []int
	for _, id := range a {
		if !keep[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}
