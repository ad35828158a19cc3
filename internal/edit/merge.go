package edit

import (
	"fmt"
	"math"
	"sort"

	"plan-digitizer/internal/logging"
)

// ReassignResult reports what ReassignReferences rewrote.
type ReassignResult struct {
	Lines     []int
	Curves    []int
	Collapsed []int // lines left untouched because both ends would become the same point
	Warnings  []string
}

// ReassignReferences points every line and curve reference to sourceID at targetID instead.
// A line whose two endpoints would collapse onto targetID is not rewritten; it is reported in
// Collapsed with a warning so the caller decides what to do with it.
func (e *Editor) ReassignReferences(sourceID, targetID int) (ReassignResult, error) {
	if !e.project.HasPoint(sourceID) {
		return ReassignResult{}, missingPoint(sourceID)
	}
	if !e.project.HasPoint(targetID) {
		return ReassignResult{}, missingPoint(targetID)
	}
	var res ReassignResult
	if sourceID == targetID {
		return res, nil
	}

	for _, l := range e.project.LinesTouching(sourceID) {
		start, end := l.StartID, l.EndID
		if start == sourceID {
			start = targetID
		}
		if end == sourceID {
			end = targetID
		}
		if start == end {
			msg := fmt.Sprintf("line %d would collapse to point %d; left unchanged", l.ID, targetID)
			res.Collapsed = append(res.Collapsed, l.ID)
			res.Warnings = append(res.Warnings, msg)
			logging.Logger().Warn("reassign: collapsed line", "line", l.ID, "point", targetID)
			continue
		}
		l.StartID, l.EndID = start, end
		res.Lines = append(res.Lines, l.ID)
	}

	for _, c := range e.project.CurvesTouching(sourceID) {
		if c.StartID == sourceID {
			c.StartID = targetID
		}
		if c.EndID == sourceID {
			c.EndID = targetID
		}
		for i, pid := range c.ArcPointIDs {
			if pid == sourceID {
				c.ArcPointIDs[i] = targetID
			}
		}
		if c.StartID == c.EndID {
			res.Warnings = append(res.Warnings, fmt.Sprintf("curve %d now starts and ends at point %d", c.ID, targetID))
		}
		e.refreshArcReal(c)
		res.Curves = append(res.Curves, c.ID)
	}
	return res, nil
}

// MergeResult reports what MergeDuplicatePoints changed.
type MergeResult struct {
	// Merged maps each surviving point to the ids folded into it.
	Merged       map[int][]int
	RemovedLines []int
	Warnings     []string
}

type coordKey struct {
	x, y, z float64
}

// MergeDuplicatePoints folds points sharing the same position and elevation (after rounding to
// decimals places) into the lowest id of each group. References are reassigned to the survivor,
// lines that would collapse are deleted, and the other points are removed.
func (e *Editor) MergeDuplicatePoints(decimals int) (MergeResult, error) {
	scale := math.Pow(10, float64(decimals))
	round := func(v float64) float64 { return math.Round(v*scale) / scale }

	groups := make(map[coordKey][]int)
	for _, pt := range e.project.Points() {
		k := coordKey{round(pt.RealX), round(pt.RealY), round(pt.Z)}
		groups[k] = append(groups[k], pt.ID)
	}

	res := MergeResult{Merged: make(map[int][]int)}
	canonicals := make([]int, 0)
	byCanonical := make(map[int][]int)
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		// Points() is ordered by id, so members[0] is the lowest.
		byCanonical[members[0]] = members[1:]
		canonicals = append(canonicals, members[0])
	}
	sort.Ints(canonicals)

	for _, keep := range canonicals {
		for _, dup := range byCanonical[keep] {
			r, err := e.ReassignReferences(dup, keep)
			if err != nil {
				return res, err
			}
			res.Warnings = append(res.Warnings, r.Warnings...)
			for _, lid := range r.Collapsed {
				if c := e.project.CurveByBaseLine(lid); c != nil {
					c.BaseLineID = 0
				}
				if err := e.DeleteLine(lid); err == nil {
					res.RemovedLines = append(res.RemovedLines, lid)
				}
			}
			if err := e.DeletePoint(dup, false); err != nil {
				return res, err
			}
			res.Merged[keep] = append(res.Merged[keep], dup)
		}
	}
	if len(res.Merged) > 0 {
		logging.Logger().Info("duplicate points merged", "groups", len(res.Merged), "removed_lines", len(res.RemovedLines))
	}
	return res, nil
}
