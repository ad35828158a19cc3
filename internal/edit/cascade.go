package edit

import (
	"sort"

	"plan-digitizer/internal/logging"
	"plan-digitizer/internal/project"
)

// CascadeDeletePoint removes a point together with every line and curve touching it, the base
// lines of those curves, and any point left without references afterwards.
func (e *Editor) CascadeDeletePoint(id int) (DeletionResult, error) {
	if !e.project.HasPoint(id) {
		return DeletionResult{}, missingPoint(id)
	}
	return e.CascadeDeletePoints([]int{id})
}

// CascadeDeletePoints performs the cascade for a set of points in one pass over a single
// reference table. The result equals cascading each point in turn. Ids that do not exist are skipped.
func (e *Editor) CascadeDeletePoints(ids []int) (DeletionResult, error) {
	targets := make(map[int]bool, len(ids))
	for _, id := range ids {
		if !e.project.HasPoint(id) {
			logging.Logger().Warn("cascade: point not found, skipping", "id", id)
			continue
		}
		targets[id] = true
	}
	if len(targets) == 0 {
		return DeletionResult{}, nil
	}

	refs := e.project.RefTable()
	deadLines := make(map[int]*project.Line)
	deadCurves := make(map[int]*project.Curve)

	for _, c := range e.project.Curves() {
		for _, pid := range c.PointSet() {
			if targets[pid] {
				deadCurves[c.ID] = c
				break
			}
		}
	}
	for _, c := range deadCurves {
		if base := e.project.Line(c.BaseLineID); base != nil && !sharedBaseLine(e.project, c, deadCurves) {
			deadLines[base.ID] = base
		}
	}
	for _, l := range e.project.Lines() {
		if targets[l.StartID] || targets[l.EndID] {
			deadLines[l.ID] = l
		}
	}

	// Points touched by doomed entities become orphan candidates.
	candidates := make(map[int]bool)
	for _, l := range deadLines {
		refs[l.StartID]--
		if l.EndID != l.StartID {
			refs[l.EndID]--
		}
		candidates[l.StartID] = true
		candidates[l.EndID] = true
	}
	for _, c := range deadCurves {
		for _, pid := range c.PointSet() {
			refs[pid]--
			candidates[pid] = true
		}
	}

	var res DeletionResult
	for _, lid := range sortedKeys(deadLines) {
		if _, err := e.project.RemoveLine(lid); err == nil {
			res.Lines = append(res.Lines, lid)
		}
	}
	for _, cid := range sortedKeys(deadCurves) {
		if _, err := e.project.RemoveCurve(cid); err == nil {
			res.Curves = append(res.Curves, cid)
		}
	}
	for _, pid := range sortedKeys(targets) {
		if _, err := e.project.RemovePoint(pid); err == nil {
			res.Points = append(res.Points, pid)
		}
	}
	for _, pid := range sortedKeys(candidates) {
		if targets[pid] || refs[pid] > 0 {
			continue
		}
		if _, err := e.project.RemovePoint(pid); err == nil {
			res.Points = append(res.Points, pid)
		}
	}
	res.sort()
	logging.Logger().Info("cascade delete", "targets", len(targets),
		"points", len(res.Points), "lines", len(res.Lines), "curves", len(res.Curves))
	return res, nil
}

// sharedBaseLine reports whether c's base line also serves a curve that survives the cascade.
func sharedBaseLine(p *project.Project, c *project.Curve, dead map[int]*project.Curve) bool {
	for _, other := range p.Curves() {
		if other.ID != c.ID && other.BaseLineID == c.BaseLineID && dead[other.ID] == nil {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
