// Package audit runs read-only consistency checks over a project and traces its connectivity.
//
// Findings are advisory: every check returns Issue values and never mutates the project.
package audit

import (
	"fmt"
	"sort"

	"plan-digitizer/internal/logging"
	"plan-digitizer/internal/project"
	"plan-digitizer/pkg/geometry"
)

// IssueKind classifies a finding.
type IssueKind string

const (
	KindZMismatch         IssueKind = "z_mismatch"
	KindIsolatedPoint     IssueKind = "isolated_point"
	KindZeroLengthLine    IssueKind = "zero_length_line"
	KindDuplicateLine     IssueKind = "duplicate_line"
	KindOverlappingPoints IssueKind = "overlapping_points"
	KindDanglingReference IssueKind = "dangling_reference"
)

// DefaultOverlapTolerance is the coordinate+elevation distance under which two points overlap.
const DefaultOverlapTolerance = 0.001

// Issue is one non-fatal finding.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
	IDs     []int     `json:"ids"`
}

func (i Issue) String() string { return i.Message }

// Messages flattens issues to their human-readable text.
func Messages(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Message
	}
	return out
}

// ValidateZ flags lines whose endpoints sit on different elevations and curves whose arc points do
// not share the first arc point's elevation. Elevations are compared after rounding to integers.
func ValidateZ(p *project.Project) []Issue {
	var issues []Issue
	for _, l := range p.Lines() {
		s, e := p.Point(l.StartID), p.Point(l.EndID)
		if s == nil || e == nil {
			continue
		}
		if s.Level() != e.Level() {
			issues = append(issues, Issue{
				Kind:    KindZMismatch,
				Message: fmt.Sprintf("line %d: start point %d at z=%d, end point %d at z=%d", l.ID, s.ID, s.Level(), e.ID, e.Level()),
				IDs:     []int{l.ID, s.ID, e.ID},
			})
		}
	}
	for _, c := range p.Curves() {
		arc := c.ArcPointIDs
		if len(arc) == 0 {
			arc = []int{c.StartID, c.EndID}
		}
		first := p.Point(arc[0])
		if first == nil {
			continue
		}
		var off []int
		for _, id := range arc[1:] {
			if pt := p.Point(id); pt != nil && pt.Level() != first.Level() {
				off = append(off, id)
			}
		}
		if len(off) > 0 {
			issues = append(issues, Issue{
				Kind:    KindZMismatch,
				Message: fmt.Sprintf("curve %d: arc points %v differ from z=%d of point %d", c.ID, off, first.Level(), first.ID),
				IDs:     append([]int{c.ID}, off...),
			})
		}
	}
	return issues
}

// IsolatedPoints flags points no line or curve references.
func IsolatedPoints(p *project.Project) []Issue {
	refs := p.RefTable()
	var issues []Issue
	for _, pt := range p.Points() {
		if refs[pt.ID] == 0 {
			issues = append(issues, Issue{
				Kind:    KindIsolatedPoint,
				Message: fmt.Sprintf("point %d is not used by any line or curve", pt.ID),
				IDs:     []int{pt.ID},
			})
		}
	}
	return issues
}

// ZeroLengthLines flags lines starting and ending at the same point.
func ZeroLengthLines(p *project.Project) []Issue {
	var issues []Issue
	for _, l := range p.Lines() {
		if l.StartID == l.EndID {
			issues = append(issues, Issue{
				Kind:    KindZeroLengthLine,
				Message: fmt.Sprintf("line %d starts and ends at point %d", l.ID, l.StartID),
				IDs:     []int{l.ID},
			})
		}
	}
	return issues
}

// DuplicateLines flags groups of lines joining the same unordered pair of points.
func DuplicateLines(p *project.Project) []Issue {
	type pair struct{ a, b int }
	groups := make(map[pair][]int)
	var order []pair
	for _, l := range p.Lines() {
		k := pair{l.StartID, l.EndID}
		if k.a > k.b {
			k.a, k.b = k.b, k.a
		}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], l.ID)
	}
	var issues []Issue
	for _, k := range order {
		ids := groups[k]
		if len(ids) < 2 {
			continue
		}
		issues = append(issues, Issue{
			Kind:    KindDuplicateLine,
			Message: fmt.Sprintf("lines %v all join points %d and %d", ids, k.a, k.b),
			IDs:     ids,
		})
	}
	return issues
}

// OverlappingPoints flags pairs of distinct points closer than tolerance in x, y and z combined.
func OverlappingPoints(p *project.Project, tolerance float64) []Issue {
	pts := p.Points()
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].RealX < pts[j].RealX })

	var issues []Issue
	for i, a := range pts {
		for _, b := range pts[i+1:] {
			if b.RealX-a.RealX > tolerance {
				break
			}
			if geometry.Distance3D(a.RealX, a.RealY, a.Z, b.RealX, b.RealY, b.Z) > tolerance {
				continue
			}
			lo, hi := a.ID, b.ID
			if lo > hi {
				lo, hi = hi, lo
			}
			issues = append(issues, Issue{
				Kind:    KindOverlappingPoints,
				Message: fmt.Sprintf("points %d and %d overlap", lo, hi),
				IDs:     []int{lo, hi},
			})
		}
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].IDs[0] != issues[j].IDs[0] {
			return issues[i].IDs[0] < issues[j].IDs[0]
		}
		return issues[i].IDs[1] < issues[j].IDs[1]
	})
	return issues
}

// DanglingReferences flags lines and curves naming points or base lines that do not exist.
func DanglingReferences(p *project.Project) []Issue {
	var issues []Issue
	for _, l := range p.Lines() {
		for _, id := range []int{l.StartID, l.EndID} {
			if !p.HasPoint(id) {
				issues = append(issues, Issue{
					Kind:    KindDanglingReference,
					Message: fmt.Sprintf("line %d references missing point %d", l.ID, id),
					IDs:     []int{l.ID, id},
				})
			}
		}
	}
	for _, c := range p.Curves() {
		for _, id := range c.PointSet() {
			if !p.HasPoint(id) {
				issues = append(issues, Issue{
					Kind:    KindDanglingReference,
					Message: fmt.Sprintf("curve %d references missing point %d", c.ID, id),
					IDs:     []int{c.ID, id},
				})
			}
		}
		if c.BaseLineID != 0 && p.Line(c.BaseLineID) == nil {
			issues = append(issues, Issue{
				Kind:    KindDanglingReference,
				Message: fmt.Sprintf("curve %d references missing base line %d", c.ID, c.BaseLineID),
				IDs:     []int{c.ID, c.BaseLineID},
			})
		}
	}
	return issues
}

// Options tunes Run.
type Options struct {
	OverlapTolerance float64
}

// Report aggregates every check.
type Report struct {
	Points int     `json:"points"`
	Lines  int     `json:"lines"`
	Curves int     `json:"curves"`
	Issues []Issue `json:"issues"`
}

// Count returns how many issues of kind were found.
func (r Report) Count(kind IssueKind) int {
	n := 0
	for _, is := range r.Issues {
		if is.Kind == kind {
			n++
		}
	}
	return n
}

// Clean reports whether no issue was found.
func (r Report) Clean() bool { return len(r.Issues) == 0 }

// Run executes every check in a fixed order.
func Run(p *project.Project, opts Options) Report {
	tol := opts.OverlapTolerance
	if tol <= 0 {
		tol = DefaultOverlapTolerance
	}
	var r Report
	r.Points, r.Lines, r.Curves = p.Counts()
	r.Issues = append(r.Issues, DanglingReferences(p)...)
	r.Issues = append(r.Issues, ValidateZ(p)...)
	r.Issues = append(r.Issues, ZeroLengthLines(p)...)
	r.Issues = append(r.Issues, DuplicateLines(p)...)
	r.Issues = append(r.Issues, IsolatedPoints(p)...)
	r.Issues = append(r.Issues, OverlappingPoints(p, tol)...)
	logging.Logger().Info("audit complete", "points", r.Points, "lines", r.Lines,
		"curves", r.Curves, "issues", len(r.Issues))
	return r
}
