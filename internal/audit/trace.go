package audit

import (
	"fmt"
	"sort"

	"plan-digitizer/internal/project"
)

// DefaultMaxDepth bounds a trace when the caller passes a non-positive depth.
const DefaultMaxDepth = 1000

// TraceResult lists what a trace reached. All slices are sorted by id.
type TraceResult struct {
	Start  int   `json:"start"`
	Points []int `json:"points"`
	Lines  []int `json:"lines"`
	Curves []int `json:"curves"`
	// Endpoints are reached points with nowhere further to go: no outgoing edge for a directional
	// trace, a single neighbour for an undirected one.
	Endpoints []int `json:"endpoints"`
	// Branches are reached points that fork: more than one distinct outgoing target for a
	// directional trace, more than two neighbours for an undirected one.
	Branches []int `json:"branches"`
	// Truncated is set when the depth limit stopped the walk.
	Truncated bool `json:"truncated"`
}

type edge struct {
	to    int
	line  int
	curve int
}

type graph map[int][]edge

// buildGraph collects line and curve edges between their end points. With directed set only the
// start->end direction is recorded.
func buildGraph(p *project.Project, directed bool) graph {
	g := make(graph)
	for _, l := range p.Lines() {
		g[l.StartID] = append(g[l.StartID], edge{to: l.EndID, line: l.ID})
		if !directed {
			g[l.EndID] = append(g[l.EndID], edge{to: l.StartID, line: l.ID})
		}
	}
	for _, c := range p.Curves() {
		if c.StartID == 0 || c.EndID == 0 {
			continue
		}
		g[c.StartID] = append(g[c.StartID], edge{to: c.EndID, curve: c.ID})
		if !directed {
			g[c.EndID] = append(g[c.EndID], edge{to: c.StartID, curve: c.ID})
		}
	}
	return g
}

func (g graph) neighbours(id int) map[int]bool {
	out := make(map[int]bool)
	for _, e := range g[id] {
		if e.to != id {
			out[e.to] = true
		}
	}
	return out
}

// TraceDirectional walks depth-first from start following lines and curves only from their
// start point to their end point.
func TraceDirectional(p *project.Project, start, maxDepth int) (TraceResult, error) {
	return walk(p, start, maxDepth, true)
}

// TraceConnected walks depth-first from start following lines and curves in either direction.
func TraceConnected(p *project.Project, start, maxDepth int) (TraceResult, error) {
	return walk(p, start, maxDepth, false)
}

func walk(p *project.Project, start, maxDepth int, directed bool) (TraceResult, error) {
	if !p.HasPoint(start) {
		return TraceResult{}, fmt.Errorf("trace: %w: %d", project.ErrPointNotFound, start)
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	g := buildGraph(p, directed)

	visited := map[int]bool{}
	lines := map[int]bool{}
	curves := map[int]bool{}
	res := TraceResult{Start: start}

	var visit func(id, depth int)
	visit = func(id, depth int) {
		visited[id] = true
		for _, e := range g[id] {
			if e.line != 0 {
				lines[e.line] = true
			}
			if e.curve != 0 {
				curves[e.curve] = true
			}
			if visited[e.to] || !p.HasPoint(e.to) {
				continue
			}
			if depth+1 > maxDepth {
				res.Truncated = true
				continue
			}
			visit(e.to, depth+1)
		}
	}
	visit(start, 0)

	for id := range visited {
		n := len(g.neighbours(id))
		if directed {
			if n == 0 {
				res.Endpoints = append(res.Endpoints, id)
			} else if n > 1 {
				res.Branches = append(res.Branches, id)
			}
			continue
		}
		if n <= 1 {
			res.Endpoints = append(res.Endpoints, id)
		} else if n > 2 {
			res.Branches = append(res.Branches, id)
		}
	}
	res.Points = sortedSet(visited)
	res.Lines = sortedSet(lines)
	res.Curves = sortedSet(curves)
	sort.Ints(res.Endpoints)
	sort.Ints(res.Branches)
	return res, nil
}

func sortedSet(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
