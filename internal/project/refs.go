package project

// RefTable returns the reference count of every point that has at least one reference.
// A line counts once per endpoint id; a curve counts once per distinct point it names.
func (p *Project) RefTable() map[int]int {
	counts := make(map[int]int, len(p.points))
	for _, l := range p.lines {
		counts[l.StartID]++
		if l.EndID != l.StartID {
			counts[l.EndID]++
		}
	}
	for _, c := range p.curves {
		for _, id := range c.PointSet() {
			counts[id]++
		}
	}
	return counts
}

// RefCount returns how many lines and curves reference pointID.
func (p *Project) RefCount(pointID int) int {
	n := 0
	for _, l := range p.lines {
		if l.Touches(pointID) {
			n++
		}
	}
	for _, c := range p.curves {
		if c.Touches(pointID) {
			n++
		}
	}
	return n
}

// LinesTouching returns the lines with pointID as an endpoint, ordered by id.
func (p *Project) LinesTouching(pointID int) []*Line {
	var out []*Line
	for _, l := range p.Lines() {
		if l.Touches(pointID) {
			out = append(out, l)
		}
	}
	return out
}

// CurvesTouching returns the curves naming pointID anywhere, ordered by id.
func (p *Project) CurvesTouching(pointID int) []*Curve {
	var out []*Curve
	for _, c := range p.Curves() {
		if c.Touches(pointID) {
			out = append(out, c)
		}
	}
	return out
}

// CurvesWithInterior returns the curves holding pointID as an interior arc point.
func (p *Project) CurvesWithInterior(pointID int) []*Curve {
	var out []*Curve
	for _, c := range p.Curves() {
		if c.IsInterior(pointID) {
			out = append(out, c)
		}
	}
	return out
}

// CurveByBaseLine returns the curve whose base line is lineID, or nil.
func (p *Project) CurveByBaseLine(lineID int) *Curve {
	for _, c := range p.Curves() {
		if c.BaseLineID == lineID {
			return c
		}
	}
	return nil
}

// FindLine returns the first line running from startID to endID, or nil.
func (p *Project) FindLine(startID, endID int) *Line {
	for _, l := range p.Lines() {
		if l.StartID == startID && l.EndID == endID {
			return l
		}
	}
	return nil
}

// FindLineEither returns the first line joining a and b in either direction, or nil.
func (p *Project) FindLineEither(a, b int) *Line {
	if l := p.FindLine(a, b); l != nil {
		return l
	}
	return p.FindLine(b, a)
}

// FindPointAt returns the lowest-id point with exactly these real coordinates and elevation.
func (p *Project) FindPointAt(x, y, z float64) *Point {
	for _, pt := range p.Points() {
		if pt.RealX == x && pt.RealY == y && pt.Z == z {
			return pt
		}
	}
	return nil
}
