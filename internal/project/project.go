// Package project holds the in-memory digitizer graph and its persisted file form.
package project

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"time"

	"plan-digitizer/internal/calibration"
	"plan-digitizer/internal/ids"
	"plan-digitizer/internal/logging"
)

var (
	ErrPointNotFound = errors.New("point not found")
	ErrLineNotFound  = errors.New("line not found")
	ErrCurveNotFound = errors.New("curve not found")
)

// Kind names an entity collection.
type Kind string

const (
	KindPoint Kind = "point"
	KindLine  Kind = "line"
	KindCurve Kind = "curve"
)

// DeletionRecord captures an entity as it was just before removal.
type DeletionRecord struct {
	Kind  Kind            `json:"kind"`
	ID    int             `json:"id"`
	State json.RawMessage `json:"state"`
	At    time.Time       `json:"at"`
}

// Project is the arena of points, lines and curves keyed by id. All cross references are ids.
type Project struct {
	// Calibration reference pairs, page then real.
	CalibrationPixel [][2]float64
	CalibrationReal  [][2]float64
	Transform        *calibration.Transform

	IDs *ids.Allocator

	points map[int]*Point
	lines  map[int]*Line
	curves map[int]*Curve

	deletions []DeletionRecord

	// Extra carries top-level fields this package does not interpret.
	Extra map[string]json.RawMessage
}

// New returns an empty, uncalibrated project.
func New() *Project {
	return &Project{
		IDs:    ids.New(),
		points: make(map[int]*Point),
		lines:  make(map[int]*Line),
		curves: make(map[int]*Curve),
	}
}

// Point returns the point with id, or nil.
func (p *Project) Point(id int) *Point { return p.points[id] }

// Line returns the line with id, or nil.
func (p *Project) Line(id int) *Line { return p.lines[id] }

// Curve returns the curve with id, or nil.
func (p *Project) Curve(id int) *Curve { return p.curves[id] }

// HasPoint reports whether id names an existing point.
func (p *Project) HasPoint(id int) bool {
	_, ok := p.points[id]
	return ok
}

// Points returns all points ordered by id.
func (p *Project) Points() []*Point {
	out := make([]*Point, 0, len(p.points))
	for _, pt := range p.points {
		out = append(out, pt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lines returns all lines ordered by id.
func (p *Project) Lines() []*Line {
	out := make([]*Line, 0, len(p.lines))
	for _, l := range p.lines {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Curves returns all curves ordered by id.
func (p *Project) Curves() []*Curve {
	out := make([]*Curve, 0, len(p.curves))
	for _, c := range p.curves {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Counts returns the number of points, lines and curves.
func (p *Project) Counts() (points, lines, curves int) {
	return len(p.points), len(p.lines), len(p.curves)
}

// AddPoint stores pt under its id, replacing any previous point with that id.
func (p *Project) AddPoint(pt *Point) { p.points[pt.ID] = pt }

// AddLine stores l under its id.
func (p *Project) AddLine(l *Line) { p.lines[l.ID] = l }

// AddCurve stores c under its id.
func (p *Project) AddCurve(c *Curve) { p.curves[c.ID] = c }

// RemovePoint deletes the point and records its prior state. It does not inspect references.
func (p *Project) RemovePoint(id int) (*Point, error) {
	pt, ok := p.points[id]
	if !ok {
		return nil, ErrPointNotFound
	}
	delete(p.points, id)
	p.record(KindPoint, id, pt)
	return pt, nil
}

// RemoveLine deletes the line and records its prior state.
func (p *Project) RemoveLine(id int) (*Line, error) {
	l, ok := p.lines[id]
	if !ok {
		return nil, ErrLineNotFound
	}
	delete(p.lines, id)
	p.record(KindLine, id, l)
	return l, nil
}

// RemoveCurve deletes the curve and records its prior state. Arc points are left alone.
func (p *Project) RemoveCurve(id int) (*Curve, error) {
	c, ok := p.curves[id]
	if !ok {
		return nil, ErrCurveNotFound
	}
	delete(p.curves, id)
	p.record(KindCurve, id, c)
	return c, nil
}

func (p *Project) record(kind Kind, id int, v json.Marshaler) {
	state, err := v.MarshalJSON()
	if err != nil {
		state = nil
	}
	p.deletions = append(p.deletions, DeletionRecord{Kind: kind, ID: id, State: state, At: time.Now()})
	logging.Logger().Info("entity deleted", "kind", kind, "id", id, "state", string(state))
}

// Deletions returns the deletion log, oldest first.
func (p *Project) Deletions() []DeletionRecord {
	out := make([]DeletionRecord, len(p.deletions))
	copy(out, p.deletions)
	return out
}

// MaxIDs returns the largest point, line and curve ids present.
func (p *Project) MaxIDs() (maxPoint, maxLine, maxCurve int) {
	for id := range p.points {
		maxPoint = max(maxPoint, id)
	}
	for id := range p.lines {
		maxLine = max(maxLine, id)
	}
	for id := range p.curves {
		maxCurve = max(maxCurve, id)
	}
	return maxPoint, maxLine, maxCurve
}

// RehydrateIDs raises the allocator above every id present.
func (p *Project) RehydrateIDs() {
	if p.IDs == nil {
		p.IDs = ids.New()
	}
	p.IDs.Rehydrate(p.MaxIDs())
}

func roundLevel(z float64) int {
	return int(math.Round(z))
}
