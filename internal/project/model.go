package project

import (
	"encoding/json"
	"fmt"

	"plan-digitizer/pkg/geometry"
)

// Point is a digitized position. PDFX/PDFY hold the page coordinate the point was clicked at.
type Point struct {
	ID          int     `json:"id"`
	RealX       float64 `json:"real_x"`
	RealY       float64 `json:"real_y"`
	Z           float64 `json:"z"`
	PDFX        float64 `json:"pdf_x"`
	PDFY        float64 `json:"pdf_y"`
	Hidden      bool    `json:"hidden"`
	Description string  `json:"description,omitempty"`

	// JustDuplicated marks a point created by a duplicate operation; cleared on first edit.
	JustDuplicated bool `json:"-"`

	// Extra carries fields this package does not interpret (display state and the like).
	Extra map[string]json.RawMessage `json:"-"`
}

// Real returns the real-world position including elevation.
func (p *Point) Real() geometry.Point3D {
	return geometry.Point3D{X: p.RealX, Y: p.RealY, Z: p.Z}
}

// Source returns the page coordinate.
func (p *Point) Source() geometry.Point2D {
	return geometry.Point2D{X: p.PDFX, Y: p.PDFY}
}

// Level is the elevation rounded to its integer level.
func (p *Point) Level() int {
	return roundLevel(p.Z)
}

// Line is a directed straight connection from StartID to EndID.
type Line struct {
	ID          int    `json:"id"`
	StartID     int    `json:"start_id"`
	EndID       int    `json:"end_id"`
	Hidden      bool   `json:"hidden"`
	Description string `json:"description,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Touches reports whether the line has pointID as an endpoint.
func (l *Line) Touches(pointID int) bool {
	return l.StartID == pointID || l.EndID == pointID
}

// Other returns the endpoint opposite pointID.
func (l *Line) Other(pointID int) int {
	if l.StartID == pointID {
		return l.EndID
	}
	return l.StartID
}

// Curve is a circular arc through ArcPointIDs. The first and last arc point are StartID and EndID.
// BaseLineID is 0 when the curve has no base line.
type Curve struct {
	ID            int          `json:"id"`
	StartID       int          `json:"start_id"`
	EndID         int          `json:"end_id"`
	BaseLineID    int          `json:"base_line_id,omitempty"`
	ArcPointIDs   []int        `json:"arc_point_ids,omitempty"`
	ArcPointsReal [][3]float64 `json:"arc_points_real,omitempty"`
	ZLevel        float64      `json:"z_level"`
	Hidden        bool         `json:"hidden"`
	Description   string       `json:"description,omitempty"`

	// Fitted circle; absent on legacy curves.
	Center     *geometry.Point2D `json:"center,omitempty"`
	Radius     float64           `json:"radius,omitempty"`
	StartAngle float64           `json:"start_angle,omitempty"`
	EndAngle   float64           `json:"end_angle,omitempty"`

	// ArcPointsPDF holds raw page samples along the arc, as written by older project files.
	ArcPointsPDF [][2]float64 `json:"arc_points_pdf,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// PointSet returns every point the curve references, each once.
func (c *Curve) PointSet() []int {
	seen := make(map[int]bool, len(c.ArcPointIDs)+2)
	out := make([]int, 0, len(c.ArcPointIDs)+2)
	add := func(id int) {
		if id == 0 || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}
	add(c.StartID)
	for _, id := range c.ArcPointIDs {
		add(id)
	}
	add(c.EndID)
	return out
}

// Touches reports whether the curve references pointID as an endpoint or arc point.
func (c *Curve) Touches(pointID int) bool {
	if c.StartID == pointID || c.EndID == pointID {
		return true
	}
	for _, id := range c.ArcPointIDs {
		if id == pointID {
			return true
		}
	}
	return false
}

// IsInterior reports whether pointID appears in the arc but is neither endpoint.
func (c *Curve) IsInterior(pointID int) bool {
	if c.StartID == pointID || c.EndID == pointID {
		return false
	}
	for _, id := range c.ArcPointIDs {
		if id == pointID {
			return true
		}
	}
	return false
}

// Interior returns the arc point ids between the endpoints.
func (c *Curve) Interior() []int {
	if len(c.ArcPointIDs) <= 2 {
		return nil
	}
	return c.ArcPointIDs[1 : len(c.ArcPointIDs)-1]
}

type pointAlias Point
type lineAlias Line
type curveAlias Curve

var (
	pointKeys = keySet("id", "real_x", "real_y", "z", "pdf_x", "pdf_y", "hidden", "description")
	lineKeys  = keySet("id", "start_id", "end_id", "hidden", "description")
	curveKeys = keySet("id", "start_id", "end_id", "base_line_id", "arc_point_ids", "arc_points_real",
		"z_level", "hidden", "description", "center", "radius", "start_angle", "end_angle", "arc_points_pdf")
)

// MarshalJSON writes known fields plus any preserved extras.
func (p *Point) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal((*pointAlias)(p))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, p.Extra)
}

// UnmarshalJSON reads known fields and keeps the rest in Extra.
func (p *Point) UnmarshalJSON(data []byte) error {
	var a pointAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decode point: %w", err)
	}
	extra, err := splitExtra(data, pointKeys)
	if err != nil {
		return fmt.Errorf("decode point: %w", err)
	}
	*p = Point(a)
	p.Extra = extra
	return nil
}

// MarshalJSON writes known fields plus any preserved extras.
func (l *Line) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal((*lineAlias)(l))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, l.Extra)
}

// UnmarshalJSON reads known fields and keeps the rest in Extra.
func (l *Line) UnmarshalJSON(data []byte) error {
	var a lineAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decode line: %w", err)
	}
	extra, err := splitExtra(data, lineKeys)
	if err != nil {
		return fmt.Errorf("decode line: %w", err)
	}
	*l = Line(a)
	l.Extra = extra
	return nil
}

// MarshalJSON writes known fields plus any preserved extras.
func (c *Curve) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal((*curveAlias)(c))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, c.Extra)
}

// UnmarshalJSON reads known fields and keeps the rest in Extra.
func (c *Curve) UnmarshalJSON(data []byte) error {
	var a curveAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decode curve: %w", err)
	}
	extra, err := splitExtra(data, curveKeys)
	if err != nil {
		return fmt.Errorf("decode curve: %w", err)
	}
	*c = Curve(a)
	c.Extra = extra
	return nil
}

func keySet(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

func splitExtra(data []byte, known map[string]bool) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	var extra map[string]json.RawMessage
	for k, v := range all {
		if known[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra, nil
}

func mergeExtra(base []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return base, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(base, &all); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}
