// Package ids issues monotonic identifiers for points, lines and curves.
package ids

// Counters is the persisted allocator state. Each value is the next id to issue.
type Counters struct {
	Point int `json:"point_counter"`
	Line  int `json:"line_counter"`
	Curve int `json:"curve_counter"`
}

// Allocator holds three independent counters. The zero value issues id 1 first.
type Allocator struct {
	next Counters
}

// New returns an allocator whose first ids are 1.
func New() *Allocator {
	return &Allocator{next: Counters{Point: 1, Line: 1, Curve: 1}}
}

// FromCounters restores an allocator from persisted counters.
func FromCounters(c Counters) *Allocator {
	a := New()
	a.Rehydrate(c.Point-1, c.Line-1, c.Curve-1)
	return a
}

// NextPoint issues a point id.
func (a *Allocator) NextPoint() int { return take(&a.next.Point) }

// NextLine issues a line id.
func (a *Allocator) NextLine() int { return take(&a.next.Line) }

// NextCurve issues a curve id.
func (a *Allocator) NextCurve() int { return take(&a.next.Curve) }

func take(c *int) int {
	if *c < 1 {
		*c = 1
	}
	id := *c
	*c++
	return id
}

// Rehydrate raises each counter to at least max+1 so loaded ids are never reissued.
// Counters never move backwards.
func (a *Allocator) Rehydrate(maxPoint, maxLine, maxCurve int) {
	raise(&a.next.Point, maxPoint+1)
	raise(&a.next.Line, maxLine+1)
	raise(&a.next.Curve, maxCurve+1)
}

func raise(c *int, floor int) {
	if *c < floor {
		*c = floor
	}
}

// Counters returns a copy of the current state.
func (a *Allocator) Counters() Counters {
	c := a.next
	raise(&c.Point, 1)
	raise(&c.Line, 1)
	raise(&c.Curve, 1)
	return c
}
