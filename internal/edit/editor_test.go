package edit

import (
	"errors"
	"testing"

	"plan-digitizer/internal/project"
	"plan-digitizer/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEditor(t *testing.T, opts ...Option) *Editor {
	t.Helper()
	return New(project.New(), opts...)
}

func calibrated(t *testing.T) *Editor {
	t.Helper()
	e := newEditor(t)
	_, err := e.Calibrate(
		[2]geometry.Point2D{{X: 0, Y: 0}, {X: 100, Y: 0}},
		[2]geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}})
	require.NoError(t, err)
	return e
}

func TestEndToEndScenario(t *testing.T) {
	e := calibrated(t)

	a := e.CreatePoint(50, 0, 0, "")
	assert.InDelta(t, 5, a.RealX, 1e-9)
	assert.InDelta(t, 0, a.RealY, 1e-9)

	b := e.CreatePoint(50, 50, 0, "")
	assert.InDelta(t, 5, b.RealX, 1e-9)
	assert.InDelta(t, 5, b.RealY, 1e-9)

	l, err := e.CreateLine(a.ID, b.ID, "")
	require.NoError(t, err)

	_, err = e.CreateLine(a.ID, a.ID, "")
	assert.ErrorIs(t, err, ErrZeroLengthLine)

	err = e.DeletePoint(a.ID, false)
	var rerr *ReferencedEntityError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, 1, rerr.Count)
	assert.Contains(t, err.Error(), "referenced by 1")

	res, err := e.CascadeDeletePoint(a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{l.ID}, res.Lines)
	assert.Nil(t, e.Project().Point(a.ID))
	assert.Nil(t, e.Project().Line(l.ID))
	// b lost its only reference and goes too.
	assert.Nil(t, e.Project().Point(b.ID))
}

func TestCalibrateDegenerateLeavesProjectUntouched(t *testing.T) {
	e := calibrated(t)
	before := e.Project().Transform

	_, err := e.Calibrate(
		[2]geometry.Point2D{{X: 1, Y: 1}, {X: 1, Y: 1}},
		[2]geometry.Point2D{{X: 0, Y: 0}, {X: 1, Y: 0}})
	require.Error(t, err)
	assert.Same(t, before, e.Project().Transform)
}

func TestUncalibratedCreatePointIsIdentity(t *testing.T) {
	e := newEditor(t)
	pt := e.CreatePoint(12, 34, 3, "manhole")
	assert.Equal(t, 12.0, pt.RealX)
	assert.Equal(t, 34.0, pt.RealY)
	assert.Equal(t, 3.0, pt.Z)
	assert.Equal(t, "manhole", pt.Description)
	assert.Equal(t, 1, pt.ID)
}

func TestCreateLineValidation(t *testing.T) {
	e := newEditor(t)
	p := e.CreatePoint(0, 0, 0, "")

	_, err := e.CreateLine(p.ID, p.ID, "")
	assert.ErrorIs(t, err, ErrZeroLengthLine)
	_, err = e.CreateLine(p.ID, 99, "")
	assert.ErrorIs(t, err, project.ErrPointNotFound)
	_, err = e.CreateLine(99, p.ID, "")
	assert.ErrorIs(t, err, project.ErrPointNotFound)

	_, nl, _ := e.Project().Counts()
	assert.Zero(t, nl)
}

func TestForceDeleteLeavesLineDangling(t *testing.T) {
	e := newEditor(t)
	p := e.CreatePoint(0, 0, 0, "")
	q := e.CreatePoint(1, 0, 0, "")
	l, err := e.CreateLine(p.ID, q.ID, "")
	require.NoError(t, err)

	require.Error(t, e.DeletePoint(p.ID, false))
	assert.NotNil(t, e.Project().Point(p.ID))
	assert.NotNil(t, e.Project().Line(l.ID))

	require.NoError(t, e.DeletePoint(p.ID, true))
	assert.Nil(t, e.Project().Point(p.ID))
	assert.NotNil(t, e.Project().Line(l.ID))
	assert.Error(t, e.Project().CheckIntegrity())

	assert.ErrorIs(t, e.DeletePoint(p.ID, true), project.ErrPointNotFound)
}

func TestDeleteLineKeepsEndpoints(t *testing.T) {
	e := newEditor(t)
	p := e.CreatePoint(0, 0, 0, "")
	q := e.CreatePoint(1, 0, 0, "")
	l, err := e.CreateLine(p.ID, q.ID, "")
	require.NoError(t, err)

	require.NoError(t, e.DeleteLine(l.ID))
	assert.NotNil(t, e.Project().Point(p.ID))
	assert.NotNil(t, e.Project().Point(q.ID))
	assert.ErrorIs(t, e.DeleteLine(l.ID), project.ErrLineNotFound)
}

// chain builds A-B (L1) and B-C (L2).
func chain(t *testing.T) (e *Editor, a, b, c, l1, l2 int) {
	t.Helper()
	e = newEditor(t)
	a = e.CreatePoint(0, 0, 0, "").ID
	b = e.CreatePoint(1, 0, 0, "").ID
	c = e.CreatePoint(2, 0, 0, "").ID
	line1, err := e.CreateLine(a, b, "")
	require.NoError(t, err)
	line2, err := e.CreateLine(b, c, "")
	require.NoError(t, err)
	return e, a, b, c, line1.ID, line2.ID
}

func TestCascadeFromEndpoint(t *testing.T) {
	e, a, b, c, l1, l2 := chain(t)

	res, err := e.CascadeDeletePoint(a)
	require.NoError(t, err)
	assert.Equal(t, []int{a}, res.Points)
	assert.Equal(t, []int{l1}, res.Lines)

	p := e.Project()
	assert.NotNil(t, p.Point(b))
	assert.Equal(t, 1, p.RefCount(b))
	assert.NotNil(t, p.Point(c))
	assert.NotNil(t, p.Line(l2))
}

func TestCascadeFromMiddle(t *testing.T) {
	e, a, b, c, l1, l2 := chain(t)

	res, err := e.CascadeDeletePoint(b)
	require.NoError(t, err)
	assert.Equal(t, []int{a, b, c}, res.Points)
	assert.Equal(t, []int{l1, l2}, res.Lines)

	np, nl, _ := e.Project().Counts()
	assert.Zero(t, np)
	assert.Zero(t, nl)
}

func TestBulkCascadeMatchesSequential(t *testing.T) {
	build := func() (*Editor, []int) {
		e := newEditor(t)
		var ids []int
		for i := 0; i < 6; i++ {
			ids = append(ids, e.CreatePoint(float64(i), 0, 0, "").ID)
		}
		// 1-2, 2-3, 3-4, 5-6 and a spur 2-5.
		for _, pair := range [][2]int{{0, 1}, {1, 2}, {2, 3}, {4, 5}, {1, 4}} {
			_, err := e.CreateLine(ids[pair[0]], ids[pair[1]], "")
			require.NoError(t, err)
		}
		return e, ids
	}

	seq, ids := build()
	for _, id := range []int{ids[0], ids[3]} {
		if seq.Project().HasPoint(id) {
			_, err := seq.CascadeDeletePoint(id)
			require.NoError(t, err)
		}
	}

	bulk, ids := build()
	_, err := bulk.CascadeDeletePoints([]int{ids[0], ids[3], 999})
	require.NoError(t, err)

	pointIDs := func(p *project.Project) []int {
		var out []int
		for _, pt := range p.Points() {
			out = append(out, pt.ID)
		}
		return out
	}
	lineIDs := func(p *project.Project) []int {
		var out []int
		for _, l := range p.Lines() {
			out = append(out, l.ID)
		}
		return out
	}
	assert.Equal(t, pointIDs(seq.Project()), pointIDs(bulk.Project()))
	assert.Equal(t, lineIDs(seq.Project()), lineIDs(bulk.Project()))
}

func TestCascadeMissingPoint(t *testing.T) {
	e := newEditor(t)
	_, err := e.CascadeDeletePoint(5)
	assert.ErrorIs(t, err, project.ErrPointNotFound)

	res, err := e.CascadeDeletePoints([]int{5, 6})
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestDuplicatePoint(t *testing.T) {
	e := calibrated(t)
	src := e.CreatePoint(20, 10, 1, "switch")

	dup, err := e.DuplicatePoint(src.ID, 4)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, dup.ID)
	assert.Equal(t, src.PDFX, dup.PDFX)
	assert.Equal(t, src.PDFY, dup.PDFY)
	assert.Equal(t, src.RealX, dup.RealX)
	assert.Equal(t, "switch", dup.Description)
	assert.Equal(t, 4.0, dup.Z)
	assert.True(t, dup.JustDuplicated)

	require.NoError(t, e.UpdatePoint(dup.ID, "switch B"))
	assert.False(t, dup.JustDuplicated)

	_, err = e.DuplicatePoint(404, 1)
	assert.ErrorIs(t, err, project.ErrPointNotFound)
}

func TestDuplicateLine(t *testing.T) {
	e := newEditor(t)
	a := e.CreatePoint(0, 0, 0, "")
	b := e.CreatePoint(10, 0, 0, "")
	l, err := e.CreateLine(a.ID, b.ID, "track")
	require.NoError(t, err)

	res, err := e.DuplicateLine(l.ID, []float64{1, 2})
	require.NoError(t, err)
	assert.Len(t, res.Points, 4)
	require.Len(t, res.Lines, 2)
	assert.Empty(t, res.Curves)

	p := e.Project()
	for i, z := range []float64{1, 2} {
		nl := p.Line(res.Lines[i])
		assert.Equal(t, "track", nl.Description)
		assert.Equal(t, z, p.Point(nl.StartID).Z)
		assert.Equal(t, z, p.Point(nl.EndID).Z)
		assert.Equal(t, a.RealX, p.Point(nl.StartID).RealX)
		assert.Equal(t, b.RealX, p.Point(nl.EndID).RealX)
	}

	// Duplicating again finds the points and lines already there.
	again, err := e.DuplicateLine(l.ID, []float64{2})
	require.NoError(t, err)
	assert.Empty(t, again.Points)
	assert.Empty(t, again.Lines)

	_, err = e.DuplicateLine(77, []float64{1})
	assert.ErrorIs(t, err, project.ErrLineNotFound)
}

func TestSetPointZ(t *testing.T) {
	e := newEditor(t)
	free := e.CreatePoint(5, 5, 0, "")
	a := e.CreatePoint(0, 0, 0, "")
	b := e.CreatePoint(1, 0, 0, "")
	_, err := e.CreateLine(a.ID, b.ID, "")
	require.NoError(t, err)

	got, err := e.SetPointZ(free.ID, 3, ZCancel)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.Z)

	_, err = e.SetPointZ(a.ID, 2, ZCancel)
	assert.ErrorIs(t, err, ErrZConflict)
	assert.Equal(t, 0.0, a.Z)

	dup, err := e.SetPointZ(a.ID, 2, ZDuplicate)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, dup.ID)
	assert.Equal(t, 2.0, dup.Z)
	assert.Equal(t, 0.0, a.Z)

	moved, err := e.SetPointZ(a.ID, 7, ZPropagate)
	require.NoError(t, err)
	assert.Equal(t, a.ID, moved.ID)
	assert.Equal(t, 7.0, a.Z)
	assert.Equal(t, 7.0, b.Z)

	_, err = e.SetPointZ(999, 1, ZPropagate)
	assert.ErrorIs(t, err, project.ErrPointNotFound)
}

func TestSetHiddenAndMove(t *testing.T) {
	e := calibrated(t)
	p := e.CreatePoint(10, 0, 0, "")
	require.NoError(t, e.SetHidden(project.KindPoint, p.ID, true))
	assert.True(t, p.Hidden)
	assert.ErrorIs(t, e.SetHidden(project.KindLine, 3, true), project.ErrLineNotFound)
	assert.ErrorIs(t, e.SetHidden(project.KindCurve, 3, true), project.ErrCurveNotFound)
	assert.Error(t, e.SetHidden(project.Kind("area"), 1, true))

	require.NoError(t, e.MovePoint(p.ID, 30, 40))
	assert.InDelta(t, 3, p.RealX, 1e-9)
	assert.InDelta(t, 4, p.RealY, 1e-9)
}

func TestReassignReferences(t *testing.T) {
	e := newEditor(t)
	a := e.CreatePoint(0, 0, 0, "")
	b := e.CreatePoint(1, 0, 0, "")
	c := e.CreatePoint(2, 0, 0, "")
	ab, err := e.CreateLine(a.ID, b.ID, "")
	require.NoError(t, err)
	bc, err := e.CreateLine(b.ID, c.ID, "")
	require.NoError(t, err)

	res, err := e.ReassignReferences(b.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{ab.ID}, res.Lines)
	assert.Equal(t, []int{bc.ID}, res.Collapsed)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "collapse")

	assert.Equal(t, c.ID, e.Project().Line(ab.ID).EndID)
	// The collapsing line is left as it was.
	assert.Equal(t, b.ID, e.Project().Line(bc.ID).StartID)

	_, err = e.ReassignReferences(b.ID, 404)
	assert.ErrorIs(t, err, project.ErrPointNotFound)
}

func TestMergeDuplicatePoints(t *testing.T) {
	e := newEditor(t)
	a := e.CreatePoint(0, 0, 0, "")
	b := e.CreatePoint(5, 0, 0, "")
	b2 := e.CreatePoint(5.0000000001, 0, 0, "")
	c := e.CreatePoint(9, 0, 0, "")
	other := e.CreatePoint(5, 0, 1, "") // different elevation, not merged

	ab, err := e.CreateLine(a.ID, b.ID, "")
	require.NoError(t, err)
	b2c, err := e.CreateLine(b2.ID, c.ID, "")
	require.NoError(t, err)
	bb2, err := e.CreateLine(b.ID, b2.ID, "")
	require.NoError(t, err)

	res, err := e.MergeDuplicatePoints(6)
	require.NoError(t, err)
	assert.Equal(t, map[int][]int{b.ID: {b2.ID}}, res.Merged)
	assert.Equal(t, []int{bb2.ID}, res.RemovedLines)

	p := e.Project()
	assert.Nil(t, p.Point(b2.ID))
	assert.NotNil(t, p.Point(other.ID))
	assert.Equal(t, b.ID, p.Line(b2c.ID).StartID)
	assert.Equal(t, b.ID, p.Line(ab.ID).EndID)
	assert.Nil(t, p.Line(bb2.ID))
	assert.NoError(t, p.CheckIntegrity())
}
