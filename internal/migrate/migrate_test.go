package migrate

import (
	"errors"
	"testing"

	"plan-digitizer/internal/project"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacy = `{
  "calibration_pdf_points": [[0, 0], [100, 0]],
  "calibration_real_points": [[0, 0], [10, 0]],
  "transformation_matrix": [[0.1, 0, 0], [0, 0.1, 0], [0, 0, 1]],
  "zoom": 1.5,
  "points": [
    {"id": 1, "real_x": 10, "real_y": 0, "z": 0, "pdf_x": 100, "pdf_y": 0},
    {"id": 2, "real_x": -10, "real_y": 0, "z": 0, "pdf_x": -100, "pdf_y": 0},
    {"id": 3, "real_x": 0, "real_y": 10.05, "z": 0, "pdf_x": 0, "pdf_y": 100.5},
    {"id": 4, "real_x": 7.07, "real_y": 7.07, "z": 1, "pdf_x": 70.7, "pdf_y": 70.7}
  ],
  "lines": [],
  "curves": [
    {"id": 1, "start_id": 1, "end_id": 2, "z_level": 0, "color": "red",
     "arc_points_pdf": [[100, 0], [70.7, 70.7], [0, 100], [-70.7, 70.7], [-100, 0]]},
    {"id": 2, "start_id": 0, "end_id": 0, "z_level": 0},
    {"id": 3, "start_id": 2, "end_id": 1, "z_level": 0}
  ]
}`

func TestMigrateLegacyCurves(t *testing.T) {
	p, err := project.Decode([]byte(legacy))
	require.NoError(t, err)

	r, err := Migrate(p, 2)
	require.NoError(t, err)
	assert.True(t, r.Changed())
	assert.Equal(t, []int{2}, r.Skipped)
	require.Len(t, r.Curves, 2)

	first := r.Curves[0]
	assert.Equal(t, 1, first.CurveID)
	assert.Equal(t, 1, first.Matched)
	assert.Equal(t, 2, first.Synthesized)
	assert.True(t, first.BaseLineCreated)

	c := p.Curve(1)
	require.Len(t, c.ArcPointIDs, 5)
	assert.Equal(t, 1, c.ArcPointIDs[0])
	assert.Equal(t, 3, c.ArcPointIDs[2])
	assert.Equal(t, 2, c.ArcPointIDs[4])
	assert.Equal(t, 1, c.StartID)
	assert.Equal(t, 2, c.EndID)

	synth := p.Point(c.ArcPointIDs[1])
	require.NotNil(t, synth)
	assert.InDelta(t, 7.07, synth.RealX, 1e-9)
	assert.InDelta(t, 7.07, synth.RealY, 1e-9)
	assert.Equal(t, 0.0, synth.Z)
	assert.NotEqual(t, 4, synth.ID, "point on another level must not match")

	require.Len(t, c.ArcPointsReal, 5)
	assert.Equal(t, [3]float64{0, 10.05, 0}, c.ArcPointsReal[2])

	base := p.Line(c.BaseLineID)
	require.NotNil(t, base)
	assert.Equal(t, 1, base.StartID)
	assert.Equal(t, 2, base.EndID)

	// Curve 3 runs the other way over the same chord and links to the line curve 1 created.
	third := r.Curves[1]
	assert.Equal(t, 3, third.CurveID)
	assert.True(t, third.BaseLineLinked)
	assert.Equal(t, c.BaseLineID, p.Curve(3).BaseLineID)
	assert.Equal(t, []int{2, 1}, p.Curve(3).ArcPointIDs)

	assert.Greater(t, p.IDs.NextPoint(), 6)
	assert.NoError(t, p.CheckIntegrity())
}

func TestMigrateIsIdempotent(t *testing.T) {
	p, err := project.Decode([]byte(legacy))
	require.NoError(t, err)
	_, err = Migrate(p, 2)
	require.NoError(t, err)
	np, nl, nc := p.Counts()

	again, err := Migrate(p, 2)
	require.NoError(t, err)
	assert.False(t, again.Changed())
	assert.Empty(t, again.Curves)

	// Through a save/load cycle as well.
	data, err := p.Encode()
	require.NoError(t, err)
	reloaded, err := project.Decode(data)
	require.NoError(t, err)
	r, err := Migrate(reloaded, 2)
	require.NoError(t, err)
	assert.False(t, r.Changed())

	np2, nl2, nc2 := reloaded.Counts()
	assert.Equal(t, []int{np, nl, nc}, []int{np2, nl2, nc2})
	assert.Equal(t, "red", string(reloaded.Curve(1).Extra["color"][1:4]))
	assert.Contains(t, reloaded.Extra, "zoom")
}

func TestMigrateReportsBrokenReferences(t *testing.T) {
	p := project.New()
	p.AddPoint(&project.Point{ID: 1, RealX: 0, RealY: 0})
	p.AddPoint(&project.Point{ID: 2, RealX: 1, RealY: 0})
	p.AddCurve(&project.Curve{ID: 1, StartID: 1, EndID: 2, ZLevel: 3, ArcPointIDs: []int{1, 99, 2}})

	r, err := Migrate(p, 0)
	var ierr *project.ReferentialIntegrityError
	require.True(t, errors.As(err, &ierr))
	assert.NotEmpty(t, ierr.Faults)

	c := p.Curve(1)
	require.Len(t, c.ArcPointsReal, 3)
	assert.Equal(t, 3.0, c.ArcPointsReal[1][2])
	require.Len(t, r.Curves, 1)
	assert.True(t, r.Curves[0].BaseLineCreated)
}
