package app

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"plan-digitizer/internal/config"
	"plan-digitizer/internal/edit"
	pageimage "plan-digitizer/internal/image"
	"plan-digitizer/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pixelRefs = [2]geometry.Point2D{{X: 0, Y: 0}, {X: 100, Y: 0}}
	realRefs  = [2]geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}}
)

func record(s *State, events ...EventType) *[]EventType {
	var got []EventType
	for _, ev := range events {
		ev := ev
		s.On(ev, func(interface{}) { got = append(got, ev) })
	}
	return &got
}

func TestCalibrateAndClick(t *testing.T) {
	s := NewState(config.Default())
	events := record(s, EventCalibrated, EventModified)

	_, err := s.Calibrate(pixelRefs, realRefs)
	require.NoError(t, err)
	assert.True(t, s.Modified)

	s.SetElevation(2)
	pt, err := s.Click(50, 50, "valve")
	require.NoError(t, err)
	assert.InDelta(t, 5, pt.RealX, 1e-9)
	assert.InDelta(t, 5, pt.RealY, 1e-9)
	assert.Equal(t, 2.0, pt.Z)

	assert.Equal(t, []EventType{EventModified, EventCalibrated, EventModified}, *events)
}

func TestSaveAndLoadProject(t *testing.T) {
	s := NewState(config.Default())
	_, err := s.Calibrate(pixelRefs, realRefs)
	require.NoError(t, err)
	a, err := s.Click(0, 0, "")
	require.NoError(t, err)
	b, err := s.Click(100, 0, "")
	require.NoError(t, err)
	require.NoError(t, s.Apply(func(e *edit.Editor) error {
		_, err := e.CreateLine(a.ID, b.ID, "main")
		return err
	}))

	assert.ErrorIs(t, s.SaveProject(""), ErrNoPath)

	path := filepath.Join(t.TempDir(), "plan.json")
	events := record(s, EventProjectSaved, EventProjectLoaded)
	require.NoError(t, s.SaveProject(path))
	assert.False(t, s.Modified)
	assert.Equal(t, path, s.ProjectPath)

	s.NewProject()
	np, _, _ := s.Project.Counts()
	assert.Zero(t, np)
	assert.Empty(t, s.ProjectPath)

	require.NoError(t, s.LoadProject(path))
	assert.False(t, s.Modified)
	assert.False(t, s.LastMigration.Changed())
	np, nl, _ := s.Project.Counts()
	assert.Equal(t, 2, np)
	assert.Equal(t, 1, nl)

	// The allocator continues after the loaded ids.
	c, err := s.Click(10, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 3, c.ID)

	assert.Equal(t, []EventType{EventProjectSaved, EventProjectLoaded, EventProjectLoaded}, *events)
}

func TestLoadProjectMigratesLegacyCurve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "transformation_matrix": null,
  "points": [
    {"id": 1, "real_x": 100, "real_y": 0, "z": 0, "pdf_x": 100, "pdf_y": 0},
    {"id": 2, "real_x": -100, "real_y": 0, "z": 0, "pdf_x": -100, "pdf_y": 0}
  ],
  "lines": [],
  "curves": [{"id": 1, "start_id": 1, "end_id": 2, "z_level": 0, "arc_points_pdf": [[100, 0], [0, 100], [-100, 0]]}]
}`), 0o644))

	s := NewState(config.Default())
	require.NoError(t, s.LoadProject(path))
	assert.True(t, s.Modified)
	require.Len(t, s.LastMigration.Curves, 1)
	c := s.Project.Curve(1)
	assert.Len(t, c.ArcPointIDs, 3)
	assert.NotZero(t, c.BaseLineID)
	assert.Equal(t, 4, s.Project.IDs.Counters().Point)
}

func TestClickOutsidePage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 200, 100))))
	require.NoError(t, f.Close())

	s := NewState(config.Default())
	events := record(s, EventPageLoaded)
	require.NoError(t, s.LoadPage(path))
	assert.Len(t, *events, 1)

	_, err = s.Click(250, 10, "")
	assert.ErrorIs(t, err, pageimage.ErrOutOfBounds)

	_, err = s.Calibrate([2]geometry.Point2D{{X: 0, Y: 0}, {X: 300, Y: 0}}, realRefs)
	assert.ErrorIs(t, err, pageimage.ErrOutOfBounds)
	assert.Nil(t, s.Project.Transform)
	assert.False(t, s.Modified)
}

func TestEditorOptionsSurviveNewProject(t *testing.T) {
	asked := 0
	cfg := config.Default()
	cfg.Elevation = 3
	s := NewState(cfg, edit.WithConfirmer(edit.ConfirmFunc(func(string) bool {
		asked++
		return false
	})))
	s.NewProject()
	assert.Equal(t, 3.0, s.Editor.CurrentElevation())

	a, _ := s.Click(0, 0, "")
	b, _ := s.Click(1, 0, "")
	require.NoError(t, s.Apply(func(e *edit.Editor) error {
		_, err := e.CreateLine(a.ID, b.ID, "")
		return err
	}))
	_, err := s.Editor.RemovePoint(a.ID)
	assert.ErrorIs(t, err, edit.ErrCancelled)
	assert.Equal(t, 1, asked)
}
