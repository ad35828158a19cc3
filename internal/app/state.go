// Package app holds the editing session: the open project, its editor, the page image and
// event listeners.
package app

import (
	"errors"
	"fmt"
	"sync"

	"plan-digitizer/internal/calibration"
	"plan-digitizer/internal/config"
	"plan-digitizer/internal/edit"
	"plan-digitizer/internal/image"
	"plan-digitizer/internal/logging"
	"plan-digitizer/internal/migrate"
	"plan-digitizer/internal/project"
	"plan-digitizer/pkg/geometry"
)

// ErrNoPath is returned by SaveProject when neither an explicit nor a remembered path exists.
var ErrNoPath = errors.New("no project path")

// State is the single session of the application. Opening or creating a project replaces the
// project, editor and id allocator wholesale.
type State struct {
	mu sync.RWMutex

	Config config.Config

	Project     *project.Project
	Editor      *edit.Editor
	Page        *image.Page
	ProjectPath string
	Modified    bool

	// LastMigration is the report from the most recent LoadProject.
	LastMigration migrate.Report

	editorOpts []edit.Option
	listeners  map[EventType][]EventListener
}

// EventType identifies session events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventCalibrated
	EventModified
	EventPageLoaded
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a session holding an empty project. opts are applied to every editor the
// session creates.
func NewState(cfg config.Config, opts ...edit.Option) *State {
	s := &State{
		Config:     cfg,
		editorOpts: opts,
		listeners:  make(map[EventType][]EventListener),
	}
	s.install(project.New(), "")
	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the project as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

func (s *State) install(p *project.Project, path string) {
	opts := append([]edit.Option{edit.WithElevation(s.Config.Elevation)}, s.editorOpts...)
	s.mu.Lock()
	s.Project = p
	s.Editor = edit.New(p, opts...)
	s.ProjectPath = path
	s.Modified = false
	s.mu.Unlock()
}

// NewProject discards the open project and starts an empty one.
func (s *State) NewProject() {
	s.install(project.New(), "")
	s.LastMigration = migrate.Report{}
	logging.Logger().Info("new project")
	s.Emit(EventProjectLoaded, "")
}

// LoadProject replaces the open project with the file at path, migrating legacy curves and
// rehydrating the id counters. Integrity faults left after migration are logged, not fatal.
func (s *State) LoadProject(path string) error {
	p, err := project.Load(path)
	if err != nil {
		return err
	}
	report, err := migrate.Migrate(p, s.Config.PixelTolerance)
	var ierr *project.ReferentialIntegrityError
	switch {
	case errors.As(err, &ierr):
		logging.Logger().Warn("project has broken references", "path", path, "faults", len(ierr.Faults))
	case err != nil:
		return fmt.Errorf("migrate %s: %w", path, err)
	}

	s.install(p, path)
	s.LastMigration = report
	if report.Changed() {
		// Migration rewrote curves; the file on disk is stale until saved.
		s.SetModified(true)
	}
	np, nl, nc := p.Counts()
	logging.Logger().Info("project loaded", "path", path, "points", np, "lines", nl, "curves", nc,
		"migrated_curves", len(report.Curves))
	s.Emit(EventProjectLoaded, path)
	return nil
}

// SaveProject writes the project to path, or to the path it was loaded from when path is empty.
func (s *State) SaveProject(path string) error {
	if path == "" {
		path = s.ProjectPath
	}
	if path == "" {
		return ErrNoPath
	}
	if err := s.Project.Save(path); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	s.mu.Lock()
	s.ProjectPath = path
	s.Modified = false
	s.mu.Unlock()
	logging.Logger().Info("project saved", "path", path)
	s.Emit(EventProjectSaved, path)
	return nil
}

// LoadPage decodes the page image clicks are taken from.
func (s *State) LoadPage(path string) error {
	page, err := image.Load(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.Page = page
	s.mu.Unlock()
	s.Emit(EventPageLoaded, page)
	return nil
}

// Calibrate sets the page->real transform from two reference pairs. With a page loaded both
// pixel references must lie on it.
func (s *State) Calibrate(pixel, world [2]geometry.Point2D) (*calibration.Transform, error) {
	if s.Page != nil {
		if err := s.Page.CheckClicks(pixel[0], pixel[1]); err != nil {
			return nil, err
		}
	}
	t, err := s.Editor.Calibrate(pixel, world)
	if err != nil {
		return nil, err
	}
	logging.Logger().Info("calibrated", "scale", t.Scale(), "rotation", t.RotationDegrees())
	s.SetModified(true)
	s.Emit(EventCalibrated, t)
	return t, nil
}

// SetElevation changes the elevation given to clicked points and new curves.
func (s *State) SetElevation(z float64) {
	s.Editor.SetCurrentElevation(z)
}

// Click places a point at page coordinate (x, y) on the current elevation.
func (s *State) Click(x, y float64, description string) (*project.Point, error) {
	if s.Page != nil {
		if err := s.Page.CheckClicks(geometry.Point2D{X: x, Y: y}); err != nil {
			return nil, err
		}
	}
	pt := s.Editor.CreatePoint(x, y, s.Editor.CurrentElevation(), description)
	s.SetModified(true)
	return pt, nil
}

// Apply runs an edit against the open project and marks the session modified when it succeeds.
func (s *State) Apply(fn func(*edit.Editor) error) error {
	if err := fn(s.Editor); err != nil {
		return err
	}
	s.SetModified(true)
	return nil
}
