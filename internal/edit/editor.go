// Package edit implements the mutating operations on a project: creation, duplication,
// deletion with cascades, reference reassignment, and curve construction.
//
// Operations either complete or leave the project untouched; every validation runs
// before the first mutation.
package edit

import (
	"errors"
	"fmt"
	"sort"

	"plan-digitizer/internal/calibration"
	"plan-digitizer/internal/project"
	"plan-digitizer/pkg/geometry"
)

var (
	// ErrZeroLengthLine is returned when a line would start and end at the same point.
	ErrZeroLengthLine = errors.New("line start and end are the same point")
	// ErrZConflict is returned when an elevation edit would desynchronize connected geometry.
	ErrZConflict = errors.New("elevation conflicts with connected geometry")
	// ErrCancelled is returned when the Confirmer declines an operation.
	ErrCancelled = errors.New("operation cancelled")
)

// ReferencedEntityError is returned when deleting a point that lines or curves still use.
type ReferencedEntityError struct {
	PointID int
	Count   int
}

func (e *ReferencedEntityError) Error() string {
	return fmt.Sprintf("point %d is referenced by %d item(s)", e.PointID, e.Count)
}

// Confirmer answers yes/no questions for operations that need the user's consent.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Option configures an Editor.
type Option func(*Editor)

// WithConfirmer sets the Confirmer consulted before destructive structural edits.
func WithConfirmer(c Confirmer) Option {
	return func(e *Editor) { e.confirm = c }
}

// WithElevation sets the initial current elevation.
func WithElevation(z float64) Option {
	return func(e *Editor) { e.currentZ = z }
}

// Editor applies operations to one project. It is not safe for concurrent use.
type Editor struct {
	project  *project.Project
	currentZ float64
	confirm  Confirmer
}

// New returns an Editor bound to p.
func New(p *project.Project, opts ...Option) *Editor {
	e := &Editor{project: p}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Project returns the edited project.
func (e *Editor) Project() *project.Project { return e.project }

// CurrentElevation returns the elevation applied to new curve geometry.
func (e *Editor) CurrentElevation() float64 { return e.currentZ }

// SetCurrentElevation changes the elevation applied to new curve geometry.
func (e *Editor) SetCurrentElevation(z float64) { e.currentZ = z }

// Calibrate computes and stores the pixel->real transform from two reference pairs.
// Existing points keep their real coordinates. On error the project is unchanged.
func (e *Editor) Calibrate(pixel, world [2]geometry.Point2D) (*calibration.Transform, error) {
	t, err := calibration.CalculateTransformation(pixel, world)
	if err != nil {
		return nil, err
	}
	e.project.Transform = t
	e.project.CalibrationPixel = [][2]float64{{pixel[0].X, pixel[0].Y}, {pixel[1].X, pixel[1].Y}}
	e.project.CalibrationReal = [][2]float64{{world[0].X, world[0].Y}, {world[1].X, world[1].Y}}
	return t, nil
}

// DeletionResult lists the ids removed by one operation.
type DeletionResult struct {
	Points []int
	Lines  []int
	Curves []int
}

func (r *DeletionResult) merge(o DeletionResult) {
	r.Points = append(r.Points, o.Points...)
	r.Lines = append(r.Lines, o.Lines...)
	r.Curves = append(r.Curves, o.Curves...)
}

func (r *DeletionResult) sort() {
	sort.Ints(r.Points)
	sort.Ints(r.Lines)
	sort.Ints(r.Curves)
}

// Empty reports whether nothing was removed.
func (r DeletionResult) Empty() bool {
	return len(r.Points) == 0 && len(r.Lines) == 0 && len(r.Curves) == 0
}

func missingPoint(id int) error {
	return fmt.Errorf("%w: %d", project.ErrPointNotFound, id)
}

func missingLine(id int) error {
	return fmt.Errorf("%w: %d", project.ErrLineNotFound, id)
}

func missingCurve(id int) error {
	return fmt.Errorf("%w: %d", project.ErrCurveNotFound, id)
}
