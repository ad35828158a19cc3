// Package calibration maps page (pixel) coordinates to real-world coordinates.
package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"plan-digitizer/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// minVectorLength is the shortest reference vector accepted for calibration.
const minVectorLength = 1e-9

// ErrDegenerate is returned when calibration reference points coincide.
var ErrDegenerate = errors.New("degenerate calibration points")

// CalibrationError reports why a calibration could not be computed.
type CalibrationError struct {
	Reason string
	Err    error
}

func (e *CalibrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("calibration: %s: %v", e.Reason, e.Err)
	}
	return "calibration: " + e.Reason
}

func (e *CalibrationError) Unwrap() error { return e.Err }

// Transform is a 3x3 homogeneous matrix from pixel space to real space.
// A nil *Transform is the identity.
type Transform struct {
	m *mat.Dense
}

// CalculateTransformation computes the similarity transform (uniform scale, rotation,
// translation) that carries pixel[0]->world[0] and pixel[1]->world[1].
func CalculateTransformation(pixel, world [2]geometry.Point2D) (*Transform, error) {
	pv := pixel[1].Sub(pixel[0])
	rv := world[1].Sub(world[0])

	pixelLen := pv.Length()
	realLen := rv.Length()
	if pixelLen < minVectorLength {
		return nil, &CalibrationError{Reason: "pixel reference points coincide", Err: ErrDegenerate}
	}
	if realLen < minVectorLength {
		return nil, &CalibrationError{Reason: "real reference points coincide", Err: ErrDegenerate}
	}

	scale := realLen / pixelLen
	theta := math.Atan2(rv.Y, rv.X) - math.Atan2(pv.Y, pv.X)
	cosT := math.Cos(theta) * scale
	sinT := math.Sin(theta) * scale

	// world = R * pixel + t  =>  t = world0 - R * pixel0
	tx := world[0].X - (cosT*pixel[0].X - sinT*pixel[0].Y)
	ty := world[0].Y - (sinT*pixel[0].X + cosT*pixel[0].Y)

	return &Transform{m: mat.NewDense(3, 3, []float64{
		cosT, -sinT, tx,
		sinT, cosT, ty,
		0, 0, 1,
	})}, nil
}

// FromRows builds a Transform from a persisted 3x3 matrix.
func FromRows(rows [][]float64) (*Transform, error) {
	if len(rows) != 3 {
		return nil, &CalibrationError{Reason: fmt.Sprintf("matrix has %d rows, want 3", len(rows))}
	}
	data := make([]float64, 0, 9)
	for i, r := range rows {
		if len(r) != 3 {
			return nil, &CalibrationError{Reason: fmt.Sprintf("matrix row %d has %d columns, want 3", i, len(r))}
		}
		data = append(data, r...)
	}
	return &Transform{m: mat.NewDense(3, 3, data)}, nil
}

// Rows returns the matrix as nested slices, the persisted shape.
func (t *Transform) Rows() [][]float64 {
	if t == nil {
		return [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	}
	rows := make([][]float64, 3)
	for i := range rows {
		rows[i] = mat.Row(nil, i, t.m)
	}
	return rows
}

// Apply maps a pixel coordinate to real coordinates. A nil Transform passes the point through.
func (t *Transform) Apply(p geometry.Point2D) geometry.Point2D {
	if t == nil {
		return p
	}
	var out mat.VecDense
	out.MulVec(t.m, mat.NewVecDense(3, []float64{p.X, p.Y, 1}))
	w := out.AtVec(2)
	if w == 0 {
		w = 1
	}
	return geometry.Point2D{X: out.AtVec(0) / w, Y: out.AtVec(1) / w}
}

// TransformPoint is Apply on bare coordinates.
func (t *Transform) TransformPoint(px, py float64) (float64, float64) {
	r := t.Apply(geometry.Point2D{X: px, Y: py})
	return r.X, r.Y
}

// Inverse returns the real->pixel transform. The inverse of nil is nil.
func (t *Transform) Inverse() (*Transform, error) {
	if t == nil {
		return nil, nil
	}
	if math.Abs(mat.Det(t.m)) < geometry.Epsilon {
		return nil, &CalibrationError{Reason: "matrix is singular", Err: ErrDegenerate}
	}
	var inv mat.Dense
	if err := inv.Inverse(t.m); err != nil {
		return nil, &CalibrationError{Reason: "invert matrix", Err: err}
	}
	return &Transform{m: &inv}, nil
}

// Scale returns the uniform scale factor (real units per pixel).
func (t *Transform) Scale() float64 {
	if t == nil {
		return 1
	}
	return math.Hypot(t.m.At(0, 0), t.m.At(1, 0))
}

// RotationDegrees returns the rotation component in degrees.
func (t *Transform) RotationDegrees() float64 {
	if t == nil {
		return 0
	}
	return math.Atan2(t.m.At(1, 0), t.m.At(0, 0)) * 180 / math.Pi
}

// MarshalJSON encodes the matrix as [[a,b,c],[d,e,f],[g,h,i]].
func (t *Transform) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}
	return json.Marshal(t.Rows())
}

// UnmarshalJSON decodes a 3x3 nested array.
func (t *Transform) UnmarshalJSON(data []byte) error {
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("decode transformation matrix: %w", err)
	}
	parsed, err := FromRows(rows)
	if err != nil {
		return err
	}
	t.m = parsed.m
	return nil
}

// Residual returns the mean distance between the transformed pixel points and their real targets.
func Residual(t *Transform, pixel, world []geometry.Point2D) float64 {
	if len(pixel) != len(world) || len(pixel) == 0 {
		return math.Inf(1)
	}
	var total float64
	for i := range pixel {
		total += t.Apply(pixel[i]).Distance(world[i])
	}
	return total / float64(len(pixel))
}
