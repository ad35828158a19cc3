package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAngle(t *testing.T) {
	assert.InDelta(t, 0, NormalizeAngle(360), 1e-12)
	assert.InDelta(t, 270, NormalizeAngle(-90), 1e-12)
	assert.InDelta(t, 45, NormalizeAngle(765), 1e-12)
}

func TestAngleFromCenter(t *testing.T) {
	c := NewPoint2D(1, 1)
	assert.InDelta(t, 0, AngleFromCenter(c, NewPoint2D(2, 1)), 1e-9)
	assert.InDelta(t, 90, AngleFromCenter(c, NewPoint2D(1, 2)), 1e-9)
	assert.InDelta(t, 180, AngleFromCenter(c, NewPoint2D(0, 1)), 1e-9)
	assert.InDelta(t, 270, AngleFromCenter(c, NewPoint2D(1, 0)), 1e-9)
}

func TestIsAngleBetween(t *testing.T) {
	assert.True(t, IsAngleBetween(45, 0, 90))
	assert.False(t, IsAngleBetween(135, 0, 90))

	// Wraparound: the sweep 300 -> 30 passes through 0.
	assert.True(t, IsAngleBetween(350, 300, 30))
	assert.True(t, IsAngleBetween(10, 300, 30))
	assert.False(t, IsAngleBetween(180, 300, 30))
}

func TestCircleFromThreePoints(t *testing.T) {
	center, radius, err := CircleFromThreePoints(
		NewPoint2D(1, 0), NewPoint2D(0, 1), NewPoint2D(-1, 0))
	require.NoError(t, err)
	assert.InDelta(t, 0, center.X, 1e-9)
	assert.InDelta(t, 0, center.Y, 1e-9)
	assert.InDelta(t, 1, radius, 1e-9)

	center, radius, err = CircleFromThreePoints(
		NewPoint2D(5, 3), NewPoint2D(3, 5), NewPoint2D(1, 3))
	require.NoError(t, err)
	assert.InDelta(t, 3, center.X, 1e-9)
	assert.InDelta(t, 3, center.Y, 1e-9)
	assert.InDelta(t, 2, radius, 1e-9)
}

func TestCircleFromThreePointsColinear(t *testing.T) {
	_, _, err := CircleFromThreePoints(NewPoint2D(0, 0), NewPoint2D(1, 0), NewPoint2D(2, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrColinear))

	var gerr *GeometryError
	assert.True(t, errors.As(err, &gerr))

	_, _, err = CircleFromThreePoints(NewPoint2D(4, 4), NewPoint2D(4, 4), NewPoint2D(1, 2))
	assert.ErrorIs(t, err, ErrColinear)
}

func TestPointOnCircle(t *testing.T) {
	p := PointOnCircle(NewPoint2D(2, 2), 3, 90)
	assert.InDelta(t, 2, p.X, 1e-9)
	assert.InDelta(t, 5, p.Y, 1e-9)
}

func TestDistances(t *testing.T) {
	assert.InDelta(t, 5, Distance2D(0, 0, 3, 4), 1e-12)
	assert.InDelta(t, math.Sqrt(50), Distance3D(0, 0, 0, 3, 4, 5), 1e-12)
	assert.InDelta(t, -1, Cross(NewPoint2D(0, 1), NewPoint2D(1, 0)), 1e-12)

	mid := NewPoint2D(0, 0).Lerp(NewPoint2D(4, 2), 0.5)
	assert.Equal(t, NewPoint2D(2, 1), mid)
}
