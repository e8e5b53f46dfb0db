package slider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(t *testing.T) *Session {
	t.Helper()
	positions := []Point3{
		{0, 0, 0},
		{10, 0, 0},
		{20, 0, 0},
		{10, 10, 0},
		{10, 0, 10},
	}
	angles := []Point2{{0, 0}, {60, 0}, {0, 60}, {60, 60}}
	s, err := NewSession(positions, angles)
	require.NoError(t, err)
	return s
}

func TestNewSessionRequiresData(t *testing.T) {
	_, err := NewSession(nil, []Point2{{}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewSession([]Point3{{}}, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSessionSelect(t *testing.T) {
	s := testSession(t)

	require.NoError(t, s.Select(4, 3))
	assert.Equal(t, 4, s.Position)
	assert.Equal(t, 3, s.Angle)
	assert.Equal(t, "dipole_data/vi-4_ai-3.csv", s.SolutionName())

	assert.ErrorIs(t, s.Select(5, 0), ErrOutOfRange)
	assert.ErrorIs(t, s.Select(0, -1), ErrOutOfRange)
	// failed selects leave state alone
	assert.Equal(t, 4, s.Position)
	assert.Equal(t, 3, s.Angle)
}

func TestSessionSliders(t *testing.T) {
	s := testSession(t)
	require.NoError(t, s.Select(1, 0))

	sliders, err := s.Sliders()
	require.NoError(t, err)
	require.Len(t, sliders, 5)

	x := sliders[X]
	assert.Equal(t, []int{0, 1, 2}, x.Indices)
	assert.Equal(t, []float64{0, 10, 20}, x.Values)
	assert.Equal(t, 1, x.Value)
	assert.Equal(t, 2, x.Max)

	y := sliders[Y]
	assert.Equal(t, []int{1, 3}, y.Indices)
	assert.Equal(t, 0, y.Value)

	z := sliders[Z]
	assert.Equal(t, []int{1, 4}, z.Indices)

	theta := sliders[Theta]
	assert.Equal(t, []int{0, 1}, theta.Indices)
	assert.Equal(t, []float64{0, 60}, theta.Values)

	phi := sliders[Phi]
	assert.Equal(t, []int{0, 2}, phi.Indices)
}

func TestSessionSlide(t *testing.T) {
	s := testSession(t)
	require.NoError(t, s.Select(1, 0))

	require.NoError(t, s.Slide(X, 2))
	assert.Equal(t, 2, s.Position)

	// slice along y from (20,0,0) only holds itself
	y, err := s.Slider(Y)
	require.NoError(t, err)
	assert.Equal(t, 0, y.Max)

	require.NoError(t, s.Slide(Phi, 1))
	assert.Equal(t, 2, s.Angle)
	assert.Equal(t, 2, s.Position)

	assert.ErrorIs(t, s.Slide(X, 3), ErrOutOfRange)
	assert.ErrorIs(t, s.Slide(Theta, -1), ErrOutOfRange)
	assert.ErrorIs(t, s.Slide(Axis("w"), 0), ErrInvalidArgument)
}
