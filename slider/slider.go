package slider

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Distance budgets used when picking the candidates that share a slice with the current selection.
const (
	// L1 budget over both held-fixed position coordinates
	PositionTolerance = 0.01
	// degrees, on the single held-fixed angle
	AngleTolerance = 5.0
)

var ErrInvalidArgument = errors.New("invalid argument")

type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Point2 is a dipole orientation in degrees.
type Point2 struct {
	Theta float64 `json:"theta"`
	Phi   float64 `json:"phi"`
}

type Axis string

const (
	X     Axis = "x"
	Y     Axis = "y"
	Z     Axis = "z"
	Theta Axis = "theta"
	Phi   Axis = "phi"
)

var Axes = []Axis{X, Y, Z, Theta, Phi}

func ParseAxis(s string) (Axis, error) {
	a := Axis(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case X, Y, Z, Theta, Phi:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown axis %q", ErrInvalidArgument, s)
}

// IsPosition reports whether the axis moves the dipole location rather than its orientation.
func (a Axis) IsPosition() bool {
	return a == X || a == Y || a == Z
}

func (p Point3) Coord(a Axis) float64 {
	switch a {
	case X:
		return p.X
	case Y:
		return p.Y
	case Z:
		return p.Z
	}
	panic("slider: not a position axis: " + string(a))
}

func (p Point2) Coord(a Axis) float64 {
	switch a {
	case Theta:
		return p.Theta
	case Phi:
		return p.Phi
	}
	panic("slider: not an angle axis: " + string(a))
}

// Range is the slice of candidates reachable from the current selection by
// moving along one axis, ordered by that axis.
type Range struct {
	Indices []int `json:"indices"`
	// position of the current selection in Indices
	Rank int `json:"rank"`
}

func (r Range) Max() int {
	return len(r.Indices) - 1
}

// PositionRange returns the candidates whose two other coordinates are within
// PositionTolerance (summed) of points[current], sorted by axis.
func PositionRange(points []Point3, current int, axis Axis) (Range, error) {
	if len(points) == 0 {
		return Range{}, fmt.Errorf("%w: empty position set", ErrInvalidArgument)
	}

	var a, b Axis
	switch axis {
	case X:
		a, b = Y, Z
	case Y:
		a, b = X, Z
	case Z:
		a, b = X, Y
	default:
		return Range{}, fmt.Errorf("%w: %q is not a position axis", ErrInvalidArgument, axis)
	}

	cur := points[current]
	idxs := []int{}
	for j, p := range points {
		d := math.Abs(p.Coord(a)-cur.Coord(a)) + math.Abs(p.Coord(b)-cur.Coord(b))
		if d < PositionTolerance {
			idxs = append(idxs, j)
		}
	}
	sort.SliceStable(idxs, func(i, j int) bool {
		return points[idxs[i]].Coord(axis) < points[idxs[j]].Coord(axis)
	})

	return Range{Indices: idxs, Rank: rankOf(idxs, current)}, nil
}

// AngleRange is PositionRange for orientations: the other angle is held
// within AngleTolerance degrees.
func AngleRange(angles []Point2, current int, axis Axis) (Range, error) {
	if len(angles) == 0 {
		return Range{}, fmt.Errorf("%w: empty angle set", ErrInvalidArgument)
	}

	var other Axis
	switch axis {
	case Theta:
		other = Phi
	case Phi:
		other = Theta
	default:
		return Range{}, fmt.Errorf("%w: %q is not an angle axis", ErrInvalidArgument, axis)
	}

	cur := angles[current]
	idxs := []int{}
	for j, p := range angles {
		if math.Abs(p.Coord(other)-cur.Coord(other)) < AngleTolerance {
			idxs = append(idxs, j)
		}
	}
	sort.SliceStable(idxs, func(i, j int) bool {
		return angles[idxs[i]].Coord(axis) < angles[idxs[j]].Coord(axis)
	})

	return Range{Indices: idxs, Rank: rankOf(idxs, current)}, nil
}

func rankOf(idxs []int, current int) int {
	for r, i := range idxs {
		if i == current {
			return r
		}
	}
	// current always matches itself unless its own coordinates are NaN
	panic(fmt.Sprintf("slider: index %d missing from its own range", current))
}
