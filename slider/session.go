package slider

import (
	"errors"
	"fmt"
)

var ErrOutOfRange = errors.New("index out of range")

// Slider is what the frontend needs to configure one range input.
type Slider struct {
	Value   int       `json:"value"`
	Max     int       `json:"max"`
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// Session is the selection state of one viewer. It is not safe for
// concurrent use; each controller owns its own.
type Session struct {
	Positions []Point3
	Angles    []Point2

	Position int
	Angle    int
}

func NewSession(positions []Point3, angles []Point2) (*Session, error) {
	if len(positions) == 0 || len(angles) == 0 {
		return nil, fmt.Errorf("%w: session needs positions and angles", ErrInvalidArgument)
	}
	return &Session{Positions: positions, Angles: angles}, nil
}

func (s *Session) Select(position, angle int) error {
	if position < 0 || position >= len(s.Positions) {
		return fmt.Errorf("%w: position %d (have %d)", ErrOutOfRange, position, len(s.Positions))
	}
	if angle < 0 || angle >= len(s.Angles) {
		return fmt.Errorf("%w: angle %d (have %d)", ErrOutOfRange, angle, len(s.Angles))
	}
	s.Position, s.Angle = position, angle
	return nil
}

func (s *Session) Range(axis Axis) (Range, error) {
	if axis.IsPosition() {
		return PositionRange(s.Positions, s.Position, axis)
	}
	return AngleRange(s.Angles, s.Angle, axis)
}

func (s *Session) Slider(axis Axis) (Slider, error) {
	r, err := s.Range(axis)
	if err != nil {
		return Slider{}, err
	}
	vals := make([]float64, len(r.Indices))
	for i, idx := range r.Indices {
		if axis.IsPosition() {
			vals[i] = s.Positions[idx].Coord(axis)
		} else {
			vals[i] = s.Angles[idx].Coord(axis)
		}
	}
	return Slider{Value: r.Rank, Max: r.Max(), Indices: r.Indices, Values: vals}, nil
}

func (s *Session) Sliders() (map[Axis]Slider, error) {
	out := make(map[Axis]Slider, len(Axes))
	for _, a := range Axes {
		sl, err := s.Slider(a)
		if err != nil {
			return nil, err
		}
		out[a] = sl
	}
	return out, nil
}

// Slide moves the selection to the candidate at rank on the given axis'
// current range.
func (s *Session) Slide(axis Axis, rank int) error {
	r, err := s.Range(axis)
	if err != nil {
		return err
	}
	if rank < 0 || rank > r.Max() {
		return fmt.Errorf("%w: rank %d on %s (max %d)", ErrOutOfRange, rank, axis, r.Max())
	}
	if axis.IsPosition() {
		s.Position = r.Indices[rank]
	} else {
		s.Angle = r.Indices[rank]
	}
	return nil
}

func (s *Session) SolutionName() string {
	return SolutionName(s.Position, s.Angle)
}

// SolutionName is the data file holding the field for one position/angle pair.
func SolutionName(position, angle int) string {
	return fmt.Sprintf("dipole_data/vi-%d_ai-%d.csv", position, angle)
}
