package dataset

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dipolesim/dipoleserv/slider"
)

// Sensor is a channel location in head coordinates. The order of sensors
// matches the rows of every dipole solution file.
type Sensor struct {
	Name string        `json:"name"`
	Pos  slider.Point3 `json:"pos"`
}

// FlatSensor is a channel position on the 2D topographic layout.
type FlatSensor struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Mesh struct {
	Vertices  []slider.Point3 `json:"vertices"`
	Triangles [][3]int        `json:"triangles"`
}

type RGBA struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

type Colormap []RGBA

func ParsePoints3(r io.Reader, name string) ([]slider.Point3, error) {
	t, err := newTable(r, name)
	if err != nil {
		return nil, err
	}
	xc, err := t.col("R", "x")
	if err != nil {
		return nil, err
	}
	yc, err := t.col("A", "y")
	if err != nil {
		return nil, err
	}
	zc, err := t.col("S", "z")
	if err != nil {
		return nil, err
	}

	pts := []slider.Point3{}
	err = t.each(func(rec []string, line int) error {
		var p slider.Point3
		var err error
		if p.X, err = t.float(rec, line, xc); err != nil {
			return err
		}
		if p.Y, err = t.float(rec, line, yc); err != nil {
			return err
		}
		if p.Z, err = t.float(rec, line, zc); err != nil {
			return err
		}
		pts = append(pts, p)
		return nil
	})
	return pts, err
}

func ParseAngles(r io.Reader, name string) ([]slider.Point2, error) {
	t, err := newTable(r, name)
	if err != nil {
		return nil, err
	}
	tc, err := t.col("theta")
	if err != nil {
		return nil, err
	}
	pc, err := t.col("phi")
	if err != nil {
		return nil, err
	}

	angles := []slider.Point2{}
	err = t.each(func(rec []string, line int) error {
		var a slider.Point2
		var err error
		if a.Theta, err = t.float(rec, line, tc); err != nil {
			return err
		}
		if a.Phi, err = t.float(rec, line, pc); err != nil {
			return err
		}
		angles = append(angles, a)
		return nil
	})
	return angles, err
}

// ParseSensors reads sensor_locs.csv: channel name in the (unnamed) first
// column followed by R, A, S.
func ParseSensors(r io.Reader, name string) ([]Sensor, error) {
	t, err := newTable(r, name)
	if err != nil {
		return nil, err
	}
	xc, err := t.col("R")
	if err != nil {
		return nil, err
	}
	yc, err := t.col("A")
	if err != nil {
		return nil, err
	}
	zc, err := t.col("S")
	if err != nil {
		return nil, err
	}

	sensors := []Sensor{}
	err = t.each(func(rec []string, line int) error {
		s := Sensor{Name: strings.TrimSpace(rec[0])}
		var err error
		if s.Pos.X, err = t.float(rec, line, xc); err != nil {
			return err
		}
		if s.Pos.Y, err = t.float(rec, line, yc); err != nil {
			return err
		}
		if s.Pos.Z, err = t.float(rec, line, zc); err != nil {
			return err
		}
		sensors = append(sensors, s)
		return nil
	})
	return sensors, err
}

func ParseFlatSensors(r io.Reader, name string) ([]FlatSensor, error) {
	t, err := newTable(r, name)
	if err != nil {
		return nil, err
	}
	xc, err := t.col("x")
	if err != nil {
		return nil, err
	}
	yc, err := t.col("y")
	if err != nil {
		return nil, err
	}

	out := []FlatSensor{}
	err = t.each(func(rec []string, line int) error {
		s := FlatSensor{Name: strings.TrimSpace(rec[0])}
		var err error
		if s.X, err = t.float(rec, line, xc); err != nil {
			return err
		}
		if s.Y, err = t.float(rec, line, yc); err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

func ParseOutline(r io.Reader, name string) ([]Point2D, error) {
	t, err := newTable(r, name)
	if err != nil {
		return nil, err
	}
	xc, err := t.col("x")
	if err != nil {
		return nil, err
	}
	yc, err := t.col("y")
	if err != nil {
		return nil, err
	}

	out := []Point2D{}
	err = t.each(func(rec []string, line int) error {
		var p Point2D
		var err error
		if p.X, err = t.float(rec, line, xc); err != nil {
			return err
		}
		if p.Y, err = t.float(rec, line, yc); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

func ParseTriangles(r io.Reader, name string) ([][3]int, error) {
	t, err := newTable(r, name)
	if err != nil {
		return nil, err
	}
	var cols [3]int
	for i, c := range []string{"v1", "v2", "v3"} {
		if cols[i], err = t.col(c); err != nil {
			return nil, err
		}
	}

	tris := [][3]int{}
	err = t.each(func(rec []string, line int) error {
		var tri [3]int
		for i, c := range cols {
			v, err := strconv.Atoi(strings.TrimSpace(rec[c]))
			if err != nil {
				return &ParseError{File: name, Line: line, Column: t.header[c], Err: err}
			}
			tri[i] = v
		}
		tris = append(tris, tri)
		return nil
	})
	return tris, err
}

// ParseMesh combines a vertex and a triangle file, checking that every
// triangle references an existing vertex.
func ParseMesh(verts, tris io.Reader, vertsName, trisName string) (*Mesh, error) {
	v, err := ParsePoints3(verts, vertsName)
	if err != nil {
		return nil, err
	}
	t, err := ParseTriangles(tris, trisName)
	if err != nil {
		return nil, err
	}
	for i, tri := range t {
		for _, idx := range tri {
			if idx < 0 || idx >= len(v) {
				return nil, &ParseError{
					File: trisName,
					Line: i + 2,
					Err:  fmt.Errorf("vertex %d out of range (have %d)", idx, len(v)),
				}
			}
		}
	}
	return &Mesh{Vertices: v, Triangles: t}, nil
}

// ParseColormap reads a header row followed by r,g,b[,a] rows with components in [0, 1].
// A leading unnamed index column is skipped.
func ParseColormap(r io.Reader, name string) (Colormap, error) {
	t, err := newTable(r, name)
	if err != nil {
		return nil, err
	}
	first := 0
	if len(t.header) > 0 && strings.TrimSpace(t.header[0]) == "" {
		first = 1
	}
	n := len(t.header) - first
	if n != 3 && n != 4 {
		return nil, &ParseError{File: name, Line: 1, Err: fmt.Errorf("want 3 or 4 color columns, got %d", n)}
	}

	cmap := Colormap{}
	err = t.each(func(rec []string, line int) error {
		c := [4]float64{0, 0, 0, 1}
		for i := 0; i < n; i++ {
			v, err := t.float(rec, line, first+i)
			if err != nil {
				return err
			}
			if v < 0 || v > 1 {
				return &ParseError{File: name, Line: line, Column: t.header[first+i], Err: fmt.Errorf("component %v outside [0, 1]", v)}
			}
			c[i] = v
		}
		cmap = append(cmap, RGBA{R: c[0], G: c[1], B: c[2], A: c[3]})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(cmap) == 0 {
		return nil, &ParseError{File: name, Err: errors.New("no colors")}
	}
	return cmap, nil
}

// ParseSolution reads a headerless single-column file of channel values.
func ParseSolution(r io.Reader, name string) ([]float64, error) {
	cr := newReader(r)
	cr.FieldsPerRecord = 1

	vals := []float64{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapCSV(name, err)
		}
		line, _ := cr.FieldPos(0)
		v, err := parseFloat(name, "", rec[0], line)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return nil, &ParseError{File: name, Err: errors.New("empty solution")}
	}
	return vals, nil
}
