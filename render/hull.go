package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/dipolesim/dipoleserv/slider"
	"github.com/fogleman/mc"
)

// MaxHullVoxels bounds the grid Hull will allocate.
const MaxHullVoxels = 1 << 24

var ErrGridTooLarge = errors.New("hull grid too large")

type Triangle struct {
	V1 slider.Point3 `json:"v1"`
	V2 slider.Point3 `json:"v2"`
	V3 slider.Point3 `json:"v3"`
}

// Hull voxelises the candidate dipole positions on a grid with the given
// spacing and returns the isosurface enclosing the occupied voxels. The
// grid is padded by one empty voxel on every side so the surface is closed.
func Hull(points []slider.Point3, spacing float64) ([]Triangle, error) {
	if len(points) == 0 || spacing <= 0 {
		return nil, nil
	}

	min := slider.Point3{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := slider.Point3{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range points {
		min.X, max.X = math.Min(min.X, p.X), math.Max(max.X, p.X)
		min.Y, max.Y = math.Min(min.Y, p.Y), math.Max(max.Y, p.Y)
		min.Z, max.Z = math.Min(min.Z, p.Z), math.Max(max.Z, p.Z)
	}
	origin := slider.Point3{X: min.X - spacing, Y: min.Y - spacing, Z: min.Z - spacing}

	fw := math.Round((max.X-min.X)/spacing) + 3
	fh := math.Round((max.Y-min.Y)/spacing) + 3
	fd := math.Round((max.Z-min.Z)/spacing) + 3
	if n := fw * fh * fd; n > MaxHullVoxels {
		return nil, fmt.Errorf("%w: %.0f voxels at spacing %g (max %d)", ErrGridTooLarge, n, spacing, MaxHullVoxels)
	}
	w, h, d := int(fw), int(fh), int(fd)

	data := make([]float64, w*h*d)
	for _, p := range points {
		x := int(math.Round((p.X - origin.X) / spacing))
		y := int(math.Round((p.Y - origin.Y) / spacing))
		z := int(math.Round((p.Z - origin.Z) / spacing))
		data[x+y*w+z*w*h] = 1
	}

	toHead := func(v mc.Vector) slider.Point3 {
		return slider.Point3{
			X: origin.X + v.X*spacing,
			Y: origin.Y + v.Y*spacing,
			Z: origin.Z + v.Z*spacing,
		}
	}

	tris := mc.MarchingCubesGrid(w, h, d, data, 0.5)
	out := make([]Triangle, len(tris))
	for i, t := range tris {
		out[i] = Triangle{V1: toHead(t.V1), V2: toHead(t.V2), V3: toHead(t.V3)}
	}
	return out, nil
}
