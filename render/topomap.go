package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	pngenc "image/png"
	"math"

	"github.com/dipolesim/dipoleserv/dataset"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
)

// Sensor is one channel on the flat layout with its field value.
type Sensor struct {
	X     float64
	Y     float64
	Value float64
}

// MergeColocated combines channels sharing a flat position (planar
// gradiometer pairs) into one by root mean square. Order of first
// appearance is kept.
func MergeColocated(sensors []Sensor) []Sensor {
	type acc struct {
		s     Sensor
		sumSq float64
		n     int
	}
	idx := map[[2]float64]int{}
	accs := []acc{}
	for _, s := range sensors {
		k := [2]float64{s.X, s.Y}
		i, ok := idx[k]
		if !ok {
			i = len(accs)
			idx[k] = i
			accs = append(accs, acc{s: s})
		}
		accs[i].sumSq += s.Value * s.Value
		accs[i].n++
	}

	out := make([]Sensor, len(accs))
	for i, a := range accs {
		out[i] = a.s
		if a.n > 1 {
			out[i].Value = math.Sqrt(a.sumSq / float64(a.n))
		}
	}
	return out
}

// viewport maps layout coordinates to pixels, keeping the aspect ratio and
// flipping y so that anterior is up.
type viewport struct {
	minX, maxY float64
	scale      float64
	offX, offY float64
}

func fit(sensors []Sensor, outlines [][]dataset.Point2D, size int) viewport {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	grow := func(x, y float64) {
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	for _, s := range sensors {
		grow(s.X, s.Y)
	}
	for _, ol := range outlines {
		for _, p := range ol {
			grow(p.X, p.Y)
		}
	}
	if math.IsInf(minX, 0) {
		return viewport{scale: 1}
	}

	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	margin := 0.08 * float64(size)
	scale := (float64(size) - 2*margin) / span
	return viewport{
		minX:  minX,
		maxY:  maxY,
		scale: scale,
		offX:  margin + (span-(maxX-minX))*scale/2,
		offY:  margin + (span-(maxY-minY))*scale/2,
	}
}

func (v viewport) px(x, y float64) (float64, float64) {
	return v.offX + (x-v.minX)*v.scale, v.offY + (v.maxY-y)*v.scale
}

// Topomap draws the head outlines and one colored disc per sensor.
func Topomap(sensors []Sensor, outlines [][]dataset.Point2D, lut func(float64) color.Color, size int) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), image.Transparent, image.Point{}, draw.Src)

	gc := draw2dimg.NewGraphicContext(canvas)
	vp := fit(sensors, outlines, size)

	gc.SetStrokeColor(color.Black)
	gc.SetLineWidth(math.Max(1, float64(size)/200))
	for _, ol := range outlines {
		if len(ol) < 2 {
			continue
		}
		gc.BeginPath()
		gc.MoveTo(vp.px(ol[0].X, ol[0].Y))
		for _, p := range ol[1:] {
			gc.LineTo(vp.px(p.X, p.Y))
		}
		gc.Stroke()
	}

	radius := math.Max(2, float64(size)/60)
	gc.SetLineWidth(1)
	for _, s := range sensors {
		x, y := vp.px(s.X, s.Y)
		gc.BeginPath()
		draw2dkit.Circle(gc, x, y, radius)
		gc.SetFillColor(lut(s.Value))
		gc.SetStrokeColor(color.Gray{Y: 64})
		gc.FillStroke()
	}

	return canvas
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := pngenc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
