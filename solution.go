package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dipolesim/dipoleserv/dataset"
	"github.com/dipolesim/dipoleserv/render"
	"github.com/dipolesim/dipoleserv/slider"
	"github.com/dipolesim/dipoleserv/source"
	"github.com/gin-gonic/gin"
)

const maxTopomapSize = 2000

type solutionRef struct {
	Position int `json:"vi"`
	Angle    int `json:"ai"`
}

func (s *Server) listSolutionsHandler(c *gin.Context) {
	names, err := s.src.List(c.Request.Context(), "dipole_data/")
	if err != nil {
		abort(c, err)
		return
	}
	refs := make([]solutionRef, 0, len(names))
	for _, n := range names {
		vi, ai, ok := parseSolutionName(n)
		if !ok {
			continue
		}
		refs = append(refs, solutionRef{Position: vi, Angle: ai})
	}
	c.JSON(200, refs)
}

// solution loads the vector for the ?vi=&ai= selection and checks it lines up with the sensor table.
func (s *Server) solution(c *gin.Context) (*slider.Session, []float64, error) {
	sess, err := selectionFromQuery(c)
	if err != nil {
		return nil, nil, err
	}
	vals, err := s.solutions.Get(c.Request.Context(), sess.Position, sess.Angle)
	if err != nil {
		return nil, nil, err
	}
	if n := len(bundleFrom(c).Sensors); len(vals) != n {
		return nil, nil, fmt.Errorf("%s has %d values for %d sensors", sess.SolutionName(), len(vals), n)
	}
	return sess, vals, nil
}

type solutionResponse struct {
	Position int              `json:"vi"`
	Angle    int              `json:"ai"`
	Values   []float64        `json:"values"`
	Picks    map[string][]int `json:"picks"`
}

func (s *Server) solutionHandler(c *gin.Context) {
	sess, vals, err := s.solution(c)
	if err != nil {
		abort(c, err)
		return
	}

	b := bundleFrom(c)
	picks := map[string][]int{}
	for _, ch := range dataset.ChannelTypes {
		if _, ok := b.Flat[ch]; !ok {
			continue
		}
		p, err := b.Picks(ch)
		if err != nil {
			abort(c, err)
			return
		}
		picks[ch] = p
	}

	c.JSON(200, solutionResponse{Position: sess.Position, Angle: sess.Angle, Values: vals, Picks: picks})
}

var topomapOutlines = []string{"head", "nose", "ear_left", "ear_right"}

func (s *Server) topomapHandler(c *gin.Context) {
	ch := c.Param("chtype")
	b := bundleFrom(c)
	flat, ok := b.Flat[ch]
	if !ok {
		abort(c, fmt.Errorf("channel type %q: %w", ch, source.ErrNotFound))
		return
	}

	size := s.cfg.TopomapSize
	if q := c.Query("size"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 || n > maxTopomapSize {
			abort(c, fmt.Errorf("%w: size must be in (0, %d]", slider.ErrInvalidArgument, maxTopomapSize))
			return
		}
		size = n
	}

	_, vals, err := s.solution(c)
	if err != nil {
		abort(c, err)
		return
	}
	picks, err := b.Picks(ch)
	if err != nil {
		abort(c, err)
		return
	}

	sensors := make([]render.Sensor, len(flat))
	for i, f := range flat {
		sensors[i] = render.Sensor{X: f.X, Y: f.Y, Value: vals[picks[i]]}
	}
	sensors = render.MergeColocated(sensors)

	shown := make([]float64, len(sensors))
	for i, sn := range sensors {
		shown[i] = sn.Value
	}
	outlines := [][]dataset.Point2D{}
	for _, name := range topomapOutlines {
		if ol, ok := b.Outlines[ch][name]; ok {
			outlines = append(outlines, ol)
		}
	}

	img := render.Topomap(sensors, outlines, render.LUT(b.Colormap, render.AbsMax(shown)), size)
	png, err := render.EncodePNG(img)
	if err != nil {
		abort(c, err)
		return
	}

	// Strong client caching for immutable rendered assets
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Header("Expires", time.Now().UTC().AddDate(1, 0, 0).Format(http.TimeFormat))
	c.Data(http.StatusOK, "image/png", png)
}
