package main

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/dipolesim/dipoleserv/dataset"
	"github.com/dipolesim/dipoleserv/render"
	"github.com/dipolesim/dipoleserv/source"
	"github.com/gin-gonic/gin"
)

func positionsHandler(c *gin.Context) {
	c.JSON(200, bundleFrom(c).Positions)
}

func anglesHandler(c *gin.Context) {
	c.JSON(200, bundleFrom(c).Angles)
}

func meshHandler(c *gin.Context) {
	name := c.Param("name")
	m, ok := bundleFrom(c).Meshes[name]
	if !ok {
		abort(c, fmt.Errorf("mesh %q: %w", name, source.ErrNotFound))
		return
	}
	c.JSON(200, m)
}

func sensorsHandler(c *gin.Context) {
	c.JSON(200, bundleFrom(c).Sensors)
}

func flatSensorsHandler(c *gin.Context) {
	ch := c.Param("chtype")
	flat, ok := bundleFrom(c).Flat[ch]
	if !ok {
		abort(c, fmt.Errorf("channel type %q: %w", ch, source.ErrNotFound))
		return
	}
	c.JSON(200, flat)
}

func outlineHandler(c *gin.Context) {
	ch, name := c.Param("chtype"), c.Param("outline")
	ol, ok := bundleFrom(c).Outlines[ch][name]
	if !ok {
		abort(c, fmt.Errorf("outline %s/%s: %w", ch, name, source.ErrNotFound))
		return
	}
	c.JSON(200, ol)
}

func colormapHandler(c *gin.Context) {
	c.JSON(200, bundleFrom(c).Colormap)
}

// hullCache holds the surface computed for the current bundle.
type hullCache struct {
	mtx    sync.Mutex
	bundle *dataset.Bundle
	tris   []render.Triangle
	err    error
}

func (s *Server) hullHandler(c *gin.Context) {
	b := bundleFrom(c)

	s.hull.mtx.Lock()
	if s.hull.bundle != b {
		s.hull.tris, s.hull.err = render.Hull(b.Positions, s.cfg.HullSpacing)
		s.hull.bundle = b
	}
	tris, err := s.hull.tris, s.hull.err
	s.hull.mtx.Unlock()

	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, tris)
}
