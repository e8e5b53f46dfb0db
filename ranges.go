package main

import (
	"fmt"

	"github.com/dipolesim/dipoleserv/dataset"
	"github.com/dipolesim/dipoleserv/slider"
	"github.com/gin-gonic/gin"
)

type selectionResponse struct {
	Position    int                           `json:"vi"`
	Angle       int                           `json:"ai"`
	Location    slider.Point3                 `json:"location"`
	Orientation slider.Point2                 `json:"orientation"`
	Solution    string                        `json:"solution"`
	Sliders     map[slider.Axis]slider.Slider `json:"sliders"`
}

func newSession(b *dataset.Bundle, vi, ai int) (*slider.Session, error) {
	s, err := slider.NewSession(b.Positions, b.Angles)
	if err != nil {
		return nil, err
	}
	if err := s.Select(vi, ai); err != nil {
		return nil, err
	}
	return s, nil
}

func describe(s *slider.Session) (selectionResponse, error) {
	sliders, err := s.Sliders()
	if err != nil {
		return selectionResponse{}, err
	}
	return selectionResponse{
		Position:    s.Position,
		Angle:       s.Angle,
		Location:    s.Positions[s.Position],
		Orientation: s.Angles[s.Angle],
		Solution:    s.SolutionName(),
		Sliders:     sliders,
	}, nil
}

func selectionFromQuery(c *gin.Context) (*slider.Session, error) {
	vi, err := queryIndex(c, "vi")
	if err != nil {
		return nil, err
	}
	ai, err := queryIndex(c, "ai")
	if err != nil {
		return nil, err
	}
	return newSession(bundleFrom(c), vi, ai)
}

func rangesHandler(c *gin.Context) {
	s, err := selectionFromQuery(c)
	if err != nil {
		abort(c, err)
		return
	}
	resp, err := describe(s)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(200, resp)
}

type slideRequest struct {
	Position int    `json:"vi" binding:"min=0"`
	Angle    int    `json:"ai" binding:"min=0"`
	Axis     string `json:"axis" binding:"required"`
	Rank     int    `json:"rank"`
}

func (s *Server) slideHandler(c *gin.Context) {
	var req slideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, fmt.Errorf("%w: %v", slider.ErrInvalidArgument, err))
		return
	}
	axis, err := slider.ParseAxis(req.Axis)
	if err != nil {
		abort(c, err)
		return
	}

	sess, err := newSession(bundleFrom(c), req.Position, req.Angle)
	if err != nil {
		abort(c, err)
		return
	}
	if err := sess.Slide(axis, req.Rank); err != nil {
		abort(c, err)
		return
	}
	resp, err := describe(sess)
	if err != nil {
		abort(c, err)
		return
	}

	// warm the neighbours the user is likely to slide to next
	s.solutions.PrefetchAsync(sess)

	c.JSON(200, resp)
}
