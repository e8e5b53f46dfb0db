package main

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/dipolesim/dipoleserv/slider"
	"github.com/dipolesim/dipoleserv/source"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// parseSolutionName extracts the position and angle index from a name like
// dipole_data/vi-12_ai-3.csv (optionally .bz2).
func parseSolutionName(name string) (vi, ai int, ok bool) {
	base := filepath.Base(name)
	var ext string
	n, err := fmt.Sscanf(base, "vi-%d_ai-%d.%s", &vi, &ai, &ext)
	if err != nil || n != 3 {
		return 0, 0, false
	}
	if ext != "csv" && ext != "csv.bz2" {
		return 0, 0, false
	}
	return vi, ai, true
}

func queryIndex(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, fmt.Errorf("%w: missing %s", slider.ErrInvalidArgument, key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", slider.ErrInvalidArgument, key, v)
	}
	return i, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, slider.ErrInvalidArgument), errors.Is(err, slider.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, source.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, source.ErrUnsupported):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// abort records err on the context and replies with a JSON error body.
func abort(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).Errorf("%s %s", c.Request.Method, c.Request.URL.Path)
	} else {
		logrus.WithError(err).Debugf("%s %s", c.Request.Method, c.Request.URL.Path)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
