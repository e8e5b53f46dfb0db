package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var ErrParse = errors.New("parse error")

// ParseError is returned for any malformed data file. errors.Is(err, ErrParse) holds for it.
type ParseError struct {
	File   string
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc += ":" + strconv.Itoa(e.Line)
	}
	if e.Column != "" {
		loc += " (" + e.Column + ")"
	}
	return fmt.Sprintf("%s: %v", loc, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

type table struct {
	name   string
	r      *csv.Reader
	header []string
	cols   map[string]int
}

func newReader(rd io.Reader) *csv.Reader {
	r := csv.NewReader(rd)
	r.TrimLeadingSpace = true
	r.ReuseRecord = true
	return r
}

// newTable reads the header row. Column lookups are case-insensitive.
func newTable(rd io.Reader, name string) (*table, error) {
	r := newReader(rd)
	hdr, err := r.Read()
	if err == io.EOF {
		return nil, &ParseError{File: name, Err: errors.New("empty file")}
	}
	if err != nil {
		return nil, wrapCSV(name, err)
	}
	t := &table{
		name:   name,
		r:      r,
		header: append([]string(nil), hdr...),
		cols:   make(map[string]int, len(hdr)),
	}
	for i, h := range hdr {
		t.cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return t, nil
}

// col returns the index of the first header matching any of names.
func (t *table) col(names ...string) (int, error) {
	for _, n := range names {
		if i, ok := t.cols[strings.ToLower(n)]; ok {
			return i, nil
		}
	}
	return 0, &ParseError{File: t.name, Line: 1, Column: names[0], Err: errors.New("missing column")}
}

// each calls fn for every data row with its 1-based line number.
func (t *table) each(fn func(rec []string, line int) error) error {
	for {
		rec, err := t.r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return wrapCSV(t.name, err)
		}
		line, _ := t.r.FieldPos(0)
		if err := fn(rec, line); err != nil {
			return err
		}
	}
}

func (t *table) float(rec []string, line, col int) (float64, error) {
	return parseFloat(t.name, t.header[col], rec[col], line)
}

func parseFloat(file, column, s string, line int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &ParseError{File: file, Line: line, Column: column, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{File: file, Line: line, Column: column, Err: fmt.Errorf("non-finite value %q", s)}
	}
	return v, nil
}

func wrapCSV(name string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &ParseError{File: name, Line: perr.Line, Err: perr.Err}
	}
	return fmt.Errorf("reading %s: %w", name, err)
}
