package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dipolesim/dipoleserv/slider"
	"github.com/dipolesim/dipoleserv/source"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ChannelTypes = []string{"grad", "mag", "eeg"}
	OutlineNames = []string{"head", "nose", "ear_left", "ear_right", "mask_pos"}
	MeshNames    = []string{"brain", "head", "helmet"}
)

const (
	PositionsFile = "source_locs.csv"
	AnglesFile    = "angles.csv"
	SensorsFile   = "sensor_locs.csv"
	ColormapFile  = "bwr_cmap.csv"
)

// Bundle is everything the viewer needs besides the per-dipole solutions.
type Bundle struct {
	Positions []slider.Point3
	Angles    []slider.Point2
	Sensors   []Sensor
	// keyed by channel type
	Flat map[string][]FlatSensor
	// keyed by channel type, then outline name
	Outlines map[string]map[string][]Point2D
	Meshes   map[string]*Mesh
	Colormap Colormap
}

// Picks returns, for each flat sensor of chType, its row in a solution vector.
func (b *Bundle) Picks(chType string) ([]int, error) {
	flat, ok := b.Flat[chType]
	if !ok {
		return nil, fmt.Errorf("no sensors for channel type %q", chType)
	}
	rows := make(map[string]int, len(b.Sensors))
	for i, s := range b.Sensors {
		rows[s.Name] = i
	}
	picks := make([]int, len(flat))
	for i, f := range flat {
		row, ok := rows[f.Name]
		if !ok {
			return nil, fmt.Errorf("flat sensor %q (%s) not in %s", f.Name, chType, SensorsFile)
		}
		picks[i] = row
	}
	return picks, nil
}

type Options struct {
	// SelectionOnly loads just positions and angles.
	SelectionOnly bool
}

type task struct {
	name     string
	optional bool
	run      func(ctx context.Context) error
}

func open(ctx context.Context, src source.Source, name string, parse func(io.Reader) error) error {
	rc, err := source.OpenData(ctx, src, name)
	if err != nil {
		return err
	}
	defer rc.Close()
	return parse(rc)
}

// Load fetches all datasets concurrently and returns once every required
// one has been parsed. The first failure cancels the rest.
func Load(ctx context.Context, src source.Source, opts Options) (*Bundle, error) {
	b := &Bundle{
		Flat:     map[string][]FlatSensor{},
		Outlines: map[string]map[string][]Point2D{},
		Meshes:   map[string]*Mesh{},
	}
	mtx := sync.Mutex{}

	tasks := []task{
		{name: PositionsFile, run: func(ctx context.Context) (err error) {
			return open(ctx, src, PositionsFile, func(r io.Reader) error {
				b.Positions, err = ParsePoints3(r, PositionsFile)
				return err
			})
		}},
		{name: AnglesFile, run: func(ctx context.Context) (err error) {
			return open(ctx, src, AnglesFile, func(r io.Reader) error {
				b.Angles, err = ParseAngles(r, AnglesFile)
				return err
			})
		}},
	}

	if !opts.SelectionOnly {
		tasks = append(tasks,
			task{name: SensorsFile, run: func(ctx context.Context) (err error) {
				return open(ctx, src, SensorsFile, func(r io.Reader) error {
					b.Sensors, err = ParseSensors(r, SensorsFile)
					return err
				})
			}},
			task{name: ColormapFile, run: func(ctx context.Context) (err error) {
				return open(ctx, src, ColormapFile, func(r io.Reader) error {
					b.Colormap, err = ParseColormap(r, ColormapFile)
					return err
				})
			}},
		)

		for _, mesh := range MeshNames {
			verts, tris := mesh+"_verts.csv", mesh+"_tris.csv"
			tasks = append(tasks, task{name: verts, optional: mesh == "helmet", run: func(ctx context.Context) error {
				vr, err := source.OpenData(ctx, src, verts)
				if err != nil {
					return err
				}
				defer vr.Close()
				tr, err := source.OpenData(ctx, src, tris)
				if err != nil {
					return err
				}
				defer tr.Close()
				m, err := ParseMesh(vr, tr, verts, tris)
				if err != nil {
					return err
				}
				mtx.Lock()
				b.Meshes[mesh] = m
				mtx.Unlock()
				return nil
			}})
		}

		for _, ch := range ChannelTypes {
			flatName := ch + "_sensors_flat.csv"
			tasks = append(tasks, task{name: flatName, run: func(ctx context.Context) error {
				return open(ctx, src, flatName, func(r io.Reader) error {
					flat, err := ParseFlatSensors(r, flatName)
					if err != nil {
						return err
					}
					mtx.Lock()
					b.Flat[ch] = flat
					mtx.Unlock()
					return nil
				})
			}})

			for _, ol := range OutlineNames {
				name := fmt.Sprintf("%s_%s_outlines.csv", ch, ol)
				tasks = append(tasks, task{name: name, optional: true, run: func(ctx context.Context) error {
					return open(ctx, src, name, func(r io.Reader) error {
						pts, err := ParseOutline(r, name)
						if err != nil {
							return err
						}
						mtx.Lock()
						if b.Outlines[ch] == nil {
							b.Outlines[ch] = map[string][]Point2D{}
						}
						b.Outlines[ch][ol] = pts
						mtx.Unlock()
						return nil
					})
				}})
			}
		}
	}

	if err := runTasks(ctx, tasks); err != nil {
		return nil, err
	}
	logrus.Infof("loaded %d positions, %d angles, %d sensors, %d meshes",
		len(b.Positions), len(b.Angles), len(b.Sensors), len(b.Meshes))
	return b, nil
}

func runTasks(ctx context.Context, tasks []task) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			err := t.run(ctx)
			if err == nil {
				logrus.Debugf("loaded %s", t.name)
				return nil
			}
			if t.optional && errors.Is(err, source.ErrNotFound) {
				logrus.Warnf("optional dataset %s not found, skipping", t.name)
				return nil
			}
			return fmt.Errorf("loading %s: %w", t.name, err)
		})
	}
	return g.Wait()
}

// LoadSolution reads the sensor values for one position/angle pair.
func LoadSolution(ctx context.Context, src source.Source, position, angle int) ([]float64, error) {
	name := slider.SolutionName(position, angle)
	var vals []float64
	err := open(ctx, src, name, func(r io.Reader) (err error) {
		vals, err = ParseSolution(r, name)
		return err
	})
	return vals, err
}
