package main

import (
	"context"
	"time"

	"github.com/dipolesim/dipoleserv/dataset"
	"github.com/dipolesim/dipoleserv/slider"
	"github.com/dipolesim/dipoleserv/source"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

const (
	fetchTimeout = 30 * time.Second
	// background prefetches allowed at once, and fetches within each
	maxPrefetches   = 2
	prefetchWorkers = 4
)

// SolutionCache keeps recently used field solutions in memory. Concurrent
// requests for the same solution share one fetch.
type SolutionCache struct {
	src      source.Source
	cache    *gocache.Cache
	group    singleflight.Group
	inflight *semaphore.Weighted
}

func NewSolutionCache(src source.Source, ttl time.Duration) *SolutionCache {
	return &SolutionCache{
		src:      src,
		cache:    gocache.New(ttl, 2*ttl),
		inflight: semaphore.NewWeighted(maxPrefetches),
	}
}

func (sc *SolutionCache) Get(ctx context.Context, position, angle int) ([]float64, error) {
	name := slider.SolutionName(position, angle)
	if v, ok := sc.cache.Get(name); ok {
		solutionCacheHits.Inc()
		return v.([]float64), nil
	}
	solutionCacheMisses.Inc()

	logrus.Debugf("%q not in cache", name)
	// shared by every waiter, so detached from the caller that started it
	ch := sc.group.DoChan(name, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		timer := prometheus.NewTimer(solutionLoadSeconds)
		defer timer.ObserveDuration()

		vals, err := dataset.LoadSolution(fctx, sc.src, position, angle)
		if err != nil {
			return nil, err
		}
		sc.cache.SetDefault(name, vals)
		return vals, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]float64), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Prefetch warms the cache with the solutions one slider step away from
// the session's selection on every axis.
func (sc *SolutionCache) Prefetch(ctx context.Context, s *slider.Session) {
	type pair struct{ position, angle int }
	seen := map[pair]struct{}{}
	for _, axis := range slider.Axes {
		r, err := s.Range(axis)
		if err != nil {
			continue
		}
		for _, rank := range []int{r.Rank - 1, r.Rank + 1} {
			if rank < 0 || rank > r.Max() {
				continue
			}
			p := pair{s.Position, s.Angle}
			if axis.IsPosition() {
				p.position = r.Indices[rank]
			} else {
				p.angle = r.Indices[rank]
			}
			seen[p] = struct{}{}
		}
	}

	var g errgroup.Group
	g.SetLimit(prefetchWorkers)
	for p := range seen {
		g.Go(func() error {
			if _, err := sc.Get(ctx, p.position, p.angle); err != nil {
				logrus.Debugf("prefetch %s: %v", slider.SolutionName(p.position, p.angle), err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// PrefetchAsync runs Prefetch in the background unless maxPrefetches are
// already running. It reports whether a prefetch was started.
func (sc *SolutionCache) PrefetchAsync(s *slider.Session) bool {
	if !sc.inflight.TryAcquire(1) {
		logrus.Debugf("prefetch for %s skipped, %d already running", s.SolutionName(), maxPrefetches)
		return false
	}
	go func() {
		defer sc.inflight.Release(1)
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		sc.Prefetch(ctx, s)
	}()
	return true
}
