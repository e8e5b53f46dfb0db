package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dipolesim/dipoleserv/dataset"
	"github.com/dipolesim/dipoleserv/source"
	"github.com/gin-contrib/cache"
	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var errNotReady = errors.New("datasets not loaded yet")

type Server struct {
	cfg       Config
	src       source.Source
	bundle    atomic.Pointer[dataset.Bundle]
	solutions *SolutionCache
	health    healthcheck.Handler
	hull      hullCache

	mtx     sync.Mutex
	loadErr error
}

func NewServer(cfg Config, src source.Source) *Server {
	s := &Server{
		cfg:       cfg,
		src:       src,
		solutions: NewSolutionCache(src, cfg.SolutionTTL),
		health:    healthcheck.NewHandler(),
	}
	s.health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(1000))
	s.health.AddReadinessCheck("datasets", s.readyCheck)
	return s
}

func (s *Server) readyCheck() error {
	if s.bundle.Load() != nil {
		return nil
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.loadErr != nil {
		return s.loadErr
	}
	return errNotReady
}

// Load fetches the static datasets; data routes answer 503 until it succeeds.
func (s *Server) Load(ctx context.Context) error {
	start := time.Now()
	b, err := dataset.Load(ctx, s.src, dataset.Options{})
	if err != nil {
		s.mtx.Lock()
		s.loadErr = err
		s.mtx.Unlock()
		return err
	}
	s.bundle.Store(b)
	datasetsLoaded.Set(1)
	logrus.Infof("datasets ready in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// requireBundle stops the request with 503 until Load has finished.
func (s *Server) requireBundle(c *gin.Context) {
	b := s.bundle.Load()
	if b == nil {
		err := s.readyCheck()
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.Set(bundleKey, b)
	c.Next()
}

const bundleKey = "bundle"

func bundleFrom(c *gin.Context) *dataset.Bundle {
	return c.MustGet(bundleKey).(*dataset.Bundle)
}

// pageStores keeps gzip and identity responses apart. CachePage keys on the
// URI only and replays the stored headers, Content-Encoding included.
type pageStores struct {
	gzip  persistence.CacheStore
	plain persistence.CacheStore
}

func newPageStores() pageStores {
	return pageStores{
		gzip:  persistence.NewInMemoryStore(time.Minute),
		plain: persistence.NewInMemoryStore(time.Minute),
	}
}

// compressed mirrors the gzip middleware's decision for this request.
func compressed(c *gin.Context) bool {
	req := c.Request
	return strings.Contains(req.Header.Get("Accept-Encoding"), "gzip") &&
		!strings.Contains(req.Header.Get("Connection"), "Upgrade") &&
		!strings.Contains(req.Header.Get("Accept"), "text/event-stream")
}

// Wrap cache.CachePage and also emit client-side Cache-Control/Expires headers
func cachePageWithClientHeaders(stores pageStores, expiration time.Duration, h gin.HandlerFunc) gin.HandlerFunc {
	gz := cache.CachePage(stores.gzip, expiration, h)
	plain := cache.CachePage(stores.plain, expiration, h)
	return func(c *gin.Context) {
		// Add headers before invoking cached handler
		c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(expiration.Seconds())))
		c.Header("Expires", time.Now().UTC().Add(expiration).Format(http.TimeFormat))
		if compressed(c) {
			gz(c)
		} else {
			plain(c)
		}
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/live", gin.WrapF(s.health.LiveEndpoint))
	r.GET("/ready", gin.WrapF(s.health.ReadyEndpoint))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	store := newPageStores()
	ttl := s.cfg.DatasetTTL

	api := r.Group("/api", s.requireBundle)
	{
		api.GET("/positions", cachePageWithClientHeaders(store, ttl, positionsHandler))
		api.GET("/angles", cachePageWithClientHeaders(store, ttl, anglesHandler))
		api.GET("/meshes/:name", cachePageWithClientHeaders(store, ttl, meshHandler))
		api.GET("/sensors", cachePageWithClientHeaders(store, ttl, sensorsHandler))
		api.GET("/sensors/:chtype/flat", cachePageWithClientHeaders(store, ttl, flatSensorsHandler))
		api.GET("/sensors/:chtype/outlines/:outline", cachePageWithClientHeaders(store, ttl, outlineHandler))
		api.GET("/colormap", cachePageWithClientHeaders(store, ttl, colormapHandler))
		api.GET("/hull", cachePageWithClientHeaders(store, ttl, s.hullHandler))

		api.GET("/ranges", rangesHandler)
		api.POST("/slide", s.slideHandler)

		api.GET("/solutions", s.listSolutionsHandler)
		api.GET("/solution", s.solutionHandler)
		api.GET("/solution/topomap/:chtype", s.topomapHandler)
	}

	// Serve production frontend build (if present)
	r.Static("/assets", s.cfg.StaticDir+"/assets")
	r.StaticFile("/", s.cfg.StaticDir+"/index.html")
	r.NoRoute(func(c *gin.Context) { c.File(s.cfg.StaticDir + "/index.html") })

	return r
}

// Run loads the datasets in the background and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		if err := s.Load(ctx); err != nil {
			logrus.Errorf("loading datasets: %v", err)
		}
	}()

	srv := &http.Server{Addr: s.cfg.Listen, Handler: s.Router()}
	errc := make(chan error, 1)
	go func() {
		logrus.Infof("listening on %s", s.cfg.Listen)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logrus.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
