package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	solutionCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dipoleserv_solution_cache_hits_total",
		Help: "Solution lookups served from the in-process cache",
	})
	solutionCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dipoleserv_solution_cache_misses_total",
		Help: "Solution lookups that went to the data source",
	})
	solutionLoadSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dipoleserv_solution_load_seconds",
		Help:    "Time to fetch and parse one solution file",
		Buckets: prometheus.DefBuckets,
	})
	datasetsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dipoleserv_datasets_loaded",
		Help: "1 once the static datasets are loaded",
	})
)
