package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheTierHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetwriter_cache_tier_hits_total",
		Help: "Cache lookups resolved at a tier",
	}, []string{"tier"})
	cacheTierMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetwriter_cache_tier_misses_total",
		Help: "Cache lookups that missed a tier",
	}, []string{"tier"})
	providerFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetwriter_provider_fallbacks_total",
		Help: "Provider failures that escalated to the next step",
	}, []string{"provider", "failure"})
	feedServed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetwriter_feed_served_total",
		Help: "Feed topic fetches by source",
	}, []string{"source"})
	feedDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tweetwriter_feed_duration_seconds",
		Help:    "Feed request duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	sweepDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tweetwriter_sweep_deleted_rows_total",
		Help: "Expired durable cache rows removed by the sweep",
	})
)

func init() {
	prometheus.MustRegister(cacheTierHits, cacheTierMisses, providerFallbacks, feedServed, feedDuration, sweepDeleted)
}
