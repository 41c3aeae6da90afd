package main

import (
	"math"
	"time"
)

// Metric weights, summing to 1.0
const WEIGHT_IMPRESSIONS = 0.40
const WEIGHT_LIKES = 0.25
const WEIGHT_REPLIES = 0.20
const WEIGHT_REPOSTS = 0.10
const WEIGHT_QUOTES = 0.05

const RECENCY_WINDOW = 7 * 24 * time.Hour
const RECENCY_BOOST = 0.3

// Floor for the reach divisor, applied when log10(followers+1) comes
// out below it (followers = 0 gives log10(1) = 0).
const MIN_REACH_DIVISOR = 0.1

// MetricsSnapshot is an engagement metrics snapshot. Missing upstream
// values are zero, which is exactly how they score.
type MetricsSnapshot struct {
	Impressions int `json:"impressions"`
	Likes       int `json:"likes"`
	Replies     int `json:"replies"`
	Reposts     int `json:"reposts"`
	Quotes      int `json:"quotes"`
}

// EngagementScore combines the metric snapshot into a single
// non-negative score: weighted sum, normalized by author reach,
// boosted by recency. All-zero metrics score exactly 0.
func EngagementScore(metrics MetricsSnapshot, followers int, age time.Duration) float64 {
	weighted := WEIGHT_IMPRESSIONS*float64(metrics.Impressions) +
		WEIGHT_LIKES*float64(metrics.Likes) +
		WEIGHT_REPLIES*float64(metrics.Replies) +
		WEIGHT_REPOSTS*float64(metrics.Reposts) +
		WEIGHT_QUOTES*float64(metrics.Quotes)

	if followers < 0 {
		followers = 0
	}
	divisor := math.Log10(float64(followers) + 1)
	if divisor < MIN_REACH_DIVISOR {
		divisor = MIN_REACH_DIVISOR
	}

	return weighted / divisor * RecencyMultiplier(age)
}

// RecencyMultiplier decays linearly from 1+RECENCY_BOOST for a
// brand-new tweet to 1.0 at the end of the window. Older tweets get no
// boost but are not penalized.
func RecencyMultiplier(age time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	remaining := 1 - float64(age)/float64(RECENCY_WINDOW)
	if remaining < 0 {
		remaining = 0
	}
	return 1 + RECENCY_BOOST*remaining
}
