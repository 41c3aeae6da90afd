package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRankedTweets(topicSlug string) []RankedTweet {
	return []RankedTweet{
		{
			TweetID:   "tweet_a",
			TopicSlug: topicSlug,
			Text:      "great insight about " + topicSlug,
			Author:    TweetAuthor{ID: "author_1", Username: "alice", Followers: 5000},
			Metrics:   MetricsSnapshot{Impressions: 10000, Likes: 300},
			Score:     1200.0,
			CreatedAt: time.Now().Add(-3 * time.Hour),
		},
		{
			TweetID:   "tweet_b",
			TopicSlug: topicSlug,
			Text:      "another take on " + topicSlug,
			Author:    TweetAuthor{ID: "author_2", Username: "bob", Followers: 300},
			Metrics:   MetricsSnapshot{Impressions: 2000, Likes: 80},
			Score:     800.0,
			CreatedAt: time.Now().Add(-5 * time.Hour),
		},
	}
}

func TestCacheService_SharedHitBackfillsLocal(t *testing.T) {
	db := setupTestDB(t)
	cache := NewCacheService(db, newTestLogger())

	tweets := sampleRankedTweets("technology")
	cache.shared.Add(sharedCacheKey("technology", TIME_RANGE_WEEK), tweets)

	// Local misses, shared hits; the durable tier has no rows so a
	// durable read would have come back empty.
	result, tier, ok := cache.Lookup("user_1", "technology", TIME_RANGE_WEEK)
	require.True(t, ok)
	assert.Equal(t, CACHE_TIER_SHARED, tier)
	assert.Equal(t, tweets, result)

	// The hit was written forward into the local tier.
	backfilled, ok := cache.local.Get(localCacheKey("user_1", "technology", TIME_RANGE_WEEK))
	require.True(t, ok)
	assert.Equal(t, tweets, backfilled)

	// And the next lookup short-circuits at local.
	_, tier, ok = cache.Lookup("user_1", "technology", TIME_RANGE_WEEK)
	require.True(t, ok)
	assert.Equal(t, CACHE_TIER_LOCAL, tier)
}

func TestCacheService_DurableHitBackfillsFasterTiers(t *testing.T) {
	db := setupTestDB(t)
	cache := NewCacheService(db, newTestLogger())

	tweets := sampleRankedTweets("startups")
	_, err := cache.Store("seed_user", "startups", TIME_RANGE_WEEK, tweets)
	require.NoError(t, err)

	// Another user misses both memory tiers and lands on the durable rows.
	result, tier, ok := cache.Lookup("user_2", "startups", TIME_RANGE_WEEK)
	require.True(t, ok)
	assert.Equal(t, CACHE_TIER_DURABLE, tier)
	require.Len(t, result, 2)
	assert.Equal(t, "tweet_a", result[0].TweetID)

	_, ok = cache.shared.Get(sharedCacheKey("startups", TIME_RANGE_WEEK))
	assert.True(t, ok)
	_, ok = cache.local.Get(localCacheKey("user_2", "startups", TIME_RANGE_WEEK))
	assert.True(t, ok)
}

func TestCacheService_ExpiredDurableRowsAreAMiss(t *testing.T) {
	db := setupTestDB(t)
	cache := NewCacheService(db, newTestLogger())

	_, err := db.SaveCachedTweets("crypto", []CachedTweetModel{{
		TweetID:   "tweet_old",
		Text:      "stale",
		ExpiresAt: time.Now().Add(-time.Minute),
	}})
	require.NoError(t, err)

	_, _, ok := cache.Lookup("user_1", "crypto", TIME_RANGE_WEEK)
	assert.False(t, ok)
}

func TestCacheService_StoreWritesEveryTier(t *testing.T) {
	db := setupTestDB(t)
	cache := NewCacheService(db, newTestLogger())

	tweets := sampleRankedTweets("design")
	created, err := cache.Store("user_1", "design", TIME_RANGE_DAY, tweets)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	_, ok := cache.local.Get(localCacheKey("user_1", "design", TIME_RANGE_DAY))
	assert.True(t, ok)
	_, ok = cache.shared.Get(sharedCacheKey("design", TIME_RANGE_DAY))
	assert.True(t, ok)

	rows, err := db.GetCachedTweets("design", false)
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
	for _, row := range rows {
		assert.WithinDuration(t, time.Now().Add(CACHE_TTL_DURABLE), row.ExpiresAt, time.Minute)
	}

	// Storing the same tweets again is an update, not new rows.
	created, err = cache.Store("user_1", "design", TIME_RANGE_DAY, tweets)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestCacheService_InvalidateUserClearsAllTiers(t *testing.T) {
	db := setupTestDB(t)
	cache := NewCacheService(db, newTestLogger())

	tweets := sampleRankedTweets("health")
	_, err := cache.Store("user_1", "health", TIME_RANGE_WEEK, tweets)
	require.NoError(t, err)
	// A second user's local entry for another topic survives.
	cache.local.Add(localCacheKey("user_2", "health", TIME_RANGE_WEEK), tweets)

	cache.InvalidateUser("user_1", []string{"health"})

	_, ok := cache.local.Get(localCacheKey("user_1", "health", TIME_RANGE_WEEK))
	assert.False(t, ok)
	_, ok = cache.shared.Get(sharedCacheKey("health", TIME_RANGE_WEEK))
	assert.False(t, ok)

	rows, err := db.GetCachedTweets("health", true)
	assert.NoError(t, err)
	assert.Empty(t, rows)

	_, ok = cache.local.Get(localCacheKey("user_2", "health", TIME_RANGE_WEEK))
	assert.True(t, ok)
}
