package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTopicService(t *testing.T) (*TopicService, *CacheService, *DatabaseService) {
	db := setupTestDB(t)
	cache := NewCacheService(db, newTestLogger())
	return NewTopicService(db, cache, newTestLogger()), cache, db
}

func TestTopicService_Suggestions(t *testing.T) {
	service, _, db := newTestTopicService(t)
	seedTestTopics(t, db, "technology", "startups", "science")

	topics, err := service.Suggestions()
	require.NoError(t, err)
	require.Len(t, topics, 3)
	// Trending topics come first.
	assert.Equal(t, "technology", topics[0].Slug)
}

func TestTopicService_ReplaceSelection(t *testing.T) {
	service, _, db := newTestTopicService(t)
	seedTestTopics(t, db, "technology", "startups", "science")

	t.Run("SetsSelection", func(t *testing.T) {
		topics, err := service.ReplaceSelection("user_1", []string{"topic_technology", "topic_science"})
		require.NoError(t, err)
		require.Len(t, topics, 2)

		slugs, err := db.GetUserTopicSlugs("user_1")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"technology", "science"}, slugs)
	})

	t.Run("UnknownTopicRejected", func(t *testing.T) {
		_, err := service.ReplaceSelection("user_1", []string{"topic_nonexistent"})
		assert.ErrorIs(t, err, ErrUnknownTopic)
		assert.ErrorIs(t, err, ErrValidation)

		// The previous selection is untouched.
		slugs, err := db.GetUserTopicSlugs("user_1")
		require.NoError(t, err)
		assert.Len(t, slugs, 2)
	})

	t.Run("OverCapRejected", func(t *testing.T) {
		ids := []string{"t1", "t2", "t3", "t4", "t5", "t6"}
		_, err := service.ReplaceSelection("user_1", ids)
		assert.ErrorIs(t, err, ErrTopicCapExceeded)
	})
}

func TestTopicService_ReplaceSelectionInvalidatesCache(t *testing.T) {
	service, cache, db := newTestTopicService(t)
	seedTestTopics(t, db, "technology", "startups")

	_, err := service.ReplaceSelection("user_1", []string{"topic_technology"})
	require.NoError(t, err)

	// Prime every tier for the old topic.
	_, err = cache.Store("user_1", "technology", TIME_RANGE_WEEK, sampleRankedTweets("technology"))
	require.NoError(t, err)
	_, _, ok := cache.Lookup("user_1", "technology", TIME_RANGE_WEEK)
	require.True(t, ok)

	_, err = service.ReplaceSelection("user_1", []string{"topic_startups"})
	require.NoError(t, err)

	// The abandoned topic's entries are gone immediately.
	_, _, ok = cache.Lookup("user_1", "technology", TIME_RANGE_WEEK)
	assert.False(t, ok)
}

func TestTopicService_AddSelection(t *testing.T) {
	service, _, db := newTestTopicService(t)
	seedTestTopics(t, db, "technology", "startups")

	require.NoError(t, service.AddSelection("user_1", "topic_technology"))

	t.Run("Duplicate", func(t *testing.T) {
		err := service.AddSelection("user_1", "topic_technology")
		assert.ErrorIs(t, err, ErrTopicAlreadySelected)
	})

	t.Run("Unknown", func(t *testing.T) {
		err := service.AddSelection("user_1", "topic_missing")
		assert.ErrorIs(t, err, ErrUnknownTopic)
	})

	slugs, err := db.GetUserTopicSlugs("user_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"technology"}, slugs)
}
