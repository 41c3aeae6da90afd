package main

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

const cacheTierSize = 4096

// CacheService is the three-tier feed cache: a client-local tier keyed
// per user (5m), a shared tier keyed per topic (30m), and the durable
// rows in the database (2h). A hit at any tier short-circuits the rest
// and is written forward into the faster tiers it missed. Concurrent
// writers on a key are last-writer-wins.
type CacheService struct {
	local           *expirable.LRU[string, []RankedTweet]
	shared          *expirable.LRU[string, []RankedTweet]
	databaseService *DatabaseService
	logger          *zap.Logger
}

func NewCacheService(databaseService *DatabaseService, logger *zap.Logger) *CacheService {
	return &CacheService{
		local:           expirable.NewLRU[string, []RankedTweet](cacheTierSize, nil, CACHE_TTL_LOCAL),
		shared:          expirable.NewLRU[string, []RankedTweet](cacheTierSize, nil, CACHE_TTL_SHARED),
		databaseService: databaseService,
		logger:          logger,
	}
}

func localCacheKey(userID, topicSlug, timeRange string) string {
	return userID + "|" + topicSlug + "|" + timeRange
}

func sharedCacheKey(topicSlug, timeRange string) string {
	return topicSlug + "|" + timeRange
}

// Lookup walks the tiers in order local -> shared -> durable and
// reports which tier resolved the topic.
func (c *CacheService) Lookup(userID, topicSlug, timeRange string) ([]RankedTweet, string, bool) {
	if tweets, ok := c.local.Get(localCacheKey(userID, topicSlug, timeRange)); ok {
		cacheTierHits.WithLabelValues(CACHE_TIER_LOCAL).Inc()
		return tweets, CACHE_TIER_LOCAL, true
	}
	cacheTierMisses.WithLabelValues(CACHE_TIER_LOCAL).Inc()

	if tweets, ok := c.shared.Get(sharedCacheKey(topicSlug, timeRange)); ok {
		cacheTierHits.WithLabelValues(CACHE_TIER_SHARED).Inc()
		c.local.Add(localCacheKey(userID, topicSlug, timeRange), tweets)
		return tweets, CACHE_TIER_SHARED, true
	}
	cacheTierMisses.WithLabelValues(CACHE_TIER_SHARED).Inc()

	rows, err := c.databaseService.GetCachedTweets(topicSlug, false)
	if err != nil {
		// Degrade to a miss, the caller goes straight to the providers.
		c.logger.Warn("durable cache tier unavailable",
			zap.String("topic", topicSlug),
			zap.Error(err),
		)
		cacheTierMisses.WithLabelValues(CACHE_TIER_DURABLE).Inc()
		return nil, "", false
	}
	if len(rows) > 0 {
		cacheTierHits.WithLabelValues(CACHE_TIER_DURABLE).Inc()
		tweets := cachedRowsToRankedTweets(rows)
		c.shared.Add(sharedCacheKey(topicSlug, timeRange), tweets)
		c.local.Add(localCacheKey(userID, topicSlug, timeRange), tweets)
		return tweets, CACHE_TIER_DURABLE, true
	}
	cacheTierMisses.WithLabelValues(CACHE_TIER_DURABLE).Inc()

	return nil, "", false
}

// Store writes freshly fetched tweets into every tier, each with its
// own expiry. Returns how many durable rows did not exist before.
func (c *CacheService) Store(userID, topicSlug, timeRange string, tweets []RankedTweet) (int, error) {
	created, err := c.databaseService.SaveCachedTweets(topicSlug, rankedTweetsToCachedRows(topicSlug, tweets))
	if err != nil {
		return 0, err
	}

	c.shared.Add(sharedCacheKey(topicSlug, timeRange), tweets)
	c.local.Add(localCacheKey(userID, topicSlug, timeRange), tweets)
	return created, nil
}

// InvalidateUser clears every tier for the user immediately after a
// topic-selection change: all of the user's local keys, plus shared and
// durable entries for the topics involved in the change.
func (c *CacheService) InvalidateUser(userID string, topicSlugs []string) {
	for _, key := range c.local.Keys() {
		if strings.HasPrefix(key, userID+"|") {
			c.local.Remove(key)
		}
	}

	timeRanges := []string{TIME_RANGE_DAY, TIME_RANGE_WEEK, TIME_RANGE_MONTH}
	for _, slug := range topicSlugs {
		for _, timeRange := range timeRanges {
			c.shared.Remove(sharedCacheKey(slug, timeRange))
		}
		if err := c.databaseService.DeleteCachedTweetsByTopic(slug); err != nil {
			c.logger.Error("failed to invalidate durable tier",
				zap.String("topic", slug),
				zap.Error(err),
			)
		}
	}
}

func cachedRowsToRankedTweets(rows []CachedTweetModel) []RankedTweet {
	tweets := make([]RankedTweet, 0, len(rows))
	for _, row := range rows {
		tweets = append(tweets, RankedTweet{
			TweetID:   row.TweetID,
			TopicSlug: row.TopicSlug,
			Text:      row.Text,
			Author: TweetAuthor{
				ID:        row.AuthorID,
				Username:  row.AuthorUsername,
				Name:      row.AuthorName,
				AvatarURL: row.AuthorAvatarURL,
				Followers: row.AuthorFollowers,
				Verified:  row.AuthorVerified,
			},
			Metrics: MetricsSnapshot{
				Impressions: row.Impressions,
				Likes:       row.Likes,
				Replies:     row.Replies,
				Reposts:     row.Reposts,
				Quotes:      row.Quotes,
			},
			Score:     row.Score,
			CreatedAt: row.TweetCreatedAt,
		})
	}
	return tweets
}

func rankedTweetsToCachedRows(topicSlug string, tweets []RankedTweet) []CachedTweetModel {
	expiresAt := time.Now().Add(CACHE_TTL_DURABLE)
	rows := make([]CachedTweetModel, 0, len(tweets))
	for _, tweet := range tweets {
		rows = append(rows, CachedTweetModel{
			TweetID:         tweet.TweetID,
			TopicSlug:       topicSlug,
			Text:            tweet.Text,
			AuthorID:        tweet.Author.ID,
			AuthorUsername:  tweet.Author.Username,
			AuthorName:      tweet.Author.Name,
			AuthorAvatarURL: tweet.Author.AvatarURL,
			AuthorFollowers: tweet.Author.Followers,
			AuthorVerified:  tweet.Author.Verified,
			Likes:           tweet.Metrics.Likes,
			Reposts:         tweet.Metrics.Reposts,
			Replies:         tweet.Metrics.Replies,
			Quotes:          tweet.Metrics.Quotes,
			Impressions:     tweet.Metrics.Impressions,
			Score:           tweet.Score,
			TweetCreatedAt:  tweet.CreatedAt,
			ExpiresAt:       expiresAt,
		})
	}
	return rows
}
