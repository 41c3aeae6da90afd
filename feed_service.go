package main

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
)

// RankedTweet is a feed item: tweet snapshot plus computed score.
type RankedTweet struct {
	TweetID   string          `json:"tweet_id"`
	TopicSlug string          `json:"topic"`
	Text      string          `json:"text"`
	Author    TweetAuthor     `json:"author"`
	Metrics   MetricsSnapshot `json:"metrics"`
	Score     float64         `json:"score"`
	CreatedAt time.Time       `json:"created_at"`
}

type FeedQuery struct {
	Limit     int
	Offset    int
	Refresh   bool
	TimeRange string
}

// FeedPage is the pagination envelope returned by the feed endpoint.
type FeedPage struct {
	Tweets  []RankedTweet `json:"tweets"`
	Total   int           `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
	HasMore bool          `json:"has_more"`
}

type FeedService struct {
	databaseService *DatabaseService
	cacheService    *CacheService
	providerChain   *ProviderChain
	logger          *zap.Logger
}

func NewFeedService(databaseService *DatabaseService, cacheService *CacheService, providerChain *ProviderChain, logger *zap.Logger) *FeedService {
	return &FeedService{
		databaseService: databaseService,
		cacheService:    cacheService,
		providerChain:   providerChain,
		logger:          logger,
	}
}

// GetFeed assembles the ranked inspiration feed for a user across the
// user's selected topics (trending topics when nothing is selected).
// Each topic goes through the cache tiers unless Refresh forces an
// upstream fetch. The feed is unavailable only when every topic
// exhausted every provider and the stale cache.
func (s *FeedService) GetFeed(ctx context.Context, userID string, query FeedQuery) (*FeedPage, error) {
	start := time.Now()
	defer func() {
		feedDuration.Observe(time.Since(start).Seconds())
	}()

	topics, err := s.resolveTopics(userID)
	if err != nil {
		return nil, err
	}

	since := sinceForTimeRange(query.TimeRange)
	all := make([]RankedTweet, 0)
	failedTopics := 0

	for _, topicSlug := range topics {
		if !query.Refresh {
			if tweets, _, ok := s.cacheService.Lookup(userID, topicSlug, query.TimeRange); ok {
				feedServed.WithLabelValues(FEED_SOURCE_CACHE).Inc()
				all = append(all, tweets...)
				continue
			}
		}

		tweets, _, err := s.fetchAndStoreTopic(ctx, userID, topicSlug, query.TimeRange, since)
		if err != nil {
			failedTopics++
			continue
		}
		all = append(all, tweets...)
	}

	if len(all) == 0 && failedTopics > 0 {
		return nil, ErrFeedUnavailable
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})

	return paginate(all, query.Limit, query.Offset), nil
}

// Refresh forces an upstream re-fetch for the given topics (the user's
// selection when none are given) and reports how many tweets were not
// previously in the durable tier.
func (s *FeedService) Refresh(ctx context.Context, userID string, topicSlugs []string) (int, error) {
	if len(topicSlugs) == 0 {
		resolved, err := s.resolveTopics(userID)
		if err != nil {
			return 0, err
		}
		topicSlugs = resolved
	}

	since := sinceForTimeRange(TIME_RANGE_WEEK)
	newTweets := 0
	failedTopics := 0

	for _, topicSlug := range topicSlugs {
		_, created, err := s.fetchAndStoreTopic(ctx, userID, topicSlug, TIME_RANGE_WEEK, since)
		if err != nil {
			failedTopics++
			continue
		}
		newTweets += created
	}

	if failedTopics == len(topicSlugs) {
		return 0, ErrFeedUnavailable
	}
	return newTweets, nil
}

func (s *FeedService) fetchAndStoreTopic(ctx context.Context, userID, topicSlug, timeRange string, since time.Time) ([]RankedTweet, int, error) {
	fetched, source, err := s.providerChain.Fetch(ctx, topicSlug, since)
	if err != nil {
		if !errors.Is(err, ErrFeedUnavailable) {
			s.logger.Error("topic fetch failed", zap.String("topic", topicSlug), zap.Error(err))
		}
		return nil, 0, err
	}

	tweets := s.rankTweets(topicSlug, fetched)

	if source == FEED_SOURCE_STALE_CACHE {
		// Stale data must not be written forward with a fresh expiry;
		// it is served as-is until a provider recovers.
		feedServed.WithLabelValues(FEED_SOURCE_STALE_CACHE).Inc()
		return tweets, 0, nil
	}

	created, err := s.cacheService.Store(userID, topicSlug, timeRange, tweets)
	if err != nil {
		// Losing the cache write is not losing the feed.
		s.logger.Error("cache store failed", zap.String("topic", topicSlug), zap.Error(err))
	}
	if created > 0 {
		if err := s.databaseService.IncrementTopicTweetCount(topicSlug, created); err != nil {
			s.logger.Warn("tweet count update failed", zap.String("topic", topicSlug), zap.Error(err))
		}
	}
	feedServed.WithLabelValues(FEED_SOURCE_PROVIDER).Inc()
	return tweets, created, nil
}

// rankTweets scores provider tweets and orders them best-first.
func (s *FeedService) rankTweets(topicSlug string, fetched []ProviderTweet) []RankedTweet {
	now := time.Now()
	tweets := make([]RankedTweet, 0, len(fetched))
	for _, tweet := range fetched {
		age := now.Sub(tweet.CreatedAt)
		tweets = append(tweets, RankedTweet{
			TweetID:   tweet.ID,
			TopicSlug: topicSlug,
			Text:      tweet.Text,
			Author:    tweet.Author,
			Metrics:   tweet.Metrics,
			Score:     EngagementScore(tweet.Metrics, tweet.Author.Followers, age),
			CreatedAt: tweet.CreatedAt,
		})
	}
	sort.SliceStable(tweets, func(i, j int) bool {
		return tweets[i].Score > tweets[j].Score
	})
	return tweets
}

func (s *FeedService) resolveTopics(userID string) ([]string, error) {
	slugs, err := s.databaseService.GetUserTopicSlugs(userID)
	if err != nil {
		return nil, err
	}
	if len(slugs) > 0 {
		return slugs, nil
	}

	// No selection yet: fall back to trending topics.
	trending, err := s.databaseService.GetTrendingTopics(3)
	if err != nil {
		return nil, err
	}
	for _, topic := range trending {
		slugs = append(slugs, topic.Slug)
	}
	return slugs, nil
}

func sinceForTimeRange(timeRange string) time.Time {
	now := time.Now()
	switch timeRange {
	case TIME_RANGE_DAY:
		return now.Add(-24 * time.Hour)
	case TIME_RANGE_MONTH:
		return now.Add(-30 * 24 * time.Hour)
	default:
		return now.Add(-7 * 24 * time.Hour)
	}
}

func paginate(tweets []RankedTweet, limit, offset int) *FeedPage {
	total := len(tweets)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return &FeedPage{
		Tweets:  tweets[offset:end],
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
	}
}
