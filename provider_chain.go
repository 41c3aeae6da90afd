package main

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/tweetwriter/tweetwriter/grokapi"
	"github.com/tweetwriter/tweetwriter/xapi"
)

// TweetAuthor is an author snapshot taken at fetch time.
type TweetAuthor struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Followers int    `json:"followers"`
	Verified  bool   `json:"verified"`
}

// ProviderTweet is the provider-neutral tweet shape the chain hands to
// the feed pipeline.
type ProviderTweet struct {
	ID        string
	Text      string
	Author    TweetAuthor
	Metrics   MetricsSnapshot
	CreatedAt time.Time
}

// TweetProvider is one upstream source of topic tweets.
type TweetProvider interface {
	Name() string
	FetchTopicTweets(ctx context.Context, topicSlug string, since time.Time) ([]ProviderTweet, error)
}

// ProviderChain obtains tweets for a topic, escalating through the
// providers in order and finally through stale durable rows. Escalation
// is immediate and stateless, no backoff between steps.
type ProviderChain struct {
	providers       []TweetProvider
	databaseService *DatabaseService
	logger          *zap.Logger
}

func NewProviderChain(providers []TweetProvider, databaseService *DatabaseService, logger *zap.Logger) *ProviderChain {
	return &ProviderChain{
		providers:       providers,
		databaseService: databaseService,
		logger:          logger,
	}
}

// Fetch returns tweets for a topic plus the name of the source that
// produced them. When every provider fails it falls back to last-known
// cached rows, expired included; only after that it gives up with
// ErrFeedUnavailable.
func (pc *ProviderChain) Fetch(ctx context.Context, topicSlug string, since time.Time) ([]ProviderTweet, string, error) {
	for _, provider := range pc.providers {
		tweets, err := provider.FetchTopicTweets(ctx, topicSlug, since)
		if err != nil {
			failureClass := classifyProviderFailure(err)
			providerFallbacks.WithLabelValues(provider.Name(), failureClass).Inc()
			pc.logger.Warn("tweet provider failed, escalating",
				zap.String("provider", provider.Name()),
				zap.String("topic", topicSlug),
				zap.String("failure", failureClass),
				zap.Error(err),
			)
			continue
		}
		return tweets, provider.Name(), nil
	}

	// Last-known cache contents, even if expired.
	rows, err := pc.databaseService.GetCachedTweets(topicSlug, true)
	if err == nil && len(rows) > 0 {
		pc.logger.Warn("all providers failed, serving stale cache",
			zap.String("topic", topicSlug),
			zap.Int("tweets", len(rows)),
		)
		return cachedRowsToProviderTweets(rows), FEED_SOURCE_STALE_CACHE, nil
	}
	if err != nil {
		pc.logger.Error("stale cache read failed", zap.String("topic", topicSlug), zap.Error(err))
	}

	return nil, "", ErrFeedUnavailable
}

// classifyProviderFailure separates "provider returned an error" from
// "provider timed out" from "provider returned malformed data".
func classifyProviderFailure(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return FAILURE_CLASS_TIMEOUT
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FAILURE_CLASS_TIMEOUT
	}
	if errors.Is(err, xapi.ErrMalformedResponse) || errors.Is(err, grokapi.ErrMalformedResponse) {
		return FAILURE_CLASS_MALFORMED
	}
	return FAILURE_CLASS_ERROR
}

func cachedRowsToProviderTweets(rows []CachedTweetModel) []ProviderTweet {
	tweets := make([]ProviderTweet, 0, len(rows))
	for _, row := range rows {
		tweets = append(tweets, ProviderTweet{
			ID:   row.TweetID,
			Text: row.Text,
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
			CreatedAt: row.TweetCreatedAt,
		})
	}
	return tweets
}

// XAPIProvider adapts the conventional search API client.
type XAPIProvider struct {
	api *xapi.XAPIService
}

func NewXAPIProvider(api *xapi.XAPIService) *XAPIProvider {
	return &XAPIProvider{api: api}
}

func (p *XAPIProvider) Name() string {
	return PROVIDER_XAPI
}

func (p *XAPIProvider) FetchTopicTweets(ctx context.Context, topicSlug string, since time.Time) ([]ProviderTweet, error) {
	response, err := p.api.SearchTopicTweets(ctx, xapi.TopicSearchRequest{
		Query:     topicQuery(topicSlug),
		QueryType: xapi.TOP,
		SinceTime: since.Unix(),
	})
	if err != nil {
		return nil, err
	}

	tweets := make([]ProviderTweet, 0, len(response.Tweets))
	for _, tweet := range response.Tweets {
		tweets = append(tweets, ProviderTweet{
			ID:   tweet.Id,
			Text: tweet.Text,
			Author: TweetAuthor{
				ID:        tweet.Author.Id,
				Username:  tweet.Author.UserName,
				Name:      tweet.Author.Name,
				AvatarURL: tweet.Author.ProfilePicture,
				Followers: tweet.Author.Followers,
				Verified:  tweet.Author.IsBlueVerified,
			},
			Metrics: MetricsSnapshot{
				Impressions: tweet.ViewCount,
				Likes:       tweet.LikeCount,
				Replies:     tweet.ReplyCount,
				Reposts:     tweet.RetweetCount,
				Quotes:      tweet.QuoteCount,
			},
			CreatedAt: parseTweetTime(tweet.CreatedAt),
		})
	}
	return tweets, nil
}

// GrokProvider adapts the generative live-search client.
type GrokProvider struct {
	api *grokapi.GrokAPIService
}

func NewGrokProvider(api *grokapi.GrokAPIService) *GrokProvider {
	return &GrokProvider{api: api}
}

func (p *GrokProvider) Name() string {
	return PROVIDER_GROK
}

func (p *GrokProvider) FetchTopicTweets(ctx context.Context, topicSlug string, since time.Time) ([]ProviderTweet, error) {
	posts, err := p.api.LiveSearchTopicPosts(ctx, topicQuery(topicSlug), since)
	if err != nil {
		return nil, err
	}

	tweets := make([]ProviderTweet, 0, len(posts))
	for _, post := range posts {
		tweets = append(tweets, ProviderTweet{
			ID:   post.ID,
			Text: post.Text,
			Author: TweetAuthor{
				ID:        post.Author.ID,
				Username:  post.Author.Username,
				Name:      post.Author.Name,
				AvatarURL: post.Author.AvatarURL,
				Followers: int(post.Author.Followers),
				Verified:  post.Author.Verified,
			},
			Metrics: MetricsSnapshot{
				Impressions: int(post.Impressions),
				Likes:       int(post.Likes),
				Replies:     int(post.Replies),
				Reposts:     int(post.Reposts),
				Quotes:      int(post.Quotes),
			},
			CreatedAt: post.CreatedAt,
		})
	}
	return tweets, nil
}

// topicQuery builds the upstream search query for a topic slug,
// e.g. "machine-learning" -> "\"machine learning\" lang:en".
func topicQuery(topicSlug string) string {
	query := topicSlug
	for i := 0; i < len(query); i++ {
		if query[i] == '-' {
			query = query[:i] + " " + query[i+1:]
		}
	}
	return "\"" + query + "\" lang:en"
}

func parseTweetTime(value string) time.Time {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed
	}
	// Ruby-style timestamp the platform uses in legacy payloads.
	if parsed, err := time.Parse(time.RubyDate, value); err == nil {
		return parsed
	}
	return time.Time{}
}
