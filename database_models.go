package main

import (
	"time"
)

// Topic model for database storage. Reference data created by
// administrators (or the startup seed), read by users.
type TopicModel struct {
	ID         string    `gorm:"primaryKey;column:id" json:"id"`
	Name       string    `gorm:"column:name" json:"name"`
	Slug       string    `gorm:"column:slug;uniqueIndex" json:"slug"`
	Trending   bool      `gorm:"column:trending;default:false" json:"trending"`
	TweetCount int       `gorm:"column:tweet_count;default:0" json:"tweet_count"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (TopicModel) TableName() string {
	return "topics"
}

// UserTopicSelection associates a user with a topic. A user holds at
// most MAX_TOPIC_SELECTIONS rows, one per topic.
type UserTopicSelectionModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"column:user_id;index;uniqueIndex:idx_user_topic" json:"user_id"`
	TopicID   string    `gorm:"column:topic_id;uniqueIndex:idx_user_topic" json:"topic_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (UserTopicSelectionModel) TableName() string {
	return "user_topic_selections"
}

// CachedTweet is the durable cache tier: a snapshot of an upstream tweet
// with its computed engagement score. Unique per (tweet, topic). Rows
// past ExpiresAt are only served by the stale-read fallback path and are
// removed by the sweep once the stale grace window passes.
type CachedTweetModel struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	TweetID         string    `gorm:"column:tweet_id;uniqueIndex:idx_tweet_topic" json:"tweet_id"`
	TopicSlug       string    `gorm:"column:topic_slug;index;uniqueIndex:idx_tweet_topic" json:"topic_slug"`
	Text            string    `gorm:"column:text" json:"text"`
	AuthorID        string    `gorm:"column:author_id" json:"author_id"`
	AuthorUsername  string    `gorm:"column:author_username" json:"author_username"`
	AuthorName      string    `gorm:"column:author_name" json:"author_name"`
	AuthorAvatarURL string    `gorm:"column:author_avatar_url" json:"author_avatar_url"`
	AuthorFollowers int       `gorm:"column:author_followers" json:"author_followers"`
	AuthorVerified  bool      `gorm:"column:author_verified" json:"author_verified"`
	Likes           int       `gorm:"column:likes" json:"likes"`
	Reposts         int       `gorm:"column:reposts" json:"reposts"`
	Replies         int       `gorm:"column:replies" json:"replies"`
	Quotes          int       `gorm:"column:quotes" json:"quotes"`
	Impressions     int       `gorm:"column:impressions" json:"impressions"`
	Score           float64   `gorm:"column:score;index" json:"score"`
	TweetCreatedAt  time.Time `gorm:"column:tweet_created_at" json:"tweet_created_at"`
	ExpiresAt       time.Time `gorm:"column:expires_at;index" json:"expires_at"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (CachedTweetModel) TableName() string {
	return "cached_tweets"
}

// EnhancementRecord is the append-only audit log of rewrite calls.
type EnhancementRecordModel struct {
	ID           string    `gorm:"primaryKey;column:id" json:"id"`
	UserID       string    `gorm:"column:user_id;index" json:"user_id"`
	Kind         string    `gorm:"column:kind" json:"kind"`
	OriginalText string    `gorm:"column:original_text" json:"original_text"`
	EnhancedText string    `gorm:"column:enhanced_text" json:"enhanced_text"`
	Metadata     string    `gorm:"column:metadata" json:"metadata,omitempty"`
	DurationMs   int64     `gorm:"column:duration_ms" json:"duration_ms"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (EnhancementRecordModel) TableName() string {
	return "enhancement_records"
}
