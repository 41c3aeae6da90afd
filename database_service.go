package main

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DatabaseService struct {
	db *gorm.DB
}

// NewDatabaseService creates a new database service instance
func NewDatabaseService(dbPath string) (*DatabaseService, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Silent to reduce log noise
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	service := &DatabaseService{db: db}

	if err := service.runMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return service, nil
}

func (s *DatabaseService) runMigrations() error {
	return s.db.AutoMigrate(
		&TopicModel{},
		&UserTopicSelectionModel{},
		&CachedTweetModel{},
		&EnhancementRecordModel{},
	)
}

// Topic related methods

// SaveTopic saves or updates a topic
func (s *DatabaseService) SaveTopic(topic TopicModel) error {
	topic.UpdatedAt = time.Now()
	return s.db.Save(&topic).Error
}

// GetTopic retrieves a topic by ID
func (s *DatabaseService) GetTopic(id string) (*TopicModel, error) {
	var topic TopicModel
	err := s.db.Where("id = ?", id).First(&topic).Error
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

// GetTopicBySlug retrieves a topic by slug
func (s *DatabaseService) GetTopicBySlug(slug string) (*TopicModel, error) {
	var topic TopicModel
	err := s.db.Where("slug = ?", slug).First(&topic).Error
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

// ListTopics returns all topics, trending first, then by tweet count
func (s *DatabaseService) ListTopics() ([]TopicModel, error) {
	var topics []TopicModel
	err := s.db.Order("trending DESC, tweet_count DESC, name ASC").Find(&topics).Error
	return topics, err
}

// GetTrendingTopics returns up to limit trending topics
func (s *DatabaseService) GetTrendingTopics(limit int) ([]TopicModel, error) {
	var topics []TopicModel
	err := s.db.Where("trending = ?", true).Order("tweet_count DESC").Limit(limit).Find(&topics).Error
	return topics, err
}

func (s *DatabaseService) GetTopicCount() (int64, error) {
	var count int64
	err := s.db.Model(&TopicModel{}).Count(&count).Error
	return count, err
}

// IncrementTopicTweetCount bumps the aggregate tweet counter for a topic
func (s *DatabaseService) IncrementTopicTweetCount(slug string, delta int) error {
	return s.db.Model(&TopicModel{}).Where("slug = ?", slug).
		Update("tweet_count", gorm.Expr("tweet_count + ?", delta)).Error
}

// Topic selection methods

// GetUserTopicSelections returns the user's current selections
func (s *DatabaseService) GetUserTopicSelections(userID string) ([]UserTopicSelectionModel, error) {
	var selections []UserTopicSelectionModel
	err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&selections).Error
	return selections, err
}

// GetUserTopicSlugs resolves the user's selections to topic slugs
func (s *DatabaseService) GetUserTopicSlugs(userID string) ([]string, error) {
	var slugs []string
	err := s.db.Model(&UserTopicSelectionModel{}).
		Joins("JOIN topics ON topics.id = user_topic_selections.topic_id").
		Where("user_topic_selections.user_id = ?", userID).
		Order("user_topic_selections.created_at ASC").
		Pluck("topics.slug", &slugs).Error
	return slugs, err
}

// AddUserTopicSelection adds a single topic for the user. Fails with
// ErrTopicCapExceeded once the cap is reached, leaving the selection
// set unchanged.
func (s *DatabaseService) AddUserTopicSelection(userID, topicID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&UserTopicSelectionModel{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count >= MAX_TOPIC_SELECTIONS {
			return ErrTopicCapExceeded
		}

		var existing int64
		if err := tx.Model(&UserTopicSelectionModel{}).
			Where("user_id = ? AND topic_id = ?", userID, topicID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrTopicAlreadySelected
		}

		return tx.Create(&UserTopicSelectionModel{
			UserID:    userID,
			TopicID:   topicID,
			CreatedAt: time.Now(),
		}).Error
	})
}

// ReplaceUserTopicSelections swaps the user's selection set atomically.
func (s *DatabaseService) ReplaceUserTopicSelections(userID string, topicIDs []string) error {
	unique := make([]string, 0, len(topicIDs))
	seen := make(map[string]bool)
	for _, id := range topicIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) > MAX_TOPIC_SELECTIONS {
		return ErrTopicCapExceeded
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&UserTopicSelectionModel{}).Error; err != nil {
			return err
		}
		for _, topicID := range unique {
			selection := UserTopicSelectionModel{
				UserID:    userID,
				TopicID:   topicID,
				CreatedAt: time.Now(),
			}
			if err := tx.Create(&selection).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Cached tweet methods (durable cache tier)

// SaveCachedTweets upserts tweets for a topic, each row getting its own
// fresh expiry. Returns the number of rows that did not exist before.
func (s *DatabaseService) SaveCachedTweets(topicSlug string, tweets []CachedTweetModel) (int, error) {
	created := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range tweets {
			tweet := tweets[i]
			tweet.TopicSlug = topicSlug
			tweet.UpdatedAt = time.Now()

			var existing CachedTweetModel
			result := tx.Where("tweet_id = ? AND topic_slug = ?", tweet.TweetID, topicSlug).First(&existing)
			if result.Error == nil {
				tweet.ID = existing.ID
				tweet.CreatedAt = existing.CreatedAt
				if err := tx.Save(&tweet).Error; err != nil {
					return err
				}
			} else if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				tweet.CreatedAt = time.Now()
				if err := tx.Create(&tweet).Error; err != nil {
					return err
				}
				created++
			} else {
				return result.Error
			}
		}
		return nil
	})
	return created, err
}

// GetCachedTweets returns cached tweets for a topic ordered by score.
// With includeExpired=false only rows within their expiry are returned.
func (s *DatabaseService) GetCachedTweets(topicSlug string, includeExpired bool) ([]CachedTweetModel, error) {
	var tweets []CachedTweetModel
	query := s.db.Where("topic_slug = ?", topicSlug)
	if !includeExpired {
		query = query.Where("expires_at > ?", time.Now())
	}
	err := query.Order("score DESC").Find(&tweets).Error
	return tweets, err
}

// DeleteCachedTweetsByTopic removes all durable rows for a topic
func (s *DatabaseService) DeleteCachedTweetsByTopic(topicSlug string) error {
	return s.db.Where("topic_slug = ?", topicSlug).Delete(&CachedTweetModel{}).Error
}

// DeleteExpiredCachedTweets removes rows whose expiry passed more than
// grace ago. Returns the number of deleted rows.
func (s *DatabaseService) DeleteExpiredCachedTweets(grace time.Duration) (int64, error) {
	result := s.db.Where("expires_at < ?", time.Now().Add(-grace)).Delete(&CachedTweetModel{})
	return result.RowsAffected, result.Error
}

func (s *DatabaseService) GetCachedTweetCount() (int64, error) {
	var count int64
	err := s.db.Model(&CachedTweetModel{}).Count(&count).Error
	return count, err
}

// Enhancement record methods

// SaveEnhancementRecord appends one audit record
func (s *DatabaseService) SaveEnhancementRecord(record EnhancementRecordModel) error {
	return s.db.Create(&record).Error
}

// GetEnhancementRecords returns the user's records, newest first
func (s *DatabaseService) GetEnhancementRecords(userID string, limit int) ([]EnhancementRecordModel, error) {
	var records []EnhancementRecordModel
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

func (s *DatabaseService) GetEnhancementRecordCount() (int64, error) {
	var count int64
	err := s.db.Model(&EnhancementRecordModel{}).Count(&count).Error
	return count, err
}

// Close closes the underlying database connection
func (s *DatabaseService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
