package main

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TopicService struct {
	databaseService *DatabaseService
	cacheService    *CacheService
	logger          *zap.Logger
}

func NewTopicService(databaseService *DatabaseService, cacheService *CacheService, logger *zap.Logger) *TopicService {
	return &TopicService{
		databaseService: databaseService,
		cacheService:    cacheService,
		logger:          logger,
	}
}

// Suggestions returns all topics as selection candidates, trending
// first.
func (s *TopicService) Suggestions() ([]TopicModel, error) {
	return s.databaseService.ListTopics()
}

// GetSelection returns the user's selected topics in selection order.
func (s *TopicService) GetSelection(userID string) ([]TopicModel, error) {
	selections, err := s.databaseService.GetUserTopicSelections(userID)
	if err != nil {
		return nil, err
	}
	topics := make([]TopicModel, 0, len(selections))
	for _, selection := range selections {
		topic, err := s.databaseService.GetTopic(selection.TopicID)
		if err != nil {
			return nil, err
		}
		topics = append(topics, *topic)
	}
	return topics, nil
}

// ReplaceSelection swaps the user's topic selection and invalidates
// every cache tier for the user right away, not lazily.
func (s *TopicService) ReplaceSelection(userID string, topicIDs []string) ([]TopicModel, error) {
	if len(topicIDs) > MAX_TOPIC_SELECTIONS {
		return nil, ErrTopicCapExceeded
	}

	newTopics := make([]TopicModel, 0, len(topicIDs))
	for _, topicID := range topicIDs {
		topic, err := s.databaseService.GetTopic(topicID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topicID)
			}
			return nil, err
		}
		newTopics = append(newTopics, *topic)
	}

	oldSlugs, err := s.databaseService.GetUserTopicSlugs(userID)
	if err != nil {
		return nil, err
	}

	if err := s.databaseService.ReplaceUserTopicSelections(userID, topicIDs); err != nil {
		return nil, err
	}

	affected := make(map[string]bool)
	for _, slug := range oldSlugs {
		affected[slug] = true
	}
	for _, topic := range newTopics {
		affected[topic.Slug] = true
	}
	slugs := make([]string, 0, len(affected))
	for slug := range affected {
		slugs = append(slugs, slug)
	}
	s.cacheService.InvalidateUser(userID, slugs)

	s.logger.Info("topic selection replaced",
		zap.String("user_id", userID),
		zap.Int("topics", len(topicIDs)),
	)
	return newTopics, nil
}

// AddSelection adds one topic, rejected once the cap is reached.
func (s *TopicService) AddSelection(userID string, topicID string) error {
	topic, err := s.databaseService.GetTopic(topicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownTopic, topicID)
		}
		return err
	}

	if err := s.databaseService.AddUserTopicSelection(userID, topicID); err != nil {
		return err
	}

	s.cacheService.InvalidateUser(userID, []string{topic.Slug})
	return nil
}
