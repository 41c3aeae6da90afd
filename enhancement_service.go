package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tweetwriter/tweetwriter/llmapi"
)

// Rewrite instructions per enhancement kind. The text generation
// itself is the LLM's business, this service only does the plumbing
// and keeps the audit trail.
var enhancementInstructions = map[string]string{
	ENHANCEMENT_KIND_EXPAND:  "Rewrite the following tweet with more detail and context. Keep it under 280 characters. Return only the rewritten tweet.",
	ENHANCEMENT_KIND_IMPROVE: "Rewrite the following tweet to be more engaging while keeping its meaning. Keep it under 280 characters. Return only the rewritten tweet.",
	ENHANCEMENT_KIND_SHORTEN: "Rewrite the following tweet to be as concise as possible without losing its point. Return only the rewritten tweet.",
	ENHANCEMENT_KIND_CASUAL:  "Rewrite the following tweet in a casual, conversational tone. Keep it under 280 characters. Return only the rewritten tweet.",
	ENHANCEMENT_KIND_FORMAL:  "Rewrite the following tweet in a professional tone. Keep it under 280 characters. Return only the rewritten tweet.",
}

type EnhancementResult struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	OriginalText string `json:"original_text"`
	EnhancedText string `json:"enhanced_text"`
	DurationMs   int64  `json:"duration_ms"`
}

type EnhancementService struct {
	databaseService *DatabaseService
	llmApi          *llmapi.LLMApi
	logger          *zap.Logger
}

func NewEnhancementService(databaseService *DatabaseService, llmApi *llmapi.LLMApi, logger *zap.Logger) *EnhancementService {
	return &EnhancementService{
		databaseService: databaseService,
		llmApi:          llmApi,
		logger:          logger,
	}
}

// Enhance rewrites text through the LLM and appends an audit record.
func (s *EnhancementService) Enhance(ctx context.Context, userID, text, kind string) (*EnhancementResult, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	instruction, ok := enhancementInstructions[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEnhancementKind, kind)
	}

	start := time.Now()
	enhanced, err := s.llmApi.Rewrite(ctx, text, instruction)
	if err != nil {
		s.logger.Error("llm rewrite failed",
			zap.String("user_id", userID),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return nil, fmt.Errorf("enhance %s: %w", kind, err)
	}
	duration := time.Since(start)

	metadata, _ := json.Marshal(map[string]interface{}{
		"original_length": len(text),
		"enhanced_length": len(enhanced),
	})

	record := EnhancementRecordModel{
		ID:           uuid.NewString(),
		UserID:       userID,
		Kind:         kind,
		OriginalText: text,
		EnhancedText: enhanced,
		Metadata:     string(metadata),
		DurationMs:   duration.Milliseconds(),
		CreatedAt:    time.Now(),
	}
	if err := s.databaseService.SaveEnhancementRecord(record); err != nil {
		// Audit write failure should not eat the result.
		s.logger.Error("enhancement record save failed", zap.String("user_id", userID), zap.Error(err))
	}

	return &EnhancementResult{
		ID:           record.ID,
		Kind:         kind,
		OriginalText: text,
		EnhancedText: enhanced,
		DurationMs:   record.DurationMs,
	}, nil
}

// History returns the user's recent enhancement records.
func (s *EnhancementService) History(userID string, limit int) ([]EnhancementRecordModel, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.databaseService.GetEnhancementRecords(userID, limit)
}
