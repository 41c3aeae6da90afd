package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tweetwriter/tweetwriter/llmapi"
)

func newTestAPIServer(t *testing.T, provider TweetProvider) (*APIServer, *DatabaseService) {
	db := setupTestDB(t)
	logger := newTestLogger()

	llmServer := httptest.NewServer(stubLLMHandler(t, "rewritten tweet"))
	t.Cleanup(llmServer.Close)
	llmApi, err := llmapi.NewLLMClient("test-key", llmServer.URL, "", "")
	require.NoError(t, err)

	cache := NewCacheService(db, logger)
	chain := NewProviderChain([]TweetProvider{provider}, db, logger)
	feed := NewFeedService(db, cache, chain, logger)
	topics := NewTopicService(db, cache, logger)
	enhancements := NewEnhancementService(db, llmApi, logger)

	config := &Config{
		APITokens: map[string]string{"token_alice": "user_alice"},
	}
	return NewAPIServer(config, feed, topics, enhancements, logger), db
}

func doRequest(server *APIServer, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	return rec
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	return response.Error.Code
}

func TestAPIServer_Health(t *testing.T) {
	server, _ := newTestAPIServer(t, &stubProvider{name: PROVIDER_XAPI})

	rec := doRequest(server, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIServer_Authentication(t *testing.T) {
	server, _ := newTestAPIServer(t, &stubProvider{name: PROVIDER_XAPI})

	t.Run("MissingToken", func(t *testing.T) {
		rec := doRequest(server, http.MethodGet, "/api/inspiration/feed", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, ERROR_CODE_UNAUTHENTICATED, decodeErrorCode(t, rec))
	})

	t.Run("UnknownToken", func(t *testing.T) {
		rec := doRequest(server, http.MethodGet, "/api/inspiration/feed", "token_mallory", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, ERROR_CODE_UNAUTHENTICATED, decodeErrorCode(t, rec))
	})
}

func TestAPIServer_Feed(t *testing.T) {
	provider := &stubProvider{name: PROVIDER_XAPI, tweets: stubTweets("primary")}
	server, db := newTestAPIServer(t, provider)
	seedTestTopics(t, db, "technology")
	require.NoError(t, db.AddUserTopicSelection("user_alice", "topic_technology"))

	t.Run("Success", func(t *testing.T) {
		rec := doRequest(server, http.MethodGet, "/api/inspiration/feed", "token_alice", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var page FeedPage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		require.Len(t, page.Tweets, 1)
		assert.Equal(t, "primary_1", page.Tweets[0].TweetID)
		assert.Equal(t, 20, page.Limit)
	})

	t.Run("BadLimit", func(t *testing.T) {
		rec := doRequest(server, http.MethodGet, "/api/inspiration/feed?limit=500", "token_alice", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, ERROR_CODE_VALIDATION, decodeErrorCode(t, rec))
	})

	t.Run("BadTimeRange", func(t *testing.T) {
		rec := doRequest(server, http.MethodGet, "/api/inspiration/feed?timeRange=decade", "token_alice", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, ERROR_CODE_VALIDATION, decodeErrorCode(t, rec))
	})
}

func TestAPIServer_FeedUnavailable(t *testing.T) {
	provider := &stubProvider{name: PROVIDER_XAPI, err: http.ErrHandlerTimeout}
	server, db := newTestAPIServer(t, provider)
	seedTestTopics(t, db, "technology")
	require.NoError(t, db.AddUserTopicSelection("user_alice", "topic_technology"))

	rec := doRequest(server, http.MethodGet, "/api/inspiration/feed", "token_alice", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, ERROR_CODE_PROVIDER_UNAVAILABLE, decodeErrorCode(t, rec))
}

func TestAPIServer_Topics(t *testing.T) {
	server, db := newTestAPIServer(t, &stubProvider{name: PROVIDER_XAPI})
	seedTestTopics(t, db, "technology", "startups", "science", "music", "film", "food")

	t.Run("Suggestions", func(t *testing.T) {
		rec := doRequest(server, http.MethodGet, "/api/topics/suggestions", "token_alice", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var response TopicsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Len(t, response.Topics, 6)
	})

	t.Run("SetSelection", func(t *testing.T) {
		body := `{"topicIds":["topic_technology","topic_science"]}`
		rec := doRequest(server, http.MethodPost, "/api/user/topics", "token_alice", body)
		require.Equal(t, http.StatusOK, rec.Code)

		var response TopicsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Len(t, response.Topics, 2)
	})

	t.Run("GetSelection", func(t *testing.T) {
		rec := doRequest(server, http.MethodGet, "/api/user/topics", "token_alice", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var response TopicsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Len(t, response.Topics, 2)
	})

	t.Run("OverCap", func(t *testing.T) {
		body := `{"topicIds":["topic_technology","topic_startups","topic_science","topic_music","topic_film","topic_food"]}`
		rec := doRequest(server, http.MethodPost, "/api/user/topics", "token_alice", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, ERROR_CODE_VALIDATION, decodeErrorCode(t, rec))
	})

	t.Run("UnknownTopic", func(t *testing.T) {
		body := `{"topicIds":["topic_nonexistent"]}`
		rec := doRequest(server, http.MethodPost, "/api/user/topics", "token_alice", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, ERROR_CODE_VALIDATION, decodeErrorCode(t, rec))
	})
}

func TestAPIServer_Enhancements(t *testing.T) {
	server, _ := newTestAPIServer(t, &stubProvider{name: PROVIDER_XAPI})

	t.Run("Enhance", func(t *testing.T) {
		body := `{"text":"my draft tweet","kind":"improve"}`
		rec := doRequest(server, http.MethodPost, "/api/enhancements", "token_alice", body)
		require.Equal(t, http.StatusOK, rec.Code)

		var result EnhancementResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "rewritten tweet", result.EnhancedText)
	})

	t.Run("UnknownKind", func(t *testing.T) {
		body := `{"text":"my draft tweet","kind":"sarcastic"}`
		rec := doRequest(server, http.MethodPost, "/api/enhancements", "token_alice", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, ERROR_CODE_VALIDATION, decodeErrorCode(t, rec))
	})

	t.Run("History", func(t *testing.T) {
		rec := doRequest(server, http.MethodGet, "/api/enhancements", "token_alice", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var response EnhancementHistoryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Len(t, response.Records, 1)
	})
}
