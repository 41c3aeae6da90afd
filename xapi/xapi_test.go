package xapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchTopicTweets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/twitter/tweet/advanced_search", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, `"machine learning" lang:en`, r.URL.Query().Get("query"))
		assert.Equal(t, TOP, r.URL.Query().Get("queryType"))
		assert.NotEmpty(t, r.URL.Query().Get("sinceTime"))

		json.NewEncoder(w).Encode(TopicSearchResponse{
			Status: "success",
			Tweets: []Tweet{
				{
					Id:        "1234567890",
					Text:      "neural nets keep getting weirder",
					LikeCount: 320,
					ViewCount: 15000,
					CreatedAt: "2025-08-20T10:30:00Z",
					Author: Author{
						Id:        "42",
						UserName:  "ml_person",
						Followers: 12000,
					},
				},
			},
			HasNextPage: true,
			NextCursor:  "cursor_next",
		})
	}))
	defer server.Close()

	api := NewXAPIService("test-api-key", server.URL, "")

	response, err := api.SearchTopicTweets(context.Background(), TopicSearchRequest{
		Query:     `"machine learning" lang:en`,
		QueryType: TOP,
		SinceTime: 1755000000,
	})
	require.NoError(t, err)

	require.Len(t, response.Tweets, 1)
	assert.Equal(t, "1234567890", response.Tweets[0].Id)
	assert.Equal(t, "ml_person", response.Tweets[0].Author.UserName)
	assert.Equal(t, 12000, response.Tweets[0].Author.Followers)
	assert.True(t, response.HasNextPage)
	assert.Equal(t, "cursor_next", response.NextCursor)
}

func TestSearchTopicTweets_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"msg":"rate limited"}`))
	}))
	defer server.Close()

	api := NewXAPIService("test-api-key", server.URL, "")

	_, err := api.SearchTopicTweets(context.Background(), TopicSearchRequest{Query: "anything"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
	assert.Contains(t, err.Error(), "status non 200")
}

func TestSearchTopicTweets_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>definitely not json</html>`))
	}))
	defer server.Close()

	api := NewXAPIService("test-api-key", server.URL, "")

	_, err := api.SearchTopicTweets(context.Background(), TopicSearchRequest{Query: "anything"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestSearchTopicTweets_UpstreamErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(TopicSearchResponse{Status: "error", Msg: "invalid query"})
	}))
	defer server.Close()

	api := NewXAPIService("test-api-key", server.URL, "")

	_, err := api.SearchTopicTweets(context.Background(), TopicSearchRequest{Query: "anything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid query")
}

func TestGetTweetsByIds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/twitter/tweets", r.URL.Path)
		assert.Equal(t, "111,222", r.URL.Query().Get("tweet_ids"))

		json.NewEncoder(w).Encode(TweetsByIdsResponse{
			Status: "success",
			Tweets: []Tweet{{Id: "111"}, {Id: "222"}},
		})
	}))
	defer server.Close()

	api := NewXAPIService("test-api-key", server.URL, "")

	response, err := api.GetTweetsByIds(context.Background(), []string{"111", "222"})
	require.NoError(t, err)
	assert.Len(t, response.Tweets, 2)
}
