package grokapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveSearchTopicPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var request chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.NotNil(t, request.SearchParameters)
		assert.Equal(t, "on", request.SearchParameters.Mode)
		require.Len(t, request.SearchParameters.Sources, 1)
		assert.Equal(t, "x", request.SearchParameters.Sources[0].Type)

		w.Write(chatCompletionBody(t, samplePostsArray))
	}))
	defer server.Close()

	api := NewGrokAPIService("test-key", server.URL, "", "")

	posts, err := api.LiveSearchTopicPosts(context.Background(), `"quantum computing" lang:en`, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestLiveSearchTopicPosts_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	api := NewGrokAPIService("test-key", server.URL, "", "")

	_, err := api.LiveSearchTopicPosts(context.Background(), "anything", time.Now())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
}
