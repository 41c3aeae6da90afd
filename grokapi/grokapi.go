package grokapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// ErrMalformedResponse marks a reply the service returned successfully
// but whose content could not be parsed into posts. The model is asked
// for strict JSON; it does not always comply.
var ErrMalformedResponse = errors.New("grokapi: malformed response")

const DEFAULT_MODEL = "grok-3-latest"
const DEFAULT_BASE_URL = "https://api.x.ai"

const searchPromptTemplate = `Search X for recent popular posts about "%s" posted after %s. ` +
	`Respond with ONLY a JSON array, no prose. Each element: {"id": "<post id>", "text": "<post text>", ` +
	`"created_at": "<RFC3339>", "likes": 0, "reposts": 0, "replies": 0, "quotes": 0, "impressions": 0, ` +
	`"author": {"id": "", "username": "", "name": "", "avatar_url": "", "followers": 0, "verified": false}}`

type GrokAPIService struct {
	apiKey     string
	baseUrl    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewGrokAPIService(apiKey string, baseUrl string, model string, proxyDSN string) *GrokAPIService {
	if baseUrl == "" {
		baseUrl = DEFAULT_BASE_URL
	}
	if model == "" {
		model = DEFAULT_MODEL
	}

	transport := &http.Transport{}
	if proxyDSN != "" {
		proxyURL, err := url.Parse(proxyDSN)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &GrokAPIService{
		apiKey:  apiKey,
		baseUrl: baseUrl,
		model:   model,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(1), 2),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model            string            `json:"model"`
	Messages         []chatMessage     `json:"messages"`
	SearchParameters *searchParameters `json:"search_parameters,omitempty"`
	Temperature      float32           `json:"temperature"`
}

type searchParameters struct {
	Mode     string         `json:"mode"`
	Sources  []searchSource `json:"sources"`
	FromDate string         `json:"from_date,omitempty"`
}

type searchSource struct {
	Type string `json:"type"`
}

// LiveSearchTopicPosts asks the generative service (which has live X
// search access) for recent posts about a topic. The reply content is
// expected to be a strict JSON array of posts.
func (s *GrokAPIService) LiveSearchTopicPosts(ctx context.Context, topicQuery string, since time.Time) ([]Post, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("error rate limit wait: %w", err)
	}

	request := chatCompletionRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(searchPromptTemplate, topicQuery, since.Format(time.RFC3339))},
		},
		SearchParameters: &searchParameters{
			Mode:     "on",
			Sources:  []searchSource{{Type: "x"}},
			FromDate: since.Format("2006-01-02"),
		},
		Temperature: 0.01,
	}
	reqBody, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseUrl+"/v1/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error live search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error live search read body: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("error live search, status non 200: %d, body: %s", resp.StatusCode, string(body))
	}

	return ParseLiveSearchPosts(body)
}
