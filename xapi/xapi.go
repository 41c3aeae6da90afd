package xapi

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// ErrMalformedResponse marks payloads that came back 200 but could not
// be decoded into the documented shape.
var ErrMalformedResponse = errors.New("xapi: malformed response")

const LATEST = "Latest"
const TOP = "Top"

type XAPIService struct {
	apiKey     string
	baseUrl    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewXAPIService(apiKey string, baseUrl string, proxyDSN string) *XAPIService {
	transport := &http.Transport{}
	if proxyDSN != "" {
		proxyURL, err := url.Parse(proxyDSN)
		if err != nil {
			panic(err)
		}

		transport = &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: false,
			},
		}
	}

	return &XAPIService{
		apiKey:  apiKey,
		baseUrl: baseUrl,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

func (s *XAPIService) makeRequest(ctx context.Context, uri string, params map[string]string) (*APIResponse, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("error rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", uri, nil)
	if err != nil {
		return nil, fmt.Errorf("error create request: %w", err)
	}

	req.Header.Set("X-API-Key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	q := req.URL.Query()
	for key, value := range params {
		if value != "" && key == "cursor" {
			unescape, _ := url.QueryUnescape(value)
			q.Add(key, unescape)
		} else if value != "" {
			q.Add(key, value)
		}
	}

	req.URL.RawQuery = q.Encode()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error read response: %w", err)
	}

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		RawBody:    bodyBytes,
	}, nil
}

// SearchTopicTweets runs an advanced search scoped to a topic query.
func (s *XAPIService) SearchTopicTweets(ctx context.Context, request TopicSearchRequest) (*TopicSearchResponse, error) {
	uri := s.baseUrl + "/twitter/tweet/advanced_search"

	params := map[string]string{
		"query": request.Query,
	}

	if request.QueryType != "" {
		params["queryType"] = request.QueryType
	}

	if request.Cursor != "" {
		params["cursor"] = request.Cursor
	}

	if request.SinceTime > 0 {
		params["sinceTime"] = strconv.Itoa(int(request.SinceTime))
	}

	response, err := s.makeRequest(ctx, uri, params)
	if err != nil {
		return nil, fmt.Errorf("error advanced_search: %w", err)
	}

	if response.StatusCode != 200 {
		return nil, fmt.Errorf("error advanced_search, status non 200: %s", string(response.RawBody))
	}

	searchResponse := TopicSearchResponse{}
	err = json.Unmarshal(response.RawBody, &searchResponse)
	if err != nil {
		return nil, fmt.Errorf("%w: advanced_search unmarshal: %s", ErrMalformedResponse, err)
	}
	if searchResponse.Status != "" && searchResponse.Status != "success" {
		return nil, fmt.Errorf("error advanced_search, status %s: %s", searchResponse.Status, searchResponse.Msg)
	}
	return &searchResponse, nil
}

// GetTweetsByIds fetches tweet snapshots in one batch request.
func (s *XAPIService) GetTweetsByIds(ctx context.Context, tweetIds []string) (*TweetsByIdsResponse, error) {
	uri := s.baseUrl + "/twitter/tweets"

	params := map[string]string{
		"tweet_ids": joinIds(tweetIds),
	}

	response, err := s.makeRequest(ctx, uri, params)
	if err != nil {
		return nil, fmt.Errorf("error tweets_by_ids: %w", err)
	}
	if response.StatusCode != 200 {
		return nil, fmt.Errorf("error tweets_by_ids, status non 200: %s", string(response.RawBody))
	}
	tweetsByIdsResponse := TweetsByIdsResponse{}
	err = json.Unmarshal(response.RawBody, &tweetsByIdsResponse)
	if err != nil {
		return nil, fmt.Errorf("%w: tweets_by_ids unmarshal: %s", ErrMalformedResponse, err)
	}
	return &tweetsByIdsResponse, nil
}

func joinIds(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}
