package llmapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const ROLE_USER = "user"
const ROLE_ASSISTANT = "assistant"

const DEFAULT_MODEL = "claude-sonnet-4-0"
const DEFAULT_BASE_URL = "https://api.anthropic.com"
const DEFAULT_TEMPERATURE = 0.7
const DEFAULT_MAX_TOKENS = 1000

type LLMApi struct {
	apiKey      string
	baseUrl     string
	client      *http.Client
	model       string
	maxTokens   int
	temperature float32
}

type MessageRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type MessageResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Role       string    `json:"role"`
	Content    []Content `json:"content"`
	Model      string    `json:"model"`
	StopReason string    `json:"stop_reason"`
	Usage      Usage     `json:"usage"`
}

type MessageErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
	Type string `json:"type"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func NewLLMClient(apiKey string, baseUrl string, model string, proxyDSN string) (*LLMApi, error) {
	if baseUrl == "" {
		baseUrl = DEFAULT_BASE_URL
	}
	if model == "" {
		model = DEFAULT_MODEL
	}

	transport := &http.Transport{}
	if proxyDSN != "" {
		proxyURL, err := url.Parse(proxyDSN)
		if err != nil {
			return nil, fmt.Errorf("new llm client proxy dsn error: %s", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	client := &http.Client{
		Timeout:   60 * time.Second,
		Transport: transport,
	}
	return &LLMApi{
		apiKey:      apiKey,
		baseUrl:     baseUrl,
		client:      client,
		model:       model,
		maxTokens:   DEFAULT_MAX_TOKENS,
		temperature: DEFAULT_TEMPERATURE,
	}, nil
}

func (c *LLMApi) SendMessage(ctx context.Context, messages []Message, systemMessage string) (*MessageResponse, error) {
	request := MessageRequest{
		Model:       c.model,
		System:      systemMessage,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	reqBody, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseUrl+"/v1/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		var respData MessageErrorResponse
		err = json.Unmarshal(body, &respData)
		if err != nil {
			return nil, fmt.Errorf("llm SendMessage status code non 200, %d, unmarshal err: %s, body: %s", resp.StatusCode, err, string(body))
		}
		return nil, fmt.Errorf("llm SendMessage status not 200(%d) error: message: %s, type: %s", resp.StatusCode, respData.Error.Message, respData.Error.Type)
	}

	var respData MessageResponse
	err = json.Unmarshal(body, &respData)
	if err != nil {
		return nil, fmt.Errorf("llm SendMessage unmarshal err: %s, body: %s", err, string(body))
	}

	return &respData, nil
}

// Rewrite sends text with a rewrite instruction and returns the
// rewritten text from the first content block.
func (c *LLMApi) Rewrite(ctx context.Context, text string, instruction string) (string, error) {
	response, err := c.SendMessage(ctx, []Message{
		{Role: ROLE_USER, Content: text},
	}, instruction)
	if err != nil {
		return "", err
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("llm Rewrite: empty content in response")
	}
	return response.Content[0].Text, nil
}
