package main

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tweetwriter/tweetwriter/grokapi"
	"github.com/tweetwriter/tweetwriter/llmapi"
	"github.com/tweetwriter/tweetwriter/xapi"
)

type Config struct {
	HTTPAddr     string
	DatabaseName string
	APITokens    map[string]string
	ProxyDSN     string
	LogLevel     string
	XAPIKey      string
	XAPIBaseURL  string
	GrokAPIKey   string
	GrokBaseURL  string
	GrokModel    string
	LLMAPIKey    string
	LLMBaseURL   string
	LLMModel     string
}

func ProvideConfig() (*Config, error) {
	xapiKey := os.Getenv(ENV_XAPI_KEY)
	if xapiKey == "" {
		return nil, fmt.Errorf("primary provider key should be set in .env: %s", ENV_XAPI_KEY)
	}

	xapiBaseURL := os.Getenv(ENV_XAPI_BASE_URL)
	if xapiBaseURL == "" {
		return nil, fmt.Errorf("primary provider base url should be set in .env: %s", ENV_XAPI_BASE_URL)
	}

	tokens, err := parseAPITokens(os.Getenv(ENV_API_TOKENS))
	if err != nil {
		return nil, err
	}

	httpAddr := os.Getenv(ENV_HTTP_ADDR)
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	dbName := os.Getenv(ENV_DATABASE_NAME)
	if dbName == "" {
		dbName = "tweetwriter.db"
	}

	return &Config{
		HTTPAddr:     httpAddr,
		DatabaseName: dbName,
		APITokens:    tokens,
		ProxyDSN:     os.Getenv(ENV_PROXY_DSN),
		LogLevel:     os.Getenv(ENV_LOG_LEVEL),
		XAPIKey:      xapiKey,
		XAPIBaseURL:  xapiBaseURL,
		GrokAPIKey:   os.Getenv(ENV_GROK_API_KEY),
		GrokBaseURL:  os.Getenv(ENV_GROK_BASE_URL),
		GrokModel:    os.Getenv(ENV_GROK_MODEL),
		LLMAPIKey:    os.Getenv(ENV_LLM_API_KEY),
		LLMBaseURL:   os.Getenv(ENV_LLM_BASE_URL),
		LLMModel:     os.Getenv(ENV_LLM_MODEL),
	}, nil
}

// parseAPITokens parses "token1:user1,token2:user2" into a lookup map.
func parseAPITokens(raw string) (map[string]string, error) {
	tokens := make(map[string]string)
	if raw == "" {
		return tokens, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid %s entry: %q, expected token:user_id", ENV_API_TOKENS, pair)
		}
		tokens[parts[0]] = parts[1]
	}
	return tokens, nil
}

func ProvideLogger(config *Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if config.LogLevel != "" {
		parsed, err := zapcore.ParseLevel(config.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", ENV_LOG_LEVEL, err)
		}
		level = parsed
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	return zapConfig.Build()
}

func ProvideDatabaseService(config *Config) (*DatabaseService, error) {
	return NewDatabaseService(config.DatabaseName)
}

func ProvideXAPIService(config *Config) *xapi.XAPIService {
	return xapi.NewXAPIService(config.XAPIKey, config.XAPIBaseURL, config.ProxyDSN)
}

func ProvideGrokAPIService(config *Config) *grokapi.GrokAPIService {
	return grokapi.NewGrokAPIService(config.GrokAPIKey, config.GrokBaseURL, config.GrokModel, config.ProxyDSN)
}

func ProvideLLMApi(config *Config) (*llmapi.LLMApi, error) {
	return llmapi.NewLLMClient(config.LLMAPIKey, config.LLMBaseURL, config.LLMModel, config.ProxyDSN)
}

func ProvideProviderChain(xapiService *xapi.XAPIService, grokService *grokapi.GrokAPIService, databaseService *DatabaseService, logger *zap.Logger) *ProviderChain {
	providers := []TweetProvider{
		NewXAPIProvider(xapiService),
		NewGrokProvider(grokService),
	}
	return NewProviderChain(providers, databaseService, logger)
}

func ProvideCacheService(databaseService *DatabaseService, logger *zap.Logger) *CacheService {
	return NewCacheService(databaseService, logger)
}

func ProvideFeedService(databaseService *DatabaseService, cacheService *CacheService, providerChain *ProviderChain, logger *zap.Logger) *FeedService {
	return NewFeedService(databaseService, cacheService, providerChain, logger)
}

func ProvideTopicService(databaseService *DatabaseService, cacheService *CacheService, logger *zap.Logger) *TopicService {
	return NewTopicService(databaseService, cacheService, logger)
}

func ProvideEnhancementService(databaseService *DatabaseService, llmApi *llmapi.LLMApi, logger *zap.Logger) *EnhancementService {
	return NewEnhancementService(databaseService, llmApi, logger)
}

func ProvideAPIServer(config *Config, feedService *FeedService, topicService *TopicService, enhancementService *EnhancementService, logger *zap.Logger) *APIServer {
	return NewAPIServer(config, feedService, topicService, enhancementService, logger)
}

func ProvideCleanupScheduler(databaseService *DatabaseService, logger *zap.Logger) *CleanupScheduler {
	return NewCleanupScheduler(databaseService, logger)
}

func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(ProvideConfig); err != nil {
		return nil, fmt.Errorf("failed to provide config: %w", err)
	}

	if err := container.Provide(ProvideLogger); err != nil {
		return nil, fmt.Errorf("failed to provide logger: %w", err)
	}

	if err := container.Provide(ProvideDatabaseService); err != nil {
		return nil, fmt.Errorf("failed to provide database service: %w", err)
	}

	if err := container.Provide(ProvideXAPIService); err != nil {
		return nil, fmt.Errorf("failed to provide xapi service: %w", err)
	}

	if err := container.Provide(ProvideGrokAPIService); err != nil {
		return nil, fmt.Errorf("failed to provide grok service: %w", err)
	}

	if err := container.Provide(ProvideLLMApi); err != nil {
		return nil, fmt.Errorf("failed to provide llm api: %w", err)
	}

	if err := container.Provide(ProvideProviderChain); err != nil {
		return nil, fmt.Errorf("failed to provide provider chain: %w", err)
	}

	if err := container.Provide(ProvideCacheService); err != nil {
		return nil, fmt.Errorf("failed to provide cache service: %w", err)
	}

	if err := container.Provide(ProvideFeedService); err != nil {
		return nil, fmt.Errorf("failed to provide feed service: %w", err)
	}

	if err := container.Provide(ProvideTopicService); err != nil {
		return nil, fmt.Errorf("failed to provide topic service: %w", err)
	}

	if err := container.Provide(ProvideEnhancementService); err != nil {
		return nil, fmt.Errorf("failed to provide enhancement service: %w", err)
	}

	if err := container.Provide(ProvideAPIServer); err != nil {
		return nil, fmt.Errorf("failed to provide api server: %w", err)
	}

	if err := container.Provide(ProvideCleanupScheduler); err != nil {
		return nil, fmt.Errorf("failed to provide cleanup scheduler: %w", err)
	}

	if err := container.Provide(NewApplication); err != nil {
		return nil, fmt.Errorf("failed to provide application: %w", err)
	}

	return container, nil
}
