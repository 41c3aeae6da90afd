package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const contextKeyUserID = "authenticated_user_id"

type APIServer struct {
	echo               *echo.Echo
	config             *Config
	feedService        *FeedService
	topicService       *TopicService
	enhancementService *EnhancementService
	logger             *zap.Logger
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func NewAPIServer(config *Config, feedService *FeedService, topicService *TopicService, enhancementService *EnhancementService, logger *zap.Logger) *APIServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &APIServer{
		echo:               e,
		config:             config,
		feedService:        feedService,
		topicService:       topicService,
		enhancementService: enhancementService,
		logger:             logger,
	}

	s.registerRoutes()

	return s
}

func (s *APIServer) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api", s.bearerAuth)
	api.GET("/inspiration/feed", s.handleFeed)
	api.POST("/inspiration/refresh", s.handleRefresh)
	api.GET("/user/topics", s.handleGetTopics)
	api.POST("/user/topics", s.handleSetTopics)
	api.GET("/topics/suggestions", s.handleSuggestions)
	api.POST("/enhancements", s.handleEnhance)
	api.GET("/enhancements", s.handleEnhancementHistory)
}

// bearerAuth validates the bearer credential against the configured
// token set and resolves it to a user id. The identity service proper
// is external; the token map stands in for it.
func (s *APIServer) bearerAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return s.errorResponse(c, ErrUnauthenticated)
		}
		token := strings.TrimPrefix(header, "Bearer ")

		userID, ok := s.config.APITokens[token]
		if !ok {
			return s.errorResponse(c, ErrUnauthenticated)
		}

		c.Set(contextKeyUserID, userID)
		return next(c)
	}
}

func (s *APIServer) userID(c echo.Context) string {
	userID, _ := c.Get(contextKeyUserID).(string)
	return userID
}

func (s *APIServer) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *APIServer) handleFeed(c echo.Context) error {
	query, err := parseFeedQuery(c)
	if err != nil {
		return s.errorResponse(c, err)
	}

	page, err := s.feedService.GetFeed(c.Request().Context(), s.userID(c), query)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

type RefreshRequest struct {
	Topics []string `json:"topics"`
}

type RefreshResponse struct {
	NewTweets int `json:"new_tweets"`
}

func (s *APIServer) handleRefresh(c echo.Context) error {
	req := RefreshRequest{}
	if err := c.Bind(&req); err != nil {
		return s.errorResponse(c, ErrValidation)
	}

	newTweets, err := s.feedService.Refresh(c.Request().Context(), s.userID(c), req.Topics)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, RefreshResponse{NewTweets: newTweets})
}

type SetTopicsRequest struct {
	TopicIDs []string `json:"topicIds"`
}

type TopicsResponse struct {
	Topics []TopicModel `json:"topics"`
}

func (s *APIServer) handleGetTopics(c echo.Context) error {
	topics, err := s.topicService.GetSelection(s.userID(c))
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, TopicsResponse{Topics: topics})
}

func (s *APIServer) handleSetTopics(c echo.Context) error {
	req := SetTopicsRequest{}
	if err := c.Bind(&req); err != nil {
		return s.errorResponse(c, ErrValidation)
	}

	topics, err := s.topicService.ReplaceSelection(s.userID(c), req.TopicIDs)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, TopicsResponse{Topics: topics})
}

func (s *APIServer) handleSuggestions(c echo.Context) error {
	topics, err := s.topicService.Suggestions()
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, TopicsResponse{Topics: topics})
}

type EnhanceRequest struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
}

func (s *APIServer) handleEnhance(c echo.Context) error {
	req := EnhanceRequest{}
	if err := c.Bind(&req); err != nil {
		return s.errorResponse(c, ErrValidation)
	}

	result, err := s.enhancementService.Enhance(c.Request().Context(), s.userID(c), req.Text, req.Kind)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type EnhancementHistoryResponse struct {
	Records []EnhancementRecordModel `json:"records"`
}

func (s *APIServer) handleEnhancementHistory(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	records, err := s.enhancementService.History(s.userID(c), limit)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, EnhancementHistoryResponse{Records: records})
}

func parseFeedQuery(c echo.Context) (FeedQuery, error) {
	query := FeedQuery{
		Limit:     20,
		Offset:    0,
		TimeRange: TIME_RANGE_WEEK,
	}

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			return query, ErrValidation
		}
		query.Limit = limit
	}
	if raw := c.QueryParam("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return query, ErrValidation
		}
		query.Offset = offset
	}
	if raw := c.QueryParam("refresh"); raw != "" {
		refresh, err := strconv.ParseBool(raw)
		if err != nil {
			return query, ErrValidation
		}
		query.Refresh = refresh
	}
	if raw := c.QueryParam("timeRange"); raw != "" {
		switch raw {
		case TIME_RANGE_DAY, TIME_RANGE_WEEK, TIME_RANGE_MONTH:
			query.TimeRange = raw
		default:
			return query, ErrValidation
		}
	}

	return query, nil
}

// errorResponse maps error kinds to machine-readable codes. Anything
// unclassified is logged with the request id and returned as a generic
// internal error without leaking details.
func (s *APIServer) errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorBody{
			Code:    ERROR_CODE_VALIDATION,
			Message: err.Error(),
		}})
	case errors.Is(err, ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: ErrorBody{
			Code:    ERROR_CODE_UNAUTHENTICATED,
			Message: "a valid bearer credential is required",
		}})
	case errors.Is(err, ErrFeedUnavailable):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: ErrorBody{
			Code:    ERROR_CODE_PROVIDER_UNAVAILABLE,
			Message: "tweet data is temporarily unavailable",
		}})
	default:
		s.logger.Error("internal error",
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: ErrorBody{
			Code:    ERROR_CODE_INTERNAL,
			Message: "internal error",
		}})
	}
}

// Start starts the HTTP server.
func (s *APIServer) Start(addr string) error {
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
