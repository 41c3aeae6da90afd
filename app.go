package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Application struct {
	config           *Config
	logger           *zap.Logger
	databaseService  *DatabaseService
	apiServer        *APIServer
	cleanupScheduler *CleanupScheduler
}

func NewApplication(
	config *Config,
	logger *zap.Logger,
	databaseService *DatabaseService,
	apiServer *APIServer,
	cleanupScheduler *CleanupScheduler,
) (*Application, error) {
	return &Application{
		config:           config,
		logger:           logger,
		databaseService:  databaseService,
		apiServer:        apiServer,
		cleanupScheduler: cleanupScheduler,
	}, nil
}

func (app *Application) Initialize() error {
	app.logger.Info("database service initialized")

	if err := app.seedTopics(); err != nil {
		return err
	}

	app.cleanupScheduler.Start()

	return nil
}

// seedTopics loads the starter topic catalog on first run.
func (app *Application) seedTopics() error {
	count, err := app.databaseService.GetTopicCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	app.logger.Info("seeding default topics")
	seeds := []struct {
		name     string
		slug     string
		trending bool
	}{
		{"Technology", "technology", true},
		{"Artificial Intelligence", "artificial-intelligence", true},
		{"Startups", "startups", true},
		{"Marketing", "marketing", false},
		{"Design", "design", false},
		{"Productivity", "productivity", false},
		{"Crypto", "crypto", false},
		{"Sports", "sports", false},
		{"Finance", "finance", false},
		{"Health", "health", false},
	}
	for _, seed := range seeds {
		topic := TopicModel{
			ID:        uuid.NewString(),
			Name:      seed.name,
			Slug:      seed.slug,
			Trending:  seed.trending,
			CreatedAt: time.Now(),
		}
		if err := app.databaseService.SaveTopic(topic); err != nil {
			return err
		}
	}
	return nil
}

func (app *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := app.apiServer.Start(app.config.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.apiServer.Shutdown(shutdownCtx)
}

func (app *Application) Shutdown() {
	app.logger.Info("shutting down application")

	app.cleanupScheduler.Stop()

	if err := app.databaseService.Close(); err != nil {
		app.logger.Error("database close failed", zap.Error(err))
	}

	_ = app.logger.Sync()
}
