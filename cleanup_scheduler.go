package main

import (
	"time"

	"go.uber.org/zap"
)

const cleanupInterval = time.Hour

// CleanupScheduler periodically sweeps the durable cache tier. It runs
// independently of request handling. Rows are only removed once they
// have been expired longer than the stale grace window, so the
// fallback chain keeps something to serve during provider outages.
type CleanupScheduler struct {
	databaseService *DatabaseService
	logger          *zap.Logger
	ticker          *time.Ticker
	stopChan        chan bool
}

func NewCleanupScheduler(databaseService *DatabaseService, logger *zap.Logger) *CleanupScheduler {
	return &CleanupScheduler{
		databaseService: databaseService,
		logger:          logger,
		stopChan:        make(chan bool),
	}
}

func (cs *CleanupScheduler) Start() {
	cs.logger.Info("starting cleanup scheduler", zap.Duration("interval", cleanupInterval))

	cs.ticker = time.NewTicker(cleanupInterval)

	go func() {
		defer cs.ticker.Stop()

		for {
			select {
			case <-cs.ticker.C:
				cs.runCleanup()
			case <-cs.stopChan:
				cs.logger.Info("cleanup scheduler stopped")
				return
			}
		}
	}()
}

func (cs *CleanupScheduler) Stop() {
	cs.logger.Info("stopping cleanup scheduler")
	close(cs.stopChan)
	if cs.ticker != nil {
		cs.ticker.Stop()
	}
}

func (cs *CleanupScheduler) runCleanup() {
	deleted, err := cs.databaseService.DeleteExpiredCachedTweets(SWEEP_STALE_GRACE)
	if err != nil {
		cs.logger.Error("cleanup sweep failed", zap.Error(err))
		return
	}
	sweepDeleted.Add(float64(deleted))

	remaining, err := cs.databaseService.GetCachedTweetCount()
	if err != nil {
		cs.logger.Error("cleanup stats failed", zap.Error(err))
		return
	}

	cs.logger.Info("cleanup sweep completed",
		zap.Int64("deleted", deleted),
		zap.Int64("remaining", remaining),
	)
}

// RunCleanupNow triggers a sweep outside the schedule.
func (cs *CleanupScheduler) RunCleanupNow() {
	cs.runCleanup()
}
