// Package scheduler runs the periodic sweep that publishes scheduled posts
// when their time arrives.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mycogenesis/contenthub/internal/blogservice"
)

type Scheduler struct {
	manager *blogservice.ContentManager
	cron    *cron.Cron
	logger  *slog.Logger
}

func New(manager *blogservice.ContentManager, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		manager: manager,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start registers the every-minute sweep and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("* * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
		defer cancel()

		if err := s.manager.PublishDuePosts(ctx, time.Now()); err != nil {
			s.logger.Error("scheduled publish sweep failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started")
	return nil
}

// Stop drains running jobs before returning.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
