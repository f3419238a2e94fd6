package processor

import (
	"context"

	"reviewhub/internal/app/reviews/service"
	"reviewhub/pkg/logger"
	"reviewhub/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// CronScheduler периодически пересчитывает сводки рейтинга товаров,
// чтобы кеш не застревал на устаревших значениях после отказов инвалидации
type CronScheduler struct {
	cron      *cron.Cron
	reviewSvc service.ReviewServiceInterface
}

func NewCronScheduler(reviewSvc service.ReviewServiceInterface) *CronScheduler {
	return &CronScheduler{
		cron:      cron.New(),
		reviewSvc: reviewSvc,
	}
}

func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting summary refresh scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.reviewSvc.RefreshSummaries(ctx); err != nil {
			metrics.SummaryRefreshes.WithLabelValues("failed").Inc()
			logger.Error().Err(err).Msg("Summary refresh failed")
			return
		}
		metrics.SummaryRefreshes.WithLabelValues("success").Inc()
		logger.Info().Msg("Summary refresh completed")
	})

	if err != nil {
		return err
	}

	s.cron.Start()

	// Первичный прогрев кеша при старте сервиса
	if err := s.reviewSvc.RefreshSummaries(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial summary refresh failed")
	}

	return nil
}

func (s *CronScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Summary refresh scheduler stopped")
}
