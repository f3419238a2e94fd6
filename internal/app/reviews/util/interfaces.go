package util

import (
	"context"
	"time"

	"reviewhub/internal/app/reviews/entity"
)

// SummaryCache интерфейс для кеша рейтингов в Redis
// Используется для dependency injection и упрощения тестирования
type SummaryCache interface {
	SetSummary(ctx context.Context, summary *entity.RatingSummary, ttl time.Duration) error
	GetSummary(ctx context.Context, productID string) (*entity.RatingSummary, error)
	DeleteSummary(ctx context.Context, productID string) error
	Close() error
}
