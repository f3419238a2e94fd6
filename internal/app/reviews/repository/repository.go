package repository

import (
	"context"

	"reviewhub/internal/app/reviews/entity"
)

// ReviewRepository определяет методы для работы с отзывами в MongoDB
type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetByID(ctx context.Context, id string) (*entity.Review, error)
	List(ctx context.Context, filter entity.ReviewFilter, viewer entity.Viewer) ([]entity.Review, int64, error)
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id string) error
	Vote(ctx context.Context, id string, userID string, voteType entity.VoteType) error
	AggregateSummary(ctx context.Context, productID string) (*entity.RatingSummary, error)
	DistinctProductIDs(ctx context.Context) ([]string, error)
	SetApproved(ctx context.Context, id string) error
	SetFeatured(ctx context.Context, id string, featured bool) error
}

// ReportRepository определяет методы для работы с жалобами в MongoDB
type ReportRepository interface {
	Create(ctx context.Context, report *entity.Report) error
	CountByReview(ctx context.Context, reviewID string) (int64, error)
}

// AuditRepository определяет методы для журнала действий модераторов в PostgreSQL
type AuditRepository interface {
	Record(ctx context.Context, audit *entity.ModerationAudit) error
	ListByReview(ctx context.Context, reviewID string) ([]entity.ModerationAudit, error)
}
