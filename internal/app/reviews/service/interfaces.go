package service

import (
	"context"

	"reviewhub/internal/app/reviews/entity"
)

type ReviewServiceInterface interface {
	CreateReview(ctx context.Context, productID string, req *entity.CreateReviewRequest) (*entity.Review, error)
	GetReview(ctx context.Context, reviewID string, viewer entity.Viewer) (*entity.Review, error)
	ListReviews(ctx context.Context, filter entity.ReviewFilter, viewer entity.Viewer) (*entity.ReviewListResponse, error)
	UpdateReview(ctx context.Context, reviewID string, viewer entity.Viewer, req *entity.UpdateReviewRequest) (*entity.Review, error)
	DeleteReview(ctx context.Context, reviewID string, viewer entity.Viewer) error
	SubmitVote(ctx context.Context, reviewID string, viewer entity.Viewer, voteType entity.VoteType) (*entity.Review, error)
	SubmitReport(ctx context.Context, reviewID string, viewer entity.Viewer, req *entity.ReportRequest) error
	GetProductSummary(ctx context.Context, productID string) (*entity.RatingSummary, error)
	RefreshSummaries(ctx context.Context) error
}

type ModerationServiceInterface interface {
	ApproveReview(ctx context.Context, reviewID string, actor entity.Viewer) (*entity.Review, error)
	ToggleFeature(ctx context.Context, reviewID string, actor entity.Viewer) (*entity.Review, error)
	GetAuditTrail(ctx context.Context, reviewID string) ([]entity.ModerationAudit, error)
}
