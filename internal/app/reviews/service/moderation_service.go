package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reviewhub/internal/app/reviews/entity"
	"reviewhub/internal/app/reviews/infrastructure"
	"reviewhub/internal/app/reviews/repository"
	"reviewhub/internal/app/reviews/util"
	"reviewhub/pkg/logger"
	"reviewhub/pkg/metrics"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyApproved - повторное одобрение уже одобренного отзыва
	ErrAlreadyApproved = errors.New("review already approved")
)

// ModerationService обрабатывает действия модераторов: одобрение и выделение отзывов.
// Каждое действие попадает в журнал аудита в PostgreSQL
type ModerationService struct {
	reviewRepo    repository.ReviewRepository
	auditRepo     repository.AuditRepository
	summaryCache  util.SummaryCache
	kafkaProducer infrastructure.MessagePublisher
}

// NewModerationService создает сервис модерации с внедрением зависимостей
func NewModerationService(
	reviewRepo repository.ReviewRepository,
	auditRepo repository.AuditRepository,
	summaryCache util.SummaryCache,
	kafkaProducer infrastructure.MessagePublisher,
) *ModerationService {
	return &ModerationService{
		reviewRepo:    reviewRepo,
		auditRepo:     auditRepo,
		summaryCache:  summaryCache,
		kafkaProducer: kafkaProducer,
	}
}

// ApproveReview одобряет отзыв. Предусловие: отзыв еще не одобрен
func (s *ModerationService) ApproveReview(ctx context.Context, reviewID string, actor entity.Viewer) (*entity.Review, error) {
	if err := s.reviewRepo.SetApproved(ctx, reviewID); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		if errors.Is(err, repository.ErrAlreadyApproved) {
			return nil, ErrAlreadyApproved
		}
		return nil, fmt.Errorf("failed to approve review: %w", err)
	}

	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload review: %w", err)
	}

	s.recordAudit(ctx, review, entity.ActionApprove, actor.UserID)
	metrics.ModerationActions.WithLabelValues(string(entity.ActionApprove)).Inc()

	// Одобрение меняет сводку рейтинга товара
	if err := s.summaryCache.DeleteSummary(ctx, review.ProductID); err != nil {
		logger.Warn().Err(err).Str("product_id", review.ProductID).Msg("Failed to invalidate summary cache")
	}

	s.publishEvent(ctx, entity.ReviewEvent{
		EventType: entity.EventReviewApproved,
		ReviewID:  reviewID,
		ProductID: review.ProductID,
		ActorID:   actor.UserID,
		Rating:    review.Rating,
	})

	return review, nil
}

// ToggleFeature переключает флаг is_featured
// Доступно независимо от статуса одобрения
func (s *ModerationService) ToggleFeature(ctx context.Context, reviewID string, actor entity.Viewer) (*entity.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	featured := !review.IsFeatured
	if err := s.reviewRepo.SetFeatured(ctx, reviewID, featured); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to toggle feature: %w", err)
	}
	review.IsFeatured = featured

	action := entity.ActionFeature
	if !featured {
		action = entity.ActionUnfeature
	}
	s.recordAudit(ctx, review, action, actor.UserID)
	metrics.ModerationActions.WithLabelValues(string(action)).Inc()

	return review, nil
}

// GetAuditTrail возвращает историю модерации отзыва
func (s *ModerationService) GetAuditTrail(ctx context.Context, reviewID string) ([]entity.ModerationAudit, error) {
	audits, err := s.auditRepo.ListByReview(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit trail: %w", err)
	}

	return audits, nil
}

func (s *ModerationService) recordAudit(ctx context.Context, review *entity.Review, action entity.ModerationAction, actorID string) {
	audit := &entity.ModerationAudit{
		ReviewID:  review.ID.Hex(),
		ProductID: review.ProductID,
		Action:    action,
		ActorID:   actorID,
	}

	if err := s.auditRepo.Record(ctx, audit); err != nil {
		logger.Error().Err(err).Str("review_id", audit.ReviewID).Str("action", string(action)).Msg("Failed to record moderation audit")
	}
}

func (s *ModerationService) publishEvent(ctx context.Context, event entity.ReviewEvent) {
	event.EventID = uuid.NewString()
	event.Timestamp = time.Now()

	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("event_type", event.EventType).Msg("Failed to marshal review event")
		return
	}

	if err := s.kafkaProducer.PublishMessage(ctx, event.ReviewID, eventData); err != nil {
		logger.Warn().Err(err).Str("event_type", event.EventType).Msg("Failed to publish review event")
	}
}
