package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
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
	// Ошибки бизнес-логики для обработки в handlers
	ErrReviewNotFound    = errors.New("review not found")
	ErrUnauthorized      = errors.New("unauthorized access to review")
	ErrIdentityRequired  = errors.New("acting identity required")
	ErrRatingNotSelected = errors.New("rating not selected")
	ErrContentTooShort   = errors.New("content too short")
	ErrTooManyImages     = errors.New("too many images")
	ErrImageTooLarge     = errors.New("image too large")
)

const (
	minContentLength = 10
	maxImages        = 5
	maxImageBytes    = 5 << 20 // 5MB на файл изображения
)

// ReviewService обрабатывает бизнес-логику отзывов:
// создание, выборку с правилами видимости, голоса, жалобы и рейтинги.
// Координирует MongoDB, Redis и Kafka
type ReviewService struct {
	reviewRepo    repository.ReviewRepository
	reportRepo    repository.ReportRepository
	auditRepo     repository.AuditRepository
	summaryCache  util.SummaryCache
	kafkaProducer infrastructure.MessagePublisher
	summaryTTL    time.Duration
}

// NewReviewService создает новый сервис отзывов с внедрением зависимостей
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	reportRepo repository.ReportRepository,
	auditRepo repository.AuditRepository,
	summaryCache util.SummaryCache,
	kafkaProducer infrastructure.MessagePublisher,
	summaryTTL time.Duration,
) *ReviewService {
	return &ReviewService{
		reviewRepo:    reviewRepo,
		reportRepo:    reportRepo,
		auditRepo:     auditRepo,
		summaryCache:  summaryCache,
		kafkaProducer: kafkaProducer,
		summaryTTL:    summaryTTL,
	}
}

// CreateReview создает новый отзыв
// Отзыв всегда создается неодобренным: is_approved выставляет только модератор
func (s *ReviewService) CreateReview(ctx context.Context, productID string, req *entity.CreateReviewRequest) (*entity.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrRatingNotSelected
	}
	if len(strings.TrimSpace(req.Content)) < minContentLength {
		return nil, ErrContentTooShort
	}
	if err := validateImages(req.Images); err != nil {
		return nil, err
	}

	review := &entity.Review{
		ProductID:          productID,
		ReviewerName:       strings.TrimSpace(req.ReviewerName),
		ReviewerEmail:      req.ReviewerEmail,
		Title:              req.Title,
		Content:            req.Content,
		Rating:             req.Rating,
		IsVerifiedPurchase: req.IsVerifiedPurchase,
		IsApproved:         false,
		Images:             req.Images,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	metrics.ReviewsCreated.Inc()
	metrics.ReviewsRating.WithLabelValues().Observe(float64(review.Rating))

	s.publishEvent(ctx, entity.ReviewEvent{
		EventType: entity.EventReviewCreated,
		ReviewID:  review.ID.Hex(),
		ProductID: review.ProductID,
		Rating:    review.Rating,
	})

	return review, nil
}

// GetReview получает отзыв по ID с учетом правила видимости:
// неодобренный отзыв для постороннего неотличим от несуществующего
func (s *ReviewService) GetReview(ctx context.Context, reviewID string, viewer entity.Viewer) (*entity.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	if !review.VisibleTo(viewer) {
		return nil, ErrReviewNotFound
	}

	return review, nil
}

// ListReviews возвращает страницу отзывов товара с фильтрами,
// полями для текущего пользователя и сводкой рейтинга
func (s *ReviewService) ListReviews(ctx context.Context, filter entity.ReviewFilter, viewer entity.Viewer) (*entity.ReviewListResponse, error) {
	filter = filter.ForViewer(viewer)

	reviews, total, err := s.reviewRepo.List(ctx, filter, viewer)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	responses := make([]entity.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		responses = append(responses, reviews[i].ToResponse(viewer))
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))

	summary, err := s.GetProductSummary(ctx, filter.ProductID)
	if err != nil {
		// Список важнее сводки: отдаем отзывы без нее
		logger.Warn().Err(err).Str("product_id", filter.ProductID).Msg("Failed to load rating summary")
		summary = nil
	}

	return &entity.ReviewListResponse{
		Reviews: responses,
		Pagination: entity.PaginationInfo{
			Page:       filter.Page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    filter.Page < totalPages,
			HasPrev:    filter.Page > 1,
		},
		Summary: summary,
	}, nil
}

// UpdateReview обновляет отзыв. Редактировать может только автор (по email)
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID string, viewer entity.Viewer, req *entity.UpdateReviewRequest) (*entity.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	if !viewer.IsAuthor(review) {
		return nil, ErrUnauthorized
	}

	// Обновляем только переданные поля
	if req.Title != "" {
		review.Title = req.Title
	}
	if req.Content != "" {
		if len(strings.TrimSpace(req.Content)) < minContentLength {
			return nil, ErrContentTooShort
		}
		review.Content = req.Content
	}
	if req.Rating > 0 {
		review.Rating = req.Rating
	}
	if req.Images != nil {
		if err := validateImages(req.Images); err != nil {
			return nil, err
		}
		review.Images = req.Images
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	// Оценка могла измениться - сводка пересчитается при следующем чтении
	s.invalidateSummary(ctx, review.ProductID)

	return review, nil
}

// DeleteReview удаляет отзыв. Разрешено автору и модератору, удаление необратимо
// Удаление модератором чужого отзыва попадает в журнал аудита
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID string, viewer entity.Viewer) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to get review: %w", err)
	}

	if !viewer.IsAuthor(review) && !viewer.IsModerator() {
		return ErrUnauthorized
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if viewer.IsModerator() && !viewer.IsAuthor(review) {
		s.recordAudit(ctx, review, entity.ActionDelete, viewer.UserID)
		metrics.ModerationActions.WithLabelValues(string(entity.ActionDelete)).Inc()
	}

	s.invalidateSummary(ctx, review.ProductID)

	s.publishEvent(ctx, entity.ReviewEvent{
		EventType: entity.EventReviewDeleted,
		ReviewID:  reviewID,
		ProductID: review.ProductID,
		ActorID:   viewer.UserID,
	})

	return nil
}

// SubmitVote записывает голос пользователя за отзыв.
// Сервер гарантирует не более одного голоса на пользователя:
// повтор в том же направлении - no-op, противоположный голос переносится атомарно.
// Анонимные голоса не принимаются
func (s *ReviewService) SubmitVote(ctx context.Context, reviewID string, viewer entity.Viewer, voteType entity.VoteType) (*entity.Review, error) {
	if viewer.UserID == "" {
		return nil, ErrIdentityRequired
	}

	review, err := s.GetReview(ctx, reviewID, viewer)
	if err != nil {
		return nil, err
	}

	if err := s.reviewRepo.Vote(ctx, reviewID, viewer.UserID, voteType); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}

	metrics.ReviewVotes.WithLabelValues(string(voteType)).Inc()

	s.publishEvent(ctx, entity.ReviewEvent{
		EventType: entity.EventReviewVoted,
		ReviewID:  reviewID,
		ProductID: review.ProductID,
		ActorID:   viewer.UserID,
		VoteType:  voteType,
	})

	// Возвращаем свежее состояние, чтобы клиент перечитал счетчики с сервера
	updated, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload review: %w", err)
	}

	return updated, nil
}

// SubmitReport записывает жалобу на отзыв fire-and-forget.
// Повторные жалобы не дедуплицируются, отзыв локально не помечается
func (s *ReviewService) SubmitReport(ctx context.Context, reviewID string, viewer entity.Viewer, req *entity.ReportRequest) error {
	review, err := s.GetReview(ctx, reviewID, viewer)
	if err != nil {
		return err
	}

	report := &entity.Report{
		ReviewID:   reviewID,
		ProductID:  review.ProductID,
		Reason:     req.Reason,
		Comment:    req.Comment,
		ReporterID: viewer.UserID,
	}

	if err := s.reportRepo.Create(ctx, report); err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	metrics.ReviewReports.WithLabelValues(string(req.Reason)).Inc()

	s.publishEvent(ctx, entity.ReviewEvent{
		EventType: entity.EventReviewReported,
		ReviewID:  reviewID,
		ProductID: review.ProductID,
		ActorID:   viewer.UserID,
		Reason:    string(req.Reason),
	})

	return nil
}

// GetProductSummary возвращает сводку рейтинга товара.
// Сначала Redis, при промахе - агрегация по MongoDB с записью в кеш
func (s *ReviewService) GetProductSummary(ctx context.Context, productID string) (*entity.RatingSummary, error) {
	cached, err := s.summaryCache.GetSummary(ctx, productID)
	if err != nil {
		logger.Warn().Err(err).Str("product_id", productID).Msg("Summary cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	summary, err := s.reviewRepo.AggregateSummary(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate summary: %w", err)
	}

	if err := s.summaryCache.SetSummary(ctx, summary, s.summaryTTL); err != nil {
		logger.Warn().Err(err).Str("product_id", productID).Msg("Summary cache write failed")
	}

	return summary, nil
}

// RefreshSummaries пересчитывает сводки рейтинга всех товаров с отзывами
// Вызывается cron-планировщиком
func (s *ReviewService) RefreshSummaries(ctx context.Context) error {
	productIDs, err := s.reviewRepo.DistinctProductIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list products for refresh: %w", err)
	}

	for _, productID := range productIDs {
		summary, err := s.reviewRepo.AggregateSummary(ctx, productID)
		if err != nil {
			logger.Error().Err(err).Str("product_id", productID).Msg("Summary refresh failed")
			continue
		}
		if err := s.summaryCache.SetSummary(ctx, summary, s.summaryTTL); err != nil {
			logger.Error().Err(err).Str("product_id", productID).Msg("Summary cache write failed")
		}
	}

	return nil
}

// recordAudit пишет запись в журнал модерации.
// Ошибка журнала логируется, но не отменяет уже выполненное действие
func (s *ReviewService) recordAudit(ctx context.Context, review *entity.Review, action entity.ModerationAction, actorID string) {
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

// invalidateSummary сбрасывает кеш сводки товара после мутации
func (s *ReviewService) invalidateSummary(ctx context.Context, productID string) {
	if err := s.summaryCache.DeleteSummary(ctx, productID); err != nil {
		logger.Warn().Err(err).Str("product_id", productID).Msg("Failed to invalidate summary cache")
	}
}

// publishEvent отправляет событие об отзыве в Kafka
// Отказ Kafka не критичен: событие логируется и теряется
func (s *ReviewService) publishEvent(ctx context.Context, event entity.ReviewEvent) {
	event.EventID = uuid.NewString()
	event.Timestamp = time.Now()

	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("event_type", event.EventType).Msg("Failed to marshal review event")
		return
	}

	// Ключ = ReviewID для партиционирования по отзыву
	if err := s.kafkaProducer.PublishMessage(ctx, event.ReviewID, eventData); err != nil {
		logger.Warn().Err(err).Str("event_type", event.EventType).Msg("Failed to publish review event")
	}
}

// validateImages проверяет ограничения на вложения:
// не более 5 изображений, каждое не больше 5MB
func validateImages(images []string) error {
	if len(images) > maxImages {
		return ErrTooManyImages
	}
	for _, img := range images {
		if imageSize(img) > maxImageBytes {
			return ErrImageTooLarge
		}
	}
	return nil
}

// imageSize оценивает размер изображения в байтах.
// Для data URI считается размер декодированных base64 данных, для URL - длина строки
func imageSize(image string) int {
	if strings.HasPrefix(image, "data:") {
		if idx := strings.Index(image, ","); idx >= 0 {
			payload := len(image) - idx - 1
			return payload / 4 * 3
		}
	}
	return len(image)
}
