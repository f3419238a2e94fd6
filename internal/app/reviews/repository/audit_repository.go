package repository

import (
	"context"
	"fmt"

	"reviewhub/internal/app/reviews/entity"
	"reviewhub/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const serviceName = "reviewhub"

// auditRepository реализует AuditRepository поверх PostgreSQL через GORM
// Журнал append-only: записи никогда не изменяются и не удаляются
type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository создает репозиторий журнала модерации
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Record добавляет запись о действии модератора
func (r *auditRepository) Record(ctx context.Context, audit *entity.ModerationAudit) error {
	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, entity.ModerationAudit{}.TableName())
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).Create(audit)
	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return fmt.Errorf("failed to record moderation audit: %w", result.Error)
	}

	return nil
}

// ListByReview возвращает историю действий модераторов над отзывом
func (r *auditRepository) ListByReview(ctx context.Context, reviewID string) ([]entity.ModerationAudit, error) {
	var audits []entity.ModerationAudit

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, entity.ModerationAudit{}.TableName())
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).
		Where("review_id = ?", reviewID).
		Order("created_at DESC").
		Find(&audits)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list moderation audits: %w", result.Error)
	}

	return audits, nil
}
