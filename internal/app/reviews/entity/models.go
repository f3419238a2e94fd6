package entity

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/google/uuid"
)

// Review - отзыв о товаре со счетчиками голосов и флагами модерации
// helpful_voters и unhelpful_voters - непересекающиеся множества ID пользователей,
// счетчики голосов всегда вычисляются из размеров этих множеств
type Review struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProductID          string             `json:"product_id" bson:"product_id"` // UUID товара из Catalog Service
	ReviewerName       string             `json:"reviewer_name" bson:"reviewer_name"`
	ReviewerEmail      string             `json:"reviewer_email" bson:"reviewer_email"` // Фактическая идентичность автора
	Title              string             `json:"title,omitempty" bson:"title,omitempty"`
	Content            string             `json:"content" bson:"content"`
	Rating             int                `json:"rating" bson:"rating"` // Оценка от 1 до 5
	IsVerifiedPurchase bool               `json:"is_verified_purchase" bson:"is_verified_purchase"`
	IsApproved         bool               `json:"is_approved" bson:"is_approved"` // Новые отзывы всегда false
	IsFeatured         bool               `json:"is_featured" bson:"is_featured"`
	Images             []string           `json:"images,omitempty" bson:"images,omitempty"` // Порядок сохраняется
	HelpfulVoters      []string           `json:"-" bson:"helpful_voters"`
	UnhelpfulVoters    []string           `json:"-" bson:"unhelpful_voters"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
}

// HelpfulCount возвращает количество голосов "полезно" (размер множества)
func (r *Review) HelpfulCount() int {
	return len(r.HelpfulVoters)
}

// UnhelpfulCount возвращает количество голосов "бесполезно" (размер множества)
func (r *Review) UnhelpfulCount() int {
	return len(r.UnhelpfulVoters)
}

// TotalVotes возвращает общее количество голосов
func (r *Review) TotalVotes() int {
	return len(r.HelpfulVoters) + len(r.UnhelpfulVoters)
}

// HasVoted проверяет голосовал ли пользователь в указанном направлении
func (r *Review) HasVoted(userID string, voteType VoteType) bool {
	voters := r.HelpfulVoters
	if voteType == VoteUnhelpful {
		voters = r.UnhelpfulVoters
	}
	for _, id := range voters {
		if id == userID {
			return true
		}
	}
	return false
}

// Initials возвращает инициалы автора для аватара-заглушки:
// заглавные первые буквы не более чем двух первых слов имени
func (r *Review) Initials() string {
	fields := strings.Fields(r.ReviewerName)
	if len(fields) > 2 {
		fields = fields[:2]
	}
	var b strings.Builder
	for _, f := range fields {
		runes := []rune(f)
		b.WriteString(strings.ToUpper(string(runes[0])))
	}
	return b.String()
}

// VisibleTo проверяет правило видимости: неодобренный отзыв видят
// только автор (по email) и модераторы
func (r *Review) VisibleTo(viewer Viewer) bool {
	if r.IsApproved {
		return true
	}
	return viewer.IsModerator() || (viewer.Email != "" && viewer.Email == r.ReviewerEmail)
}

// VoteType - направление голоса за отзыв
type VoteType string

const (
	VoteHelpful   VoteType = "helpful"
	VoteUnhelpful VoteType = "unhelpful"
)

// ReportReason - причина жалобы на отзыв
type ReportReason string

const (
	ReasonSpam          ReportReason = "Spam"
	ReasonInappropriate ReportReason = "Inappropriate"
	ReasonOffensive     ReportReason = "Offensive"
	ReasonOther         ReportReason = "Other"
)

// Report - жалоба на отзыв, записывается fire-and-forget
// Повторные жалобы от одного пользователя не дедуплицируются
type Report struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ReviewID   string             `json:"review_id" bson:"review_id"`
	ProductID  string             `json:"product_id" bson:"product_id"`
	Reason     ReportReason       `json:"reason" bson:"reason"`
	Comment    string             `json:"comment,omitempty" bson:"comment,omitempty"`
	ReporterID string             `json:"reporter_id,omitempty" bson:"reporter_id,omitempty"` // Пустой для анонимных
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
}

// ModerationAction - действие модератора над отзывом
type ModerationAction string

const (
	ActionApprove   ModerationAction = "approve"
	ActionFeature   ModerationAction = "feature"
	ActionUnfeature ModerationAction = "unfeature"
	ActionDelete    ModerationAction = "delete"
)

// ModerationAudit - запись аудита действий модератора (PostgreSQL, append-only)
type ModerationAudit struct {
	ID        uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	ReviewID  string           `json:"review_id" gorm:"index;not null"`
	ProductID string           `json:"product_id" gorm:"not null"`
	Action    ModerationAction `json:"action" gorm:"not null"`
	ActorID   string           `json:"actor_id" gorm:"not null"`
	CreatedAt time.Time        `json:"created_at"`
}

// TableName задает имя таблицы для GORM
func (ModerationAudit) TableName() string {
	return "moderation_audits"
}

// Viewer - явная идентичность текущего пользователя, передается
// во все функции построения ответов вместо чтения из контекста
type Viewer struct {
	UserID string // Пустой для анонимных посетителей
	Email  string
	Role   string // "moderator" или "admin" дают права модерации
}

// IsAnonymous проверяет что идентичность отсутствует
func (v Viewer) IsAnonymous() bool {
	return v.UserID == "" && v.Email == ""
}

// IsModerator проверяет права модерации
func (v Viewer) IsModerator() bool {
	return v.Role == "moderator" || v.Role == "admin"
}

// IsAuthor проверяет авторство отзыва по email
func (v Viewer) IsAuthor(r *Review) bool {
	return v.Email != "" && v.Email == r.ReviewerEmail
}

// ReviewEvent - событие для Kafka (топик review_events)
type ReviewEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"` // REVIEW_CREATED, REVIEW_APPROVED, REVIEW_DELETED, REVIEW_VOTED, REVIEW_REPORTED
	ReviewID  string    `json:"review_id"`
	ProductID string    `json:"product_id"`
	ActorID   string    `json:"actor_id,omitempty"`
	Rating    int       `json:"rating,omitempty"`
	VoteType  VoteType  `json:"vote_type,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventReviewCreated  = "REVIEW_CREATED"
	EventReviewApproved = "REVIEW_APPROVED"
	EventReviewDeleted  = "REVIEW_DELETED"
	EventReviewVoted    = "REVIEW_VOTED"
	EventReviewReported = "REVIEW_REPORTED"
)
