package entity

import "time"

// CreateReviewRequest - запрос на создание отзыва
// Отзыв всегда создается с is_approved=false
type CreateReviewRequest struct {
	ReviewerName       string   `json:"reviewer_name" validate:"required"`
	ReviewerEmail      string   `json:"reviewer_email" validate:"required,email"`
	Title              string   `json:"title" validate:"omitempty,max=255"`
	Content            string   `json:"content" validate:"required,max=2000"`
	Rating             int      `json:"rating" validate:"required,min=1,max=5"`
	IsVerifiedPurchase bool     `json:"is_verified_purchase"`
	Images             []string `json:"images" validate:"omitempty,max=5"`
}

// UpdateReviewRequest - запрос на обновление отзыва автором
type UpdateReviewRequest struct {
	Title   string   `json:"title" validate:"omitempty,max=255"`
	Content string   `json:"content" validate:"omitempty,max=2000"`
	Rating  int      `json:"rating" validate:"omitempty,min=1,max=5"`
	Images  []string `json:"images" validate:"omitempty,max=5"`
}

// VoteRequest - запрос на голос за отзыв
type VoteRequest struct {
	VoteType VoteType `json:"vote_type" validate:"required,oneof=helpful unhelpful"`
}

// ReportRequest - запрос на жалобу
type ReportRequest struct {
	Reason  ReportReason `json:"reason" validate:"required,oneof=Spam Inappropriate Offensive Other"`
	Comment string       `json:"comment" validate:"omitempty,max=500"`
}

// DeleteReviewRequest - необязательное тело DELETE запроса:
// клиент без токена передает email автора для удаления своего отзыва
type DeleteReviewRequest struct {
	ReviewerEmail string `json:"reviewer_email"`
}

// ReviewResponse - отзыв с полями, вычисленными для текущего пользователя
// Множества голосовавших наружу не отдаются
type ReviewResponse struct {
	ID                 string    `json:"id"`
	ProductID          string    `json:"product_id"`
	ReviewerName       string    `json:"reviewer_name"`
	ReviewerInitials   string    `json:"reviewer_initials"`
	Title              string    `json:"title,omitempty"`
	Content            string    `json:"content"`
	Rating             int       `json:"rating"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	IsApproved         bool      `json:"is_approved"`
	IsFeatured         bool      `json:"is_featured"`
	Images             []string  `json:"images,omitempty"`
	HelpfulCount       int       `json:"helpful_count"`
	UnhelpfulCount     int       `json:"unhelpful_count"`
	TotalVotes         int       `json:"total_votes"`
	UserVotedHelpful   bool      `json:"user_voted_helpful"`
	UserVotedUnhelpful bool      `json:"user_voted_unhelpful"`
	CanEdit            bool      `json:"can_edit"`
	CanDelete          bool      `json:"can_delete"`
	CanModerate        bool      `json:"can_moderate"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ToResponse строит ответ для конкретного пользователя.
// Анонимный пользователь всегда отображается как не голосовавший
func (r *Review) ToResponse(viewer Viewer) ReviewResponse {
	resp := ReviewResponse{
		ID:                 r.ID.Hex(),
		ProductID:          r.ProductID,
		ReviewerName:       r.ReviewerName,
		ReviewerInitials:   r.Initials(),
		Title:              r.Title,
		Content:            r.Content,
		Rating:             r.Rating,
		IsVerifiedPurchase: r.IsVerifiedPurchase,
		IsApproved:         r.IsApproved,
		IsFeatured:         r.IsFeatured,
		Images:             r.Images,
		HelpfulCount:       r.HelpfulCount(),
		UnhelpfulCount:     r.UnhelpfulCount(),
		TotalVotes:         r.TotalVotes(),
		CanModerate:        viewer.IsModerator(),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}

	if viewer.UserID != "" {
		resp.UserVotedHelpful = r.HasVoted(viewer.UserID, VoteHelpful)
		resp.UserVotedUnhelpful = r.HasVoted(viewer.UserID, VoteUnhelpful)
	}

	resp.CanEdit = viewer.IsAuthor(r)
	resp.CanDelete = viewer.IsAuthor(r) || viewer.IsModerator()

	return resp
}

// PaginationInfo - информация о страницах (страницы нумеруются с 1)
type PaginationInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// RatingSummary - агрегированная статистика оценок товара
// Считается только по одобренным отзывам
type RatingSummary struct {
	ProductID     string      `json:"product_id"`
	AverageRating float64     `json:"average_rating"`
	TotalReviews  int64       `json:"total_reviews"`
	Distribution  map[int]int `json:"distribution"` // звезда -> количество
}

// ReviewListResponse - ответ со списком отзывов
type ReviewListResponse struct {
	Reviews    []ReviewResponse `json:"reviews"`
	Pagination PaginationInfo   `json:"pagination"`
	Summary    *RatingSummary   `json:"summary,omitempty"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse - стандартный ответ об успехе
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
