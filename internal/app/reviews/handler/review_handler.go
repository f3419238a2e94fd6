package handler

import (
	"errors"
	"net/http"

	"reviewhub/internal/app/reviews/entity"
	"reviewhub/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ReviewHandler struct {
	reviewService service.ReviewServiceInterface
	validator     *validator.Validate
}

func NewReviewHandler(reviewService service.ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		validator:     validator.New(),
	}
}

// CreateReview обрабатывает POST /products/:product_id/reviews
// Доступно без аккаунта: автор идентифицируется по reviewer_email
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	productID := c.Param("product_id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
		return
	}

	var req entity.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// Оценка 0 означает "не выбрана" и проверяется до общей валидации,
	// чтобы сообщение совпадало с текстом формы
	if req.Rating < 1 || req.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please select a rating"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), productID, &req)
	if err != nil {
		respondServiceError(c, err, "Failed to create review")
		return
	}

	c.JSON(http.StatusCreated, review.ToResponse(viewerFromContext(c)))
}

// ListReviews обрабатывает GET /products/:product_id/reviews
// Фильтры: rating, sort, approved (только модераторы), verified_purchase, page, limit
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	productID := c.Param("product_id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
		return
	}

	filter, err := entity.ParseReviewFilter(productID, c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter parameters"})
		return
	}

	response, err := h.reviewService.ListReviews(c.Request.Context(), filter, viewerFromContext(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get reviews"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetReview обрабатывает GET /reviews/:review_id
// Неодобренный отзыв для постороннего отвечает 404
func (h *ReviewHandler) GetReview(c *gin.Context) {
	reviewID := c.Param("review_id")
	if reviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Review ID is required"})
		return
	}

	viewer := viewerFromContext(c)
	review, err := h.reviewService.GetReview(c.Request.Context(), reviewID, viewer)
	if err != nil {
		respondServiceError(c, err, "Failed to get review")
		return
	}

	c.JSON(http.StatusOK, review.ToResponse(viewer))
}

// UpdateReview обрабатывает PATCH /reviews/:review_id
// Редактировать может только автор (email в токене совпадает с reviewer_email)
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	reviewID := c.Param("review_id")
	if reviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Review ID is required"})
		return
	}

	var req entity.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	viewer := viewerFromContext(c)
	review, err := h.reviewService.UpdateReview(c.Request.Context(), reviewID, viewer, &req)
	if err != nil {
		respondServiceError(c, err, "Failed to update review")
		return
	}

	c.JSON(http.StatusOK, review.ToResponse(viewer))
}

// DeleteReview обрабатывает DELETE /products/:product_id/reviews/:review_id
// Клиент без токена может удалить свой отзыв, передав reviewer_email в теле
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	reviewID := c.Param("review_id")
	if reviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Review ID is required"})
		return
	}

	viewer := viewerFromContext(c)
	if viewer.IsAnonymous() {
		var req entity.DeleteReviewRequest
		if err := c.ShouldBindJSON(&req); err == nil && req.ReviewerEmail != "" {
			viewer.Email = req.ReviewerEmail
		}
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), reviewID, viewer); err != nil {
		respondServiceError(c, err, "Failed to delete review")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Review deleted successfully",
	})
}

// SubmitVote обрабатывает POST /products/:product_id/reviews/:review_id/vote
// Требует аутентификацию: анонимные голоса не учитываются
func (h *ReviewHandler) SubmitVote(c *gin.Context) {
	reviewID := c.Param("review_id")
	if reviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Review ID is required"})
		return
	}

	var req entity.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	viewer := viewerFromContext(c)
	review, err := h.reviewService.SubmitVote(c.Request.Context(), reviewID, viewer, req.VoteType)
	if err != nil {
		respondServiceError(c, err, "Failed to submit vote")
		return
	}

	c.JSON(http.StatusOK, review.ToResponse(viewer))
}

// SubmitReport обрабатывает POST /products/:product_id/reviews/:review_id/report
// Жалоба fire-and-forget, доступна и анонимным посетителям
func (h *ReviewHandler) SubmitReport(c *gin.Context) {
	reviewID := c.Param("review_id")
	if reviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Review ID is required"})
		return
	}

	var req entity.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	if err := h.reviewService.SubmitReport(c.Request.Context(), reviewID, viewerFromContext(c), &req); err != nil {
		respondServiceError(c, err, "Failed to submit report")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Report submitted successfully",
	})
}

// GetSummary обрабатывает GET /products/:product_id/reviews/summary
func (h *ReviewHandler) GetSummary(c *gin.Context) {
	productID := c.Param("product_id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
		return
	}

	summary, err := h.reviewService.GetProductSummary(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// respondServiceError переводит ошибки бизнес-логики в HTTP статусы.
// Каждое действие отвечает явным статусом, молчаливых отказов нет
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, service.ErrIdentityRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	case errors.Is(err, service.ErrAlreadyApproved):
		c.JSON(http.StatusConflict, gin.H{"error": "Review already approved"})
	case errors.Is(err, service.ErrRatingNotSelected):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please select a rating"})
	case errors.Is(err, service.ErrContentTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Review must be at least 10 characters"})
	case errors.Is(err, service.ErrTooManyImages):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You can attach up to 5 images"})
	case errors.Is(err, service.ErrImageTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image must be smaller than 5MB"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
