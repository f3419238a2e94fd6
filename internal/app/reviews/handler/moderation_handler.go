package handler

import (
	"net/http"

	"reviewhub/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
)

// ModerationHandler обрабатывает действия модераторов
// Маршруты закрыты middleware RequireRole("moderator", "admin")
type ModerationHandler struct {
	moderationService service.ModerationServiceInterface
}

func NewModerationHandler(moderationService service.ModerationServiceInterface) *ModerationHandler {
	return &ModerationHandler{
		moderationService: moderationService,
	}
}

// ApproveReview обрабатывает POST /products/:product_id/reviews/:review_id/approve
// Повторное одобрение отвечает 409
func (h *ModerationHandler) ApproveReview(c *gin.Context) {
	reviewID := c.Param("review_id")
	if reviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Review ID is required"})
		return
	}

	viewer := viewerFromContext(c)
	review, err := h.moderationService.ApproveReview(c.Request.Context(), reviewID, viewer)
	if err != nil {
		respondServiceError(c, err, "Failed to approve review")
		return
	}

	c.JSON(http.StatusOK, review.ToResponse(viewer))
}

// ToggleFeature обрабатывает POST /products/:product_id/reviews/:review_id/toggle-feature
// Работает независимо от статуса одобрения
func (h *ModerationHandler) ToggleFeature(c *gin.Context) {
	reviewID := c.Param("review_id")
	if reviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Review ID is required"})
		return
	}

	viewer := viewerFromContext(c)
	review, err := h.moderationService.ToggleFeature(c.Request.Context(), reviewID, viewer)
	if err != nil {
		respondServiceError(c, err, "Failed to toggle feature flag")
		return
	}

	c.JSON(http.StatusOK, review.ToResponse(viewer))
}

// GetAuditTrail обрабатывает GET /reviews/:review_id/audit
// История действий модераторов над отзывом
func (h *ModerationHandler) GetAuditTrail(c *gin.Context) {
	reviewID := c.Param("review_id")
	if reviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Review ID is required"})
		return
	}

	audits, err := h.moderationService.GetAuditTrail(c.Request.Context(), reviewID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get audit trail"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"audits": audits, "total": len(audits)})
}
