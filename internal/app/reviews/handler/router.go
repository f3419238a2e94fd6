package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reviewhub/pkg/logger"
	"reviewhub/pkg/metrics"
)

func SetupRoutes(reviewHandler *ReviewHandler, moderationHandler *ModerationHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())

	router.Use(logger.GinLoggerMiddleware())

	router.Use(metrics.GinPrometheusMiddleware("reviewhub"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "reviewhub",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	products := router.Group("/products/:product_id")
	{
		// Чтение и создание доступны без аккаунта, токен учитывается если есть
		products.GET("/summary", reviewHandler.GetSummary)

		reviews := products.Group("/reviews")
		reviews.Use(authMiddleware.OptionalAuthenticate())
		{
			reviews.POST("", reviewHandler.CreateReview)
			reviews.GET("", reviewHandler.ListReviews)
			reviews.POST("/:review_id/report", reviewHandler.SubmitReport)
			reviews.DELETE("/:review_id", reviewHandler.DeleteReview)
		}

		// Голосовать могут только аутентифицированные пользователи
		reviews.POST("/:review_id/vote", authMiddleware.Authenticate(), reviewHandler.SubmitVote)

		// Модерация: approve и toggle-feature только для модераторов
		moderation := reviews.Group("/:review_id")
		moderation.Use(authMiddleware.Authenticate(), authMiddleware.RequireRole("moderator", "admin"))
		{
			moderation.POST("/approve", moderationHandler.ApproveReview)
			moderation.POST("/toggle-feature", moderationHandler.ToggleFeature)
		}
	}

	single := router.Group("/reviews")
	{
		single.GET("/:review_id", authMiddleware.OptionalAuthenticate(), reviewHandler.GetReview)
		single.PATCH("/:review_id", authMiddleware.Authenticate(), reviewHandler.UpdateReview)
		single.GET("/:review_id/audit", authMiddleware.Authenticate(), authMiddleware.RequireRole("moderator", "admin"), moderationHandler.GetAuditTrail)
	}

	return router
}
