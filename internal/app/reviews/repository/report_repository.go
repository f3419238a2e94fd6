package repository

import (
	"context"
	"fmt"
	"time"

	"reviewhub/internal/app/reviews/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type reportRepository struct {
	collection *mongo.Collection
}

// NewReportRepository создает репозиторий жалоб
func NewReportRepository(db *mongo.Database) ReportRepository {
	collection := db.Collection("reports")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "review_id", Value: 1}},
		Options: options.Index().SetName("review_id_idx"),
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	if err != nil {
		fmt.Printf("Warning: failed to create index on review_id: %v\n", err)
	}

	return &reportRepository{
		collection: collection,
	}
}

// Create записывает жалобу. Повторные жалобы от одного пользователя
// на один отзыв допускаются и сохраняются отдельно
func (r *reportRepository) Create(ctx context.Context, report *entity.Report) error {
	report.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		report.ID = oid
	}

	return nil
}

// CountByReview возвращает количество жалоб на отзыв
func (r *reportRepository) CountByReview(ctx context.Context, reviewID string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"review_id": reviewID})
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}

	return count, nil
}
