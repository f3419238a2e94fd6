package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewhub/internal/app/reviews/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrReviewNotFound  = errors.New("review not found")
	ErrAlreadyApproved = errors.New("review already approved")
)

type reviewRepository struct {
	collection *mongo.Collection
}

// NewReviewRepository создает новый репозиторий отзывов
// Автоматически создает индексы по product_id и reviewer_email
func NewReviewRepository(db *mongo.Database) ReviewRepository {
	collection := db.Collection("reviews")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "product_id", Value: 1}, {Key: "is_approved", Value: 1}},
			Options: options.Index().SetName("product_approved_idx"),
		},
		{
			Keys:    bson.D{{Key: "reviewer_email", Value: 1}},
			Options: options.Index().SetName("reviewer_email_idx"),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Логируем ошибку, но не прерываем работу - индексы могут уже существовать
		fmt.Printf("Warning: failed to create review indexes: %v\n", err)
	}

	return &reviewRepository{
		collection: collection,
	}
}

// Create создает новый отзыв в MongoDB
// Множества голосовавших инициализируются пустыми
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	review.CreatedAt = time.Now()
	review.UpdatedAt = time.Now()
	if review.HelpfulVoters == nil {
		review.HelpfulVoters = []string{}
	}
	if review.UnhelpfulVoters == nil {
		review.UnhelpfulVoters = []string{}
	}

	result, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = oid
	}

	return nil
}

// GetByID получает отзыв по ID
func (r *reviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid review ID: %w", err)
	}

	var review entity.Review
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &review, nil
}

// List получает страницу отзывов товара с учетом фильтров и правила видимости.
// Не-модераторы видят одобренные отзывы плюс свои собственные
func (r *reviewRepository) List(ctx context.Context, filter entity.ReviewFilter, viewer entity.Viewer) ([]entity.Review, int64, error) {
	match := buildMatch(filter, viewer)

	total, err := r.collection.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	// Сортировка по полезности требует вычисленного размера множества голосов,
	// поэтому выборка идет через aggregation pipeline
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"helpful_count": bson.M{"$size": bson.M{"$ifNull": bson.A{"$helpful_voters", bson.A{}}}},
		}}},
		bson.D{{Key: "$sort", Value: sortSpec(filter.Sort)}},
		bson.D{{Key: "$skip", Value: filter.Offset()}},
		bson.D{{Key: "$limit", Value: filter.Limit}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []entity.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, fmt.Errorf("failed to decode reviews: %w", err)
	}

	return reviews, total, nil
}

func buildMatch(filter entity.ReviewFilter, viewer entity.Viewer) bson.M {
	match := bson.M{"product_id": filter.ProductID}

	if filter.Rating != nil {
		match["rating"] = *filter.Rating
	}
	if filter.VerifiedPurchase != nil {
		match["is_verified_purchase"] = *filter.VerifiedPurchase
	}

	if viewer.IsModerator() {
		// Модератор управляет фильтром approved: nil = все
		if filter.Approved != nil {
			match["is_approved"] = *filter.Approved
		}
	} else if viewer.Email != "" {
		match["$or"] = bson.A{
			bson.M{"is_approved": true},
			bson.M{"reviewer_email": viewer.Email},
		}
	} else {
		match["is_approved"] = true
	}

	return match
}

func sortSpec(sort string) bson.D {
	switch sort {
	case entity.SortHelpful:
		return bson.D{{Key: "helpful_count", Value: -1}, {Key: "created_at", Value: -1}}
	case entity.SortHighestRating:
		return bson.D{{Key: "rating", Value: -1}, {Key: "created_at", Value: -1}}
	case entity.SortLowestRating:
		return bson.D{{Key: "rating", Value: 1}, {Key: "created_at", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}}
	}
}

// Update обновляет редактируемые автором поля отзыва
func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) error {
	review.UpdatedAt = time.Now()

	filter := bson.M{"_id": review.ID}
	update := bson.M{
		"$set": bson.M{
			"title":      review.Title,
			"content":    review.Content,
			"rating":     review.Rating,
			"images":     review.Images,
			"updated_at": review.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// Delete удаляет отзыв из MongoDB. Удаление необратимо
func (r *reviewRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid review ID: %w", err)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// Vote атомарно записывает голос пользователя.
// $addToSet в выбранное множество и $pull из противоположного в одном update:
// пользователь никогда не состоит в обоих множествах, повторный голос
// в том же направлении ничего не меняет
func (r *reviewRepository) Vote(ctx context.Context, id string, userID string, voteType entity.VoteType) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid review ID: %w", err)
	}

	addTo, pullFrom := "helpful_voters", "unhelpful_voters"
	if voteType == entity.VoteUnhelpful {
		addTo, pullFrom = "unhelpful_voters", "helpful_voters"
	}

	update := bson.M{
		"$addToSet": bson.M{addTo: userID},
		"$pull":     bson.M{pullFrom: userID},
		"$set":      bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to record vote: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// SetApproved помечает отзыв одобренным.
// Фильтр по is_approved=false защищает от гонки двух модераторов
func (r *reviewRepository) SetApproved(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid review ID: %w", err)
	}

	filter := bson.M{"_id": objectID, "is_approved": false}
	update := bson.M{"$set": bson.M{"is_approved": true, "updated_at": time.Now()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to approve review: %w", err)
	}

	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
		if err != nil {
			return fmt.Errorf("failed to approve review: %w", err)
		}
		if count > 0 {
			return ErrAlreadyApproved
		}
		return ErrReviewNotFound
	}

	return nil
}

// SetFeatured выставляет флаг is_featured независимо от статуса одобрения
func (r *reviewRepository) SetFeatured(ctx context.Context, id string, featured bool) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid review ID: %w", err)
	}

	update := bson.M{"$set": bson.M{"is_featured": featured, "updated_at": time.Now()}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to set featured flag: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// AggregateSummary считает рейтинг товара по одобренным отзывам
func (r *reviewRepository) AggregateSummary(ctx context.Context, productID string) (*entity.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"product_id": productID, "is_approved": true}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$rating",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate summary: %w", err)
	}
	defer cursor.Close(ctx)

	var buckets []struct {
		Rating int `bson:"_id"`
		Count  int `bson:"count"`
	}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}

	summary := &entity.RatingSummary{
		ProductID:    productID,
		Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	var sum int64
	for _, b := range buckets {
		summary.Distribution[b.Rating] = b.Count
		summary.TotalReviews += int64(b.Count)
		sum += int64(b.Rating * b.Count)
	}
	if summary.TotalReviews > 0 {
		summary.AverageRating = float64(sum) / float64(summary.TotalReviews)
	}

	return summary, nil
}

// DistinctProductIDs возвращает ID всех товаров с отзывами
// Используется периодическим пересчетом рейтингов
func (r *reviewRepository) DistinctProductIDs(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "product_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to get product ids: %w", err)
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}

	return ids, nil
}
