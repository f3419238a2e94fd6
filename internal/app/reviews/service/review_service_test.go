package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"reviewhub/internal/app/reviews/entity"
	"reviewhub/internal/app/reviews/repository"
	"reviewhub/internal/app/reviews/repository/mocks"
	"reviewhub/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMain(m *testing.M) {
	logger.InitWithWriter("reviewhub-test", "error", io.Discard)
	os.Exit(m.Run())
}

func newTestService() (*ReviewService, *mocks.MockReviewRepository, *mocks.MockReportRepository, *mocks.MockAuditRepository, *mocks.MockSummaryCache, *mocks.MockMessagePublisher) {
	reviewRepo := new(mocks.MockReviewRepository)
	reportRepo := new(mocks.MockReportRepository)
	auditRepo := new(mocks.MockAuditRepository)
	summaryCache := new(mocks.MockSummaryCache)
	kafkaProducer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	svc := NewReviewService(reviewRepo, reportRepo, auditRepo, summaryCache, kafkaProducer, 5*time.Minute)
	return svc, reviewRepo, reportRepo, auditRepo, summaryCache, kafkaProducer
}

func validCreateRequest() *entity.CreateReviewRequest {
	return &entity.CreateReviewRequest{
		ReviewerName:  "Anna Petrova",
		ReviewerEmail: "anna@example.com",
		Content:       "Great product, highly recommend it!",
		Rating:        5,
	}
}

func TestCreateReview_Success(t *testing.T) {
	svc, reviewRepo, _, _, _, kafkaProducer := newTestService()

	ctx := context.Background()
	req := validCreateRequest()

	reviewRepo.On("Create", ctx, mock.AnythingOfType("*entity.Review")).Return(nil).Run(func(args mock.Arguments) {
		review := args.Get(1).(*entity.Review)
		review.ID = primitive.NewObjectID()
	})
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.CreateReview(ctx, "product-456", req)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "product-456", result.ProductID)
	assert.Equal(t, 5, result.Rating)
	assert.False(t, result.IsApproved)
}

func TestCreateReview_AlwaysUnapproved(t *testing.T) {
	svc, reviewRepo, _, _, _, kafkaProducer := newTestService()

	ctx := context.Background()
	reviewRepo.On("Create", ctx, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		review := args.Get(1).(*entity.Review)
		assert.False(t, review.IsApproved)
		review.ID = primitive.NewObjectID()
	})
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.CreateReview(ctx, "product-456", validCreateRequest())

	assert.NoError(t, err)
	assert.False(t, result.IsApproved)
}

func TestCreateReview_RatingNotSelected(t *testing.T) {
	svc, reviewRepo, _, _, _, _ := newTestService()

	req := validCreateRequest()
	req.Rating = 0

	result, err := svc.CreateReview(context.Background(), "product-456", req)

	assert.ErrorIs(t, err, ErrRatingNotSelected)
	assert.Nil(t, result)
	reviewRepo.AssertNotCalled(t, "Create")
}

func TestCreateReview_ContentTooShort(t *testing.T) {
	svc, reviewRepo, _, _, _, _ := newTestService()

	req := validCreateRequest()
	req.Content = "Bad"

	result, err := svc.CreateReview(context.Background(), "product-456", req)

	assert.ErrorIs(t, err, ErrContentTooShort)
	assert.Nil(t, result)
	reviewRepo.AssertNotCalled(t, "Create")
}

func TestCreateReview_TooManyImages(t *testing.T) {
	svc, _, _, _, _, _ := newTestService()

	req := validCreateRequest()
	req.Images = []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg", "f.jpg"}

	_, err := svc.CreateReview(context.Background(), "product-456", req)

	assert.ErrorIs(t, err, ErrTooManyImages)
}

func TestCreateReview_OversizedImageRejected(t *testing.T) {
	svc, _, _, _, _, _ := newTestService()

	// base64 с декодированным размером больше 5MB отклоняется, а не роняет процесс
	oversized := "data:image/jpeg;base64," + string(make([]byte, 8<<20))
	req := validCreateRequest()
	req.Images = []string{oversized}

	_, err := svc.CreateReview(context.Background(), "product-456", req)

	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestCreateReview_RepoError(t *testing.T) {
	svc, reviewRepo, _, _, _, _ := newTestService()

	ctx := context.Background()
	reviewRepo.On("Create", ctx, mock.Anything).Return(errors.New("db error"))

	result, err := svc.CreateReview(ctx, "product-456", validCreateRequest())

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestCreateReview_KafkaErrorIgnored(t *testing.T) {
	svc, reviewRepo, _, _, _, kafkaProducer := newTestService()

	ctx := context.Background()
	reviewRepo.On("Create", ctx, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		review := args.Get(1).(*entity.Review)
		review.ID = primitive.NewObjectID()
	})
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(errors.New("kafka error"))

	result, err := svc.CreateReview(ctx, "product-456", validCreateRequest())

	assert.NoError(t, err)
	assert.NotNil(t, result)
}

func TestCreateReview_PublishesEvent(t *testing.T) {
	svc, reviewRepo, _, _, _, kafkaProducer := newTestService()

	ctx := context.Background()
	reviewRepo.On("Create", ctx, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		review := args.Get(1).(*entity.Review)
		review.ID = primitive.NewObjectID()
	})
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.CreateReview(ctx, "product-456", validCreateRequest())

	assert.NoError(t, err)
	assert.Len(t, kafkaProducer.Messages, 1)

	var event entity.ReviewEvent
	assert.NoError(t, json.Unmarshal(kafkaProducer.Messages[0], &event))
	assert.Equal(t, entity.EventReviewCreated, event.EventType)
	assert.Equal(t, "product-456", event.ProductID)
	assert.NotEmpty(t, event.EventID)
}

func TestGetReview_Success(t *testing.T) {
	svc, reviewRepo, _, _, _, _ := newTestService()

	ctx := context.Background()
	reviewID := primitive.NewObjectID()
	review := &entity.Review{ID: reviewID, ProductID: "product-456", IsApproved: true}

	reviewRepo.On("GetByID", ctx, reviewID.Hex()).Return(review, nil)

	result, err := svc.GetReview(ctx, reviewID.Hex(), entity.Viewer{})

	assert.NoError(t, err)
	assert.Equal(t, reviewID, result.ID)
}

func TestGetReview_NotFound(t *testing.T) {
	svc, reviewRepo, _, _, _, _ := newTestService()

	ctx := context.Background()
	reviewRepo.On("GetByID", ctx, "missing").Return(nil, repository.ErrReviewNotFound)

	result, err := svc.GetReview(ctx, "missing", entity.Viewer{})

	assert.ErrorIs(t, err, ErrReviewNotFound)
	assert.Nil(t, result)
}

func TestGetReview_PendingHiddenFromStranger(t *testing.T) {
	svc, reviewRepo, _, _, _, _ := newTestService()

	ctx := context.Background()
	reviewID := primitive.NewObjectID()
	review := &entity.Review{ID: reviewID, ReviewerEmail: "author@example.com", IsApproved: false}

	reviewRepo.On("GetByID", ctx, reviewID.Hex()).Return(review, nil)

	// Для постороннего неодобренный отзыв неотличим от несуществующего
	result, err := svc.GetReview(ctx, reviewID.Hex(), entity.Viewer{UserID: "user-1", Email: "other@example.com"})

	assert.ErrorIs(t, err, ErrReviewNotFound)
	assert.Nil(t, result)
}

func TestGetReview_PendingVisibleToAuthor(t *testing.T) {
	svc, reviewRepo, _, _, _, _ := newTestService()

	ctx := context.Background()
	reviewID := primitive.NewObjectID()
	review := &entity.Review{ID: reviewID, ReviewerEmail: "author@example.com", IsApproved: false}

	reviewRepo.On("GetByID", ctx, reviewID.Hex()).Return(review, nil)

	result, err := svc.GetReview(ctx, reviewID.Hex(), entity.Viewer{UserID: "user-1", Email: "author@example.com"})

	assert.NoError(t, err)
	assert.NotNil(t, result)
}

func TestGetReview_PendingVisibleToModerator(t *testing.T) {
	svc, reviewRepo, _, _, _, _ := newTestService()

	ctx := context.Background()
	reviewID := primitive.NewObjectID()
	review := &entity.Review{ID: reviewID, ReviewerEmail: "author@example.com", IsApproved: false}

	reviewRepo.On("GetByID", ctx, reviewID.Hex()).Return(review, nil)

	result, err := svc.GetReview(ctx, reviewID.Hex(), entity.Viewer{UserID: "mod-1", Role: "moderator"})

	assert.NoError(t, err)
	assert.NotNil(t, result)
}

func TestListReviews_Success(t *testing.T) {
	svc, reviewRepo, _, _, summaryCache, _ := newTestService()

	ctx := context.Background()
	viewer := entity.Viewer{UserID: "user-1", Email: "user1@example.com"}
	filter := entity.ReviewFilter{ProductID: "product-456", Sort: entity.SortRecent, Page: 1, Limit: 10}
	reviews := []entity.Review{
		{ID: primitive.NewObjectID(), ProductID: "product-456", Rating: 5, IsApproved: true, HelpfulVoters: []string{"user-1"}},
		{ID: primitive.NewObjectID(), ProductID: "product-456", Rating: 4, IsApproved: true},
	}
	summary := &entity.RatingSummary{ProductID: "product-456", AverageRating: 4.5, TotalReviews: 2}

	reviewRepo.On("List", ctx, filter, viewer).Return(reviews, int64(2), nil)
	summaryCache.On("GetSummary", ctx, "product-456").Return(summary, nil)

	result, err := svc.ListReviews(ctx, filter, viewer)

	assert.NoError(t, err)
	assert.Len(t, result.Reviews, 2)
	assert.True(t, result.Reviews[0].UserVotedHelpful)
	assert.Equal(t, int64(2), result.Pagination.Total)
	assert.Equal(t, 1, result.Pagination.TotalPages)
	assert.False(t, result.Pagination.HasNext)
	assert.NotNil(t, result.Summary)
}

func TestListReviews_Pagination(t *testing.T) {
	svc, reviewRepo, _, _, summaryCache, _ := newTestService()

	ctx := context.Background()
	viewer := entity.Viewer{}
	filter := entity.ReviewFilter{ProductID: "product-456", Sort: entity.SortRecent, Page: 2, Limit: 10}

	reviewRepo.On("List", ctx, filter, viewer).Return([]entity.Review{}, int64(25), nil)
	summaryCache.On("GetSummary", ctx, "product-456").Return(&entity.RatingSummary{ProductID: "product-456"}, nil)

	result, err := svc.ListReviews(ctx, filter, viewer)

	assert.NoError(t, err)
	assert.Equal(t, 3, result.Pagination.TotalPages)
	assert.True(t, result.Pagination.HasNext)
	assert.True(t, result.Pagination.HasPrev)
}

func TestListReviews_ApprovedFilterStrippedForCustomer(t *testing.T) {
	svc, reviewRepo, _, _, summaryCache, _ := newTestService()

	ctx := context.Background()
	viewer := entity.Viewer{UserID: "user-1", Email: "user1@example.com"}
	approved := false
	filter := entity.ReviewFilter{ProductID: "product-456", Sort: entity.SortRecent, Approved: &approved, Page: 1, Limit: 10}

	// До репозитория фильтр approved обычного пользователя не доходит
	sanitized := filter
	sanitized.Approved = nil
	reviewRepo.On("List", ctx, sanitized, viewer).Return([]entity.Review{}, int64(0), nil)
	summaryCache.On("GetSummary", ctx, "product-456").Return(&entity.RatingSummary{ProductID: "product-456"}, nil)

	_, err := svc.ListReviews(ctx, filter, viewer)

	assert.NoError(t, err)
	reviewRepo.AssertExpectations(t)
}

func TestListReviews_SummaryFailureNotFatal(t *testing.T) {
	svc, reviewRepo, _, _, summaryCache, _ := newTestService()

	ctx := context.Background()
	viewer := entity.Viewer{}
	filter := entity.ReviewFilter{ProductID: "product-456", Sort: entity.SortRecent, Page: 1, Limit: 10}

	reviewRepo.On("List", ctx, filter, viewer).Return([]entity.Review{}, int64(0), nil)
	summaryCache.On("GetSummary", ctx, "product-456").Return(nil, nil)
	reviewRepo.On("AggregateSummary", ctx, "product-456").Return(nil, errors.New("mongo down"))

	result, err := svc.ListReviews(ctx, filter, viewer)

	assert.NoError(t, err)
	assert.Nil(t, result.Summary)
}

func TestUpdateReview_Success(t *testing.T) {
	svc, reviewRepo, _, _, summaryCache, _ := newTestService()

	ctx := context.Background()
	reviewID := primitive.NewObjectID()
	review := &entity.Review{ID: reviewID, ProductID: "product-456", ReviewerEmail: "author@example.com", Rating: 3, Content: "Old content here"}

	reviewRepo.On("GetByID", ctx, reviewID.Hex()).Return(review, nil)
	reviewRepo.On("Update", ctx, mock.Anything).Return(nil)
	summaryCache.On("DeleteSummary", ctx, "product-456").Return(nil)

	req := &entity.UpdateReviewRequest{Rating: 5, Content: "Much better after a month of use"}
	result, err := svc.UpdateReview(ctx, reviewID.Hex(), entity.Viewer{Email: "author@example.com"}, req)

	assert.NoError(t, err)
	assert.Equal(t, 5, result.Rating)
	assert.Equal(t, "Much better after a month of use", result.Content)
	summaryCache.AssertCalled(t, "DeleteSummary", ctx, "product-456")
}

func TestUpdateReview_NotAuthor(t *testing.T) {
	svc, reviewRepo, _, _, _, _ := newTestService()

	ctx := context.Background()
	reviewID := primitive.NewObjectID()
	review := &entity.Review{ID: reviewID, ReviewerEmail: "author@example.com"}

	reviewRepo.On("GetByID", ctx, reviewID.Hex()).Return(review, nil)

	result, err := svc.UpdateReview(ctx, reviewID.Hex(), entity.Viewer{Email: "other@example.com"}, &entity.UpdateReviewRequest{Rating: 1})

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Nil(t, result)
	reviewRepo.AssertNotCalled(t, "Update")
}

func TestUpdateReview_ModeratorCannotEdit(t *testing.T) {
	svc, reviewRepo, _, _, _, _ := newTestService()

	ctx := context.Background()
	reviewID := primitive.NewObjectID()
	review := &entity.Review{ID: reviewID, ReviewerEmail: "author@example.com"}

	reviewRepo.On("GetByID", ctx, reviewID.Hex()).Return(review, nil)

	_, err := svc.UpdateReview(ctx, reviewID.Hex(), entity.Viewer{UserID: "mod-1", Role: "moderator"}, &entity.UpdateReviewRequest{Rating: 1})

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDeleteReview_ByAuthor(t *testing.T) {
	svc, reviewRepo, _, auditRepo, summaryCache, kafkaProducer := newTestService()

	ctx := context.Background()
	reviewID := primitive.NewObjectID()
	review := &entity.Review{ID: reviewID, ProductID: "product-456", ReviewerEmail: "author@example.com"}

	reviewRepo.On("GetByID", ctx, reviewID.Hex()).Return(review, nil)
	reviewRepo.On("Delete", ctx, reviewID.Hex()).Return(nil)
	summaryCache.On("DeleteSummary", ctx, "product-456").Return(nil)
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	err := svc.DeleteReview(ctx, reviewID.Hex(), entity.Viewer{UserID: "user-1", Email: "author@example.com"})

	assert.NoError(t, err)
	// Удаление собственного отзыва не попадает в журнал модерации
	auditRepo.AssertNotCalled(t, "Record")
}

func TestDeleteReview_ByModeratorAudited(t *testing.T) {
	svc, reviewRepo, _, auditRepo, summaryCache, kafkaProducer := newTestService()

	ctx := context.Background()
	reviewID := primitive.NewObjectID()
	review := &entity.Review{ID: reviewID, ProductID: "product-456", ReviewerEmail: "author@example.com"}

	reviewRepo.On("GetByID", ctx, reviewID.Hex()).Return(review, nil)
	reviewRepo.On("Delete", ctx, reviewID.Hex()).Return(nil)
	auditRepo.On("Record", ctx, mock.AnythingOfType("*entity.ModerationAudit")).Return(nil)
	summaryCache.On("DeleteSummary", ctx, "product-456").Return(nil)
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	err := svc.DeleteReview(ctx, reviewID.Hex(), entity.Viewer{UserID: "mod-1", Email: "mod@example.com", Role: "moderator"})

	assert.NoError(t, err)
	auditRepo.AssertCalled(t, "Record", ctx, mock.MatchedBy(func(a *entity.ModerationAudit) bool {
		return a.Action == entity.ActionDelete && a.ActorID == "mod-1" && a.ReviewID == reviewID.Hex()
	}))
}

func TestDeleteReview_Forbidden(t *testing.T) {
	svc, reviewRepo, _, _, _, _ := newTestService()

	ctx := context.Background()
	reviewID := primitive.NewObjectID()
	review := &entity.Review{ID: reviewID, ReviewerEmail: "author@example.com"}

	reviewRepo.On("GetByID", ctx, reviewID.Hex()).Return(review, nil)

	err := svc.DeleteReview(ctx, reviewID.Hex(), entity.Viewer{UserID: "user-2", Email: "other@example.com"})

	assert.ErrorIs(t, err, ErrUnauthorized)
	reviewRepo.AssertNotCalled(t, "Delete")
}

func TestDeleteReview_NotFound(t *testing.T) {
	svc, reviewRepo, _, _, _, _ := newTestService()

	ctx := context.Background()
	reviewRepo.On("GetByID", ctx, "missing").Return(nil, repository.ErrReviewNotFound)

	err := svc.DeleteReview(ctx, "missing", entity.Viewer{UserID: "user-1"})

	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestSubmitVote_Success(t *testing.T) {
	svc, reviewRepo, _, _, _, kafkaProducer := newTestService()

	ctx := context.Background()
	reviewID := primitive.NewObjectID()
	review := &entity.Review{ID: reviewID, ProductID: "product-456", IsApproved: true}
	updated := &entity.Review{ID: reviewID, ProductID: "product-456", IsApproved: true, HelpfulVoters: []string{"user-1"}}

	reviewRepo.On("GetByID", ctx, reviewID.Hex()).Return(review, nil).Once()
	reviewRepo.On("Vote", ctx, reviewID.Hex(), "user-1", entity.VoteHelpful).Return(nil)
	reviewRepo.On("GetByID", ctx, reviewID.Hex()).Return(updated, nil).Once()
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.SubmitVote(ctx, reviewID.Hex(), entity.Viewer{UserID: "user-1", Email: "user1@example.com"}, entity.VoteHelpful)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.HelpfulCount())
	assert.True(t, result.HasVoted("user-1", entity.VoteHelpful))
}

func TestSubmitVote_AnonymousRejected(t *testing.T) {
	svc, reviewRepo, _, _, _, _ := newTestService()

	result, err := svc.SubmitVote(context.Background(), "any", entity.Viewer{}, entity.VoteHelpful)

	assert.ErrorIs(t, err, ErrIdentityRequired)
	assert.Nil(t, result)
	reviewRepo.AssertNotCalled(t, "Vote")
}

func TestSubmitVote_NotFound(t *testing.T) {
	svc, reviewRepo, _, _, _, _ := newTestService()

	ctx := context.Background()
	reviewRepo.On("GetByID", ctx, "missing").Return(nil, repository.ErrReviewNotFound)

	result, err := svc.SubmitVote(ctx, "missing", entity.Viewer{UserID: "user-1"}, entity.VoteHelpful)

	assert.ErrorIs(t, err, ErrReviewNotFound)
	assert.Nil(t, result)
}

func TestSubmitVote_SwitchDirection(t *testing.T) {
	svc, reviewRepo, _, _, _, kafkaProducer := newTestService()

	ctx := context.Background()
	reviewID := primitive.NewObjectID()
	review := &entity.Review{ID: reviewID, ProductID: "product-456", IsApproved: true, HelpfulVoters: []string{"user-1"}}
	switched := &entity.Review{ID: reviewID, ProductID: "product-456", IsApproved: true, UnhelpfulVoters: []string{"user-1"}}

	reviewRepo.On("GetByID", ctx, reviewID.Hex()).Return(review, nil).Once()
	reviewRepo.On("Vote", ctx, reviewID.Hex(), "user-1", entity.VoteUnhelpful).Return(nil)
	reviewRepo.On("GetByID", ctx, reviewID.Hex()).Return(switched, nil).Once()
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.SubmitVote(ctx, reviewID.Hex(), entity.Viewer{UserID: "user-1"}, entity.VoteUnhelpful)

	assert.NoError(t, err)
	assert.Equal(t, 0, result.HelpfulCount())
	assert.Equal(t, 1, result.UnhelpfulCount())
}

func TestSubmitReport_Success(t *testing.T) {
	svc, reviewRepo, reportRepo, _, _, kafkaProducer := newTestService()

	ctx := context.Background()
	reviewID := primitive.NewObjectID()
	review := &entity.Review{ID: reviewID, ProductID: "product-456", IsApproved: true}

	reviewRepo.On("GetByID", ctx, reviewID.Hex()).Return(review, nil)
	reportRepo.On("Create", ctx, mock.AnythingOfType("*entity.Report")).Return(nil)
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	err := svc.SubmitReport(ctx, reviewID.Hex(), entity.Viewer{UserID: "user-1"}, &entity.ReportRequest{Reason: entity.ReasonSpam})

	assert.NoError(t, err)
	reportRepo.AssertCalled(t, "Create", ctx, mock.MatchedBy(func(r *entity.Report) bool {
		return r.Reason == entity.ReasonSpam && r.Comment == "" && r.ReviewID == reviewID.Hex()
	}))
	reportRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestSubmitReport_DuplicatesNotDeduplicated(t *testing.T) {
	svc, reviewRepo, reportRepo, _, _, kafkaProducer := newTestService()

	ctx := context.Background()
	reviewID := primitive.NewObjectID()
	review := &entity.Review{ID: reviewID, ProductID: "product-456", IsApproved: true}

	reviewRepo.On("GetByID", ctx, reviewID.Hex()).Return(review, nil)
	reportRepo.On("Create", ctx, mock.Anything).Return(nil)
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	viewer := entity.Viewer{UserID: "user-1"}
	req := &entity.ReportRequest{Reason: entity.ReasonOther, Comment: "duplicate content"}

	assert.NoError(t, svc.SubmitReport(ctx, reviewID.Hex(), viewer, req))
	assert.NoError(t, svc.SubmitReport(ctx, reviewID.Hex(), viewer, req))

	reportRepo.AssertNumberOfCalls(t, "Create", 2)
}

func TestSubmitReport_NotFound(t *testing.T) {
	svc, reviewRepo, reportRepo, _, _, _ := newTestService()

	ctx := context.Background()
	reviewRepo.On("GetByID", ctx, "missing").Return(nil, repository.ErrReviewNotFound)

	err := svc.SubmitReport(ctx, "missing", entity.Viewer{}, &entity.ReportRequest{Reason: entity.ReasonSpam})

	assert.ErrorIs(t, err, ErrReviewNotFound)
	reportRepo.AssertNotCalled(t, "Create")
}

func TestGetProductSummary_CacheHit(t *testing.T) {
	svc, reviewRepo, _, _, summaryCache, _ := newTestService()

	ctx := context.Background()
	cached := &entity.RatingSummary{ProductID: "product-456", AverageRating: 4.2, TotalReviews: 10}

	summaryCache.On("GetSummary", ctx, "product-456").Return(cached, nil)

	result, err := svc.GetProductSummary(ctx, "product-456")

	assert.NoError(t, err)
	assert.Equal(t, cached, result)
	reviewRepo.AssertNotCalled(t, "AggregateSummary")
}

func TestGetProductSummary_CacheMiss(t *testing.T) {
	svc, reviewRepo, _, _, summaryCache, _ := newTestService()

	ctx := context.Background()
	summary := &entity.RatingSummary{ProductID: "product-456", AverageRating: 4.0, TotalReviews: 5}

	summaryCache.On("GetSummary", ctx, "product-456").Return(nil, nil)
	reviewRepo.On("AggregateSummary", ctx, "product-456").Return(summary, nil)
	summaryCache.On("SetSummary", ctx, summary, 5*time.Minute).Return(nil)

	result, err := svc.GetProductSummary(ctx, "product-456")

	assert.NoError(t, err)
	assert.Equal(t, summary, result)
	summaryCache.AssertCalled(t, "SetSummary", ctx, summary, 5*time.Minute)
}

func TestRefreshSummaries_Success(t *testing.T) {
	svc, reviewRepo, _, _, summaryCache, _ := newTestService()

	ctx := context.Background()
	summaryA := &entity.RatingSummary{ProductID: "product-a"}
	summaryB := &entity.RatingSummary{ProductID: "product-b"}

	reviewRepo.On("DistinctProductIDs", ctx).Return([]string{"product-a", "product-b"}, nil)
	reviewRepo.On("AggregateSummary", ctx, "product-a").Return(summaryA, nil)
	reviewRepo.On("AggregateSummary", ctx, "product-b").Return(summaryB, nil)
	summaryCache.On("SetSummary", ctx, mock.Anything, 5*time.Minute).Return(nil)

	err := svc.RefreshSummaries(ctx)

	assert.NoError(t, err)
	summaryCache.AssertNumberOfCalls(t, "SetSummary", 2)
}

func TestRefreshSummaries_PartialFailure(t *testing.T) {
	svc, reviewRepo, _, _, summaryCache, _ := newTestService()

	ctx := context.Background()
	summaryB := &entity.RatingSummary{ProductID: "product-b"}

	reviewRepo.On("DistinctProductIDs", ctx).Return([]string{"product-a", "product-b"}, nil)
	reviewRepo.On("AggregateSummary", ctx, "product-a").Return(nil, errors.New("aggregation error"))
	reviewRepo.On("AggregateSummary", ctx, "product-b").Return(summaryB, nil)
	summaryCache.On("SetSummary", ctx, summaryB, 5*time.Minute).Return(nil)

	// Отказ одного товара не прерывает обход остальных
	err := svc.RefreshSummaries(ctx)

	assert.NoError(t, err)
	summaryCache.AssertNumberOfCalls(t, "SetSummary", 1)
}
