package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"reviewhub/internal/app/reviews/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// AuditRepositoryTestSuite тестовый suite для PostgreSQL repository
type AuditRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	mock  sqlmock.Sqlmock
	repo  AuditRepository
	sqlDB *sql.DB
}

func TestAuditRepositorySuite(t *testing.T) {
	suite.Run(t, new(AuditRepositoryTestSuite))
}

func (s *AuditRepositoryTestSuite) SetupTest() {
	var err error
	s.sqlDB, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	dialector := postgres.New(postgres.Config{
		Conn:       s.sqlDB,
		DriverName: "postgres",
	})

	s.db, err = gorm.Open(dialector, &gorm.Config{})
	require.NoError(s.T(), err)

	s.repo = NewAuditRepository(s.db)
}

func (s *AuditRepositoryTestSuite) TearDownTest() {
	s.sqlDB.Close()
}

// ===================== Record Tests =====================

func (s *AuditRepositoryTestSuite) TestRecord_Success() {
	ctx := context.Background()
	audit := &entity.ModerationAudit{
		ReviewID:  "review-1",
		ProductID: "product-456",
		Action:    entity.ActionApprove,
		ActorID:   "mod-1",
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "moderation_audits"`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectCommit()

	err := s.repo.Record(ctx, audit)

	s.NoError(err)
	s.NotEqual(uuid.Nil, audit.ID)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *AuditRepositoryTestSuite) TestRecord_KeepsExplicitID() {
	ctx := context.Background()
	id := uuid.New()
	audit := &entity.ModerationAudit{
		ID:        id,
		ReviewID:  "review-1",
		ProductID: "product-456",
		Action:    entity.ActionDelete,
		ActorID:   "mod-1",
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "moderation_audits"`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectCommit()

	err := s.repo.Record(ctx, audit)

	s.NoError(err)
	s.Equal(id, audit.ID)
}

func (s *AuditRepositoryTestSuite) TestRecord_DbError() {
	ctx := context.Background()
	audit := &entity.ModerationAudit{
		ReviewID:  "review-1",
		ProductID: "product-456",
		Action:    entity.ActionApprove,
		ActorID:   "mod-1",
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "moderation_audits"`)).
		WillReturnError(errors.New("connection refused"))
	s.mock.ExpectRollback()

	err := s.repo.Record(ctx, audit)

	s.Error(err)
	s.Contains(err.Error(), "failed to record moderation audit")
}

// ===================== ListByReview Tests =====================

func (s *AuditRepositoryTestSuite) TestListByReview_Success() {
	ctx := context.Background()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "review_id", "product_id", "action", "actor_id", "created_at"}).
		AddRow(uuid.New(), "review-1", "product-456", "feature", "mod-2", now).
		AddRow(uuid.New(), "review-1", "product-456", "approve", "mod-1", now.Add(-time.Hour))

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "moderation_audits" WHERE review_id = $1 ORDER BY created_at DESC`)).
		WithArgs("review-1").
		WillReturnRows(rows)

	audits, err := s.repo.ListByReview(ctx, "review-1")

	s.NoError(err)
	s.Len(audits, 2)
	s.Equal(entity.ActionFeature, audits[0].Action)
	s.Equal(entity.ActionApprove, audits[1].Action)
}

func (s *AuditRepositoryTestSuite) TestListByReview_Empty() {
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "review_id", "product_id", "action", "actor_id", "created_at"})

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "moderation_audits" WHERE review_id = $1 ORDER BY created_at DESC`)).
		WithArgs("no-audits").
		WillReturnRows(rows)

	audits, err := s.repo.ListByReview(ctx, "no-audits")

	s.NoError(err)
	s.Empty(audits)
}

func (s *AuditRepositoryTestSuite) TestListByReview_DbError() {
	ctx := context.Background()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "moderation_audits"`)).
		WillReturnError(errors.New("connection refused"))

	audits, err := s.repo.ListByReview(ctx, "review-1")

	s.Error(err)
	s.Nil(audits)
}
