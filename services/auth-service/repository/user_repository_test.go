package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yashrajoria/storefront-backend/services/auth-service/models"
	"github.com/yashrajoria/storefront-backend/services/common/testutil"
	"gorm.io/gorm"
)

type UserRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo *UserRepository
	ctx  context.Context
}

func (s *UserRepositoryTestSuite) SetupTest() {
	s.db = testutil.NewSQLiteDB(s.T(), &models.User{}, &models.RefreshToken{}, &models.Address{})
	s.repo = NewUserRepository(s.db)
	s.ctx = context.Background()
}

func TestUserRepository(t *testing.T) {
	suite.Run(t, new(UserRepositoryTestSuite))
}

func (s *UserRepositoryTestSuite) TestCreateAndFind() {
	user := &models.User{Email: "shopper@example.com", Password: "x", Name: "Shopper"}
	s.Require().NoError(s.repo.Create(s.ctx, user))
	s.NotEqual(uuid.Nil, user.ID)
	s.Equal(models.RoleUser, user.Role)

	found, err := s.repo.FindByEmail(s.ctx, "SHOPPER@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, found.ID)

	_, err = s.repo.FindByID(s.ctx, uuid.New())
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *UserRepositoryTestSuite) TestTransactionRollsBack() {
	err := s.repo.Transaction(s.ctx, func(tx IUserRepository) error {
		s.Require().NoError(tx.Create(s.ctx, &models.User{Email: "a@b.com", Password: "x", Name: "A"}))
		return gorm.ErrInvalidData
	})
	s.ErrorIs(err, gorm.ErrInvalidData)

	_, err = s.repo.FindByEmail(s.ctx, "a@b.com")
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *UserRepositoryTestSuite) TestListFilters() {
	for _, u := range []models.User{
		{Email: "ann@example.com", Name: "Ann", Password: "x", Role: models.RoleAdmin},
		{Email: "bob@example.com", Name: "Bob", Password: "x"},
		{Email: "cat@example.com", Name: "Cat", Password: "x"},
	} {
		u := u
		s.Require().NoError(s.repo.Create(s.ctx, &u))
	}

	users, total, err := s.repo.List(s.ctx, UserFilter{Role: models.RoleUser}, 1, 1)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(users, 1)

	users, total, err = s.repo.List(s.ctx, UserFilter{Query: "ANN"}, 1, 10)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal("Ann", users[0].Name)
}

func (s *UserRepositoryTestSuite) TestRevokeRefreshTokenOnlyOnce() {
	userID := uuid.New()
	s.Require().NoError(s.repo.CreateRefreshToken(s.ctx, &models.RefreshToken{
		TokenID: "jti-1", UserID: userID, ExpiresAt: time.Now().Add(time.Hour),
	}))

	revoked, err := s.repo.RevokeRefreshTokenByTokenID(s.ctx, "jti-1")
	s.Require().NoError(err)
	s.True(revoked)

	revoked, err = s.repo.RevokeRefreshTokenByTokenID(s.ctx, "jti-1")
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *UserRepositoryTestSuite) TestUpdateFieldsMissingUser() {
	err := s.repo.UpdateFields(s.ctx, uuid.New(), map[string]interface{}{"role": models.RoleAdmin})
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func TestUserRepository_FindByEmailQuery(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewUserRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1`)).
		WithArgs("shopper@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name"}).AddRow(id, "shopper@example.com", "Shopper"))

	user, err := repo.FindByEmail(context.Background(), "Shopper@Example.com")
	assert.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_RevokeAllUserRefreshTokens(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewUserRepository(db)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "refresh_tokens" SET "revoked"=$1 WHERE user_id = $2`)).
		WithArgs(true, userID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	assert.NoError(t, repo.RevokeAllUserRefreshTokens(context.Background(), userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
