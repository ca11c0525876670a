package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/storefront-backend/services/common/testutil"
	"github.com/yashrajoria/storefront-backend/services/promotion-service/models"
)

func TestIncrementUsage(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewGormVoucherRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "vouchers" SET "used_count"=used_count \+ 1 WHERE \(id = \$1 AND \(usage_limit = 0 OR used_count < usage_limit\)\)`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.IncrementUsage(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementUsageLimitReached(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewGormVoucherRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "vouchers" SET "used_count"=used_count \+ 1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.IncrementUsage(context.Background(), id)
	assert.ErrorIs(t, err, ErrUsageLimitReached)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateExpired(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewGormVoucherRepository(db)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "vouchers" SET "active"=\$1,"updated_at"=\$2 WHERE \(active = \$3 AND valid_to < \$4\)`).
		WithArgs(false, sqlmock.AnyArg(), true, now).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	n, err := repo.DeactivateExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByCodeIsCaseInsensitive(t *testing.T) {
	db := testutil.NewSQLiteDB(t, &models.Voucher{}, &models.VoucherUsage{})
	repo := NewGormVoucherRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	v := &models.Voucher{Code: "SPRING10", Type: models.VoucherTypePercentage, Value: 10, ValidFrom: now, ValidTo: now.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, v))

	found, err := repo.FindByCode(ctx, " spring10 ")
	require.NoError(t, err)
	assert.Equal(t, v.ID, found.ID)

	require.NoError(t, repo.Delete(ctx, v.ID))
	taken, err := repo.CodeTaken(ctx, "spring10", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = repo.CodeTaken(ctx, "SPRING10", v.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}
