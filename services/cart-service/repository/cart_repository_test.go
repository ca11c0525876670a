package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/storefront-backend/services/cart-service/models"
	"github.com/yashrajoria/storefront-backend/services/common/testutil"
	productmodels "github.com/yashrajoria/storefront-backend/services/product-service/models"
)

func TestListByUserForUpdateLocksCartRows(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewCartRepository(db)
	userID, productID, itemID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "cart_items" WHERE user_id = \$1 ORDER BY created_at ASC,id FOR UPDATE`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "product_id", "quantity", "created_at", "updated_at"}).
			AddRow(itemID, userID, productID, 2, now, now))
	mock.ExpectQuery(`SELECT \* FROM "products" WHERE "products"."id" = \$1`).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "stock"}).
			AddRow(productID, "Basmati Rice", 52000, 10))

	items, err := repo.ListByUserForUpdate(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	require.NotNil(t, items[0].Product)
	assert.Equal(t, "Basmati Rice", items[0].Product.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUserForUpdateWithoutPostgres(t *testing.T) {
	db := testutil.NewSQLiteDB(t, &productmodels.Category{}, &productmodels.SubCategory{}, &productmodels.Product{}, &models.CartItem{})
	repo := NewCartRepository(db)

	items, err := repo.ListByUserForUpdate(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, items)
}
