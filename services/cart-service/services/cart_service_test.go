package services

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yashrajoria/storefront-backend/services/cart-service/models"
	"github.com/yashrajoria/storefront-backend/services/cart-service/repository"
	"github.com/yashrajoria/storefront-backend/services/common/testutil"
	productmodels "github.com/yashrajoria/storefront-backend/services/product-service/models"
	productrepo "github.com/yashrajoria/storefront-backend/services/product-service/repository"
	"gorm.io/gorm"
)

type CartServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	carts    *repository.CartRepository
	service  *CartService
	user     uuid.UUID
	category *productmodels.Category
}

func TestCartService(t *testing.T) {
	suite.Run(t, new(CartServiceTestSuite))
}

func (s *CartServiceTestSuite) SetupTest() {
	s.db = testutil.NewSQLiteDB(s.T(),
		&productmodels.Category{}, &productmodels.SubCategory{}, &productmodels.Product{}, &models.CartItem{})
	s.ctx = context.Background()
	s.carts = repository.NewCartRepository(s.db)
	s.service = NewCartService(s.carts, productrepo.NewProductRepository(s.db), nil)
	s.user = uuid.New()

	s.category = &productmodels.Category{Name: "Pantry", Slug: "pantry"}
	s.Require().NoError(s.db.Create(s.category).Error)
}

func (s *CartServiceTestSuite) product(name string, price int64, discount, stock int) *productmodels.Product {
	p := &productmodels.Product{
		Name: name, Slug: productmodels.Slugify(name), Price: price, DiscountPercent: discount,
		Stock: stock, CategoryID: s.category.ID, Published: true,
	}
	s.Require().NoError(s.db.Create(p).Error)
	return p
}

func (s *CartServiceTestSuite) TestCartTotals() {
	rice := s.product("Rice", 1000, 10, 20)
	oil := s.product("Oil", 450, 0, 5)

	_, svcErr := s.service.AddItem(s.ctx, s.user, rice.ID, 3)
	s.Require().Nil(svcErr)
	_, svcErr = s.service.AddItem(s.ctx, s.user, oil.ID, 0)
	s.Require().Nil(svcErr)

	cart, svcErr := s.service.GetCart(s.ctx, s.user)
	s.Require().Nil(svcErr)
	s.Require().Len(cart.Items, 2)
	s.Equal(models.Summary{ItemCount: 4, Subtotal: 3*900 + 450, OriginalTotal: 3*1000 + 450, Savings: 300}, cart.Summary)
	for _, item := range cart.Items {
		if item.ProductID == rice.ID {
			s.Equal(int64(900), item.UnitPrice)
			s.Equal(int64(2700), item.LineTotal)
		}
	}

	n, svcErr := s.service.Count(s.ctx, s.user)
	s.Require().Nil(svcErr)
	s.Equal(int64(4), n)
}

func (s *CartServiceTestSuite) TestAddItemMergesAndChecksStock() {
	tea := s.product("Tea", 300, 0, 4)

	first, svcErr := s.service.AddItem(s.ctx, s.user, tea.ID, 2)
	s.Require().Nil(svcErr)
	second, svcErr := s.service.AddItem(s.ctx, s.user, tea.ID, 2)
	s.Require().Nil(svcErr)
	s.Equal(first.ID, second.ID)
	s.Equal(4, second.Quantity)

	_, svcErr = s.service.AddItem(s.ctx, s.user, tea.ID, 1)
	s.Require().NotNil(svcErr)
	s.Equal(409, svcErr.StatusCode)
	s.Equal("insufficient stock", svcErr.Message)

	_, svcErr = s.service.AddItem(s.ctx, s.user, tea.ID, -1)
	s.Require().NotNil(svcErr)
	s.Equal(400, svcErr.StatusCode)
}

func (s *CartServiceTestSuite) TestAddItemRejectsUnknownAndUnpublished() {
	_, svcErr := s.service.AddItem(s.ctx, s.user, uuid.New(), 1)
	s.Require().NotNil(svcErr)
	s.Equal(404, svcErr.StatusCode)

	hidden := s.product("Hidden", 100, 0, 10)
	s.Require().NoError(s.db.Model(hidden).Update("published", false).Error)
	_, svcErr = s.service.AddItem(s.ctx, s.user, hidden.ID, 1)
	s.Require().NotNil(svcErr)
	s.Equal("product not found", svcErr.Message)
}

func (s *CartServiceTestSuite) TestUpdateQuantity() {
	salt := s.product("Salt", 50, 0, 10)
	item, svcErr := s.service.AddItem(s.ctx, s.user, salt.ID, 1)
	s.Require().Nil(svcErr)

	cart, svcErr := s.service.UpdateQuantity(s.ctx, s.user, item.ID, 7)
	s.Require().Nil(svcErr)
	s.Equal(7, cart.Summary.ItemCount)

	_, svcErr = s.service.UpdateQuantity(s.ctx, s.user, item.ID, 11)
	s.Require().NotNil(svcErr)
	s.Equal(409, svcErr.StatusCode)

	_, svcErr = s.service.UpdateQuantity(s.ctx, uuid.New(), item.ID, 2)
	s.Require().NotNil(svcErr)
	s.Equal(404, svcErr.StatusCode)

	cart, svcErr = s.service.UpdateQuantity(s.ctx, s.user, item.ID, 0)
	s.Require().Nil(svcErr)
	s.Empty(cart.Items)
	s.Equal(int64(0), cart.Summary.Subtotal)
}

func (s *CartServiceTestSuite) TestRemoveAndClear() {
	a := s.product("Apple Juice", 200, 0, 10)
	b := s.product("Bread", 150, 0, 10)
	item, _ := s.service.AddItem(s.ctx, s.user, a.ID, 1)
	_, _ = s.service.AddItem(s.ctx, s.user, b.ID, 1)

	cart, svcErr := s.service.RemoveItem(s.ctx, s.user, item.ID)
	s.Require().Nil(svcErr)
	s.Len(cart.Items, 1)

	_, svcErr = s.service.RemoveItem(s.ctx, s.user, item.ID)
	s.Require().NotNil(svcErr)
	s.Equal(404, svcErr.StatusCode)

	s.Require().Nil(s.service.Clear(s.ctx, s.user))
	n, _ := s.service.Count(s.ctx, s.user)
	s.Equal(int64(0), n)
}

func (s *CartServiceTestSuite) TestGetCartDropsVanishedProducts() {
	keep := s.product("Keep", 100, 0, 10)
	gone := s.product("Gone", 100, 0, 10)
	_, _ = s.service.AddItem(s.ctx, s.user, keep.ID, 1)
	_, _ = s.service.AddItem(s.ctx, s.user, gone.ID, 2)
	s.Require().NoError(s.db.Delete(gone).Error)

	cart, svcErr := s.service.GetCart(s.ctx, s.user)
	s.Require().Nil(svcErr)
	s.Require().Len(cart.Items, 1)
	s.Equal(keep.ID, cart.Items[0].ProductID)
	s.Equal(1, cart.Summary.ItemCount)

	n, _ := s.service.Count(s.ctx, s.user)
	s.Equal(int64(1), n)
}

func (s *CartServiceTestSuite) TestGetCartHidesUnpublishedWithoutDeleting() {
	seasonal := s.product("Mango", 300, 0, 10)
	_, svcErr := s.service.AddItem(s.ctx, s.user, seasonal.ID, 2)
	s.Require().Nil(svcErr)
	s.Require().NoError(s.db.Model(seasonal).Update("published", false).Error)

	cart, svcErr := s.service.GetCart(s.ctx, s.user)
	s.Require().Nil(svcErr)
	s.Empty(cart.Items)

	var stored int64
	s.Require().NoError(s.db.Model(&models.CartItem{}).Where("user_id = ?", s.user).Count(&stored).Error)
	s.Equal(int64(1), stored)

	s.Require().NoError(s.db.Model(seasonal).Update("published", true).Error)
	cart, svcErr = s.service.GetCart(s.ctx, s.user)
	s.Require().Nil(svcErr)
	s.Require().Len(cart.Items, 1)
	s.Equal(2, cart.Items[0].Quantity)
}

func (s *CartServiceTestSuite) TestAddManyToleratesFailures() {
	ok := s.product("Pasta", 250, 0, 10)
	low := s.product("Saffron", 900, 0, 1)
	missing := uuid.New()

	result, svcErr := s.service.AddMany(s.ctx, s.user, []BatchItem{
		{ProductID: ok.ID, Quantity: 2},
		{ProductID: missing, Quantity: 1},
		{ProductID: low.ID, Quantity: 3},
	}, "")
	s.Require().Nil(svcErr)
	s.Equal(1, result.Added)
	s.Equal(3, result.Requested)
	s.Equal([]BatchFailure{
		{ProductID: missing, Error: "product not found"},
		{ProductID: low.ID, Error: "insufficient stock"},
	}, result.Failed)

	_, svcErr = s.service.AddMany(s.ctx, s.user, nil, "")
	s.Require().NotNil(svcErr)
	s.Equal(400, svcErr.StatusCode)
}

func (s *CartServiceTestSuite) TestAddManyIgnoresUnavailableIdempotencyStore() {
	client := redis.NewClient(&redis.Options{
		Addr:       "127.0.0.1:0",
		MaxRetries: -1,
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, errors.New("redis down")
		},
	})
	defer client.Close()
	s.service.idempotency = repository.NewIdempotencyStore(client, 0)

	p := s.product("Honey", 700, 0, 10)
	result, svcErr := s.service.AddMany(s.ctx, s.user, []BatchItem{{ProductID: p.ID, Quantity: 1}}, "key-1")
	s.Require().Nil(svcErr)
	s.Equal(1, result.Added)
}

func (s *CartServiceTestSuite) TestRepeatOrder() {
	p := s.product("Coffee", 1200, 0, 10)
	order := uuid.New()
	s.service.SetOrderLines(func(ctx context.Context, userID, orderID uuid.UUID) ([]BatchItem, error) {
		if userID != s.user || orderID != order {
			return nil, gorm.ErrRecordNotFound
		}
		return []BatchItem{{ProductID: p.ID, Quantity: 2}}, nil
	})

	result, svcErr := s.service.RepeatOrder(s.ctx, s.user, order)
	s.Require().Nil(svcErr)
	s.Equal(1, result.Added)

	_, svcErr = s.service.RepeatOrder(s.ctx, uuid.New(), order)
	s.Require().NotNil(svcErr)
	s.Equal(404, svcErr.StatusCode)
}

func TestRepeatOrderUnavailableWithoutSource(t *testing.T) {
	svc := NewCartService(nil, nil, nil)
	_, svcErr := svc.RepeatOrder(context.Background(), uuid.New(), uuid.New())
	if assert.NotNil(t, svcErr) {
		assert.Equal(t, 503, svcErr.StatusCode)
	}
}
