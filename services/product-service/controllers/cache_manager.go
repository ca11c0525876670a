package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/yashrajoria/storefront-backend/services/common/metrics"
	"github.com/yashrajoria/storefront-backend/services/common/pagination"
	"github.com/yashrajoria/storefront-backend/services/product-service/models"
	"github.com/yashrajoria/storefront-backend/services/product-service/repository"
	"go.uber.org/zap"
)

const (
	ProductCachePrefix     = "product:detail:"
	ProductListCachePrefix = "products:v:"
	CacheVersionKey        = "products:version"

	DefaultCacheTTL = 5 * time.Minute
	cacheOpTimeout  = 2 * time.Second
)

// ProductListPage is the cached shape of a product listing.
type ProductListPage struct {
	Products []models.Product `json:"data"`
	Meta     pagination.Meta  `json:"meta"`
}

// CacheManager handles all Redis caching operations. A nil client turns every
// call into a miss so the catalog keeps working without Redis.
type CacheManager struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCacheManager(client *redis.Client, ttl time.Duration) *CacheManager {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CacheManager{redis: client, ttl: ttl}
}

func (cm *CacheManager) enabled() bool {
	return cm != nil && cm.redis != nil
}

// GetProductList retrieves a cached product list
func (cm *CacheManager) GetProductList(ctx context.Context, filter repository.ProductFilter, page, limit int) (*ProductListPage, bool) {
	if !cm.enabled() {
		return nil, false
	}
	version, err := cm.getCacheVersion(ctx)
	if err != nil {
		zap.L().Warn("product cache unavailable", zap.Error(err))
		return nil, false
	}

	var cached ProductListPage
	if !cm.get(ctx, listCacheKey(version, filter, page, limit), &cached) {
		return nil, false
	}
	return &cached, true
}

// SetProductListAsync caches a product list in the background.
func (cm *CacheManager) SetProductListAsync(filter repository.ProductFilter, page, limit int, list *ProductListPage) {
	if !cm.enabled() {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
		defer cancel()

		version, err := cm.getCacheVersion(bgCtx)
		if err != nil {
			return
		}
		cm.set(bgCtx, listCacheKey(version, filter, page, limit), list)
	}()
}

func (cm *CacheManager) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, bool) {
	if !cm.enabled() {
		return nil, false
	}
	var product models.Product
	if !cm.get(ctx, ProductCachePrefix+id.String(), &product) {
		return nil, false
	}
	return &product, true
}

// SetProductAsync caches a single product in the background.
func (cm *CacheManager) SetProductAsync(product *models.Product) {
	if !cm.enabled() {
		return
	}
	snapshot := *product
	snapshot.CartQuantity = 0
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
		defer cancel()
		cm.set(bgCtx, ProductCachePrefix+snapshot.ID.String(), &snapshot)
	}()
}

// Invalidate drops every cached list by bumping the version, and the detail entry of id when given.
func (cm *CacheManager) Invalidate(ctx context.Context, id *uuid.UUID) {
	if !cm.enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	newVersion, err := cm.redis.Incr(ctx, CacheVersionKey).Result()
	if err != nil {
		zap.L().Error("failed to invalidate product cache", zap.Error(err))
	} else {
		zap.L().Debug("product cache invalidated", zap.Int64("new_version", newVersion))
	}
	if id != nil {
		if err := cm.redis.Del(ctx, ProductCachePrefix+id.String()).Err(); err != nil {
			zap.L().Warn("failed to delete product cache", zap.Error(err), zap.String("product_id", id.String()))
		}
	}
}

func (cm *CacheManager) get(ctx context.Context, key string, dst interface{}) bool {
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	data, err := cm.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("product cache read failed", zap.Error(err), zap.String("key", key))
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		zap.L().Warn("failed to unmarshal cached product data", zap.Error(err), zap.String("key", key))
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return true
}

func (cm *CacheManager) set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		zap.L().Warn("failed to marshal product data for cache", zap.Error(err))
		return
	}
	if err := cm.redis.Set(ctx, key, data, cm.ttl).Err(); err != nil {
		zap.L().Warn("failed to cache product data", zap.Error(err), zap.String("key", key))
	}
}

// getCacheVersion reads the list version, initialising it on first use.
func (cm *CacheManager) getCacheVersion(ctx context.Context) (int64, error) {
	ver, err := cm.redis.Get(ctx, CacheVersionKey).Int64()
	if err == nil && ver > 0 {
		return ver, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	if err := cm.redis.SetNX(ctx, CacheVersionKey, 1, 0).Err(); err != nil {
		return 0, err
	}
	return cm.redis.Get(ctx, CacheVersionKey).Int64()
}

// listCacheKey builds a deterministic key for a filter and page.
func listCacheKey(version int64, f repository.ProductFilter, page, limit int) string {
	ids := make([]string, 0, len(f.CategoryIDs))
	for _, id := range f.CategoryIDs {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)

	return fmt.Sprintf(
		"%s%d:p:%d:l:%d:c:%s:sc:%s:q:%s:min:%s:max:%s:f:%s:st:%s:all:%t:s:%s",
		ProductListCachePrefix,
		version,
		page,
		limit,
		strings.Join(ids, ","),
		uuidPtrKey(f.SubCategoryID),
		strings.ToLower(strings.TrimSpace(f.Query)),
		int64PtrKey(f.MinPrice),
		int64PtrKey(f.MaxPrice),
		boolPtrKey(f.Featured),
		boolPtrKey(f.InStock),
		f.IncludeUnpublished,
		f.Sort,
	)
}

func uuidPtrKey(v *uuid.UUID) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func int64PtrKey(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func boolPtrKey(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}
