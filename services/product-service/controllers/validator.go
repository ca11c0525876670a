package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/common/middleware"
	"github.com/yashrajoria/storefront-backend/services/common/pagination"
	"github.com/yashrajoria/storefront-backend/services/product-service/repository"
)

// RequestValidator handles all input validation
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		validate: validator.New(),
	}
}

// Struct runs the validate tags of v and flattens failures into one message.
func (rv *RequestValidator) Struct(v interface{}) error {
	err := rv.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// ParsePagination reads page and limit, accepting perPage as an alias for limit.
func (rv *RequestValidator) ParsePagination(c *gin.Context) (int, int) {
	page, limit := pagination.Parse(c)
	if c.Query("limit") == "" {
		if perPage, err := strconv.Atoi(c.Query("perPage")); err == nil && perPage > 0 {
			limit = min(perPage, pagination.MaxLimit)
		}
	}
	return page, limit
}

// ParseFilters validates and parses all filter parameters
func (rv *RequestValidator) ParseFilters(c *gin.Context) (repository.ProductFilter, error) {
	var filter repository.ProductFilter

	if err := parseCategoryIDs(c, &filter); err != nil {
		return filter, err
	}
	if raw := strings.TrimSpace(c.Query("sub_category_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("invalid sub_category_id format")
		}
		filter.SubCategoryID = &id
	}
	filter.Query = strings.TrimSpace(c.Query("q"))

	var err error
	if filter.MinPrice, err = parseInt64Param(c, "min_price"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = parseInt64Param(c, "max_price"); err != nil {
		return filter, err
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return filter, errors.New("min_price must be less than or equal to max_price")
	}

	if filter.Featured, err = parseBoolParam(c, "featured"); err != nil {
		return filter, err
	}
	if filter.InStock, err = parseBoolParam(c, "in_stock"); err != nil {
		return filter, err
	}

	sort := strings.ToLower(strings.TrimSpace(c.Query("sort")))
	if sort != "" && !repository.IsSupportedSort(sort) {
		return filter, errors.New("invalid sort value")
	}
	filter.Sort = sort

	if middleware.IsAdmin(c) && c.Query("include_unpublished") == "true" {
		filter.IncludeUnpublished = true
	}
	return filter, nil
}

// parseCategoryIDs accepts a comma separated category_id list.
func parseCategoryIDs(c *gin.Context, filter *repository.ProductFilter) error {
	raw := c.Query("category_id")
	if raw == "" {
		return nil
	}
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		id, err := uuid.Parse(trimmed)
		if err != nil {
			return errors.New("invalid category_id format")
		}
		filter.CategoryIDs = append(filter.CategoryIDs, id)
	}
	if len(filter.CategoryIDs) == 0 {
		return errors.New("invalid category_id format")
	}
	return nil
}

func parseInt64Param(c *gin.Context, name string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("invalid %s value", name)
	}
	return &v, nil
}

func parseBoolParam(c *gin.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid boolean value for '%s'", name)
	}
	return &v, nil
}
