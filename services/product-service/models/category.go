package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string        `gorm:"uniqueIndex;not null" json:"name"`
	Slug             string        `gorm:"uniqueIndex;not null" json:"slug"`
	Image            string        `json:"image,omitempty"`
	SubCategories    []SubCategory `gorm:"foreignKey:CategoryID" json:"sub_categories,omitempty"`
	SubCategoryCount int64         `gorm:"-" json:"sub_category_count"`
	CreatedAt        time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	return nil
}

// SubCategory names are unique within their category.
type SubCategory struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"not null;uniqueIndex:idx_subcategory_category_name" json:"name"`
	Slug       string    `gorm:"not null" json:"slug"`
	Image      string    `json:"image,omitempty"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_subcategory_category_name" json:"category_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *SubCategory) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Slug == "" {
		s.Slug = Slugify(s.Name)
	}
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and joins its words with dashes.
func Slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}
