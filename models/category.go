package models

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

type PurchaseCategory struct {
	ID               int       `gorm:"primary_key" json:"id"`
	Name             string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	ParentCategoryId *int      `gorm:"index" json:"parent_category_id"`
	IsActive         *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type SalesCategory struct {
	ID               int       `gorm:"primary_key" json:"id"`
	Name             string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	ParentCategoryId *int      `gorm:"index" json:"parent_category_id"`
	IsActive         *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FindOrCreatePurchaseCategory matches by name case-insensitively so that
// re-ingesting the same export never duplicates a category.
func FindOrCreatePurchaseCategory(ctx context.Context, tx *gorm.DB, name string) (*PurchaseCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var category PurchaseCategory
	err := tx.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(name)).
		Take(&category).Error
	if err == nil {
		return &category, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	category = PurchaseCategory{Name: name}
	if err := tx.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func FindOrCreateSalesCategory(ctx context.Context, tx *gorm.DB, name string) (*SalesCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var category SalesCategory
	err := tx.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(name)).
		Take(&category).Error
	if err == nil {
		return &category, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	category = SalesCategory{Name: name}
	if err := tx.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
