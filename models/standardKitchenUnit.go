package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// StandardKitchenUnit declares the unit recipes should express a product
// (or a whole category) in. Lowest priority wins when several rules match.
type StandardKitchenUnit struct {
	ID         int               `gorm:"primary_key" json:"id"`
	ProductId  *int              `gorm:"index" json:"product_id"`
	Product    *Product          `json:"product,omitempty"`
	CategoryId *int              `gorm:"index" json:"category_id"`
	Category   *PurchaseCategory `gorm:"foreignKey:CategoryId" json:"category,omitempty"`
	UnitId     int               `gorm:"not null" json:"unit_id"`
	Unit       *UnitOfMeasure    `gorm:"foreignKey:UnitId" json:"unit,omitempty"`
	Priority   int               `gorm:"not null;default:100" json:"priority"`
	IsActive   *bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStandardKitchenUnit struct {
	ProductId  *int   `json:"product_id"`
	CategoryId *int   `json:"category_id"`
	Unit       string `json:"unit" binding:"required"`
	Priority   int    `json:"priority"`
}

// CreateStandardKitchenUnit upserts the rule for its product/category key.
func CreateStandardKitchenUnit(ctx context.Context, db *gorm.DB, input *NewStandardKitchenUnit) (*StandardKitchenUnit, error) {
	if input.ProductId == nil && input.CategoryId == nil {
		return nil, errors.New("product_id or category_id is required")
	}
	unit, err := FindOrCreateUnitOfMeasure(ctx, db, input.Unit)
	if err != nil {
		return nil, err
	}
	priority := input.Priority
	if priority == 0 {
		priority = 100
	}

	dbCtx := db.WithContext(ctx)
	if input.ProductId != nil {
		dbCtx = dbCtx.Where("product_id = ?", *input.ProductId)
	} else {
		dbCtx = dbCtx.Where("product_id IS NULL AND category_id = ?", *input.CategoryId)
	}

	var existing StandardKitchenUnit
	err = dbCtx.Take(&existing).Error
	if err == nil {
		if err := db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
			"unit_id":  unit.ID,
			"priority": priority,
		}).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	rule := StandardKitchenUnit{
		ProductId:  input.ProductId,
		CategoryId: input.CategoryId,
		UnitId:     unit.ID,
		Priority:   priority,
	}
	if err := db.WithContext(ctx).Create(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

// FindStandardKitchenUnit resolves the standard unit for a product:
// product-scoped rules first, then the rules of its purchase category,
// ordered by priority.
func FindStandardKitchenUnit(ctx context.Context, db *gorm.DB, productId int, categoryId *int) (*StandardKitchenUnit, error) {
	var rule StandardKitchenUnit
	err := db.WithContext(ctx).
		Where("product_id = ? AND is_active = true", productId).
		Order("priority asc").
		Take(&rule).Error
	if err == nil {
		return &rule, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if categoryId == nil {
		return nil, nil
	}
	err = db.WithContext(ctx).
		Where("product_id IS NULL AND category_id = ? AND is_active = true", *categoryId).
		Order("priority asc").
		Take(&rule).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}
