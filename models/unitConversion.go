package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// defaultConversionPriority leaves room below for more specific rules;
// lower numbers win within a scope.
const defaultConversionPriority = 100

// UnitConversion holds one directed conversion rule. Scope narrows where
// the rule applies: product-specific, category-wide or general. Superseded
// rules are deactivated, not deleted, so several rules may coexist for the
// same pair at different priorities.
type UnitConversion struct {
	ID         int               `gorm:"primary_key" json:"id"`
	Scope      ConversionScope   `gorm:"type:enum('product','category','general');not null;index:idx_conversion_scope" json:"scope"`
	ProductId  *int              `gorm:"index:idx_conversion_scope" json:"product_id"`
	Product    *Product          `json:"product,omitempty"`
	CategoryId *int              `gorm:"index:idx_conversion_scope" json:"category_id"`
	Category   *PurchaseCategory `gorm:"foreignKey:CategoryId" json:"category,omitempty"`
	FromUnitId int               `gorm:"not null;index:idx_conversion_scope" json:"from_unit_id"`
	FromUnit   *UnitOfMeasure    `gorm:"foreignKey:FromUnitId" json:"from_unit,omitempty"`
	ToUnitId   int               `gorm:"not null;index:idx_conversion_scope" json:"to_unit_id"`
	ToUnit     *UnitOfMeasure    `gorm:"foreignKey:ToUnitId" json:"to_unit,omitempty"`
	Factor     decimal.Decimal   `gorm:"type:decimal(20,6);not null" json:"factor"`
	Priority   int               `gorm:"not null;default:100" json:"priority"`
	Notes      string            `gorm:"size:255" json:"notes"`
	IsActive   *bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUnitConversion struct {
	Scope      ConversionScope `json:"scope" binding:"required"`
	ProductId  *int            `json:"product_id"`
	CategoryId *int            `json:"category_id"`
	FromUnit   string          `json:"from_unit" binding:"required"`
	ToUnit     string          `json:"to_unit" binding:"required"`
	Factor     decimal.Decimal `json:"factor" binding:"required"`
	Priority   int             `json:"priority"`
	Notes      string          `json:"notes"`
}

func (input *NewUnitConversion) validate() error {
	switch input.Scope {
	case ConversionScopeProduct:
		if input.ProductId == nil {
			return errors.New("product_id is required for product scope")
		}
	case ConversionScopeCategory:
		if input.CategoryId == nil {
			return errors.New("category_id is required for category scope")
		}
	case ConversionScopeGeneral:
	default:
		return errors.New("invalid conversion scope")
	}
	if input.Factor.LessThanOrEqual(decimal.Zero) {
		return errors.New("factor must be positive")
	}
	if input.Priority < 0 {
		return errors.New("priority must not be negative")
	}
	return nil
}

// CreateUnitConversion upserts the rule for its (scope, from, to, priority)
// key so re-seeding is idempotent. A different priority makes a new rule
// that coexists with the old one.
func CreateUnitConversion(ctx context.Context, db *gorm.DB, input *NewUnitConversion) (*UnitConversion, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if input.Priority == 0 {
		input.Priority = defaultConversionPriority
	}

	fromUnit, err := FindOrCreateUnitOfMeasure(ctx, db, input.FromUnit)
	if err != nil {
		return nil, err
	}
	toUnit, err := FindOrCreateUnitOfMeasure(ctx, db, input.ToUnit)
	if err != nil {
		return nil, err
	}

	dbCtx := db.WithContext(ctx).
		Where("scope = ? AND from_unit_id = ? AND to_unit_id = ? AND priority = ?",
			input.Scope, fromUnit.ID, toUnit.ID, input.Priority)
	if input.ProductId != nil {
		dbCtx = dbCtx.Where("product_id = ?", *input.ProductId)
	}
	if input.CategoryId != nil {
		dbCtx = dbCtx.Where("category_id = ?", *input.CategoryId)
	}

	var existing UnitConversion
	err = dbCtx.Take(&existing).Error
	if err == nil {
		if err := db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
			"factor": input.Factor,
			"notes":  input.Notes,
		}).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	conversion := UnitConversion{
		Scope:      input.Scope,
		ProductId:  input.ProductId,
		CategoryId: input.CategoryId,
		FromUnitId: fromUnit.ID,
		ToUnitId:   toUnit.ID,
		Factor:     input.Factor,
		Priority:   input.Priority,
		Notes:      input.Notes,
	}
	if err := db.WithContext(ctx).Create(&conversion).Error; err != nil {
		return nil, err
	}
	return &conversion, nil
}

// FindConversion returns the winning active rule for the given scope and
// unit pair (lowest priority number first), or nil when no rule exists.
func FindConversion(ctx context.Context, db *gorm.DB, scope ConversionScope, productId *int, categoryId *int, fromUnitId int, toUnitId int) (*UnitConversion, error) {
	dbCtx := db.WithContext(ctx).
		Where("scope = ? AND from_unit_id = ? AND to_unit_id = ? AND is_active = true", scope, fromUnitId, toUnitId)
	switch scope {
	case ConversionScopeProduct:
		dbCtx = dbCtx.Where("product_id = ?", productId)
	case ConversionScopeCategory:
		dbCtx = dbCtx.Where("category_id = ?", categoryId)
	}

	var conversion UnitConversion
	err := dbCtx.Order("priority ASC, id ASC").Take(&conversion).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conversion, nil
}
