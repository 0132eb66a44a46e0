package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/resto_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID                  int               `gorm:"primary_key" json:"id"`
	Name                string            `gorm:"index;size:255;not null" json:"name" binding:"required"`
	UnitOfMeasureId     *int              `gorm:"index" json:"unit_of_measure_id"`
	UnitOfMeasure       *UnitOfMeasure    `json:"unit_of_measure,omitempty"`
	PurchaseCategoryId  *int              `gorm:"index" json:"purchase_category_id"`
	PurchaseCategory    *PurchaseCategory `json:"purchase_category,omitempty"`
	SalesCategoryId     *int              `gorm:"index" json:"sales_category_id"`
	SalesCategory       *SalesCategory    `json:"sales_category,omitempty"`
	CurrentCostPerUnit  decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"current_cost_per_unit"`
	CurrentSellingPrice decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"current_selling_price"`
	IsActive            *bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt           time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// FindProductByName matches case-insensitively; returns nil when absent.
func FindProductByName(ctx context.Context, db *gorm.DB, name string) (*Product, error) {
	var product Product
	err := db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Take(&product).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindOrCreateProduct looks the product up by name (case-insensitive) and
// creates it when missing. Existing products get their unit and categories
// backfilled when the stored value is empty, never overwritten.
func FindOrCreateProduct(ctx context.Context, tx *gorm.DB, name string, unitId *int, purchaseCategoryId *int, salesCategoryId *int) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, gorm.ErrRecordNotFound
	}

	existing, err := FindProductByName(ctx, tx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		updates := map[string]interface{}{}
		if existing.UnitOfMeasureId == nil && unitId != nil {
			updates["unit_of_measure_id"] = *unitId
		}
		if existing.PurchaseCategoryId == nil && purchaseCategoryId != nil {
			updates["purchase_category_id"] = *purchaseCategoryId
		}
		if existing.SalesCategoryId == nil && salesCategoryId != nil {
			updates["sales_category_id"] = *salesCategoryId
		}
		if len(updates) > 0 {
			if err := tx.WithContext(ctx).Model(existing).Updates(updates).Error; err != nil {
				return nil, err
			}
		}
		return existing, nil
	}

	product := Product{
		Name:               name,
		UnitOfMeasureId:    unitId,
		PurchaseCategoryId: purchaseCategoryId,
		SalesCategoryId:    salesCategoryId,
		IsActive:           utils.NewTrue(),
	}
	if err := tx.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProductCosts refreshes the current cost/price snapshot on the product.
func UpdateProductCosts(ctx context.Context, tx *gorm.DB, productId int, costPerUnit *decimal.Decimal, sellingPrice *decimal.Decimal) error {
	updates := map[string]interface{}{}
	if costPerUnit != nil {
		updates["current_cost_per_unit"] = *costPerUnit
	}
	if sellingPrice != nil {
		updates["current_selling_price"] = *sellingPrice
	}
	if len(updates) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Model(&Product{}).Where("id = ?", productId).Updates(updates).Error
}

// MergeProducts repoints every reference from duplicate product ids to the
// canonical one and deactivates the duplicates. Used by the admin merge flow.
func MergeProducts(ctx context.Context, db *gorm.DB, canonicalId int, duplicateIds []int) error {
	if len(duplicateIds) == 0 {
		return nil
	}
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	for _, model := range []interface{}{
		&Purchase{}, &Sale{}, &ConsolidatedPurchase{}, &ConsolidatedSale{},
		&RecipeIngredient{}, &ProductCostHistory{}, &UnitConversion{}, &StandardKitchenUnit{},
	} {
		if err := tx.Model(model).
			Where("product_id IN ?", duplicateIds).
			Update("product_id", canonicalId).Error; err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Model(&Product{}).
		Where("id IN ?", duplicateIds).
		Update("is_active", false).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
