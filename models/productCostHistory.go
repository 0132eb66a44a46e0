package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductCostHistory is one costed snapshot per (product, date, upload).
// RecipeQuantity is the purchased quantity converted into the product's
// recipe unit; UnitCostInRecipeUnits divides spend by that quantity.
type ProductCostHistory struct {
	ID                    int             `gorm:"primary_key" json:"id"`
	ProductId             int             `gorm:"index:idx_cost_history_key,unique;not null" json:"product_id"`
	Product               *Product        `json:"product,omitempty"`
	CostDate              time.Time       `gorm:"index:idx_cost_history_key,unique;not null" json:"cost_date"`
	UploadId              uuid.UUID       `gorm:"type:char(36);index:idx_cost_history_key,unique" json:"upload_id"`
	QuantityOrdered       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity_ordered"`
	TotalCost             decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_cost"`
	PurchaseUnitId        *int            `json:"purchase_unit_id"`
	RecipeUnitId          *int            `json:"recipe_unit_id"`
	ConversionFactor      decimal.Decimal `gorm:"type:decimal(20,6);default:1" json:"conversion_factor"`
	RecipeQuantity        decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"recipe_quantity"`
	UnitCostInRecipeUnits decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost_in_recipe_units"`
	UsedFallbackFactor    *bool           `gorm:"not null;default:false" json:"used_fallback_factor"`
	Confidence            CostConfidence  `gorm:"type:enum('HIGH','MEDIUM','LOW','VERY_LOW');default:'HIGH'" json:"confidence"`
	CompletenessScore     int             `gorm:"not null;default:0" json:"completeness_score"`
	CreatedAt             time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
