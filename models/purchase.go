package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Purchase struct {
	ID                int             `gorm:"primary_key" json:"id"`
	PurchaseDate      time.Time       `gorm:"index;not null" json:"purchase_date"`
	ProductId         int             `gorm:"index;not null" json:"product_id"`
	Product           *Product        `json:"product,omitempty"`
	QuantityPurchased decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity_purchased"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	TotalCost         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_cost"`
	NeedsReview       *bool           `gorm:"not null;default:false" json:"needs_review"`
	UploadId          uuid.UUID       `gorm:"type:char(36);index" json:"upload_id"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ConsolidatedPurchase is the same grain as Purchase but keyed by the
// canonical product identity after consolidation rules were applied.
type ConsolidatedPurchase struct {
	ID                int             `gorm:"primary_key" json:"id"`
	PurchaseDate      time.Time       `gorm:"index;not null" json:"purchase_date"`
	ProductId         int             `gorm:"index;not null" json:"product_id"`
	Product           *Product        `json:"product,omitempty"`
	OriginalName      string          `gorm:"size:255" json:"original_name"`
	WasConsolidated   *bool           `gorm:"not null;default:false" json:"was_consolidated"`
	QuantityPurchased decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity_purchased"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	TotalCost         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_cost"`
	UploadId          uuid.UUID       `gorm:"type:char(36);index" json:"upload_id"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
