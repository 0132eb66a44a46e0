package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Sale struct {
	ID           int             `gorm:"primary_key" json:"id"`
	SaleDate     time.Time       `gorm:"index;not null" json:"sale_date"`
	ProductId    int             `gorm:"index;not null" json:"product_id"`
	Product      *Product        `json:"product,omitempty"`
	QuantitySold decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity_sold"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	OrderNumber  string          `gorm:"size:100;index" json:"order_number"`
	Customer     string          `gorm:"size:255" json:"customer"`
	NeedsReview  *bool           `gorm:"not null;default:false" json:"needs_review"`
	UploadId     uuid.UUID       `gorm:"type:char(36);index" json:"upload_id"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ConsolidatedSale mirrors Sale keyed by canonical product identity.
type ConsolidatedSale struct {
	ID              int             `gorm:"primary_key" json:"id"`
	SaleDate        time.Time       `gorm:"index;not null" json:"sale_date"`
	ProductId       int             `gorm:"index;not null" json:"product_id"`
	Product         *Product        `json:"product,omitempty"`
	OriginalName    string          `gorm:"size:255" json:"original_name"`
	WasConsolidated *bool           `gorm:"not null;default:false" json:"was_consolidated"`
	QuantitySold    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity_sold"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	UploadId        uuid.UUID       `gorm:"type:char(36);index" json:"upload_id"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
