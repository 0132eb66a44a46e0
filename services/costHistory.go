package services

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/resto_backend/models"
	"bitbucket.org/mmdatafocus/resto_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecipeQuantity converts a purchased quantity into recipe units.
// Rounded to 2 decimal places, half up.
func RecipeQuantity(quantity decimal.Decimal, factor decimal.Decimal) decimal.Decimal {
	return quantity.Mul(factor).Round(2)
}

// UnitCost divides total spend by the recipe quantity, rounded to
// 4 decimal places half up. A zero recipe quantity costs zero, never
// divides.
func UnitCost(totalCost decimal.Decimal, recipeQuantity decimal.Decimal) decimal.Decimal {
	if recipeQuantity.IsZero() {
		return decimal.Zero
	}
	return totalCost.Div(recipeQuantity).Round(4)
}

// CompletenessScore grades how much of the costing input was actually
// known (0-100). The buckets in models.ConfidenceFromScore hang off it.
func CompletenessScore(hasPurchaseUnit bool, hasRecipeUnit bool, usedFallback bool, hasCost bool) int {
	score := 100
	if !hasPurchaseUnit {
		score -= 25
	}
	if !hasRecipeUnit {
		score -= 25
	}
	if usedFallback {
		score -= 40
	}
	if !hasCost {
		score -= 10
	}
	if score < 0 {
		score = 0
	}
	return score
}

// CostHistoryCalculator derives per-day unit costs in recipe units from
// consolidated purchases.
type CostHistoryCalculator struct {
	db          *gorm.DB
	conversions *UnitConversionResolver
}

func NewCostHistoryCalculator(db *gorm.DB, conversions *UnitConversionResolver) *CostHistoryCalculator {
	return &CostHistoryCalculator{db: db, conversions: conversions}
}

type costAggregate struct {
	ProductId    int
	PurchaseDate time.Time
	Quantity     decimal.Decimal
	TotalCost    decimal.Decimal
}

// GenerateForUpload rebuilds the cost history rows of one upload inside
// the given transaction. Delete-then-insert keeps regeneration idempotent.
func (c *CostHistoryCalculator) GenerateForUpload(ctx context.Context, tx *gorm.DB, uploadId uuid.UUID) (int, error) {
	if err := tx.WithContext(ctx).
		Where("upload_id = ?", uploadId).
		Delete(&models.ProductCostHistory{}).Error; err != nil {
		return 0, err
	}

	var aggregates []costAggregate
	if err := tx.WithContext(ctx).
		Model(&models.ConsolidatedPurchase{}).
		Select("product_id, purchase_date, SUM(quantity_purchased) AS quantity, SUM(total_cost) AS total_cost").
		Where("upload_id = ?", uploadId).
		Group("product_id, purchase_date").
		Scan(&aggregates).Error; err != nil {
		return 0, err
	}

	created := 0
	for _, agg := range aggregates {
		var product models.Product
		if err := tx.WithContext(ctx).Where("id = ?", agg.ProductId).Take(&product).Error; err != nil {
			return created, err
		}

		row, err := c.buildRow(ctx, tx, &product, agg, uploadId)
		if err != nil {
			return created, err
		}
		if err := tx.WithContext(ctx).Create(row).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (c *CostHistoryCalculator) buildRow(ctx context.Context, tx *gorm.DB, product *models.Product, agg costAggregate, uploadId uuid.UUID) (*models.ProductCostHistory, error) {
	purchaseUnit := ""
	var purchaseUnitId *int
	if unitId := utils.DereferencePtr(product.UnitOfMeasureId); unitId != 0 {
		var u models.UnitOfMeasure
		if err := tx.WithContext(ctx).Where("id = ?", unitId).Take(&u).Error; err == nil {
			purchaseUnit = u.Name
			purchaseUnitId = &u.ID
		}
	}

	recipeUnit, err := c.conversions.RecipeUnit(ctx, product)
	if err != nil {
		return nil, err
	}
	recipeUnitName := ""
	var recipeUnitId *int
	if recipeUnit != nil {
		recipeUnitName = recipeUnit.Name
		recipeUnitId = &recipeUnit.ID
	}

	factor := decimal.NewFromInt(1)
	usedFallback := false
	if purchaseUnit != "" && recipeUnitName != "" {
		resolved, found, err := c.conversions.Factor(ctx, product, purchaseUnit, recipeUnitName)
		if err != nil {
			return nil, err
		}
		if found {
			factor = resolved
		} else {
			// no conversion path: fall back to factor 1 and mark the row
			usedFallback = true
		}
	} else {
		usedFallback = true
	}

	recipeQuantity := RecipeQuantity(agg.Quantity, factor)
	unitCost := UnitCost(agg.TotalCost, recipeQuantity)

	score := CompletenessScore(purchaseUnit != "", recipeUnitName != "", usedFallback, !agg.TotalCost.IsZero())
	confidence := models.ConfidenceFromScore(score)
	if usedFallback && confidence != models.CostConfidenceVeryLow {
		// fallback rows never rank above LOW
		confidence = models.CostConfidenceLow
	}

	fallback := usedFallback
	return &models.ProductCostHistory{
		ProductId:             product.ID,
		CostDate:              agg.PurchaseDate,
		UploadId:              uploadId,
		QuantityOrdered:       agg.Quantity,
		TotalCost:             agg.TotalCost,
		PurchaseUnitId:        purchaseUnitId,
		RecipeUnitId:          recipeUnitId,
		ConversionFactor:      factor,
		RecipeQuantity:        recipeQuantity,
		UnitCostInRecipeUnits: unitCost,
		UsedFallbackFactor:    &fallback,
		Confidence:            confidence,
		CompletenessScore:     score,
	}, nil
}

// Regenerate recomputes cost history for an upload in its own
// transaction. Used by the admin endpoint and command.
func (c *CostHistoryCalculator) Regenerate(ctx context.Context, uploadId uuid.UUID) (int, error) {
	tx := c.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, tx.Error
	}
	created, err := c.GenerateForUpload(ctx, tx, uploadId)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit().Error; err != nil {
		return 0, err
	}
	return created, nil
}
