package etl

import (
	"context"

	"bitbucket.org/mmdatafocus/resto_backend/models"
	"bitbucket.org/mmdatafocus/resto_backend/services"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const loadBatchSize = 200

// Loader writes cleaned rows into the database: one transaction per
// upload, master data via case-insensitive find-or-create, transactional
// rows replaced wholesale so re-running an upload is idempotent.
type Loader struct {
	db            *gorm.DB
	consolidation *services.ConsolidationResolver
	costHistory   *services.CostHistoryCalculator
}

func NewLoader(db *gorm.DB, consolidation *services.ConsolidationResolver, costHistory *services.CostHistoryCalculator) *Loader {
	return &Loader{db: db, consolidation: consolidation, costHistory: costHistory}
}

type LoadResult struct {
	ProductRows     int
	PurchaseRows    int
	SalesRows       int
	RecipeRows      int
	CostHistoryRows int
	// RowErrors collects rows skipped during loading; the batch keeps going.
	RowErrors []RowError
}

func (r *LoadResult) Total() int {
	return r.ProductRows + r.PurchaseRows + r.SalesRows + r.RecipeRows
}

func (l *Loader) Load(ctx context.Context, uploadId uuid.UUID, data *TransformResult) (*LoadResult, error) {
	tx := l.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	result := &LoadResult{}
	if err := l.load(ctx, tx, uploadId, data, result); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (l *Loader) load(ctx context.Context, tx *gorm.DB, uploadId uuid.UUID, data *TransformResult, result *LoadResult) error {
	if err := clearUploadRows(ctx, tx, uploadId); err != nil {
		return err
	}
	if err := l.loadProducts(ctx, tx, data.Products, result); err != nil {
		return err
	}
	if err := l.loadPurchases(ctx, tx, uploadId, data.Purchases, result); err != nil {
		return err
	}
	if err := l.loadSales(ctx, tx, uploadId, data.Sales, result); err != nil {
		return err
	}
	if err := l.loadRecipes(ctx, tx, data.Recipes, result); err != nil {
		return err
	}

	created, err := l.costHistory.GenerateForUpload(ctx, tx, uploadId)
	if err != nil {
		return err
	}
	result.CostHistoryRows = created
	return nil
}

// clearUploadRows drops this upload's transactional rows so a re-run
// replaces instead of duplicating. Master data stays.
func clearUploadRows(ctx context.Context, tx *gorm.DB, uploadId uuid.UUID) error {
	for _, model := range []interface{}{
		&models.Purchase{},
		&models.ConsolidatedPurchase{},
		&models.Sale{},
		&models.ConsolidatedSale{},
	} {
		if err := tx.WithContext(ctx).Where("upload_id = ?", uploadId).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadProducts(ctx context.Context, tx *gorm.DB, rows []ProductRow, result *LoadResult) error {
	for _, row := range rows {
		if err := l.loadProduct(ctx, tx, row); err != nil {
			result.RowErrors = append(result.RowErrors, loadRowError(string(SheetRoleProducts), row.SourceRow, err))
			continue
		}
		result.ProductRows++
	}
	return nil
}

func (l *Loader) loadProduct(ctx context.Context, tx *gorm.DB, row ProductRow) error {
	var unitId *int
	if row.Unit != "" {
		unit, err := models.FindOrCreateUnitOfMeasure(ctx, tx, row.Unit)
		if err != nil {
			return err
		}
		unitId = &unit.ID
	}

	var purchaseCategoryId *int
	if category, err := models.FindOrCreatePurchaseCategory(ctx, tx, row.PurchaseCategory); err != nil {
		return err
	} else if category != nil {
		purchaseCategoryId = &category.ID
	}

	var salesCategoryId *int
	if category, err := models.FindOrCreateSalesCategory(ctx, tx, row.SalesCategory); err != nil {
		return err
	} else if category != nil {
		salesCategoryId = &category.ID
	}

	product, err := models.FindOrCreateProduct(ctx, tx, row.Name, unitId, purchaseCategoryId, salesCategoryId)
	if err != nil {
		return err
	}
	if row.Cost != nil || row.Price != nil {
		return models.UpdateProductCosts(ctx, tx, product.ID, row.Cost, row.Price)
	}
	return nil
}

func (l *Loader) loadPurchases(ctx context.Context, tx *gorm.DB, uploadId uuid.UUID, rows []PurchaseRow, result *LoadResult) error {
	purchases := make([]*models.Purchase, 0, len(rows))
	consolidated := make([]*models.ConsolidatedPurchase, 0, len(rows))

	for _, row := range rows {
		product, canonical, resolution, err := l.resolveRowProduct(ctx, tx, row.Product)
		if err != nil {
			result.RowErrors = append(result.RowErrors, loadRowError(string(SheetRolePurchases), row.SourceRow, err))
			continue
		}
		needsReview := row.NeedsReview
		purchases = append(purchases, &models.Purchase{
			PurchaseDate:      row.Date,
			ProductId:         product.ID,
			QuantityPurchased: row.Quantity,
			UnitCost:          row.UnitCost,
			TotalCost:         row.Total,
			NeedsReview:       &needsReview,
			UploadId:          uploadId,
		})

		wasConsolidated := resolution.Consolidated
		consolidated = append(consolidated, &models.ConsolidatedPurchase{
			PurchaseDate:      row.Date,
			ProductId:         canonical.ID,
			OriginalName:      row.Product,
			WasConsolidated:   &wasConsolidated,
			QuantityPurchased: row.Quantity,
			UnitCost:          row.UnitCost,
			TotalCost:         row.Total,
			UploadId:          uploadId,
		})
	}

	if len(purchases) > 0 {
		if err := tx.WithContext(ctx).CreateInBatches(purchases, loadBatchSize).Error; err != nil {
			return err
		}
		if err := tx.WithContext(ctx).CreateInBatches(consolidated, loadBatchSize).Error; err != nil {
			return err
		}
	}
	result.PurchaseRows = len(purchases)
	return nil
}

func (l *Loader) loadSales(ctx context.Context, tx *gorm.DB, uploadId uuid.UUID, rows []SalesRow, result *LoadResult) error {
	sales := make([]*models.Sale, 0, len(rows))
	consolidated := make([]*models.ConsolidatedSale, 0, len(rows))

	for _, row := range rows {
		product, canonical, resolution, err := l.resolveRowProduct(ctx, tx, row.Product)
		if err != nil {
			result.RowErrors = append(result.RowErrors, loadRowError(string(SheetRoleSales), row.SourceRow, err))
			continue
		}
		needsReview := row.NeedsReview
		sales = append(sales, &models.Sale{
			SaleDate:     row.Date,
			ProductId:    product.ID,
			QuantitySold: row.Quantity,
			UnitPrice:    row.UnitPrice,
			TotalAmount:  row.Total,
			OrderNumber:  row.OrderNumber,
			Customer:     row.Customer,
			NeedsReview:  &needsReview,
			UploadId:     uploadId,
		})

		wasConsolidated := resolution.Consolidated
		consolidated = append(consolidated, &models.ConsolidatedSale{
			SaleDate:        row.Date,
			ProductId:       canonical.ID,
			OriginalName:    row.Product,
			WasConsolidated: &wasConsolidated,
			QuantitySold:    row.Quantity,
			UnitPrice:       row.UnitPrice,
			TotalAmount:     row.Total,
			UploadId:        uploadId,
		})
	}

	if len(sales) > 0 {
		if err := tx.WithContext(ctx).CreateInBatches(sales, loadBatchSize).Error; err != nil {
			return err
		}
		if err := tx.WithContext(ctx).CreateInBatches(consolidated, loadBatchSize).Error; err != nil {
			return err
		}
	}
	result.SalesRows = len(sales)
	return nil
}

func (l *Loader) loadRecipes(ctx context.Context, tx *gorm.DB, rows []RecipeRow, result *LoadResult) error {
	for _, row := range rows {
		if err := l.loadRecipeRow(ctx, tx, row); err != nil {
			result.RowErrors = append(result.RowErrors, loadRowError(string(SheetRoleRecipes), row.SourceRow, err))
			continue
		}
		result.RecipeRows++
	}
	return nil
}

func (l *Loader) loadRecipeRow(ctx context.Context, tx *gorm.DB, row RecipeRow) error {
	recipe, err := models.FindOrCreateRecipe(ctx, tx, row.Dish, row.Portions, row.SellingPrice)
	if err != nil {
		return err
	}

	resolution, err := l.consolidation.Resolve(ctx, row.Ingredient)
	if err != nil {
		return err
	}
	ingredientName := row.Ingredient
	if resolution.Consolidated {
		ingredientName = resolution.CanonicalName
	}
	product, err := models.FindOrCreateProduct(ctx, tx, ingredientName, nil, nil, nil)
	if err != nil {
		return err
	}

	var unitId *int
	if row.Unit != "" {
		unit, err := models.FindOrCreateUnitOfMeasure(ctx, tx, row.Unit)
		if err != nil {
			return err
		}
		unitId = &unit.ID
	}

	_, err = models.UpsertRecipeIngredient(ctx, tx, recipe.ID, product.ID, row.Quantity, unitId)
	return err
}

// resolveRowProduct finds the row's product and its canonical (possibly
// consolidated) counterpart. Errors here are row-scoped: the caller skips
// the row and keeps loading.
func (l *Loader) resolveRowProduct(ctx context.Context, tx *gorm.DB, name string) (*models.Product, *models.Product, services.Resolution, error) {
	product, err := models.FindOrCreateProduct(ctx, tx, name, nil, nil, nil)
	if err != nil {
		return nil, nil, services.Resolution{}, err
	}
	resolution, err := l.consolidation.Resolve(ctx, name)
	if err != nil {
		return nil, nil, services.Resolution{}, err
	}
	canonical := product
	if resolution.Consolidated {
		canonical, err = models.FindOrCreateProduct(ctx, tx, resolution.CanonicalName, nil, nil, nil)
		if err != nil {
			return nil, nil, services.Resolution{}, err
		}
	}
	return product, canonical, resolution, nil
}

func loadRowError(sheet string, rowNumber int, err error) RowError {
	return RowError{
		Sheet:     sheet,
		RowNumber: rowNumber,
		Type:      models.ProcessingErrorTypeLoading,
		Message:   err.Error(),
	}
}
