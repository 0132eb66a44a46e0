package services

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/resto_backend/config"
	"bitbucket.org/mmdatafocus/resto_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// metric fallbacks used when no stored rule matches; keyed by cleaned
// unit names
var metricFallbacks = map[[2]string]decimal.Decimal{
	{"kg", "g"}:     decimal.NewFromInt(1000),
	{"g", "kg"}:     decimal.RequireFromString("0.001"),
	{"l", "ml"}:     decimal.NewFromInt(1000),
	{"ml", "l"}:     decimal.RequireFromString("0.001"),
	{"cl", "ml"}:    decimal.NewFromInt(10),
	{"ml", "cl"}:    decimal.RequireFromString("0.1"),
	{"unit", "pcs"}: decimal.NewFromInt(1),
	{"pcs", "unit"}: decimal.NewFromInt(1),
}

// UnitConversionResolver answers "how many toUnit is one fromUnit of this
// product". Cascade: identity, product rule, category rule, general rule,
// reverse rule (1/f), metric fallback. A miss is an answer, not an error.
type UnitConversionResolver struct {
	db    *gorm.DB
	cache *Cache
}

func NewUnitConversionResolver(db *gorm.DB, cache *Cache) *UnitConversionResolver {
	return &UnitConversionResolver{db: db, cache: cache}
}

type factorResult struct {
	Factor decimal.Decimal `json:"factor"`
	Found  bool            `json:"found"`
}

// Factor resolves the conversion factor for a product between two cleaned
// unit names. Returns (factor, true) on success, (0, false) when no rule
// or fallback applies.
func (r *UnitConversionResolver) Factor(ctx context.Context, product *models.Product, fromUnit string, toUnit string) (decimal.Decimal, bool, error) {
	if fromUnit == "" || toUnit == "" {
		return decimal.Zero, false, nil
	}
	if fromUnit == toUnit {
		return decimal.NewFromInt(1), true, nil
	}

	productId := 0
	var categoryId *int
	if product != nil {
		productId = product.ID
		categoryId = product.PurchaseCategoryId
	}

	cacheKey := fmt.Sprintf("factor:%d:%s:%s", productId, fromUnit, toUnit)
	var cached factorResult
	if r.cache.Get(ctx, cacheKey, &cached) {
		return cached.Factor, cached.Found, nil
	}

	factor, found, err := r.lookup(ctx, productId, categoryId, fromUnit, toUnit)
	if err != nil {
		return decimal.Zero, false, err
	}
	r.cache.Set(ctx, cacheKey, factorResult{Factor: factor, Found: found})
	return factor, found, nil
}

func (r *UnitConversionResolver) lookup(ctx context.Context, productId int, categoryId *int, fromUnit string, toUnit string) (decimal.Decimal, bool, error) {
	fromId, toId, ok, err := r.unitIds(ctx, fromUnit, toUnit)
	if err != nil {
		return decimal.Zero, false, err
	}
	if ok {
		scopes := []models.ConversionScope{
			models.ConversionScopeProduct,
			models.ConversionScopeCategory,
			models.ConversionScopeGeneral,
		}
		for _, scope := range scopes {
			if scope == models.ConversionScopeProduct && productId == 0 {
				continue
			}
			if scope == models.ConversionScopeCategory && categoryId == nil {
				continue
			}
			rule, err := models.FindConversion(ctx, r.db, scope, &productId, categoryId, fromId, toId)
			if err != nil {
				return decimal.Zero, false, err
			}
			if rule != nil {
				return rule.Factor, true, nil
			}
		}
		// reverse rules: a stored kg->g also answers g->kg as 1/f
		for _, scope := range scopes {
			if scope == models.ConversionScopeProduct && productId == 0 {
				continue
			}
			if scope == models.ConversionScopeCategory && categoryId == nil {
				continue
			}
			rule, err := models.FindConversion(ctx, r.db, scope, &productId, categoryId, toId, fromId)
			if err != nil {
				return decimal.Zero, false, err
			}
			if rule != nil && !rule.Factor.IsZero() {
				return decimal.NewFromInt(1).Div(rule.Factor), true, nil
			}
		}
	}

	if factor, ok := metricFallbacks[[2]string{fromUnit, toUnit}]; ok {
		return factor, true, nil
	}
	return decimal.Zero, false, nil
}

func (r *UnitConversionResolver) unitIds(ctx context.Context, fromUnit string, toUnit string) (int, int, bool, error) {
	from, err := models.GetUnitOfMeasureByName(ctx, r.db, fromUnit)
	if err == gorm.ErrRecordNotFound {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	to, err := models.GetUnitOfMeasureByName(ctx, r.db, toUnit)
	if err == gorm.ErrRecordNotFound {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return from.ID, to.ID, true, nil
}

// RecipeUnit resolves the unit recipes express this product in: standard
// kitchen unit rules (product scope then category scope, by priority),
// else the product's own unit.
func (r *UnitConversionResolver) RecipeUnit(ctx context.Context, product *models.Product) (*models.UnitOfMeasure, error) {
	if product == nil {
		return nil, nil
	}

	cacheKey := fmt.Sprintf("recipeUnit:%d", product.ID)
	var cached models.UnitOfMeasure
	if r.cache.Get(ctx, cacheKey, &cached) && cached.ID != 0 {
		return &cached, nil
	}

	rule, err := models.FindStandardKitchenUnit(ctx, r.db, product.ID, product.PurchaseCategoryId)
	if err != nil {
		return nil, err
	}

	var unit *models.UnitOfMeasure
	if rule != nil {
		var u models.UnitOfMeasure
		if err := r.db.WithContext(ctx).Where("id = ?", rule.UnitId).Take(&u).Error; err != nil {
			return nil, err
		}
		unit = &u
	} else if product.UnitOfMeasureId != nil {
		var u models.UnitOfMeasure
		if err := r.db.WithContext(ctx).Where("id = ?", *product.UnitOfMeasureId).Take(&u).Error; err != nil {
			return nil, err
		}
		unit = &u
	}

	if unit != nil {
		r.cache.Set(ctx, cacheKey, unit)
	}
	return unit, nil
}

// CreateConversion persists a rule and invalidates the factor cache.
func (r *UnitConversionResolver) CreateConversion(ctx context.Context, input *models.NewUnitConversion) (*models.UnitConversion, error) {
	rule, err := models.CreateUnitConversion(ctx, r.db, input)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Invalidate(ctx); err != nil {
		config.LogError(config.GetLogger(), "services", "CreateConversion", "cache invalidation", rule.ID, err)
	}
	return rule, nil
}

// CreateStandardUnit persists a standard kitchen unit rule and invalidates
// the cache.
func (r *UnitConversionResolver) CreateStandardUnit(ctx context.Context, input *models.NewStandardKitchenUnit) (*models.StandardKitchenUnit, error) {
	rule, err := models.CreateStandardKitchenUnit(ctx, r.db, input)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Invalidate(ctx); err != nil {
		config.LogError(config.GetLogger(), "services", "CreateStandardUnit", "cache invalidation", rule.ID, err)
	}
	return rule, nil
}

// Invalidate exposes the cache hook for admin flows.
func (r *UnitConversionResolver) Invalidate(ctx context.Context) error {
	return r.cache.Invalidate(ctx)
}
