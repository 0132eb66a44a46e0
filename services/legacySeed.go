package services

import (
	"context"

	"bitbucket.org/mmdatafocus/resto_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type generalConversionSeed struct {
	FromUnit string
	ToUnit   string
	Factor   string
}

// base metric rules every install gets; directed, the resolver derives
// the reverse as 1/f
var generalConversionSeeds = []generalConversionSeed{
	{"kg", "g", "1000"},
	{"l", "ml", "1000"},
	{"cl", "ml", "10"},
	{"dozen", "pcs", "12"},
	{"unit", "pcs", "1"},
}

type productConversionSeed struct {
	ProductName string
	FromUnit    string
	ToUnit      string
	Factor      string
	Notes       string
}

// spice packets sell by the piece but recipes measure grams; one packet
// weighs roughly 10g
var productConversionSeeds = []productConversionSeed{
	{"Paprika", "unit", "g", "150", "one 150g tin"},
	{"Poivre noir", "unit", "g", "10", "one 10g sachet"},
	{"Cumin", "unit", "g", "10", "one 10g sachet"},
	{"Curry", "unit", "g", "10", "one 10g sachet"},
}

type kitchenUnitSeed struct {
	CategoryName string
	Unit         string
	Priority     int
}

var kitchenUnitSeeds = []kitchenUnitSeed{
	{"Épices", "g", 50},
	{"Viandes", "g", 50},
	{"Légumes", "g", 50},
	{"Boissons", "ml", 50},
	{"Huiles", "ml", 50},
}

// SeedLegacyRules loads the conversion rules, standard kitchen units and
// consolidation rules the early cleanup scripts hardcoded. Every write is
// an upsert so re-running is safe.
func SeedLegacyRules(ctx context.Context, db *gorm.DB) error {
	for _, seed := range generalConversionSeeds {
		input := &models.NewUnitConversion{
			Scope:    models.ConversionScopeGeneral,
			FromUnit: seed.FromUnit,
			ToUnit:   seed.ToUnit,
			Factor:   decimal.RequireFromString(seed.Factor),
		}
		if _, err := models.CreateUnitConversion(ctx, db, input); err != nil {
			return err
		}
	}

	for _, seed := range productConversionSeeds {
		product, err := models.FindOrCreateProduct(ctx, db, seed.ProductName, nil, nil, nil)
		if err != nil {
			return err
		}
		input := &models.NewUnitConversion{
			Scope:     models.ConversionScopeProduct,
			ProductId: &product.ID,
			FromUnit:  seed.FromUnit,
			ToUnit:    seed.ToUnit,
			Factor:    decimal.RequireFromString(seed.Factor),
			Notes:     seed.Notes,
		}
		if _, err := models.CreateUnitConversion(ctx, db, input); err != nil {
			return err
		}
	}

	for _, seed := range kitchenUnitSeeds {
		category, err := models.FindOrCreatePurchaseCategory(ctx, db, seed.CategoryName)
		if err != nil {
			return err
		}
		input := &models.NewStandardKitchenUnit{
			CategoryId: &category.ID,
			Unit:       seed.Unit,
			Priority:   seed.Priority,
		}
		if _, err := models.CreateStandardKitchenUnit(ctx, db, input); err != nil {
			return err
		}
	}

	return seedLegacyConsolidations(ctx, db)
}

// seedLegacyConsolidations turns the hardcoded legacy table into verified,
// persisted rules so the resolver no longer depends on code for them.
func seedLegacyConsolidations(ctx context.Context, db *gorm.DB) error {
	membersByCanonical := map[string][]string{}
	for member, canonical := range legacyConsolidations {
		membersByCanonical[canonical] = append(membersByCanonical[canonical], member)
	}

	for canonical, members := range membersByCanonical {
		product, err := models.FindOrCreateProduct(ctx, db, canonical, nil, nil, nil)
		if err != nil {
			return err
		}
		input := &models.NewProductConsolidation{
			PrimaryProductId:  product.ID,
			ConsolidatedNames: members,
			Reason:            "legacy cleanup table",
			Verified:          true,
		}

		var existing models.ProductConsolidation
		err = db.WithContext(ctx).
			Where("primary_product_id = ?", product.ID).
			Take(&existing).Error
		switch {
		case err == nil:
			if _, err := models.UpdateConsolidationRule(ctx, db, existing.ID, input); err != nil {
				return err
			}
		case err == gorm.ErrRecordNotFound:
			if _, err := models.CreateConsolidationRule(ctx, db, input); err != nil {
				return err
			}
		default:
			return err
		}
	}
	return nil
}
