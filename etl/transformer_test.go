package etl_test

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/resto_backend/etl"
)

func purchasesTable(rows [][]string) *etl.Table {
	return &etl.Table{
		Sheet:     "Achats",
		Role:      etl.SheetRolePurchases,
		Columns:   []string{"Date d'achat", "Produit", "Quantité", "Coût total"},
		Rows:      rows,
		RowOffset: 2,
	}
}

func TestTransformPurchases(t *testing.T) {
	table := purchasesTable([][]string{
		{"05/03/2024", "[REF] Poulet Cru", "2,5", "5 000"},
		{"06/03/2024", "Tomates", "10", ""},
	})

	result := etl.NewTransformer().Transform(map[etl.SheetRole]*etl.Table{
		etl.SheetRolePurchases: table,
	})

	if len(result.Purchases) != 2 {
		t.Fatalf("expected 2 purchases, got %d", len(result.Purchases))
	}
	first := result.Purchases[0]
	if first.Product != "Poulet Cru" {
		t.Errorf("product = %q, want %q", first.Product, "Poulet Cru")
	}
	if !first.Date.Equal(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", first.Date)
	}
	if first.Quantity.String() != "2.5" {
		t.Errorf("quantity = %s, want 2.5", first.Quantity)
	}
	if first.Total.String() != "5000" {
		t.Errorf("total = %s, want 5000", first.Total)
	}
	// unit cost derived from total / quantity
	if first.UnitCost.String() != "2000" {
		t.Errorf("unit cost = %s, want 2000", first.UnitCost)
	}
}

func TestTransformPurchasesRejectsBadRows(t *testing.T) {
	table := purchasesTable([][]string{
		{"not a date", "Poulet Cru", "2", "5000"},
		{"05/03/2024", "", "2", "5000"},
		{"05/03/2024", "Tomates", "beaucoup", "5000"},
		{"06/03/2024", "Oignons", "3", "900"},
	})

	result := etl.NewTransformer().Transform(map[etl.SheetRole]*etl.Table{
		etl.SheetRolePurchases: table,
	})

	if len(result.Purchases) != 1 {
		t.Fatalf("expected 1 purchase, got %d", len(result.Purchases))
	}
	if result.Purchases[0].Product != "Oignons" {
		t.Errorf("surviving product = %q", result.Purchases[0].Product)
	}
	if len(result.RowErrors) != 3 {
		t.Fatalf("expected 3 row errors, got %d: %v", len(result.RowErrors), result.RowErrors)
	}
	// row numbers must trace back to the source sheet (data starts at row 2)
	if result.RowErrors[0].RowNumber != 2 {
		t.Errorf("first error row = %d, want 2", result.RowErrors[0].RowNumber)
	}
}

func TestTransformPurchasesFlagsImplausibleQuantity(t *testing.T) {
	table := purchasesTable([][]string{
		{"05/03/2024", "Farine", "2000000", "5000"},
	})

	result := etl.NewTransformer().Transform(map[etl.SheetRole]*etl.Table{
		etl.SheetRolePurchases: table,
	})

	if len(result.Purchases) != 1 {
		t.Fatalf("expected 1 purchase, got %d", len(result.Purchases))
	}
	if !result.Purchases[0].NeedsReview {
		t.Error("implausible quantity not flagged for review")
	}
	// flagged value is kept, never rewritten
	if result.Purchases[0].Quantity.String() != "2000000" {
		t.Errorf("quantity = %s, want 2000000", result.Purchases[0].Quantity)
	}
	foundWarning := false
	for _, re := range result.RowErrors {
		if re.Warning {
			foundWarning = true
		}
	}
	if !foundWarning {
		t.Error("expected a warning row error")
	}
}

func TestTransformPurchasesRejectsNonPositiveQuantity(t *testing.T) {
	table := purchasesTable([][]string{
		{"05/03/2024", "Poulet Cru", "0", "5000"},
		{"05/03/2024", "Tomates", "-3", "900"},
		{"06/03/2024", "Oignons", "2", "800"},
	})

	result := etl.NewTransformer().Transform(map[etl.SheetRole]*etl.Table{
		etl.SheetRolePurchases: table,
	})

	if len(result.Purchases) != 1 {
		t.Fatalf("expected 1 purchase, got %d", len(result.Purchases))
	}
	if result.Purchases[0].Product != "Oignons" {
		t.Errorf("surviving product = %q", result.Purchases[0].Product)
	}
	if len(result.RowErrors) != 2 {
		t.Fatalf("expected 2 row errors, got %d: %v", len(result.RowErrors), result.RowErrors)
	}
	for _, re := range result.RowErrors {
		if re.Warning {
			t.Errorf("non-positive quantity must be a hard error, got warning: %v", re)
		}
		if re.Column != etl.FieldQuantity {
			t.Errorf("error column = %q, want %q", re.Column, etl.FieldQuantity)
		}
	}
}

func TestTransformSalesRejectsZeroQuantity(t *testing.T) {
	table := &etl.Table{
		Sheet:     "Ventes",
		Role:      etl.SheetRoleSales,
		Columns:   []string{"Date de commande", "Produit", "Quantité", "Prix unitaire"},
		Rows:      [][]string{{"10/03/2024", "Poulet Braisé", "0", "4500"}},
		RowOffset: 2,
	}

	result := etl.NewTransformer().Transform(map[etl.SheetRole]*etl.Table{
		etl.SheetRoleSales: table,
	})

	if len(result.Sales) != 0 {
		t.Fatalf("expected no sales, got %d", len(result.Sales))
	}
	if len(result.RowErrors) != 1 {
		t.Fatalf("expected 1 row error, got %d", len(result.RowErrors))
	}
	if result.RowErrors[0].Warning {
		t.Error("zero quantity must be a hard error, not a warning")
	}
}

func TestTransformPurchasesRejectsNegativeAmount(t *testing.T) {
	table := purchasesTable([][]string{
		{"05/03/2024", "Poulet Cru", "2", "-5000"},
		{"06/03/2024", "Oignons", "3", "900"},
	})

	result := etl.NewTransformer().Transform(map[etl.SheetRole]*etl.Table{
		etl.SheetRolePurchases: table,
	})

	if len(result.Purchases) != 1 {
		t.Fatalf("expected 1 purchase, got %d", len(result.Purchases))
	}
	if result.Purchases[0].Product != "Oignons" {
		t.Errorf("surviving product = %q", result.Purchases[0].Product)
	}
	if len(result.RowErrors) != 1 {
		t.Fatalf("expected 1 row error, got %d: %v", len(result.RowErrors), result.RowErrors)
	}
	if result.RowErrors[0].Column != etl.FieldTotal {
		t.Errorf("error column = %q, want %q", result.RowErrors[0].Column, etl.FieldTotal)
	}
	if result.RowErrors[0].Warning {
		t.Error("negative amount must be a hard error, not a warning")
	}
}

func TestTransformRecipesRejectsNonPositiveIngredientQuantity(t *testing.T) {
	table := &etl.Table{
		Sheet:     "Recettes",
		Role:      etl.SheetRoleRecipes,
		Columns:   []string{"Plat", "Portions", "Prix de vente", "Ingrédient", "Quantité", "Unité"},
		Rows: [][]string{
			{"Poulet DG", "4", "8000", "Poulet Cru", "0", "g"},
			{"", "", "", "Plantain", "800", "g"},
		},
		RowOffset: 2,
	}

	result := etl.NewTransformer().Transform(map[etl.SheetRole]*etl.Table{
		etl.SheetRoleRecipes: table,
	})

	if len(result.Recipes) != 1 {
		t.Fatalf("expected 1 recipe row, got %d", len(result.Recipes))
	}
	if result.Recipes[0].Ingredient != "Plantain" {
		t.Errorf("surviving ingredient = %q", result.Recipes[0].Ingredient)
	}
	if len(result.RowErrors) != 1 {
		t.Fatalf("expected 1 row error, got %d", len(result.RowErrors))
	}
	if result.RowErrors[0].Column != etl.FieldQuantity {
		t.Errorf("error column = %q, want %q", result.RowErrors[0].Column, etl.FieldQuantity)
	}
}

func TestTransformProductsDefaultsMissingCategories(t *testing.T) {
	table := &etl.Table{
		Sheet:     "Produits",
		Role:      etl.SheetRoleProducts,
		Columns:   []string{"Nom", "Unité", "Catégorie d'achat", "Catégorie de vente"},
		Rows: [][]string{
			{"Poulet Cru", "Kg", "", ""},
			{"Tomates", "Kg", "Légumes", "none"},
		},
		RowOffset: 2,
	}

	result := etl.NewTransformer().Transform(map[etl.SheetRole]*etl.Table{
		etl.SheetRoleProducts: table,
	})

	if len(result.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(result.Products))
	}
	if result.Products[0].PurchaseCategory != "Unknown" {
		t.Errorf("purchase category = %q, want Unknown", result.Products[0].PurchaseCategory)
	}
	if result.Products[0].SalesCategory != "Unknown" {
		t.Errorf("sales category = %q, want Unknown", result.Products[0].SalesCategory)
	}
	if result.Products[1].PurchaseCategory != "Légumes" {
		t.Errorf("purchase category = %q, want Légumes", result.Products[1].PurchaseCategory)
	}
	// NA sentinels count as missing too
	if result.Products[1].SalesCategory != "Unknown" {
		t.Errorf("sales category = %q, want Unknown", result.Products[1].SalesCategory)
	}
	// a missing category never produces a row error
	if len(result.RowErrors) != 0 {
		t.Errorf("expected no row errors, got %v", result.RowErrors)
	}
}

func TestTransformPurchasesMissingRequiredColumn(t *testing.T) {
	table := &etl.Table{
		Sheet:     "Achats",
		Role:      etl.SheetRolePurchases,
		Columns:   []string{"Produit", "Quantité"},
		Rows:      [][]string{{"Poulet Cru", "2"}},
		RowOffset: 2,
	}

	result := etl.NewTransformer().Transform(map[etl.SheetRole]*etl.Table{
		etl.SheetRolePurchases: table,
	})

	if len(result.Purchases) != 0 {
		t.Fatalf("expected no purchases, got %d", len(result.Purchases))
	}
	if len(result.RowErrors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(result.RowErrors))
	}
	if result.RowErrors[0].Column != etl.FieldDate {
		t.Errorf("error column = %q, want %q", result.RowErrors[0].Column, etl.FieldDate)
	}
}

func TestTransformSalesDerivesTotal(t *testing.T) {
	table := &etl.Table{
		Sheet:     "Ventes",
		Role:      etl.SheetRoleSales,
		Columns:   []string{"Date de commande", "Produit", "Quantité", "Prix unitaire", "Client"},
		Rows:      [][]string{{"10/03/2024", "Poulet Braisé", "3", "4500", "Table 5"}},
		RowOffset: 2,
	}

	result := etl.NewTransformer().Transform(map[etl.SheetRole]*etl.Table{
		etl.SheetRoleSales: table,
	})

	if len(result.Sales) != 1 {
		t.Fatalf("expected 1 sale, got %d", len(result.Sales))
	}
	sale := result.Sales[0]
	if sale.Total.String() != "13500" {
		t.Errorf("total = %s, want 13500", sale.Total)
	}
	if sale.Customer != "Table 5" {
		t.Errorf("customer = %q", sale.Customer)
	}
}

func TestTransformProducts(t *testing.T) {
	table := &etl.Table{
		Sheet:     "Produits",
		Role:      etl.SheetRoleProducts,
		Columns:   []string{"Nom", "Unité", "Catégorie d'achat", "Coût"},
		Rows: [][]string{
			{"Poulet Cru", "Kg", "Viandes", "2500"},
			{"", "Kg", "Viandes", "100"},
			{"Huile de Palme", "Litre", "Huiles", "pas un nombre"},
		},
		RowOffset: 2,
	}

	result := etl.NewTransformer().Transform(map[etl.SheetRole]*etl.Table{
		etl.SheetRoleProducts: table,
	})

	if len(result.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(result.Products))
	}
	if result.Products[0].Unit != "kg" {
		t.Errorf("unit = %q, want kg", result.Products[0].Unit)
	}
	if result.Products[0].Cost == nil || result.Products[0].Cost.String() != "2500" {
		t.Errorf("cost = %v, want 2500", result.Products[0].Cost)
	}
	// unreadable cost degrades to a warning, not a dropped row
	if result.Products[1].Cost != nil {
		t.Errorf("expected nil cost for unreadable value")
	}

	hardErrors := 0
	warnings := 0
	for _, re := range result.RowErrors {
		if re.Warning {
			warnings++
		} else {
			hardErrors++
		}
	}
	if hardErrors != 1 {
		t.Errorf("hard errors = %d, want 1 (missing name)", hardErrors)
	}
	if warnings != 1 {
		t.Errorf("warnings = %d, want 1 (unreadable cost)", warnings)
	}
}

func TestTransformRecipesCarriesDishForward(t *testing.T) {
	table := &etl.Table{
		Sheet:     "Recettes",
		Role:      etl.SheetRoleRecipes,
		Columns:   []string{"Plat", "Portions", "Prix de vente", "Ingrédient", "Quantité", "Unité"},
		Rows: [][]string{
			{"Poulet DG", "4", "8000", "Poulet Cru", "1500", "g"},
			{"", "", "", "Plantain", "800", "g"},
			{"", "", "", "Huile de Palme", "100", "ml"},
			{"Ndolé", "6", "9000", "Viande de Boeuf", "1000", "g"},
		},
		RowOffset: 2,
	}

	result := etl.NewTransformer().Transform(map[etl.SheetRole]*etl.Table{
		etl.SheetRoleRecipes: table,
	})

	if len(result.Recipes) != 4 {
		t.Fatalf("expected 4 recipe rows, got %d", len(result.Recipes))
	}
	if result.Recipes[1].Dish != "Poulet DG" {
		t.Errorf("row 2 dish = %q, want Poulet DG", result.Recipes[1].Dish)
	}
	if result.Recipes[1].Portions.String() != "4" {
		t.Errorf("row 2 portions = %s, want 4", result.Recipes[1].Portions)
	}
	if result.Recipes[3].Dish != "Ndolé" {
		t.Errorf("row 4 dish = %q, want Ndolé", result.Recipes[3].Dish)
	}
	if result.Recipes[3].SellingPrice.String() != "9000" {
		t.Errorf("row 4 selling price = %s, want 9000", result.Recipes[3].SellingPrice)
	}
}

func TestTransformDetectsDuplicateRows(t *testing.T) {
	rows := make([][]string, 0, 10)
	for i := 0; i < 10; i++ {
		rows = append(rows, []string{"05/03/2024", "Poulet Cru", "2", "5000"})
	}
	table := purchasesTable(rows)

	result := etl.NewTransformer().Transform(map[etl.SheetRole]*etl.Table{
		etl.SheetRolePurchases: table,
	})

	if len(result.Purchases) != 10 {
		t.Fatalf("expected 10 purchases, got %d", len(result.Purchases))
	}
	found := false
	for _, re := range result.RowErrors {
		if re.Warning && re.Sheet == "Achats" {
			found = true
		}
	}
	if !found {
		t.Error("expected a duplicate-rows warning")
	}
}
