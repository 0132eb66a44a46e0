package etl

import (
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/resto_backend/models"
	"github.com/shopspring/decimal"
)

// canonical field names after column mapping
const (
	FieldDate         = "date"
	FieldProduct      = "product"
	FieldQuantity     = "quantity"
	FieldUnitCost     = "unit_cost"
	FieldUnitPrice    = "unit_price"
	FieldTotal        = "total"
	FieldOrderNumber  = "order_number"
	FieldCustomer     = "customer"
	FieldName         = "name"
	FieldUnit         = "unit"
	FieldPurchaseCat  = "purchase_category"
	FieldSalesCat     = "sales_category"
	FieldCost         = "cost"
	FieldPrice        = "price"
	FieldDish         = "dish"
	FieldPortions     = "portions"
	FieldSellingPrice = "selling_price"
	FieldIngredient   = "ingredient"
)

// header synonyms per role, accent-folded and lowercased
var columnMappings = map[SheetRole]map[string]string{
	SheetRoleProducts: {
		"name": FieldName, "nom": FieldName, "produit": FieldName, "product": FieldName, "article": FieldName,
		"unit": FieldUnit, "unite": FieldUnit, "unite de mesure": FieldUnit, "uom": FieldUnit, "unit of measure": FieldUnit,
		"purchase category": FieldPurchaseCat, "categorie d'achat": FieldPurchaseCat, "categorie achat": FieldPurchaseCat,
		"sales category": FieldSalesCat, "categorie de vente": FieldSalesCat, "categorie vente": FieldSalesCat,
		"cost": FieldCost, "cout": FieldCost, "cout unitaire": FieldCost, "cout par unite": FieldCost,
		"price": FieldPrice, "prix": FieldPrice, "prix de vente": FieldPrice,
	},
	SheetRolePurchases: {
		"date": FieldDate, "date d'achat": FieldDate, "date achat": FieldDate,
		"product": FieldProduct, "produit": FieldProduct, "article": FieldProduct,
		"quantity": FieldQuantity, "quantite": FieldQuantity, "qte": FieldQuantity, "qty": FieldQuantity,
		"quantity purchased": FieldQuantity, "quantite achetee": FieldQuantity,
		"unit cost": FieldUnitCost, "cout unitaire": FieldUnitCost, "prix unitaire": FieldUnitCost,
		"total": FieldTotal, "total cost": FieldTotal, "cout total": FieldTotal, "montant": FieldTotal,
	},
	SheetRoleSales: {
		"date": FieldDate, "date de commande": FieldDate, "date commande": FieldDate,
		"product": FieldProduct, "produit": FieldProduct, "article": FieldProduct,
		"quantity": FieldQuantity, "quantite": FieldQuantity, "qte": FieldQuantity, "qty": FieldQuantity,
		"unit price": FieldUnitPrice, "prix unitaire": FieldUnitPrice,
		"total": FieldTotal, "total amount": FieldTotal, "montant total": FieldTotal, "montant": FieldTotal,
		"order": FieldOrderNumber, "order number": FieldOrderNumber, "commande": FieldOrderNumber, "numero de commande": FieldOrderNumber,
		"customer": FieldCustomer, "client": FieldCustomer,
	},
	SheetRoleRecipes: {
		"recipe": FieldDish, "recette": FieldDish, "dish": FieldDish, "plat": FieldDish,
		"portions": FieldPortions, "nombre de portions": FieldPortions,
		"selling price": FieldSellingPrice, "prix de vente": FieldSellingPrice,
		"ingredient": FieldIngredient, "ingredients": FieldIngredient,
		"quantity": FieldQuantity, "quantite": FieldQuantity, "qte": FieldQuantity,
		"unit": FieldUnit, "unite": FieldUnit, "unite de recette": FieldUnit, "unit of recipe": FieldUnit,
	},
}

// pivot-reshaped sheets already carry canonical names
var pivotFieldByRole = map[SheetRole]map[string]string{
	SheetRolePurchases: {
		PivotColumnProduct:  FieldProduct,
		PivotColumnDate:     FieldDate,
		PivotColumnQuantity: FieldQuantity,
		PivotColumnTotal:    FieldTotal,
	},
	SheetRoleSales: {
		PivotColumnProduct:  FieldProduct,
		PivotColumnDate:     FieldDate,
		PivotColumnQuantity: FieldQuantity,
		PivotColumnTotal:    FieldTotal,
	},
}

// MapColumns resolves a table's raw headers to canonical field indexes.
func MapColumns(table *Table) map[string]int {
	mapping := columnMappings[table.Role]
	pivot := pivotFieldByRole[table.Role]
	fields := make(map[string]int)
	for i, col := range table.Columns {
		key := strings.ToLower(strings.TrimSpace(FoldAccents(col)))
		if field, ok := pivot[key]; ok {
			if _, taken := fields[field]; !taken {
				fields[field] = i
			}
			continue
		}
		if field, ok := mapping[key]; ok {
			if _, taken := fields[field]; !taken {
				fields[field] = i
			}
		}
	}
	return fields
}

type ProductRow struct {
	Name             string
	Unit             string
	PurchaseCategory string
	SalesCategory    string
	Cost             *decimal.Decimal
	Price            *decimal.Decimal
	SourceRow        int
}

type PurchaseRow struct {
	Date        time.Time
	Product     string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	Total       decimal.Decimal
	NeedsReview bool
	SourceRow   int
}

type SalesRow struct {
	Date        time.Time
	Product     string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
	OrderNumber string
	Customer    string
	NeedsReview bool
	SourceRow   int
}

type RecipeRow struct {
	Dish         string
	Portions     decimal.Decimal
	SellingPrice decimal.Decimal
	Ingredient   string
	Quantity     decimal.Decimal
	Unit         string
	SourceRow    int
}

// TransformResult carries every cleaned row plus per-row diagnostics.
type TransformResult struct {
	Products  []ProductRow
	Purchases []PurchaseRow
	Sales     []SalesRow
	Recipes   []RecipeRow
	RowErrors []RowError
}

// Transformer cleans extracted tables into typed rows. A row failing a
// required field is rejected with a row error; optional fields degrade to
// zero values.
type Transformer struct {
	QuantityPolicy QuantityPolicy
}

func NewTransformer() *Transformer {
	return &Transformer{QuantityPolicy: DefaultQuantityPolicy()}
}

func (t *Transformer) Transform(tables map[SheetRole]*Table) *TransformResult {
	result := &TransformResult{}

	if table, ok := tables[SheetRoleProducts]; ok {
		t.transformProducts(table, result)
	}
	if table, ok := tables[SheetRolePurchases]; ok {
		t.transformPurchases(table, result)
	}
	if table, ok := tables[SheetRoleSales]; ok {
		t.transformSales(table, result)
	}
	if table, ok := tables[SheetRoleRecipes]; ok {
		t.transformRecipes(table, result)
	}

	return result
}

func (t *Transformer) transformProducts(table *Table, result *TransformResult) {
	fields := MapColumns(table)
	nameCol, ok := fields[FieldName]
	if !ok {
		result.RowErrors = append(result.RowErrors, RowError{
			Sheet:   table.Sheet,
			Column:  FieldName,
			Type:    models.ProcessingErrorTypeTransformation,
			Message: "no product name column recognized",
		})
		return
	}

	for i, row := range table.Rows {
		sourceRow := table.SourceRow(i)
		name := CleanText(table.Cell(row, nameCol))
		if name == "" {
			result.RowErrors = append(result.RowErrors, RowError{
				Sheet:     table.Sheet,
				RowNumber: sourceRow,
				Column:    FieldName,
				Type:      models.ProcessingErrorTypeValidation,
				Message:   "product name is required",
			})
			continue
		}

		product := ProductRow{
			Name:             name,
			Unit:             CleanUnit(table.Cell(row, colOr(fields, FieldUnit))),
			PurchaseCategory: categoryOrUnknown(table.Cell(row, colOr(fields, FieldPurchaseCat))),
			SalesCategory:    categoryOrUnknown(table.Cell(row, colOr(fields, FieldSalesCat))),
			SourceRow:        sourceRow,
		}
		if raw := table.Cell(row, colOr(fields, FieldCost)); !IsNA(raw) {
			if cost, err := CleanDecimal(raw); err == nil {
				product.Cost = &cost
			} else {
				result.RowErrors = append(result.RowErrors, rowWarning(table.Sheet, sourceRow, FieldCost, "unreadable cost: "+raw))
			}
		}
		if raw := table.Cell(row, colOr(fields, FieldPrice)); !IsNA(raw) {
			if price, err := CleanDecimal(raw); err == nil {
				product.Price = &price
			} else {
				result.RowErrors = append(result.RowErrors, rowWarning(table.Sheet, sourceRow, FieldPrice, "unreadable price: "+raw))
			}
		}
		result.Products = append(result.Products, product)
	}
}

func (t *Transformer) transformPurchases(table *Table, result *TransformResult) {
	fields := MapColumns(table)
	if err := requireFields(table, fields, FieldDate, FieldProduct, FieldQuantity); err != nil {
		result.RowErrors = append(result.RowErrors, *err)
		return
	}

	for i, row := range table.Rows {
		sourceRow := table.SourceRow(i)

		date, product, rowErr := cleanDateAndProduct(table, fields, row, sourceRow)
		if rowErr != nil {
			result.RowErrors = append(result.RowErrors, *rowErr)
			continue
		}

		quantity, err := CleanDecimal(table.Cell(row, fields[FieldQuantity]))
		if err != nil {
			result.RowErrors = append(result.RowErrors, RowError{
				Sheet:     table.Sheet,
				RowNumber: sourceRow,
				Column:    FieldQuantity,
				Type:      models.ProcessingErrorTypeValidation,
				Message:   "unreadable quantity: " + table.Cell(row, fields[FieldQuantity]),
			})
			continue
		}

		if !quantity.IsPositive() {
			result.RowErrors = append(result.RowErrors, RowError{
				Sheet:     table.Sheet,
				RowNumber: sourceRow,
				Column:    FieldQuantity,
				Type:      models.ProcessingErrorTypeValidation,
				Message:   "quantity must be positive: " + quantity.String(),
			})
			continue
		}

		purchase := PurchaseRow{
			Date:      date,
			Product:   product,
			Quantity:  quantity,
			SourceRow: sourceRow,
		}
		unitCost, amountErr := cleanAmount(table, fields, row, sourceRow, FieldUnitCost)
		if amountErr != nil {
			result.RowErrors = append(result.RowErrors, *amountErr)
			continue
		}
		purchase.UnitCost = unitCost
		total, amountErr := cleanAmount(table, fields, row, sourceRow, FieldTotal)
		if amountErr != nil {
			result.RowErrors = append(result.RowErrors, *amountErr)
			continue
		}
		purchase.Total = total
		// derive whichever of unit cost / total is missing
		if purchase.Total.IsZero() && !purchase.UnitCost.IsZero() {
			purchase.Total = purchase.UnitCost.Mul(purchase.Quantity)
		} else if purchase.UnitCost.IsZero() && !purchase.Total.IsZero() && !purchase.Quantity.IsZero() {
			purchase.UnitCost = purchase.Total.Div(purchase.Quantity)
		}

		if flagged, msg := t.QuantityPolicy.Check(quantity, ""); flagged {
			purchase.NeedsReview = true
			result.RowErrors = append(result.RowErrors, rowWarning(table.Sheet, sourceRow, FieldQuantity, msg))
		}

		result.Purchases = append(result.Purchases, purchase)
	}

	result.RowErrors = append(result.RowErrors, detectDuplicatePurchases(table.Sheet, result.Purchases)...)
}

func (t *Transformer) transformSales(table *Table, result *TransformResult) {
	fields := MapColumns(table)
	if err := requireFields(table, fields, FieldDate, FieldProduct, FieldQuantity); err != nil {
		result.RowErrors = append(result.RowErrors, *err)
		return
	}

	for i, row := range table.Rows {
		sourceRow := table.SourceRow(i)

		date, product, rowErr := cleanDateAndProduct(table, fields, row, sourceRow)
		if rowErr != nil {
			result.RowErrors = append(result.RowErrors, *rowErr)
			continue
		}

		quantity, err := CleanDecimal(table.Cell(row, fields[FieldQuantity]))
		if err != nil {
			result.RowErrors = append(result.RowErrors, RowError{
				Sheet:     table.Sheet,
				RowNumber: sourceRow,
				Column:    FieldQuantity,
				Type:      models.ProcessingErrorTypeValidation,
				Message:   "unreadable quantity: " + table.Cell(row, fields[FieldQuantity]),
			})
			continue
		}

		if !quantity.IsPositive() {
			result.RowErrors = append(result.RowErrors, RowError{
				Sheet:     table.Sheet,
				RowNumber: sourceRow,
				Column:    FieldQuantity,
				Type:      models.ProcessingErrorTypeValidation,
				Message:   "quantity must be positive: " + quantity.String(),
			})
			continue
		}

		sale := SalesRow{
			Date:        date,
			Product:     product,
			Quantity:    quantity,
			OrderNumber: CleanText(table.Cell(row, colOr(fields, FieldOrderNumber))),
			Customer:    CleanText(table.Cell(row, colOr(fields, FieldCustomer))),
			SourceRow:   sourceRow,
		}
		unitPrice, amountErr := cleanAmount(table, fields, row, sourceRow, FieldUnitPrice)
		if amountErr != nil {
			result.RowErrors = append(result.RowErrors, *amountErr)
			continue
		}
		sale.UnitPrice = unitPrice
		total, amountErr := cleanAmount(table, fields, row, sourceRow, FieldTotal)
		if amountErr != nil {
			result.RowErrors = append(result.RowErrors, *amountErr)
			continue
		}
		sale.Total = total
		if sale.Total.IsZero() && !sale.UnitPrice.IsZero() {
			sale.Total = sale.UnitPrice.Mul(sale.Quantity)
		} else if sale.UnitPrice.IsZero() && !sale.Total.IsZero() && !sale.Quantity.IsZero() {
			sale.UnitPrice = sale.Total.Div(sale.Quantity)
		}

		if flagged, msg := t.QuantityPolicy.Check(quantity, ""); flagged {
			sale.NeedsReview = true
			result.RowErrors = append(result.RowErrors, rowWarning(table.Sheet, sourceRow, FieldQuantity, msg))
		}

		result.Sales = append(result.Sales, sale)
	}

	result.RowErrors = append(result.RowErrors, detectDuplicateSales(table.Sheet, result.Sales)...)
}

func (t *Transformer) transformRecipes(table *Table, result *TransformResult) {
	fields := MapColumns(table)
	if err := requireFields(table, fields, FieldDish, FieldIngredient, FieldQuantity); err != nil {
		result.RowErrors = append(result.RowErrors, *err)
		return
	}

	// exports repeat the dish only on its first ingredient row
	currentDish := ""
	currentPortions := decimal.NewFromInt(1)
	currentPrice := decimal.Zero

	for i, row := range table.Rows {
		sourceRow := table.SourceRow(i)

		if dish := CleanText(table.Cell(row, fields[FieldDish])); dish != "" {
			currentDish = dish
			currentPortions = decimal.NewFromInt(1)
			currentPrice = decimal.Zero
			if col, ok := fields[FieldPortions]; ok {
				if v, err := CleanDecimal(table.Cell(row, col)); err == nil && v.IsPositive() {
					currentPortions = v
				}
			}
			if col, ok := fields[FieldSellingPrice]; ok {
				if v, err := CleanDecimal(table.Cell(row, col)); err == nil {
					currentPrice = v
				}
			}
		}
		if currentDish == "" {
			result.RowErrors = append(result.RowErrors, RowError{
				Sheet:     table.Sheet,
				RowNumber: sourceRow,
				Column:    FieldDish,
				Type:      models.ProcessingErrorTypeValidation,
				Message:   "ingredient row has no dish",
			})
			continue
		}

		ingredient := CleanText(table.Cell(row, fields[FieldIngredient]))
		if ingredient == "" {
			continue
		}
		quantity, err := CleanDecimal(table.Cell(row, fields[FieldQuantity]))
		if err != nil {
			result.RowErrors = append(result.RowErrors, RowError{
				Sheet:     table.Sheet,
				RowNumber: sourceRow,
				Column:    FieldQuantity,
				Type:      models.ProcessingErrorTypeValidation,
				Message:   "unreadable ingredient quantity: " + table.Cell(row, fields[FieldQuantity]),
			})
			continue
		}
		if !quantity.IsPositive() {
			result.RowErrors = append(result.RowErrors, RowError{
				Sheet:     table.Sheet,
				RowNumber: sourceRow,
				Column:    FieldQuantity,
				Type:      models.ProcessingErrorTypeValidation,
				Message:   "ingredient quantity must be positive: " + quantity.String(),
			})
			continue
		}

		result.Recipes = append(result.Recipes, RecipeRow{
			Dish:         currentDish,
			Portions:     currentPortions,
			SellingPrice: currentPrice,
			Ingredient:   ingredient,
			Quantity:     quantity,
			Unit:         CleanUnit(table.Cell(row, colOr(fields, FieldUnit))),
			SourceRow:    sourceRow,
		})
	}
}

func cleanDateAndProduct(table *Table, fields map[string]int, row []string, sourceRow int) (time.Time, string, *RowError) {
	date, err := ParseFlexibleDate(table.Cell(row, fields[FieldDate]))
	if err != nil {
		return time.Time{}, "", &RowError{
			Sheet:     table.Sheet,
			RowNumber: sourceRow,
			Column:    FieldDate,
			Type:      models.ProcessingErrorTypeValidation,
			Message:   err.Error(),
		}
	}
	product := CleanText(table.Cell(row, fields[FieldProduct]))
	if product == "" {
		return time.Time{}, "", &RowError{
			Sheet:     table.Sheet,
			RowNumber: sourceRow,
			Column:    FieldProduct,
			Type:      models.ProcessingErrorTypeValidation,
			Message:   "product name is required",
		}
	}
	return date, product, nil
}

func requireFields(table *Table, fields map[string]int, required ...string) *RowError {
	for _, field := range required {
		if _, ok := fields[field]; !ok {
			return &RowError{
				Sheet:   table.Sheet,
				Column:  field,
				Type:    models.ProcessingErrorTypeTransformation,
				Message: fmt.Sprintf("no %s column recognized", field),
			}
		}
	}
	return nil
}

// cleanAmount parses an optional monetary column. Missing or unreadable
// cells stay zero so the derive step can fill them in; a value that parses
// negative rejects the row.
func cleanAmount(table *Table, fields map[string]int, row []string, sourceRow int, field string) (decimal.Decimal, *RowError) {
	col, ok := fields[field]
	if !ok {
		return decimal.Zero, nil
	}
	raw := table.Cell(row, col)
	if IsNA(raw) {
		return decimal.Zero, nil
	}
	v, err := CleanDecimal(raw)
	if err != nil {
		return decimal.Zero, nil
	}
	if v.IsNegative() {
		return decimal.Zero, &RowError{
			Sheet:     table.Sheet,
			RowNumber: sourceRow,
			Column:    field,
			Type:      models.ProcessingErrorTypeValidation,
			Message:   field + " must not be negative: " + raw,
		}
	}
	return v, nil
}

// categoryOrUnknown defaults a missing category cell so products never load
// uncategorized, which would silently disable category-scoped conversions.
func categoryOrUnknown(raw string) string {
	if value := CleanText(raw); value != "" {
		return value
	}
	return "Unknown"
}

func colOr(fields map[string]int, field string) int {
	if col, ok := fields[field]; ok {
		return col
	}
	return -1
}

func rowWarning(sheet string, row int, column string, message string) RowError {
	return RowError{
		Sheet:     sheet,
		RowNumber: row,
		Column:    column,
		Type:      models.ProcessingErrorTypeValidation,
		Message:   message,
		Warning:   true,
	}
}

// duplicate threshold: identical rows above 1% of the sheet are suspicious
const duplicateWarnRatio = 0.01

func detectDuplicatePurchases(sheet string, rows []PurchaseRow) []RowError {
	if len(rows) == 0 {
		return nil
	}
	seen := map[string]int{}
	duplicates := 0
	for _, r := range rows {
		key := fmt.Sprintf("%s|%s|%s|%s", r.Date.Format("2006-01-02"), strings.ToLower(r.Product), r.Quantity.String(), r.Total.String())
		seen[key]++
		if seen[key] > 1 {
			duplicates++
		}
	}
	if float64(duplicates) <= float64(len(rows))*duplicateWarnRatio {
		return nil
	}
	return []RowError{rowWarning(sheet, 0, FieldProduct,
		fmt.Sprintf("%d duplicate purchase rows detected (%.1f%% of sheet)", duplicates, 100*float64(duplicates)/float64(len(rows))))}
}

func detectDuplicateSales(sheet string, rows []SalesRow) []RowError {
	if len(rows) == 0 {
		return nil
	}
	seen := map[string]int{}
	duplicates := 0
	for _, r := range rows {
		key := fmt.Sprintf("%s|%s|%s|%s", r.Date.Format("2006-01-02"), strings.ToLower(r.Product), r.Quantity.String(), r.Total.String())
		seen[key]++
		if seen[key] > 1 {
			duplicates++
		}
	}
	if float64(duplicates) <= float64(len(rows))*duplicateWarnRatio {
		return nil
	}
	return []RowError{rowWarning(sheet, 0, FieldProduct,
		fmt.Sprintf("%d duplicate sales rows detected (%.1f%% of sheet)", duplicates, 100*float64(duplicates)/float64(len(rows))))}
}
