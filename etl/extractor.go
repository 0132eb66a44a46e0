package etl

import (
	"strings"

	"bitbucket.org/mmdatafocus/resto_backend/config"
	"bitbucket.org/mmdatafocus/resto_backend/models"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// columns emitted when a pivot-shaped sheet is reshaped to tabular form
const (
	PivotColumnProduct  = "product"
	PivotColumnDate     = "date"
	PivotColumnQuantity = "quantity"
	PivotColumnTotal    = "total"
)

var sheetRoleSynonyms = map[SheetRole][]string{
	SheetRoleProducts:  {"products", "produits", "produit", "product"},
	SheetRolePurchases: {"purchases", "achats", "achat", "purchase"},
	SheetRoleSales:     {"sales", "ventes", "vente", "sale", "commandes_detaillees"},
	SheetRoleRecipes:   {"recipes", "recettes", "recette", "recipe"},
}

// MapSheetRole resolves a sheet name to its role: exact case-insensitive
// synonym match first, then substring match.
func MapSheetRole(sheetName string) (SheetRole, bool) {
	name := strings.ToLower(strings.TrimSpace(FoldAccents(sheetName)))
	for role, synonyms := range sheetRoleSynonyms {
		for _, syn := range synonyms {
			if name == syn {
				return role, true
			}
		}
	}
	for role, synonyms := range sheetRoleSynonyms {
		for _, syn := range synonyms {
			if strings.Contains(name, syn) {
				return role, true
			}
		}
	}
	return "", false
}

// Extract opens a workbook and returns one cleaned Table per recognized
// sheet role. Unmapped sheets are logged and skipped; extraction problems
// come back as row errors, never as a hard failure of the whole workbook.
func Extract(path string) (map[SheetRole]*Table, []RowError, error) {
	logger := config.GetLogger()

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	tables := make(map[SheetRole]*Table)
	var rowErrors []RowError

	for _, sheet := range f.GetSheetList() {
		role, ok := MapSheetRole(sheet)
		if !ok {
			logger.WithFields(logrus.Fields{
				"module": "etl",
				"sheet":  sheet,
			}).Warn("sheet name matches no known role; skipping")
			continue
		}
		if _, dup := tables[role]; dup {
			logger.WithFields(logrus.Fields{
				"module": "etl",
				"sheet":  sheet,
				"role":   role,
			}).Warn("role already extracted from another sheet; skipping")
			continue
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			rowErrors = append(rowErrors, RowError{
				Sheet:   sheet,
				Type:    models.ProcessingErrorTypeExtraction,
				Message: "could not read sheet: " + err.Error(),
			})
			continue
		}

		table, errs := buildTable(sheet, role, rows)
		rowErrors = append(rowErrors, errs...)
		if table != nil {
			tables[role] = table
		}
	}

	return tables, rowErrors, nil
}

func buildTable(sheet string, role SheetRole, rows [][]string) (*Table, []RowError) {
	cleaned := cleanRows(rows)
	if len(cleaned) == 0 {
		return nil, []RowError{{
			Sheet:   sheet,
			Type:    models.ProcessingErrorTypeExtraction,
			Message: "sheet is empty after cleanup",
		}}
	}

	header := cleaned[0]
	if isPivotHeader(header) {
		return reshapePivot(sheet, role, cleaned)
	}

	columns := make([]string, 0, len(header))
	for _, col := range header {
		columns = append(columns, CleanText(col))
	}
	// drop unnamed trailing columns
	for len(columns) > 0 && columns[len(columns)-1] == "" {
		columns = columns[:len(columns)-1]
	}

	table := &Table{
		Sheet:     sheet,
		Role:      role,
		Columns:   columns,
		RowOffset: 2,
	}
	for _, row := range cleaned[1:] {
		if len(row) > len(columns) {
			row = row[:len(columns)]
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// cleanRows trims cells, maps na sentinels to empty and drops rows with no
// content at all.
func cleanRows(rows [][]string) [][]string {
	var out [][]string
	for _, row := range rows {
		cleanedRow := make([]string, len(row))
		empty := true
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			if IsNA(cell) {
				cell = ""
			}
			cleanedRow[i] = cell
			if cell != "" {
				empty = false
			}
		}
		if !empty {
			out = append(out, cleanedRow)
		}
	}
	return out
}

// isPivotHeader recognizes the export's pivot layout: exactly three
// columns with an unnamed first column.
func isPivotHeader(header []string) bool {
	named := 0
	for _, col := range header {
		if strings.TrimSpace(col) != "" {
			named++
		}
	}
	return len(header) == 3 && strings.TrimSpace(header[0]) == "" && named == 2
}

// reshapePivot converts label-row/date-row blocks into tabular rows. A
// label row starts a product block; each following date row yields one
// (product, date, quantity, total) record.
func reshapePivot(sheet string, role SheetRole, rows [][]string) (*Table, []RowError) {
	table := &Table{
		Sheet:     sheet,
		Role:      role,
		Columns:   []string{PivotColumnProduct, PivotColumnDate, PivotColumnQuantity, PivotColumnTotal},
		RowOffset: 2,
	}
	var rowErrors []RowError

	pendingLabel := ""
	pendingLabelRow := 0
	pendingLabelUsed := false

	for i, row := range rows[1:] {
		sourceRow := i + 2
		first := ""
		if len(row) > 0 {
			first = strings.TrimSpace(row[0])
		}
		if first == "" {
			continue
		}

		if LooksLikeDate(first) {
			if pendingLabel == "" {
				rowErrors = append(rowErrors, RowError{
					Sheet:     sheet,
					RowNumber: sourceRow,
					Column:    PivotColumnDate,
					Type:      models.ProcessingErrorTypeExtraction,
					Message:   "date row has no preceding product label; dropped",
				})
				continue
			}
			record := make([]string, 4)
			record[0] = pendingLabel
			record[1] = first
			if len(row) > 1 {
				record[2] = row[1]
			}
			if len(row) > 2 {
				record[3] = row[2]
			}
			table.Rows = append(table.Rows, record)
			table.SourceRows = append(table.SourceRows, sourceRow)
			pendingLabelUsed = true
			continue
		}

		// a second label before any date row means the previous label is
		// a data error: report it and move on with the new one
		if pendingLabel != "" && !pendingLabelUsed {
			rowErrors = append(rowErrors, RowError{
				Sheet:     sheet,
				RowNumber: pendingLabelRow,
				Column:    PivotColumnProduct,
				Type:      models.ProcessingErrorTypeExtraction,
				Message:   "product label followed by another label; no date rows, skipped",
			})
		}
		pendingLabel = CleanText(first)
		pendingLabelRow = sourceRow
		pendingLabelUsed = false
	}

	if pendingLabel != "" && !pendingLabelUsed {
		rowErrors = append(rowErrors, RowError{
			Sheet:     sheet,
			RowNumber: pendingLabelRow,
			Column:    PivotColumnProduct,
			Type:      models.ProcessingErrorTypeExtraction,
			Message:   "product label has no date rows; skipped",
		})
	}

	return table, rowErrors
}
