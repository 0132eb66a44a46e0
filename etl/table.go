package etl

import (
	"fmt"

	"bitbucket.org/mmdatafocus/resto_backend/models"
)

type SheetRole string

const (
	SheetRoleProducts  SheetRole = "products"
	SheetRolePurchases SheetRole = "purchases"
	SheetRoleSales     SheetRole = "sales"
	SheetRoleRecipes   SheetRole = "recipes"
)

// Table is one extracted sheet: a header row plus string cells. Row numbers
// reported in diagnostics are 1-based positions in the source sheet.
type Table struct {
	Sheet     string
	Role      SheetRole
	Columns   []string
	Rows      [][]string
	RowOffset int // source row number of the first data row
	// SourceRows maps each row to its source sheet position when rows were
	// reshaped and no longer line up with RowOffset (pivot sheets).
	SourceRows []int
}

func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed cell value, empty for short rows.
func (t *Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// SourceRow converts a 0-based data row index to its source sheet position.
func (t *Table) SourceRow(i int) int {
	if i < len(t.SourceRows) {
		return t.SourceRows[i]
	}
	return t.RowOffset + i
}

// RowError is a per-row diagnostic. Failed rows are skipped, never abort
// the whole sheet; warnings keep the row.
type RowError struct {
	Sheet     string
	RowNumber int
	Column    string
	Type      models.ProcessingErrorType
	Message   string
	Warning   bool
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s row %d (%s): %s", e.Sheet, e.RowNumber, e.Column, e.Message)
}

// ToProcessingErrors converts hard errors to persistable records; warnings
// are surfaced in logs only.
func ToProcessingErrors(uploadErrors []RowError) []*models.ProcessingError {
	var out []*models.ProcessingError
	for _, re := range uploadErrors {
		if re.Warning {
			continue
		}
		out = append(out, &models.ProcessingError{
			Sheet:        re.Sheet,
			RowNumber:    re.RowNumber,
			ColumnName:   re.Column,
			ErrorType:    re.Type,
			ErrorMessage: re.Message,
		})
	}
	return out
}
