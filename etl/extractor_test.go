package etl_test

import (
	"path/filepath"
	"testing"

	"bitbucket.org/mmdatafocus/resto_backend/etl"
	"github.com/xuri/excelize/v2"
)

func TestMapSheetRole(t *testing.T) {
	cases := []struct {
		sheet string
		role  etl.SheetRole
		ok    bool
	}{
		{"Achats", etl.SheetRolePurchases, true},
		{"achats", etl.SheetRolePurchases, true},
		{"Ventes", etl.SheetRoleSales, true},
		{"Commandes_Detaillees", etl.SheetRoleSales, true},
		{"Produits", etl.SheetRoleProducts, true},
		{"Recettes", etl.SheetRoleRecipes, true},
		{"Liste des Achats 2024", etl.SheetRolePurchases, true},
		{"Feuille1", "", false},
		{"Notes", "", false},
	}
	for _, c := range cases {
		role, ok := etl.MapSheetRole(c.sheet)
		if ok != c.ok || role != c.role {
			t.Errorf("MapSheetRole(%q) = (%q, %v), want (%q, %v)", c.sheet, role, ok, c.role, c.ok)
		}
	}
}

func writeWorkbook(t *testing.T, sheets map[string][][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("SetSheetName: %v", err)
			}
			first = false
		} else {
			if _, err := f.NewSheet(name); err != nil {
				t.Fatalf("NewSheet: %v", err)
			}
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName: %v", err)
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("SetSheetRow: %v", err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "export.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestExtractTabularSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Achats": {
			{"Date d'achat", "Produit", "Quantité", "Coût total"},
			{"05/03/2024", "Poulet Cru", "2", "5000"},
			{"", "", "", ""},
			{"06/03/2024", "Tomates", "10", "1500"},
		},
		"Notes": {
			{"ignore me"},
		},
	})

	tables, rowErrors, err := etl.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(rowErrors) != 0 {
		t.Fatalf("unexpected row errors: %v", rowErrors)
	}
	table, ok := tables[etl.SheetRolePurchases]
	if !ok {
		t.Fatal("purchases table not extracted")
	}
	if len(table.Columns) != 4 {
		t.Fatalf("columns = %v", table.Columns)
	}
	// the blank row is dropped during cleanup
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	if table.Cell(table.Rows[1], 1) != "Tomates" {
		t.Errorf("row 2 product = %q", table.Cell(table.Rows[1], 1))
	}
	if _, ok := tables[etl.SheetRoleSales]; ok {
		t.Error("unmapped sheet should not yield a table")
	}
}

func TestExtractPivotSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Ventes": {
			{"", "Quantité", "Total"},
			{"Poulet Braisé", "", ""},
			{"05/03/2024", "3", "13500"},
			{"06/03/2024", "1", "4500"},
			{"Ndolé", "", ""},
			{"07/03/2024", "2", "18000"},
		},
	})

	tables, rowErrors, err := etl.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(rowErrors) != 0 {
		t.Fatalf("unexpected row errors: %v", rowErrors)
	}
	table, ok := tables[etl.SheetRoleSales]
	if !ok {
		t.Fatal("sales table not extracted")
	}
	want := []string{
		etl.PivotColumnProduct,
		etl.PivotColumnDate,
		etl.PivotColumnQuantity,
		etl.PivotColumnTotal,
	}
	for i, col := range want {
		if table.Columns[i] != col {
			t.Fatalf("columns = %v", table.Columns)
		}
	}
	if len(table.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(table.Rows))
	}
	if table.Rows[0][0] != "Poulet Braisé" || table.Rows[0][1] != "05/03/2024" {
		t.Errorf("row 1 = %v", table.Rows[0])
	}
	if table.Rows[2][0] != "Ndolé" || table.Rows[2][3] != "18000" {
		t.Errorf("row 3 = %v", table.Rows[2])
	}
	// source rows point at the original date rows
	if table.SourceRow(0) != 3 {
		t.Errorf("source row = %d, want 3", table.SourceRow(0))
	}
}

func TestExtractPivotSheetReportsOrphans(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Ventes": {
			{"", "Quantité", "Total"},
			{"05/03/2024", "3", "13500"},
			{"Poulet Braisé", "", ""},
			{"Sauce Mayo", "", ""},
			{"06/03/2024", "1", "4500"},
			{"Plantain Frit", "", ""},
		},
	})

	tables, rowErrors, err := etl.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	table := tables[etl.SheetRoleSales]
	if table == nil {
		t.Fatal("sales table not extracted")
	}
	// only the date row under "Sauce Mayo" survives
	if len(table.Rows) != 1 {
		t.Fatalf("rows = %d, want 1: %v", len(table.Rows), table.Rows)
	}
	if table.Rows[0][0] != "Sauce Mayo" {
		t.Errorf("row 1 product = %q", table.Rows[0][0])
	}
	// three problems: orphan date row, unused label, trailing unused label
	if len(rowErrors) != 3 {
		t.Fatalf("row errors = %d, want 3: %v", len(rowErrors), rowErrors)
	}
}

func TestExtractDuplicateRoleKeepsFirstSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Achats": {
			{"Date", "Produit", "Quantité"},
			{"05/03/2024", "Poulet Cru", "2"},
		},
		"Achats 2024": {
			{"Date", "Produit", "Quantité"},
			{"06/03/2024", "Tomates", "10"},
		},
	})

	tables, _, err := etl.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	table := tables[etl.SheetRolePurchases]
	if table == nil {
		t.Fatal("purchases table not extracted")
	}
	if len(table.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(table.Rows))
	}
}
