package etl_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/resto_backend/etl"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Poulet Cru  ", "Poulet Cru"},
		{"[REF-123] Poulet Cru", "Poulet Cru"},
		{"[x]   Sauce   Mayo ", "Sauce Mayo"},
		{"Pomme\t de \n terre", "Pomme de terre"},
		{"None", ""},
		{"#N/A", ""},
		{"nan", ""},
		{"", ""},
		{"[unclosed bracket", "[unclosed bracket"},
	}
	for _, c := range cases {
		if got := etl.CleanText(c.in); got != c.want {
			t.Errorf("CleanText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCleanDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1234.56", "1234.56"},
		{"1234,56", "1234.56"},
		{"1 234,56", "1234.56"},
		{"1.234.56", "1234.56"},
		{"XAF 2500", "2500"},
		{"2 500 FCFA", "2500"},
		{"-12,5", "-12.5"},
		{"0", "0"},
	}
	for _, c := range cases {
		got, err := etl.CleanDecimal(c.in)
		if err != nil {
			t.Errorf("CleanDecimal(%q) unexpected error: %v", c.in, err)
			continue
		}
		if got.String() != c.want {
			t.Errorf("CleanDecimal(%q) = %s, want %s", c.in, got, c.want)
		}
	}

	for _, in := range []string{"", "None", "abc", "-", "."} {
		if _, err := etl.CleanDecimal(in); err == nil {
			t.Errorf("CleanDecimal(%q) expected error", in)
		}
	}
}

func TestCleanUnit(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Unité", "unit"},
		{"unité", "unit"},
		{"KILO", "kg"},
		{"Kg", "kg"},
		{"gramme", "g"},
		{"gr.", "g"},
		{"Pièce", "pcs"},
		{"pièces", "pcs"},
		{"Litre", "l"},
		{"Douzaine", "dozen"},
		{"Bouteille", "bottle"},
		{"Paquet", "pack"},
		{"Boîte", "box"},
		{"tonneau", "tonneau"},
		{"", ""},
		{"None", ""},
	}
	for _, c := range cases {
		if got := etl.CleanUnit(c.in); got != c.want {
			t.Errorf("CleanUnit(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFoldAccents(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"pièce", "piece"},
		{"Quantité achetée", "Quantite achetee"},
		{"décembre", "decembre"},
		{"plain ascii", "plain ascii"},
	}
	for _, c := range cases {
		if got := etl.FoldAccents(c.in); got != c.want {
			t.Errorf("FoldAccents(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsNA(t *testing.T) {
	for _, in := range []string{"", "  ", "None", "NULL", "null", "#N/A", "nan", "NaN"} {
		if !etl.IsNA(in) {
			t.Errorf("IsNA(%q) = false, want true", in)
		}
	}
	for _, in := range []string{"0", "Poulet", "n/a maybe"} {
		if etl.IsNA(in) {
			t.Errorf("IsNA(%q) = true, want false", in)
		}
	}
}
