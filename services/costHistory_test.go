package services_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/resto_backend/models"
	"bitbucket.org/mmdatafocus/resto_backend/services"
	"github.com/shopspring/decimal"
)

func TestRecipeQuantity(t *testing.T) {
	cases := []struct {
		quantity string
		factor   string
		want     string
	}{
		// 12 tins of paprika at 150g each
		{"12", "150", "1800"},
		// 0.012 l bought in litres, recipes in litres
		{"0.012", "1", "0.01"},
		{"2.5", "1000", "2500"},
		{"3", "0.001", "0"},
		{"0", "1000", "0"},
	}
	for _, c := range cases {
		got := services.RecipeQuantity(
			decimal.RequireFromString(c.quantity),
			decimal.RequireFromString(c.factor),
		)
		if got.String() != c.want {
			t.Errorf("RecipeQuantity(%s, %s) = %s, want %s", c.quantity, c.factor, got, c.want)
		}
	}
}

func TestUnitCost(t *testing.T) {
	cases := []struct {
		total          string
		recipeQuantity string
		want           string
	}{
		{"18000", "1800", "10"},
		{"18000", "0.01", "1800000"},
		{"1000", "3", "333.3333"},
		// zero recipe quantity costs zero instead of dividing
		{"18000", "0", "0"},
	}
	for _, c := range cases {
		got := services.UnitCost(
			decimal.RequireFromString(c.total),
			decimal.RequireFromString(c.recipeQuantity),
		)
		if got.String() != c.want {
			t.Errorf("UnitCost(%s, %s) = %s, want %s", c.total, c.recipeQuantity, got, c.want)
		}
	}
}

func TestCompletenessScore(t *testing.T) {
	cases := []struct {
		hasPurchaseUnit bool
		hasRecipeUnit   bool
		usedFallback    bool
		hasCost         bool
		want            int
	}{
		{true, true, false, true, 100},
		{false, true, false, true, 75},
		{true, true, true, true, 60},
		{false, false, true, false, 0},
	}
	for _, c := range cases {
		got := services.CompletenessScore(c.hasPurchaseUnit, c.hasRecipeUnit, c.usedFallback, c.hasCost)
		if got != c.want {
			t.Errorf("CompletenessScore(%v, %v, %v, %v) = %d, want %d",
				c.hasPurchaseUnit, c.hasRecipeUnit, c.usedFallback, c.hasCost, got, c.want)
		}
	}
}

func TestConfidenceBuckets(t *testing.T) {
	cases := []struct {
		score int
		want  models.CostConfidence
	}{
		{100, models.CostConfidenceHigh},
		{90, models.CostConfidenceHigh},
		{89, models.CostConfidenceMedium},
		{70, models.CostConfidenceMedium},
		{69, models.CostConfidenceLow},
		{50, models.CostConfidenceLow},
		{49, models.CostConfidenceVeryLow},
		{0, models.CostConfidenceVeryLow},
	}
	for _, c := range cases {
		if got := models.ConfidenceFromScore(c.score); got != c.want {
			t.Errorf("ConfidenceFromScore(%d) = %s, want %s", c.score, got, c.want)
		}
	}
}
