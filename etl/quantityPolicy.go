package etl

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// QuantityPolicy flags implausibly large quantities that usually come from
// unit-conversion mistakes upstream (a kg amount already multiplied to
// grams, then treated as grams again). Flagged rows are kept and marked
// for review; the policy never rewrites values.
type QuantityPolicy struct {
	// PerUnitThresholds flags quantities above the threshold for a
	// specific cleaned unit.
	PerUnitThresholds map[string]decimal.Decimal
	// GeneralThreshold flags any quantity above it regardless of unit.
	GeneralThreshold decimal.Decimal
	// UnitlessThreshold applies when the row carries no unit.
	UnitlessThreshold decimal.Decimal
}

func DefaultQuantityPolicy() QuantityPolicy {
	return QuantityPolicy{
		PerUnitThresholds: map[string]decimal.Decimal{
			"g":  decimal.NewFromInt(10000),
			"ml": decimal.NewFromInt(100000),
		},
		GeneralThreshold:  decimal.NewFromInt(1000000),
		UnitlessThreshold: decimal.NewFromInt(100000),
	}
}

// Check returns whether the quantity should be flagged and why.
func (p QuantityPolicy) Check(quantity decimal.Decimal, unit string) (bool, string) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return false, ""
	}
	if !p.GeneralThreshold.IsZero() && quantity.GreaterThan(p.GeneralThreshold) {
		return true, fmt.Sprintf("quantity %s exceeds plausible maximum %s; flagged for review", quantity, p.GeneralThreshold)
	}
	if unit == "" {
		if !p.UnitlessThreshold.IsZero() && quantity.GreaterThan(p.UnitlessThreshold) {
			return true, fmt.Sprintf("unitless quantity %s exceeds %s; flagged for review", quantity, p.UnitlessThreshold)
		}
		return false, ""
	}
	if threshold, ok := p.PerUnitThresholds[unit]; ok && quantity.GreaterThan(threshold) {
		return true, fmt.Sprintf("quantity %s %s exceeds %s; possible conversion error, flagged for review", quantity, unit, threshold)
	}
	return false, ""
}
