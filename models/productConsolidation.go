package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ProductConsolidation maps alternate spellings of a product onto one
// canonical (primary) product. Resolution is single-hop: a primary can
// never itself be consolidated into another product, so rules cannot chain
// or cycle.
type ProductConsolidation struct {
	ID                int       `gorm:"primary_key" json:"id"`
	PrimaryProductId  int       `gorm:"index;not null" json:"primary_product_id"`
	PrimaryProduct    *Product  `gorm:"foreignKey:PrimaryProductId" json:"primary_product,omitempty"`
	ConsolidatedNames []string  `gorm:"serializer:json" json:"consolidated_names"`
	Reason            string    `gorm:"size:255" json:"reason"`
	Verified          *bool     `gorm:"not null;default:false" json:"verified"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProductConsolidation struct {
	PrimaryProductId  int      `json:"primary_product_id" binding:"required"`
	ConsolidatedNames []string `json:"consolidated_names" binding:"required"`
	Reason            string   `json:"reason"`
	Verified          bool     `json:"verified"`
}

func (input *NewProductConsolidation) validate(ctx context.Context, db *gorm.DB, id int) error {
	if len(input.ConsolidatedNames) == 0 {
		return errors.New("consolidated_names must not be empty")
	}

	var primary Product
	if err := db.WithContext(ctx).Where("id = ?", input.PrimaryProductId).Take(&primary).Error; err != nil {
		return errors.New("primary product not found")
	}
	primaryName := strings.ToLower(strings.TrimSpace(primary.Name))

	var rules []*ProductConsolidation
	if err := db.WithContext(ctx).Model(&ProductConsolidation{}).
		Where("id <> ?", id).
		Preload("PrimaryProduct").
		Find(&rules).Error; err != nil {
		return err
	}

	memberSet := map[string]bool{}
	for _, name := range input.ConsolidatedNames {
		lower := strings.ToLower(strings.TrimSpace(name))
		if lower == "" {
			return errors.New("consolidated name must not be blank")
		}
		if lower == primaryName {
			return errors.New("a product cannot be consolidated into itself")
		}
		if memberSet[lower] {
			return fmt.Errorf("duplicate consolidated name %q", name)
		}
		memberSet[lower] = true
	}

	for _, rule := range rules {
		otherPrimary := ""
		if rule.PrimaryProduct != nil {
			otherPrimary = strings.ToLower(strings.TrimSpace(rule.PrimaryProduct.Name))
		}
		// The new primary must not already be consolidated elsewhere.
		for _, name := range rule.ConsolidatedNames {
			if strings.ToLower(strings.TrimSpace(name)) == primaryName {
				return fmt.Errorf("product %q is already consolidated into another product", primary.Name)
			}
			if memberSet[strings.ToLower(strings.TrimSpace(name))] {
				return fmt.Errorf("name %q already belongs to another consolidation rule", name)
			}
		}
		// No member may be the primary of another rule, that would chain.
		if otherPrimary != "" && memberSet[otherPrimary] {
			return fmt.Errorf("product %q is a primary of another consolidation rule", otherPrimary)
		}
	}
	return nil
}

func CreateConsolidationRule(ctx context.Context, db *gorm.DB, input *NewProductConsolidation) (*ProductConsolidation, error) {
	if err := input.validate(ctx, db, 0); err != nil {
		return nil, err
	}
	rule := ProductConsolidation{
		PrimaryProductId:  input.PrimaryProductId,
		ConsolidatedNames: input.ConsolidatedNames,
		Reason:            input.Reason,
		Verified:          &input.Verified,
	}
	if err := db.WithContext(ctx).Create(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func UpdateConsolidationRule(ctx context.Context, db *gorm.DB, id int, input *NewProductConsolidation) (*ProductConsolidation, error) {
	var rule ProductConsolidation
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&rule).Error; err != nil {
		return nil, err
	}
	if err := input.validate(ctx, db, id); err != nil {
		return nil, err
	}
	rule.PrimaryProductId = input.PrimaryProductId
	rule.ConsolidatedNames = input.ConsolidatedNames
	rule.Reason = input.Reason
	rule.Verified = &input.Verified
	if err := db.WithContext(ctx).Save(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func DeleteConsolidationRule(ctx context.Context, db *gorm.DB, id int) (*ProductConsolidation, error) {
	var rule ProductConsolidation
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&rule).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

// GetVerifiedConsolidationRules loads every verified rule with its primary
// product, for resolver warm-up.
func GetVerifiedConsolidationRules(ctx context.Context, db *gorm.DB) ([]*ProductConsolidation, error) {
	var rules []*ProductConsolidation
	err := db.WithContext(ctx).
		Where("verified = true").
		Preload("PrimaryProduct").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}
