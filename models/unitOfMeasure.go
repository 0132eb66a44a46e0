package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/resto_backend/utils"
	"gorm.io/gorm"
)

type UnitOfMeasure struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Name         string    `gorm:"index;size:20;not null" json:"name" binding:"required"`
	Abbreviation string    `gorm:"size:7" json:"abbreviation"`
	Description  string    `gorm:"size:100" json:"description"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FindOrCreateUnitOfMeasure matches by name case-insensitively.
// Unit names are stored lowercased since they come from the cleaning step.
func FindOrCreateUnitOfMeasure(ctx context.Context, tx *gorm.DB, name string) (*UnitOfMeasure, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, nil
	}
	var unit UnitOfMeasure
	err := tx.WithContext(ctx).
		Where("LOWER(name) = ?", name).
		Take(&unit).Error
	if err == nil {
		return &unit, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	unit = UnitOfMeasure{Name: name, Description: "Unit: " + name}
	if err := tx.WithContext(ctx).Create(&unit).Error; err != nil {
		// concurrent uploads may race on the same new unit
		if utils.IsDuplicateEntry(err) {
			var existing UnitOfMeasure
			if ferr := tx.WithContext(ctx).Where("LOWER(name) = ?", name).Take(&existing).Error; ferr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return &unit, nil
}

func GetUnitOfMeasureByName(ctx context.Context, db *gorm.DB, name string) (*UnitOfMeasure, error) {
	var unit UnitOfMeasure
	err := db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Take(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}
