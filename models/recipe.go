package models

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Recipe struct {
	ID           int                 `gorm:"primary_key" json:"id"`
	DishName     string              `gorm:"index;size:255;not null" json:"dish_name" binding:"required"`
	Portions     decimal.Decimal     `gorm:"type:decimal(20,4);default:1" json:"portions"`
	SellingPrice decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"selling_price"`
	Ingredients  []*RecipeIngredient `gorm:"foreignKey:RecipeId" json:"ingredients,omitempty"`
	IsActive     *bool               `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type RecipeIngredient struct {
	ID             int             `gorm:"primary_key" json:"id"`
	RecipeId       int             `gorm:"index;not null" json:"recipe_id"`
	ProductId      int             `gorm:"index;not null" json:"product_id"`
	Product        *Product        `json:"product,omitempty"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	UnitOfRecipeId *int            `gorm:"index" json:"unit_of_recipe_id"`
	UnitOfRecipe   *UnitOfMeasure  `gorm:"foreignKey:UnitOfRecipeId" json:"unit_of_recipe,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// FindOrCreateRecipe matches by dish name case-insensitively. Portions and
// selling price are refreshed on re-ingest since exports carry the latest.
func FindOrCreateRecipe(ctx context.Context, tx *gorm.DB, dishName string, portions decimal.Decimal, sellingPrice decimal.Decimal) (*Recipe, error) {
	dishName = strings.TrimSpace(dishName)
	if dishName == "" {
		return nil, gorm.ErrRecordNotFound
	}
	if portions.LessThanOrEqual(decimal.Zero) {
		portions = decimal.NewFromInt(1)
	}

	var recipe Recipe
	err := tx.WithContext(ctx).
		Where("LOWER(dish_name) = ?", strings.ToLower(dishName)).
		Take(&recipe).Error
	if err == nil {
		if err := tx.WithContext(ctx).Model(&recipe).Updates(map[string]interface{}{
			"portions":      portions,
			"selling_price": sellingPrice,
		}).Error; err != nil {
			return nil, err
		}
		return &recipe, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	recipe = Recipe{DishName: dishName, Portions: portions, SellingPrice: sellingPrice}
	if err := tx.WithContext(ctx).Create(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// UpsertRecipeIngredient keys on (recipe, product) so quantities are
// replaced rather than duplicated.
func UpsertRecipeIngredient(ctx context.Context, tx *gorm.DB, recipeId int, productId int, quantity decimal.Decimal, unitOfRecipeId *int) (*RecipeIngredient, error) {
	var ingredient RecipeIngredient
	err := tx.WithContext(ctx).
		Where("recipe_id = ? AND product_id = ?", recipeId, productId).
		Take(&ingredient).Error
	if err == nil {
		updates := map[string]interface{}{"quantity": quantity}
		if unitOfRecipeId != nil {
			updates["unit_of_recipe_id"] = *unitOfRecipeId
		}
		if err := tx.WithContext(ctx).Model(&ingredient).Updates(updates).Error; err != nil {
			return nil, err
		}
		return &ingredient, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	ingredient = RecipeIngredient{
		RecipeId:       recipeId,
		ProductId:      productId,
		Quantity:       quantity,
		UnitOfRecipeId: unitOfRecipeId,
	}
	if err := tx.WithContext(ctx).Create(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}
