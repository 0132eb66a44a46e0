package models

import (
	"log"

	"bitbucket.org/mmdatafocus/resto_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&PurchaseCategory{}, &SalesCategory{}, &UnitOfMeasure{},
		&Product{}, &ProductConsolidation{},
		&UnitConversion{}, &StandardKitchenUnit{},
		&Purchase{}, &Sale{},
		&ConsolidatedPurchase{}, &ConsolidatedSale{},
		&Recipe{}, &RecipeIngredient{},
		&ProductCostHistory{},
		&DataUpload{}, &ProcessingError{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
