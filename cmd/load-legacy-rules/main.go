// load-legacy-rules seeds the conversion rules, standard kitchen units and
// verified consolidation rules carried over from the original cleanup
// scripts. Safe to re-run: every write is an upsert.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/load-legacy-rules
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/resto_backend/config"
	"bitbucket.org/mmdatafocus/resto_backend/models"
	"bitbucket.org/mmdatafocus/resto_backend/services"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	models.MigrateTable()

	if err := services.SeedLegacyRules(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed legacy rules: %v\n", err)
		os.Exit(1)
	}

	var conversions, kitchenUnits, consolidations int64
	db.Model(&models.UnitConversion{}).Count(&conversions)
	db.Model(&models.StandardKitchenUnit{}).Count(&kitchenUnits)
	db.Model(&models.ProductConsolidation{}).Count(&consolidations)
	fmt.Printf("Seeded legacy rules: %d conversions, %d standard kitchen units, %d consolidation rules\n",
		conversions, kitchenUnits, consolidations)
}
