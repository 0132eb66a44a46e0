// merge-products repoints every reference of one or more duplicate
// products onto a canonical product and deactivates the duplicates.
// Purchases, sales, consolidated rows, recipe ingredients, cost history,
// conversion rules and standard kitchen units all follow the canonical id.
//
// Usage (from backend directory):
//   go run ./cmd/merge-products -into <canonical-id> -from <dup-id>[,<dup-id>...]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/resto_backend/config"
	"bitbucket.org/mmdatafocus/resto_backend/models"
	"bitbucket.org/mmdatafocus/resto_backend/utils"
)

func main() {
	intoFlag := flag.Int("into", 0, "canonical product id")
	fromFlag := flag.String("from", "", "comma-separated duplicate product ids")
	flag.Parse()

	if *intoFlag <= 0 || strings.TrimSpace(*fromFlag) == "" {
		fmt.Fprintln(os.Stderr, "both -into <id> and -from <id,...> are required")
		os.Exit(2)
	}

	var duplicateIds []int
	for _, part := range strings.Split(*fromFlag, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id <= 0 {
			fmt.Fprintf(os.Stderr, "invalid product id %q\n", part)
			os.Exit(2)
		}
		if id == *intoFlag {
			fmt.Fprintln(os.Stderr, "a product cannot be merged into itself")
			os.Exit(2)
		}
		duplicateIds = append(duplicateIds, id)
	}
	duplicateIds = utils.UniqueSlice(duplicateIds)

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var canonical models.Product
	if err := db.WithContext(ctx).Where("id = ?", *intoFlag).Take(&canonical).Error; err != nil {
		fmt.Fprintf(os.Stderr, "canonical product %d not found: %v\n", *intoFlag, err)
		os.Exit(1)
	}

	if err := models.MergeProducts(ctx, db, canonical.ID, duplicateIds); err != nil {
		fmt.Fprintf(os.Stderr, "merge failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Merged %d product(s) into %q (id=%d)\n", len(duplicateIds), canonical.Name, canonical.ID)
}
