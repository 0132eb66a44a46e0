// regenerate-cost-history recomputes the cost history rows of one upload
// (or every completed upload with -all) after conversion or consolidation
// rules changed.
//
// Usage (from backend directory):
//   go run ./cmd/regenerate-cost-history -upload <uuid>
//   go run ./cmd/regenerate-cost-history -all
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/resto_backend/config"
	"bitbucket.org/mmdatafocus/resto_backend/models"
	"bitbucket.org/mmdatafocus/resto_backend/services"
	"github.com/google/uuid"
)

func main() {
	uploadFlag := flag.String("upload", "", "upload id to regenerate")
	allFlag := flag.Bool("all", false, "regenerate every completed upload")
	flag.Parse()

	if *uploadFlag == "" && !*allFlag {
		fmt.Fprintln(os.Stderr, "either -upload <uuid> or -all is required")
		os.Exit(2)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	conversions := services.NewUnitConversionResolver(db, nil)
	calculator := services.NewCostHistoryCalculator(db, conversions)

	var uploadIds []uuid.UUID
	if *allFlag {
		var uploads []*models.DataUpload
		if err := db.WithContext(ctx).
			Where("status = ?", models.UploadStatusCompleted).
			Find(&uploads).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to list uploads: %v\n", err)
			os.Exit(1)
		}
		for _, upload := range uploads {
			uploadIds = append(uploadIds, upload.ID)
		}
	} else {
		id, err := uuid.Parse(*uploadFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid upload id %q: %v\n", *uploadFlag, err)
			os.Exit(2)
		}
		uploadIds = append(uploadIds, id)
	}

	total := 0
	for _, id := range uploadIds {
		created, err := calculator.Regenerate(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to regenerate upload %s: %v\n", id, err)
			os.Exit(1)
		}
		fmt.Printf("upload %s: %d cost history rows\n", id, created)
		total += created
	}
	fmt.Printf("Regenerated %d cost history rows across %d upload(s)\n", total, len(uploadIds))
}
