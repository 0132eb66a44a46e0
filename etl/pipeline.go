package etl

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/resto_backend/config"
	"bitbucket.org/mmdatafocus/resto_backend/models"
	"bitbucket.org/mmdatafocus/resto_backend/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const pipelineLockTTL = 10 * time.Minute

// Pipeline runs one upload through extract -> transform -> load and keeps
// the upload's status honest: an upload entering processing always ends in
// completed or failed, even on panic.
type Pipeline struct {
	db          *gorm.DB
	transformer *Transformer
	loader      *Loader
}

func NewPipeline(db *gorm.DB, loader *Loader) *Pipeline {
	return &Pipeline{
		db:          db,
		transformer: NewTransformer(),
		loader:      loader,
	}
}

func (p *Pipeline) Run(ctx context.Context, uploadId uuid.UUID) (err error) {
	logger := config.GetLogger()

	release, lockErr := utils.PipelineLock(ctx, uploadId.String(), pipelineLockTTL, "etl", "Run")
	if lockErr != nil {
		return lockErr
	}
	defer release()

	upload, err := models.GetDataUpload(ctx, p.db, uploadId)
	if err != nil {
		return err
	}
	if err = upload.MarkProcessing(ctx, p.db); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			config.LogError(logger, "etl", "Run", "panic during upload processing", uploadId, fmt.Errorf("%v", r))
			err = fmt.Errorf("upload processing panicked: %v", r)
		}
		if err != nil {
			if markErr := upload.MarkFailed(ctx, p.db, err.Error()); markErr != nil {
				config.LogError(logger, "etl", "Run", "could not mark upload failed", uploadId, markErr)
			}
		}
	}()

	return p.run(ctx, logger, upload)
}

func (p *Pipeline) run(ctx context.Context, logger *logrus.Logger, upload *models.DataUpload) (err error) {
	var rowErrors []RowError
	recorded := false
	// failed stages still persist every diagnostic collected so far
	defer func() {
		if err == nil || recorded {
			return
		}
		if recErr := p.recordDiagnostics(ctx, upload, rowErrors); recErr != nil {
			config.LogError(logger, "etl", "run", "could not persist diagnostics", upload.ID, recErr)
		}
	}()

	tables, extractErrors, err := Extract(upload.StoredPath)
	if err != nil {
		return err
	}
	rowErrors = extractErrors

	totalRows := 0
	for _, table := range tables {
		totalRows += len(table.Rows)
	}
	upload.TotalRows = totalRows
	upload.AppendStageLog("extract",
		fmt.Sprintf("%d sheet(s) recognized", len(tables)),
		totalRows, countHardErrors(extractErrors))

	// an empty extraction is stage-fatal, not a zero-row success
	if len(tables) == 0 {
		rowErrors = append(rowErrors, RowError{
			Type:    models.ProcessingErrorTypeExtraction,
			Message: "no recognizable sheets in workbook",
		})
		return fmt.Errorf("extraction found no recognizable sheets")
	}

	result := p.transformer.Transform(tables)
	rowErrors = append(rowErrors, result.RowErrors...)
	transformedRows := len(result.Products) + len(result.Purchases) + len(result.Sales) + len(result.Recipes)
	upload.AppendStageLog("transform",
		fmt.Sprintf("%d products, %d purchases, %d sales, %d recipe rows",
			len(result.Products), len(result.Purchases), len(result.Sales), len(result.Recipes)),
		transformedRows, countHardErrors(result.RowErrors))

	if transformedRows == 0 {
		return fmt.Errorf("transformation produced no loadable rows")
	}

	loadResult, err := p.loader.Load(ctx, upload.ID, result)
	if err != nil {
		return err
	}
	rowErrors = append(rowErrors, loadResult.RowErrors...)
	upload.AppendStageLog("load",
		fmt.Sprintf("%d rows loaded, %d cost history rows", loadResult.Total(), loadResult.CostHistoryRows),
		loadResult.Total(), countHardErrors(loadResult.RowErrors))

	if err := p.recordDiagnostics(ctx, upload, rowErrors); err != nil {
		return err
	}
	recorded = true

	upload.ProcessedRows = loadResult.Total()
	if err := upload.MarkCompleted(ctx, p.db); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"upload_id":      upload.ID,
		"total_rows":     upload.TotalRows,
		"processed_rows": upload.ProcessedRows,
		"error_rows":     upload.ErrorRows,
	}).Info("upload processed")
	return nil
}

// recordDiagnostics persists the hard row errors and keeps the upload's
// error counter in sync. Runs on success and failure paths alike.
func (p *Pipeline) recordDiagnostics(ctx context.Context, upload *models.DataUpload, rowErrors []RowError) error {
	records := ToProcessingErrors(rowErrors)
	for _, record := range records {
		record.UploadId = upload.ID
	}
	upload.ErrorRows = len(records)
	return models.RecordProcessingErrors(ctx, p.db, records)
}

func countHardErrors(rowErrors []RowError) int {
	count := 0
	for _, re := range rowErrors {
		if !re.Warning {
			count++
		}
	}
	return count
}
