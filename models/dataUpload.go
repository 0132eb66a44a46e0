package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/resto_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DataUpload tracks one spreadsheet through the ingestion state machine:
// pending -> processing -> completed | failed.
type DataUpload struct {
	ID               uuid.UUID    `gorm:"type:char(36);primary_key" json:"id"`
	OriginalFilename string       `gorm:"size:255;not null" json:"original_filename"`
	StoredPath       string       `gorm:"size:512;not null" json:"stored_path"`
	Status           UploadStatus `gorm:"type:enum('pending','processing','completed','failed');default:'pending';index" json:"status"`
	StartedAt        *time.Time   `json:"started_at"`
	FinishedAt       *time.Time   `json:"finished_at"`
	TotalRows        int          `gorm:"not null;default:0" json:"total_rows"`
	ProcessedRows    int          `gorm:"not null;default:0" json:"processed_rows"`
	ErrorRows        int          `gorm:"not null;default:0" json:"error_rows"`
	ProcessingLog    []StageLog   `gorm:"serializer:json" json:"processing_log"`
	FailureReason    string       `gorm:"size:1024" json:"failure_reason"`
	CreatedAt        time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// StageLog is one pipeline stage summary in the upload's processing log.
type StageLog struct {
	Stage      string    `json:"stage"`
	Message    string    `json:"message"`
	RowCount   int       `json:"row_count"`
	ErrorCount int       `json:"error_count"`
	LoggedAt   time.Time `json:"logged_at"`
}

// ProcessingError records one failed row so operators can trace it back to
// the source spreadsheet.
type ProcessingError struct {
	ID           int                 `gorm:"primary_key" json:"id"`
	UploadId     uuid.UUID           `gorm:"type:char(36);index;not null" json:"upload_id"`
	Sheet        string              `gorm:"size:100" json:"sheet"`
	RowNumber    int                 `gorm:"not null;default:0" json:"row_number"`
	ColumnName   string              `gorm:"size:100" json:"column_name"`
	ErrorType    ProcessingErrorType `gorm:"size:30;index" json:"error_type"`
	ErrorMessage string              `gorm:"size:1024" json:"error_message"`
	CreatedAt    time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

func (u *DataUpload) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func CreateDataUpload(ctx context.Context, db *gorm.DB, originalFilename string, storedPath string) (*DataUpload, error) {
	upload := DataUpload{
		OriginalFilename: originalFilename,
		StoredPath:       storedPath,
		Status:           UploadStatusPending,
	}
	if err := db.WithContext(ctx).Create(&upload).Error; err != nil {
		return nil, err
	}
	return &upload, nil
}

func GetDataUpload(ctx context.Context, db *gorm.DB, id uuid.UUID) (*DataUpload, error) {
	var upload DataUpload
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&upload).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &upload, nil
}

// legal transitions of the upload state machine
var uploadTransitions = map[UploadStatus][]UploadStatus{
	UploadStatusPending:    {UploadStatusProcessing},
	UploadStatusProcessing: {UploadStatusCompleted, UploadStatusFailed},
}

func (u *DataUpload) canTransition(to UploadStatus) bool {
	for _, allowed := range uploadTransitions[u.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}

// MarkProcessing transitions pending -> processing and stamps StartedAt.
func (u *DataUpload) MarkProcessing(ctx context.Context, db *gorm.DB) error {
	if !u.canTransition(UploadStatusProcessing) {
		return fmt.Errorf("%w: %s -> processing", utils.ErrorInvalidUploadTransition, u.Status)
	}
	now := time.Now().UTC()
	u.Status = UploadStatusProcessing
	u.StartedAt = &now
	return db.WithContext(ctx).Model(u).Updates(map[string]interface{}{
		"status":     u.Status,
		"started_at": u.StartedAt,
	}).Error
}

// MarkCompleted transitions processing -> completed with final counters.
func (u *DataUpload) MarkCompleted(ctx context.Context, db *gorm.DB) error {
	if !u.canTransition(UploadStatusCompleted) {
		return fmt.Errorf("%w: %s -> completed", utils.ErrorInvalidUploadTransition, u.Status)
	}
	now := time.Now().UTC()
	u.Status = UploadStatusCompleted
	u.FinishedAt = &now
	return db.WithContext(ctx).Model(u).Updates(map[string]interface{}{
		"status":         u.Status,
		"finished_at":    u.FinishedAt,
		"total_rows":     u.TotalRows,
		"processed_rows": u.ProcessedRows,
		"error_rows":     u.ErrorRows,
		"processing_log": u.ProcessingLog,
	}).Error
}

// MarkFailed transitions processing -> failed and records the reason.
// An upload must never remain stuck in processing, so the pipeline calls
// this from its deferred guard on any error or panic.
func (u *DataUpload) MarkFailed(ctx context.Context, db *gorm.DB, reason string) error {
	if !u.canTransition(UploadStatusFailed) {
		return fmt.Errorf("%w: %s -> failed", utils.ErrorInvalidUploadTransition, u.Status)
	}
	now := time.Now().UTC()
	u.Status = UploadStatusFailed
	u.FinishedAt = &now
	u.FailureReason = reason
	return db.WithContext(ctx).Model(u).Updates(map[string]interface{}{
		"status":         u.Status,
		"finished_at":    u.FinishedAt,
		"failure_reason": reason,
		"total_rows":     u.TotalRows,
		"processed_rows": u.ProcessedRows,
		"error_rows":     u.ErrorRows,
		"processing_log": u.ProcessingLog,
	}).Error
}

// AppendStageLog adds a stage summary to the in-memory log; the log is
// persisted by the next Mark* call.
func (u *DataUpload) AppendStageLog(stage string, message string, rowCount int, errorCount int) {
	u.ProcessingLog = append(u.ProcessingLog, StageLog{
		Stage:      stage,
		Message:    message,
		RowCount:   rowCount,
		ErrorCount: errorCount,
		LoggedAt:   time.Now().UTC(),
	})
}

func RecordProcessingErrors(ctx context.Context, db *gorm.DB, errors []*ProcessingError) error {
	if len(errors) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(errors, 200).Error
}

func GetProcessingErrors(ctx context.Context, db *gorm.DB, uploadId uuid.UUID) ([]*ProcessingError, error) {
	var errs []*ProcessingError
	err := db.WithContext(ctx).
		Where("upload_id = ?", uploadId).
		Order("sheet, row_number").
		Find(&errs).Error
	if err != nil {
		return nil, err
	}
	return errs, nil
}
