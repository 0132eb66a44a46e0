package models

import "errors"

type UploadStatus string

const (
	UploadStatusPending    UploadStatus = "pending"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusFailed     UploadStatus = "failed"
)

func (s UploadStatus) Valid() bool {
	switch s {
	case UploadStatusPending, UploadStatusProcessing, UploadStatusCompleted, UploadStatusFailed:
		return true
	}
	return false
}

// CostConfidence buckets a cost row by how complete its inputs were.
type CostConfidence string

const (
	CostConfidenceHigh    CostConfidence = "HIGH"
	CostConfidenceMedium  CostConfidence = "MEDIUM"
	CostConfidenceLow     CostConfidence = "LOW"
	CostConfidenceVeryLow CostConfidence = "VERY_LOW"
)

// ConfidenceFromScore maps a 0-100 completeness score to a bucket.
func ConfidenceFromScore(score int) CostConfidence {
	switch {
	case score >= 90:
		return CostConfidenceHigh
	case score >= 70:
		return CostConfidenceMedium
	case score >= 50:
		return CostConfidenceLow
	default:
		return CostConfidenceVeryLow
	}
}

// ConversionScope orders conversion rules from most to least specific.
type ConversionScope string

const (
	ConversionScopeProduct  ConversionScope = "product"
	ConversionScopeCategory ConversionScope = "category"
	ConversionScopeGeneral  ConversionScope = "general"
)

func (s *ConversionScope) UnmarshalText(b []byte) error {
	switch string(b) {
	case "product":
		*s = ConversionScopeProduct
	case "category":
		*s = ConversionScopeCategory
	case "general":
		*s = ConversionScopeGeneral
	default:
		return errors.New("invalid conversion scope")
	}
	return nil
}

type ProcessingErrorType string

const (
	ProcessingErrorTypeExtraction     ProcessingErrorType = "extraction"
	ProcessingErrorTypeTransformation ProcessingErrorType = "transformation"
	ProcessingErrorTypeValidation     ProcessingErrorType = "validation"
	ProcessingErrorTypeLoading        ProcessingErrorType = "loading"
)
