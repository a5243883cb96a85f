package domain

import (
	"time"
)

// UploadStatus tracks an upload through processing
type UploadStatus string

const (
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusFailed     UploadStatus = "failed"
)

// IsTerminal returns true if the upload will not change status again
func (s UploadStatus) IsTerminal() bool {
	return s == UploadStatusCompleted || s == UploadStatusFailed
}

// Upload records one spreadsheet submitted by an owner
type Upload struct {
	ID         string       `json:"id" db:"id" validate:"required,uuid"`
	OwnerID    string       `json:"owner_id" db:"owner_id" validate:"required,uuid"`
	Filename   string       `json:"filename" db:"filename" validate:"required"`
	Status     UploadStatus `json:"status" db:"status" validate:"required,oneof=processing completed failed"`
	UploadedAt time.Time    `json:"upload_date" db:"upload_date"`
}

// ValidationInfo is the diagnostic summary attached to a successful upload
type ValidationInfo struct {
	MaxDaysDetected int      `json:"max_days_detected"`
	TotalRows       int      `json:"total_rows"`
	RowsSkipped     int      `json:"rows_skipped"`
	Warnings        []string `json:"warnings"`
}

// UploadResult is returned once an upload has been stored
type UploadResult struct {
	Message           string         `json:"message"`
	UploadID          string         `json:"upload_id"`
	ProductsProcessed int            `json:"products_processed"`
	Status            UploadStatus   `json:"status"`
	ValidationInfo    ValidationInfo `json:"validation_info"`
}
