package services

import (
	"errors"
	"fmt"

	"invpulse/pkg/contracts/domain"
)

// Upload service errors
var (
	// Gate errors, raised before the file is decoded
	ErrUnsupportedFile = errors.New("unsupported file")
	ErrFileTooLarge    = errors.New("file too large")

	// Raised after a valid report when no row carried a product ID
	ErrNoProcessableData = errors.New("file contains no processable product data")

	ErrInvalidOwner = errors.New("invalid owner id")
)

// ValidationError carries the report of a sheet that failed format validation
type ValidationError struct {
	UploadID string
	Report   domain.ValidationReport
}

func (e *ValidationError) Error() string {
	if len(e.Report.Errors) == 0 {
		return "spreadsheet format validation failed"
	}
	return fmt.Sprintf("spreadsheet format validation failed: %s", e.Report.Errors[0])
}
