// Package services implements the business logic layer of InvPulse.
// Handlers, the watch-folder ingester and the CLI all go through it, so
// the upload lifecycle is defined in one place.
//
// # Upload lifecycle
//
// UploadService.Upload runs a fixed sequence:
//
//	1. Gate the file name, extension and size
//	2. Decode the spreadsheet (no record is created if this fails)
//	3. Create an upload record with status "processing"
//	4. Validate the sheet structure; failures return *ValidationError
//	5. Extract normalized product records
//	6. Reject sheets where no row had a product ID (ErrNoProcessableData)
//	7. Replace the owner's products in the store
//	8. Mark the upload "completed"
//
// Every status transition is published to the configured StatusPublisher
// and counted on the business metrics.
//
// # Errors
//
// Gate failures wrap ErrUnsupportedFile or ErrFileTooLarge. Decode failures
// wrap dataprocessing.ErrInvalidSpreadsheet. Storage failures are
// *errors.AppError values of type STORAGE. Transport layers map these with
// errors.Is and errors.As.
package services
