package http

import (
	"context"
	"io"

	"github.com/google/uuid"

	"invpulse/internal/dataprocessing"
	"invpulse/internal/services"
	"invpulse/pkg/contracts/domain"
)

// UploadServiceInterface defines the upload operations used by UploadHandler
type UploadServiceInterface interface {
	Upload(ctx context.Context, req services.UploadRequest) (*domain.UploadResult, error)
	IngestSheet(ctx context.Context, ownerID uuid.UUID, name string, sheet *dataprocessing.Sheet) (*domain.UploadResult, error)
	Validate(ctx context.Context, filename string, size int64, body io.Reader) (*domain.ValidationReport, error)
	ListProducts(ctx context.Context, ownerID uuid.UUID) ([]domain.StoredProduct, error)
	ListUploads(ctx context.Context, ownerID uuid.UUID) ([]domain.Upload, error)
}

var _ UploadServiceInterface = (*services.UploadService)(nil)
